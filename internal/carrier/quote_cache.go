package carrier

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const cacheLookupTimeout = 5 * time.Second

// QuoteCache keeps freshly rated quotes in Redis for a short TTL so repeated
// re-rates ahead of submission don't hammer the carrier. Strictly best
// effort: any cache failure is a miss.
type QuoteCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewQuoteCache constructs the cache.
func NewQuoteCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *QuoteCache {
	return &QuoteCache{client: client, ttl: ttl, logger: logger}
}

func quoteKey(applicationID, planKey string) string {
	return fmt.Sprintf("ratequote:%s:%s", applicationID, planKey)
}

// Get returns cached quotes for the application, or nil on a miss.
func (c *QuoteCache) Get(ctx context.Context, applicationID, planKey string) []Quote {
	if c == nil || c.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, cacheLookupTimeout)
	defer cancel()

	raw, err := c.client.Get(ctx, quoteKey(applicationID, planKey)).Bytes()
	if err != nil {
		if err != redis.Nil && c.logger != nil {
			c.logger.Debug("quote cache lookup failed", zap.Error(err))
		}
		return nil
	}
	var quotes []Quote
	if err := json.Unmarshal(raw, &quotes); err != nil {
		return nil
	}
	return quotes
}

// Put stores quotes for the configured TTL.
func (c *QuoteCache) Put(ctx context.Context, applicationID, planKey string, quotes []Quote) {
	if c == nil || c.client == nil || len(quotes) == 0 {
		return
	}
	raw, err := json.Marshal(quotes)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, quoteKey(applicationID, planKey), raw, c.ttl).Err(); err != nil && c.logger != nil {
		c.logger.Debug("quote cache store failed", zap.Error(err))
	}
}
