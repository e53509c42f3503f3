package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/policy-admin/internal/domain"
)

// ActivityLogRepository appends immutable audit entries. Status transitions
// write their entry inside the application repository transaction; this
// repository serves the remaining admin actions and reads.
type ActivityLogRepository interface {
	Create(ctx context.Context, entry *domain.ActivityLog) error
	ListByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]domain.ActivityLog, error)
}

type activityLogRepository struct {
	pool *pgxpool.Pool
}

// NewActivityLogRepository instantiates repository.
func NewActivityLogRepository(pool *pgxpool.Pool) ActivityLogRepository {
	return &activityLogRepository{pool: pool}
}

func (r *activityLogRepository) Create(ctx context.Context, entry *domain.ActivityLog) error {
	const query = `
        INSERT INTO admin_activity_logs (actor_id, entity_type, entity_id, action, old_value, new_value, reason)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.ActorID,
		entry.EntityType,
		entry.EntityID,
		entry.Action,
		entry.OldValue,
		entry.NewValue,
		entry.Reason,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *activityLogRepository) ListByEntity(ctx context.Context, entityType, entityID string, limit, offset int) ([]domain.ActivityLog, error) {
	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	const query = `
        SELECT id, actor_id, entity_type, entity_id, action, old_value, new_value, reason, created_at
        FROM admin_activity_logs
        WHERE entity_type=$1 AND entity_id=$2
        ORDER BY created_at DESC LIMIT $3 OFFSET $4`
	rows, err := r.pool.Query(ctx, query, entityType, entityID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.ActivityLog
	for rows.Next() {
		var entry domain.ActivityLog
		if err := rows.Scan(
			&entry.ID,
			&entry.ActorID,
			&entry.EntityType,
			&entry.EntityID,
			&entry.Action,
			&entry.OldValue,
			&entry.NewValue,
			&entry.Reason,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}
