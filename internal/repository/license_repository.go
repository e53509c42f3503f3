package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/policy-admin/internal/domain"
)

// LicenseRepository persists per-agent licenses.
type LicenseRepository interface {
	Create(ctx context.Context, license *domain.License) error
	GetByID(ctx context.Context, id string) (*domain.License, error)
	ListByAgent(ctx context.Context, agentID string) ([]domain.License, error)
	Update(ctx context.Context, license *domain.License) error
	Delete(ctx context.Context, id string) error
}

type licenseRepository struct {
	pool *pgxpool.Pool
}

// NewLicenseRepository instantiates repository.
func NewLicenseRepository(pool *pgxpool.Pool) LicenseRepository {
	return &licenseRepository{pool: pool}
}

const licenseColumns = `id, agent_id, state, license_number, status, expires_at, document_url, created_at, updated_at`

func (r *licenseRepository) Create(ctx context.Context, license *domain.License) error {
	const query = `
        INSERT INTO licenses (agent_id, state, license_number, status, expires_at, document_url)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		license.AgentID,
		license.State,
		license.LicenseNumber,
		license.Status,
		license.ExpiresAt,
		license.DocumentURL,
	).Scan(&license.ID, &license.CreatedAt, &license.UpdatedAt)
}

func (r *licenseRepository) GetByID(ctx context.Context, id string) (*domain.License, error) {
	var license domain.License
	if err := r.pool.QueryRow(ctx, `SELECT `+licenseColumns+` FROM licenses WHERE id=$1`, id).Scan(
		&license.ID,
		&license.AgentID,
		&license.State,
		&license.LicenseNumber,
		&license.Status,
		&license.ExpiresAt,
		&license.DocumentURL,
		&license.CreatedAt,
		&license.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &license, nil
}

func (r *licenseRepository) ListByAgent(ctx context.Context, agentID string) ([]domain.License, error) {
	const query = `SELECT ` + licenseColumns + ` FROM licenses WHERE agent_id=$1 ORDER BY state, created_at`
	rows, err := r.pool.Query(ctx, query, agentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.License
	for rows.Next() {
		var license domain.License
		if err := rows.Scan(
			&license.ID,
			&license.AgentID,
			&license.State,
			&license.LicenseNumber,
			&license.Status,
			&license.ExpiresAt,
			&license.DocumentURL,
			&license.CreatedAt,
			&license.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, license)
	}
	return result, rows.Err()
}

func (r *licenseRepository) Update(ctx context.Context, license *domain.License) error {
	const query = `
        UPDATE licenses SET state=$1, license_number=$2, status=$3, expires_at=$4, document_url=$5, updated_at=NOW()
        WHERE id=$6`
	cmd, err := r.pool.Exec(ctx, query,
		license.State,
		license.LicenseNumber,
		license.Status,
		license.ExpiresAt,
		license.DocumentURL,
		license.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *licenseRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM licenses WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
