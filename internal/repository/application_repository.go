package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/policy-admin/internal/domain"
)

// ApplicationFilter captures listing parameters. Scope filters are supplied
// by the service after an access decision.
type ApplicationFilter struct {
	UserID   *string
	AgentID  *string
	Statuses []domain.ApplicationStatus
	Limit    int
	Offset   int
}

// StatusUpdate describes a status transition write. OldStatus acts as a
// precondition: the update fails with ErrStatusMoved when the row no longer
// holds it, which protects concurrent transitions on the same application.
type StatusUpdate struct {
	ApplicationID string
	OldStatus     domain.ApplicationStatus
	NewStatus     domain.ApplicationStatus
	ChangedBy     string
	Reason        *string
}

// ErrStatusMoved signals that the expected current status no longer matches.
var ErrStatusMoved = fmt.Errorf("application status changed concurrently")

// ApplicationRepository encapsulates application persistence.
type ApplicationRepository interface {
	Create(ctx context.Context, app *domain.Application) error
	GetByID(ctx context.Context, id string) (*domain.Application, error)
	ListWithFilter(ctx context.Context, filter ApplicationFilter) ([]domain.Application, error)
	UpdateStatus(ctx context.Context, update StatusUpdate) error
	AddSubmissionResult(ctx context.Context, result *domain.SubmissionResult) error
}

type applicationRepository struct {
	pool *pgxpool.Pool
}

// NewApplicationRepository instantiates repository.
func NewApplicationRepository(pool *pgxpool.Pool) ApplicationRepository {
	return &applicationRepository{pool: pool}
}

const applicationColumns = `id, user_id, agent_id, carrier_name, status, status_changed_by, status_changed_at, status_change_reason, effective_date, created_at, updated_at`

func (r *applicationRepository) Create(ctx context.Context, app *domain.Application) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const insertApp = `
        INSERT INTO applications (user_id, agent_id, carrier_name, status, effective_date)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, insertApp,
		app.UserID,
		app.AgentID,
		app.CarrierName,
		app.Status,
		app.EffectiveDate,
	).Scan(&app.ID, &app.CreatedAt, &app.UpdatedAt); err != nil {
		return err
	}

	const insertApplicant = `
        INSERT INTO applicants (application_id, first_name, last_name, gender, relationship, birth_date, smoker, rate_tier, email, phone)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at`
	for i := range app.Applicants {
		a := &app.Applicants[i]
		a.ApplicationID = app.ID
		if err := tx.QueryRow(ctx, insertApplicant,
			app.ID, a.FirstName, a.LastName, a.Gender, a.Relationship,
			a.BirthDate, a.Smoker, a.RateTier, a.Email, a.Phone,
		).Scan(&a.ID, &a.CreatedAt); err != nil {
			return err
		}
	}

	const insertCoverage = `
        INSERT INTO coverages (application_id, plan_key, product_code, coverage_amount, premium)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	for i := range app.Coverages {
		cov := &app.Coverages[i]
		cov.ApplicationID = app.ID
		if err := tx.QueryRow(ctx, insertCoverage,
			app.ID, cov.PlanKey, cov.ProductCode, cov.CoverageAmount, cov.Premium,
		).Scan(&cov.ID, &cov.CreatedAt); err != nil {
			return err
		}
	}

	const insertBeneficiary = `
        INSERT INTO beneficiaries (application_id, first_name, last_name, relationship, percentage)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	for i := range app.Beneficiaries {
		b := &app.Beneficiaries[i]
		b.ApplicationID = app.ID
		if err := tx.QueryRow(ctx, insertBeneficiary,
			app.ID, b.FirstName, b.LastName, b.Relationship, b.Percentage,
		).Scan(&b.ID, &b.CreatedAt); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *applicationRepository) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	var app domain.Application
	if err := r.pool.QueryRow(ctx, `SELECT `+applicationColumns+` FROM applications WHERE id=$1`, id).Scan(
		&app.ID,
		&app.UserID,
		&app.AgentID,
		&app.CarrierName,
		&app.Status,
		&app.StatusChangedBy,
		&app.StatusChangedAt,
		&app.StatusChangeReason,
		&app.EffectiveDate,
		&app.CreatedAt,
		&app.UpdatedAt,
	); err != nil {
		return nil, err
	}

	if err := r.loadChildren(ctx, &app); err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *applicationRepository) loadChildren(ctx context.Context, app *domain.Application) error {
	rows, err := r.pool.Query(ctx, `
        SELECT id, application_id, first_name, last_name, gender, relationship, birth_date, smoker, rate_tier, email, phone, created_at
        FROM applicants WHERE application_id=$1 ORDER BY created_at`, app.ID)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var a domain.Applicant
		if err := rows.Scan(&a.ID, &a.ApplicationID, &a.FirstName, &a.LastName, &a.Gender,
			&a.Relationship, &a.BirthDate, &a.Smoker, &a.RateTier, &a.Email, &a.Phone, &a.CreatedAt); err != nil {
			return err
		}
		app.Applicants = append(app.Applicants, a)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	covRows, err := r.pool.Query(ctx, `
        SELECT id, application_id, plan_key, product_code, coverage_amount, premium, created_at
        FROM coverages WHERE application_id=$1 ORDER BY created_at`, app.ID)
	if err != nil {
		return err
	}
	defer covRows.Close()
	for covRows.Next() {
		var cov domain.Coverage
		if err := covRows.Scan(&cov.ID, &cov.ApplicationID, &cov.PlanKey, &cov.ProductCode,
			&cov.CoverageAmount, &cov.Premium, &cov.CreatedAt); err != nil {
			return err
		}
		app.Coverages = append(app.Coverages, cov)
	}
	if err := covRows.Err(); err != nil {
		return err
	}

	benRows, err := r.pool.Query(ctx, `
        SELECT id, application_id, first_name, last_name, relationship, percentage, created_at
        FROM beneficiaries WHERE application_id=$1 ORDER BY created_at`, app.ID)
	if err != nil {
		return err
	}
	defer benRows.Close()
	for benRows.Next() {
		var b domain.Beneficiary
		if err := benRows.Scan(&b.ID, &b.ApplicationID, &b.FirstName, &b.LastName,
			&b.Relationship, &b.Percentage, &b.CreatedAt); err != nil {
			return err
		}
		app.Beneficiaries = append(app.Beneficiaries, b)
	}
	if err := benRows.Err(); err != nil {
		return err
	}

	resRows, err := r.pool.Query(ctx, `
        SELECT id, application_id, policy_number, status, raw_response, submitted_at
        FROM application_submission_results WHERE application_id=$1 ORDER BY submitted_at`, app.ID)
	if err != nil {
		return err
	}
	defer resRows.Close()
	for resRows.Next() {
		var res domain.SubmissionResult
		if err := resRows.Scan(&res.ID, &res.ApplicationID, &res.PolicyNumber,
			&res.Status, &res.RawResponse, &res.SubmittedAt); err != nil {
			return err
		}
		app.SubmissionResults = append(app.SubmissionResults, res)
	}
	return resRows.Err()
}

func (r *applicationRepository) ListWithFilter(ctx context.Context, filter ApplicationFilter) ([]domain.Application, error) {
	base := `SELECT ` + applicationColumns + ` FROM applications`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.UserID != nil {
		args = append(args, *filter.UserID)
		clauses = append(clauses, fmt.Sprintf("user_id=$%d", len(args)))
	}
	if filter.AgentID != nil {
		args = append(args, *filter.AgentID)
		clauses = append(clauses, fmt.Sprintf("agent_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY updated_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Application
	for rows.Next() {
		var app domain.Application
		if err := rows.Scan(
			&app.ID,
			&app.UserID,
			&app.AgentID,
			&app.CarrierName,
			&app.Status,
			&app.StatusChangedBy,
			&app.StatusChangedAt,
			&app.StatusChangeReason,
			&app.EffectiveDate,
			&app.CreatedAt,
			&app.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, app)
	}
	return result, rows.Err()
}

// UpdateStatus writes the new status and its audit entry in one transaction,
// conditioned on the expected current status.
func (r *applicationRepository) UpdateStatus(ctx context.Context, update StatusUpdate) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	const updateQuery = `
        UPDATE applications
        SET status=$1, status_changed_by=$2, status_changed_at=NOW(), status_change_reason=$3, updated_at=NOW()
        WHERE id=$4 AND status=$5`
	cmd, err := tx.Exec(ctx, updateQuery,
		update.NewStatus,
		update.ChangedBy,
		update.Reason,
		update.ApplicationID,
		update.OldStatus,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		var exists bool
		if err := tx.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM applications WHERE id=$1)`, update.ApplicationID).Scan(&exists); err != nil {
			return err
		}
		if !exists {
			return pgx.ErrNoRows
		}
		return ErrStatusMoved
	}

	const auditQuery = `
        INSERT INTO admin_activity_logs (actor_id, entity_type, entity_id, action, old_value, new_value, reason)
        VALUES ($1,'application',$2,'status_change',$3,$4,$5)`
	oldVal := map[string]any{"status": update.OldStatus}
	newVal := map[string]any{"status": update.NewStatus}
	if _, err := tx.Exec(ctx, auditQuery,
		update.ChangedBy,
		update.ApplicationID,
		oldVal,
		newVal,
		update.Reason,
	); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *applicationRepository) AddSubmissionResult(ctx context.Context, result *domain.SubmissionResult) error {
	const query = `
        INSERT INTO application_submission_results (application_id, policy_number, status, raw_response)
        VALUES ($1,$2,$3,$4)
        RETURNING id, submitted_at`
	return r.pool.QueryRow(ctx, query,
		result.ApplicationID,
		result.PolicyNumber,
		result.Status,
		result.RawResponse,
	).Scan(&result.ID, &result.SubmittedAt)
}
