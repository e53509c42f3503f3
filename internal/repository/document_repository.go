package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/policy-admin/internal/domain"
)

// DocumentRequestFilter captures listing parameters.
type DocumentRequestFilter struct {
	ClientID *string
	Status   *domain.DocumentRequestStatus
	Limit    int
	Offset   int
}

// DocumentRepository persists document requests and uploaded documents.
type DocumentRepository interface {
	CreateRequest(ctx context.Context, req *domain.DocumentRequest) error
	GetRequestByID(ctx context.Context, id string) (*domain.DocumentRequest, error)
	ListRequests(ctx context.Context, filter DocumentRequestFilter) ([]domain.DocumentRequest, error)
	FulfillRequest(ctx context.Context, requestID, documentID string) error
	CreateDocument(ctx context.Context, doc *domain.Document) error
	GetDocumentByID(ctx context.Context, id string) (*domain.Document, error)
}

type documentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository instantiates repository.
func NewDocumentRepository(pool *pgxpool.Pool) DocumentRepository {
	return &documentRepository{pool: pool}
}

const requestColumns = `id, client_id, requested_by, document_type, status, document_id, notes, created_at, updated_at`

func (r *documentRepository) CreateRequest(ctx context.Context, req *domain.DocumentRequest) error {
	const query = `
        INSERT INTO document_requests (client_id, requested_by, document_type, status, notes)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		req.ClientID,
		req.RequestedBy,
		req.DocumentType,
		req.Status,
		req.Notes,
	).Scan(&req.ID, &req.CreatedAt, &req.UpdatedAt)
}

func (r *documentRepository) GetRequestByID(ctx context.Context, id string) (*domain.DocumentRequest, error) {
	var req domain.DocumentRequest
	if err := r.pool.QueryRow(ctx, `SELECT `+requestColumns+` FROM document_requests WHERE id=$1`, id).Scan(
		&req.ID,
		&req.ClientID,
		&req.RequestedBy,
		&req.DocumentType,
		&req.Status,
		&req.DocumentID,
		&req.Notes,
		&req.CreatedAt,
		&req.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *documentRepository) ListRequests(ctx context.Context, filter DocumentRequestFilter) ([]domain.DocumentRequest, error) {
	base := `SELECT ` + requestColumns + ` FROM document_requests`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ClientID != nil {
		args = append(args, *filter.ClientID)
		clauses = append(clauses, fmt.Sprintf("client_id=$%d", len(args)))
	}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		clauses = append(clauses, fmt.Sprintf("status=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.DocumentRequest
	for rows.Next() {
		var req domain.DocumentRequest
		if err := rows.Scan(
			&req.ID,
			&req.ClientID,
			&req.RequestedBy,
			&req.DocumentType,
			&req.Status,
			&req.DocumentID,
			&req.Notes,
			&req.CreatedAt,
			&req.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, req)
	}
	return result, rows.Err()
}

func (r *documentRepository) FulfillRequest(ctx context.Context, requestID, documentID string) error {
	const query = `
        UPDATE document_requests
        SET status=$1, document_id=$2, updated_at=NOW()
        WHERE id=$3 AND status=$4`
	cmd, err := r.pool.Exec(ctx, query,
		domain.DocumentRequestFulfilled,
		documentID,
		requestID,
		domain.DocumentRequestPending,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *documentRepository) CreateDocument(ctx context.Context, doc *domain.Document) error {
	const query = `
        INSERT INTO documents (client_id, file_name, storage_key, mime_type, size_bytes, uploaded_by)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		doc.ClientID,
		doc.FileName,
		doc.StorageKey,
		doc.MimeType,
		doc.SizeBytes,
		doc.UploadedBy,
	).Scan(&doc.ID, &doc.CreatedAt)
}

func (r *documentRepository) GetDocumentByID(ctx context.Context, id string) (*domain.Document, error) {
	const query = `SELECT id, client_id, file_name, storage_key, mime_type, size_bytes, uploaded_by, created_at FROM documents WHERE id=$1`
	var doc domain.Document
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&doc.ID,
		&doc.ClientID,
		&doc.FileName,
		&doc.StorageKey,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.UploadedBy,
		&doc.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &doc, nil
}
