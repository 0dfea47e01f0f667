package repo

import (
	"context"
	"fmt"

	"bulkgen/internal/domain"
	"bulkgen/internal/infra"
	"bulkgen/internal/sqlinline"
)

// BulkRepositoryPG implements domain.BulkRepository.
type BulkRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewBulkRepository creates a bulk request repository backed by PostgreSQL.
func NewBulkRepository(sql infra.SQLExecutor) *BulkRepositoryPG {
	return &BulkRepositoryPG{sql: sql}
}

// CreateWithJobs inserts the request and its jobs in a single statement, so
// either every row exists or none does.
func (r *BulkRepositoryPG) CreateWithJobs(ctx context.Context, title string, provider domain.Provider, prompts []string) (*domain.BulkRequest, []domain.PromptJob, error) {
	if len(prompts) == 0 {
		return nil, nil, &domain.ValidationError{Field: "prompts", Reason: "at least one prompt is required"}
	}
	rows, err := r.sql.Query(ctx, sqlinline.QInsertBulkWithJobs, title, string(provider), prompts)
	if err != nil {
		return nil, nil, fmt.Errorf("insert bulk request: %w", err)
	}
	defer rows.Close()

	var (
		bulk *domain.BulkRequest
		jobs = make([]domain.PromptJob, 0, len(prompts))
	)
	for rows.Next() {
		var (
			b   domain.BulkRequest
			job domain.PromptJob
		)
		if err := rows.Scan(
			&b.ID, &b.Title, &b.Status, &b.Provider, &b.CreatedAt, &b.UpdatedAt,
			&job.ID, &job.PromptText, &job.Status, &job.CreatedAt, &job.UpdatedAt,
		); err != nil {
			return nil, nil, err
		}
		if bulk == nil {
			bulk = &b
		}
		job.BulkRequestID = b.ID
		job.Provider = b.Provider
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, err
	}
	if bulk == nil {
		return nil, nil, fmt.Errorf("insert bulk request: no rows returned")
	}
	return bulk, jobs, nil
}

// GetByID fetches a bulk request by its identifier.
func (r *BulkRepositoryPG) GetByID(ctx context.Context, id int64) (*domain.BulkRequest, error) {
	row := r.sql.QueryRow(ctx, sqlinline.QSelectBulkByID, id)
	var b domain.BulkRequest
	if err := row.Scan(&b.ID, &b.Title, &b.Status, &b.Provider, &b.CreatedAt, &b.UpdatedAt); err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// List returns every request newest first with its job counts.
func (r *BulkRepositoryPG) List(ctx context.Context) ([]domain.BulkSummary, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListBulkSummaries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.BulkSummary
	for rows.Next() {
		var s domain.BulkSummary
		if err := rows.Scan(
			&s.ID, &s.Title, &s.Status, &s.Provider, &s.CreatedAt, &s.UpdatedAt,
			&s.Counts.Total, &s.Counts.Completed, &s.Counts.Failed, &s.Counts.Processing, &s.Counts.Pending,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *BulkRepositoryPG) SetStatus(ctx context.Context, id int64, status domain.BulkStatus) error {
	tag, err := r.sql.Exec(ctx, sqlinline.QUpdateBulkStatus, id, string(status))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *BulkRepositoryPG) CompleteIfSettled(ctx context.Context, id int64) (bool, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QCompleteBulkIfSettled, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Delete removes the requests; their jobs go with them through the cascade.
func (r *BulkRepositoryPG) Delete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := r.sql.Exec(ctx, sqlinline.QDeleteBulkRequests, ids)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ domain.BulkRepository = (*BulkRepositoryPG)(nil)
