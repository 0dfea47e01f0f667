package repo

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"bulkgen/internal/domain"
	"bulkgen/internal/infra"
	"bulkgen/internal/sqlinline"
)

// JobRepositoryPG implements domain.JobRepository.
type JobRepositoryPG struct {
	sql infra.SQLExecutor
}

// NewJobRepository creates a prompt job repository backed by PostgreSQL.
func NewJobRepository(sql infra.SQLExecutor) *JobRepositoryPG {
	return &JobRepositoryPG{sql: sql}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(row scanner, extra ...any) (domain.PromptJob, error) {
	var job domain.PromptJob
	dest := append(extra,
		&job.ID,
		&job.BulkRequestID,
		&job.PromptText,
		&job.Status,
		&job.Provider,
		&job.GeneratedImage,
		&job.CreatedAt,
		&job.UpdatedAt,
	)
	err := row.Scan(dest...)
	return job, err
}

// GetByID fetches a job by its identifier.
func (r *JobRepositoryPG) GetByID(ctx context.Context, id int64) (*domain.PromptJob, error) {
	job, err := scanJob(r.sql.QueryRow(ctx, sqlinline.QSelectJobByID, id))
	if err != nil {
		if infra.IsNoRows(err) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// ListByBulk returns the request's jobs in creation order, numbered from 1.
func (r *JobRepositoryPG) ListByBulk(ctx context.Context, bulkID int64) ([]domain.SequencedJob, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListJobsByBulk, bulkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.SequencedJob
	for rows.Next() {
		var seq int64
		job, err := scanJob(rows, &seq)
		if err != nil {
			return nil, err
		}
		out = append(out, domain.SequencedJob{PromptJob: job, Sequence: int(seq)})
	}
	return out, rows.Err()
}

func (r *JobRepositoryPG) ListByStatus(ctx context.Context, bulkID int64, status domain.JobStatus) ([]domain.PromptJob, error) {
	rows, err := r.sql.Query(ctx, sqlinline.QListJobsByStatus, bulkID, string(status))
	if err != nil {
		return nil, err
	}
	return collectJobs(rows)
}

func (r *JobRepositoryPG) ListStale(ctx context.Context, bulkID *int64, statuses []domain.JobStatus, cutoff time.Time) ([]domain.PromptJob, error) {
	names := make([]string, 0, len(statuses))
	for _, s := range statuses {
		names = append(names, string(s))
	}
	rows, err := r.sql.Query(ctx, sqlinline.QListStaleJobs, names, cutoff, bulkID)
	if err != nil {
		return nil, err
	}
	return collectJobs(rows)
}

func (r *JobRepositoryPG) CountByStatus(ctx context.Context, bulkID *int64) (domain.StatusCounts, error) {
	var c domain.StatusCounts
	err := r.sql.QueryRow(ctx, sqlinline.QCountJobsByStatus, bulkID).
		Scan(&c.Total, &c.Completed, &c.Failed, &c.Processing, &c.Pending)
	return c, err
}

// CompareAndSetStatus only writes when the row still holds from, which keeps
// concurrent executors and recovery sweeps from overwriting each other.
func (r *JobRepositoryPG) CompareAndSetStatus(ctx context.Context, id int64, from, to domain.JobStatus, image *string) (bool, error) {
	tag, err := r.sql.Exec(ctx, sqlinline.QCompareAndSetJobStatus, id, string(from), string(to), image)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func collectJobs(rows pgx.Rows) ([]domain.PromptJob, error) {
	defer rows.Close()
	var out []domain.PromptJob
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, job)
	}
	return out, rows.Err()
}

var _ domain.JobRepository = (*JobRepositoryPG)(nil)
