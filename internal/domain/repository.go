package domain

import (
	"context"
	"time"
)

// BulkRepository defines persistence for bulk requests.
type BulkRepository interface {
	// CreateWithJobs inserts the request and one pending job per prompt atomically,
	// preserving prompt order in job ids.
	CreateWithJobs(ctx context.Context, title string, provider Provider, prompts []string) (*BulkRequest, []PromptJob, error)
	GetByID(ctx context.Context, id int64) (*BulkRequest, error)
	List(ctx context.Context) ([]BulkSummary, error)
	SetStatus(ctx context.Context, id int64, status BulkStatus) error
	// CompleteIfSettled marks the request completed when no child is pending or processing.
	CompleteIfSettled(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, ids []int64) (int64, error)
}

// JobRepository defines persistence for prompt jobs.
type JobRepository interface {
	GetByID(ctx context.Context, id int64) (*PromptJob, error)
	ListByBulk(ctx context.Context, bulkID int64) ([]SequencedJob, error)
	ListByStatus(ctx context.Context, bulkID int64, status JobStatus) ([]PromptJob, error)
	// ListStale returns jobs in one of statuses last updated before cutoff. A nil
	// bulkID selects across all requests.
	ListStale(ctx context.Context, bulkID *int64, statuses []JobStatus, cutoff time.Time) ([]PromptJob, error)
	CountByStatus(ctx context.Context, bulkID *int64) (StatusCounts, error)
	// CompareAndSetStatus moves the job from -> to, writing image, and reports
	// whether the job was still in from.
	CompareAndSetStatus(ctx context.Context, id int64, from, to JobStatus, image *string) (bool, error)
}

// SettingsRepository stores one settings record per provider.
type SettingsRepository interface {
	// GetOrCreate returns the provider's settings, creating empty defaults on first access.
	GetOrCreate(ctx context.Context, provider Provider) (*ProviderSettings, error)
	Save(ctx context.Context, settings *ProviderSettings) error
}
