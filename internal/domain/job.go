package domain

import (
	"strings"
	"time"
)

// Provider enumerates the interchangeable image-generation backends.
type Provider string

const (
	ProviderWhisk   Provider = "whisk"
	ProviderImageFX Provider = "imagefx"
)

// Providers lists every supported provider in display order.
var Providers = []Provider{ProviderWhisk, ProviderImageFX}

// ParseProvider normalizes free-form input into a supported provider.
func ParseProvider(raw string) (Provider, error) {
	p := Provider(strings.ToLower(strings.TrimSpace(raw)))
	if !p.Valid() {
		return "", &ValidationError{Field: "provider", Reason: "unsupported provider " + strings.TrimSpace(raw)}
	}
	return p, nil
}

func (p Provider) Valid() bool {
	switch p {
	case ProviderWhisk, ProviderImageFX:
		return true
	}
	return false
}

// BulkStatus enumerates the aggregate lifecycle of a bulk request.
type BulkStatus string

const (
	BulkStatusPending    BulkStatus = "pending"
	BulkStatusProcessing BulkStatus = "processing"
	BulkStatusCompleted  BulkStatus = "completed"
)

// JobStatus enumerates prompt job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusPending, JobStatusProcessing, JobStatusCompleted, JobStatusFailed:
		return true
	}
	return false
}

// Terminal reports whether no automatic transition leaves s.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// BulkRequest is a named batch of prompts submitted together.
type BulkRequest struct {
	ID        int64      `json:"id"`
	Title     string     `json:"title"`
	Status    BulkStatus `json:"status"`
	Provider  Provider   `json:"provider"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// PromptJob is one prompt's generation attempt. GeneratedImage holds a data URI
// and is nil unless the job completed through the executor.
type PromptJob struct {
	ID             int64     `json:"id"`
	BulkRequestID  int64     `json:"bulk_request_id"`
	PromptText     string    `json:"prompt_text"`
	Status         JobStatus `json:"status"`
	Provider       Provider  `json:"provider"`
	GeneratedImage *string   `json:"generated_image,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// SequencedJob annotates a job with its 1-based position inside its request.
type SequencedJob struct {
	PromptJob
	Sequence int `json:"sequence"`
}

// StatusCounts is a single-snapshot grouped count of a job set.
type StatusCounts struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
	Processing int `json:"processing"`
	Pending    int `json:"pending"`
}

// BulkSummary pairs a request with its job counts for listings.
type BulkSummary struct {
	BulkRequest
	Counts StatusCounts `json:"counts"`
}

// ProviderSettings holds the credentials needed to call one provider.
type ProviderSettings struct {
	Provider  Provider  `json:"provider"`
	AuthToken string    `json:"auth_token"`
	ProjectID string    `json:"project_id"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate reports ErrMissingSettings when the provider cannot be called with s.
func (s ProviderSettings) Validate() error {
	if strings.TrimSpace(s.AuthToken) == "" {
		return &SettingsError{Provider: s.Provider, Field: "auth_token"}
	}
	if s.Provider == ProviderWhisk && strings.TrimSpace(s.ProjectID) == "" {
		return &SettingsError{Provider: s.Provider, Field: "project_id"}
	}
	return nil
}
