package bulk

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"bulkgen/internal/domain"
	"bulkgen/internal/infra"
	"bulkgen/internal/providers/image"
	"bulkgen/internal/queue"
)

// dispatchTimeout bounds one Schedule call so a slow broker cannot stall a
// submit loop.
const dispatchTimeout = 5 * time.Second

// Service implements the bulk generation use cases on top of the repositories,
// the provider registry and a job dispatcher.
type Service struct {
	bulks      domain.BulkRepository
	jobs       domain.JobRepository
	settings   domain.SettingsRepository
	generators image.Registry
	dispatcher queue.Dispatcher
	logger     infra.Logger
	now        func() time.Time
}

// Deps wires a Service.
type Deps struct {
	Bulks      domain.BulkRepository
	Jobs       domain.JobRepository
	Settings   domain.SettingsRepository
	Generators image.Registry
	Dispatcher queue.Dispatcher
	Logger     infra.Logger
}

func NewService(deps Deps) *Service {
	return &Service{
		bulks:      deps.Bulks,
		jobs:       deps.Jobs,
		settings:   deps.Settings,
		generators: deps.Generators,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		now:        time.Now,
	}
}

// SubmitInput is a bulk submission as received from a client.
type SubmitInput struct {
	Title    string
	Provider string
	Prompts  []string
}

// Submit validates the input and the provider settings, persists the request
// with one pending job per prompt and schedules every job. It returns as soon
// as the jobs are scheduled.
func (s *Service) Submit(ctx context.Context, in SubmitInput) (*domain.BulkRequest, []domain.PromptJob, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, nil, &domain.ValidationError{Field: "title", Reason: "title is required"}
	}
	provider, err := domain.ParseProvider(in.Provider)
	if err != nil {
		return nil, nil, err
	}
	prompts := CleanPrompts(in.Prompts)
	if len(prompts) == 0 {
		return nil, nil, &domain.ValidationError{Field: "prompts", Reason: "at least one non-empty prompt is required"}
	}
	if _, err := s.requireSettings(ctx, provider); err != nil {
		return nil, nil, err
	}

	bulk, jobs, err := s.bulks.CreateWithJobs(ctx, title, provider, prompts)
	if err != nil {
		return nil, nil, fmt.Errorf("create bulk request: %w", err)
	}
	s.logger.Info().
		Int64("bulk_request_id", bulk.ID).
		Str("provider", string(provider)).
		Int("jobs", len(jobs)).
		Msg("bulk request created")

	for _, job := range jobs {
		s.schedule(ctx, job.ID)
	}
	return bulk, jobs, nil
}

// GenerateSingle runs one prompt synchronously without persisting anything and
// returns the first image as a data URI.
func (s *Service) GenerateSingle(ctx context.Context, providerName, prompt string) (string, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", &domain.ValidationError{Field: "prompt", Reason: "prompt is required"}
	}
	provider, err := domain.ParseProvider(providerName)
	if err != nil {
		return "", err
	}
	settings, err := s.requireSettings(ctx, provider)
	if err != nil {
		return "", err
	}
	gen, err := s.generators.Lookup(provider)
	if err != nil {
		return "", err
	}
	result, err := gen.Generate(ctx, prompt, *settings)
	if err != nil {
		return "", err
	}
	encoded, ok := result.FirstImage()
	if !ok {
		return "", image.ErrNoImage
	}
	return image.DataURI(encoded), nil
}

// JobView is a job as shown to polling clients. The image payload itself is
// only served through downloads.
type JobView struct {
	ID         int64            `json:"id"`
	Sequence   int              `json:"sequence"`
	PromptText string           `json:"prompt_text"`
	Status     domain.JobStatus `json:"status"`
	HasImage   bool             `json:"has_image"`
	UpdatedAt  time.Time        `json:"updated_at"`
}

// StatusReport is the polling view of one bulk request.
type StatusReport struct {
	BulkRequest domain.BulkRequest  `json:"bulk_request"`
	Jobs        []JobView           `json:"jobs"`
	Counts      domain.StatusCounts `json:"counts"`
}

// Status returns the request, its jobs in creation order and a grouped count.
func (s *Service) Status(ctx context.Context, bulkID int64) (*StatusReport, error) {
	bulk, err := s.bulks.GetByID(ctx, bulkID)
	if err != nil {
		return nil, err
	}
	jobs, err := s.jobs.ListByBulk(ctx, bulkID)
	if err != nil {
		return nil, fmt.Errorf("list jobs: %w", err)
	}
	counts, err := s.jobs.CountByStatus(ctx, &bulkID)
	if err != nil {
		return nil, fmt.Errorf("count jobs: %w", err)
	}
	report := &StatusReport{BulkRequest: *bulk, Counts: counts, Jobs: make([]JobView, 0, len(jobs))}
	for _, job := range jobs {
		report.Jobs = append(report.Jobs, JobView{
			ID:         job.ID,
			Sequence:   job.Sequence,
			PromptText: job.PromptText,
			Status:     job.Status,
			HasImage:   job.GeneratedImage != nil,
			UpdatedAt:  job.UpdatedAt,
		})
	}
	return report, nil
}

// List returns every request with its counts, newest first.
func (s *Service) List(ctx context.Context) ([]domain.BulkSummary, error) {
	return s.bulks.List(ctx)
}

// Stats counts jobs by status across all requests.
func (s *Service) Stats(ctx context.Context) (domain.StatusCounts, error) {
	return s.jobs.CountByStatus(ctx, nil)
}

// Delete removes the requests and, by cascade, their jobs.
func (s *Service) Delete(ctx context.Context, ids []int64) (int64, error) {
	if len(ids) == 0 {
		return 0, &domain.ValidationError{Field: "ids", Reason: "at least one id is required"}
	}
	n, err := s.bulks.Delete(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete bulk requests: %w", err)
	}
	if n == 0 {
		return 0, domain.ErrNotFound
	}
	s.logger.Info().Ints64("bulk_request_ids", ids).Int64("deleted", n).Msg("bulk requests deleted")
	return n, nil
}

// Settings returns the provider's settings, creating empty defaults on first access.
func (s *Service) Settings(ctx context.Context, providerName string) (*domain.ProviderSettings, error) {
	provider, err := domain.ParseProvider(providerName)
	if err != nil {
		return nil, err
	}
	return s.settings.GetOrCreate(ctx, provider)
}

// SettingsInput carries the editable provider settings fields.
type SettingsInput struct {
	AuthToken string `json:"auth_token"`
	ProjectID string `json:"project_id"`
}

func (s *Service) UpdateSettings(ctx context.Context, providerName string, in SettingsInput) (*domain.ProviderSettings, error) {
	provider, err := domain.ParseProvider(providerName)
	if err != nil {
		return nil, err
	}
	settings := &domain.ProviderSettings{
		Provider:  provider,
		AuthToken: strings.TrimSpace(in.AuthToken),
		ProjectID: strings.TrimSpace(in.ProjectID),
	}
	if err := s.settings.Save(ctx, settings); err != nil {
		return nil, fmt.Errorf("save %s settings: %w", provider, err)
	}
	s.logger.Info().Str("provider", string(provider)).Msg("provider settings updated")
	return settings, nil
}

func (s *Service) requireSettings(ctx context.Context, provider domain.Provider) (*domain.ProviderSettings, error) {
	settings, err := s.settings.GetOrCreate(ctx, provider)
	if err != nil {
		return nil, fmt.Errorf("load %s settings: %w", provider, err)
	}
	if err := settings.Validate(); err != nil {
		return nil, err
	}
	return settings, nil
}

// schedule dispatches a job. It detaches from the caller's context so a
// client that disconnects mid-submit does not strand the remaining jobs. A
// dispatch failure leaves the job pending, where a recovery pass that includes
// pending jobs picks it up again.
func (s *Service) schedule(ctx context.Context, jobID int64) bool {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), dispatchTimeout)
	defer cancel()
	if err := s.dispatcher.Schedule(ctx, jobID); err != nil {
		s.logger.Error().Err(err).Int64("job_id", jobID).Msg("schedule job")
		return false
	}
	return true
}

// loadJob maps a missing job to ErrNotFound for handlers.
func (s *Service) loadJob(ctx context.Context, jobID int64) (*domain.PromptJob, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("load job: %w", err)
	}
	return job, nil
}
