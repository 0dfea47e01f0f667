package bulk

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bulkgen/internal/domain"
	"bulkgen/internal/infra"
	"bulkgen/internal/providers/image"
)

const defaultFinalizeTimeout = 10 * time.Second

// Executor runs one prompt job end to end. It never returns an error: every
// failure is persisted as status failed and logged.
type Executor struct {
	jobs            domain.JobRepository
	bulks           domain.BulkRepository
	settings        domain.SettingsRepository
	generators      image.Registry
	logger          infra.Logger
	finalizeTimeout time.Duration
}

// ExecutorDeps wires an Executor.
type ExecutorDeps struct {
	Jobs       domain.JobRepository
	Bulks      domain.BulkRepository
	Settings   domain.SettingsRepository
	Generators image.Registry
	Logger     infra.Logger
}

func NewExecutor(deps ExecutorDeps) *Executor {
	return &Executor{
		jobs:            deps.Jobs,
		bulks:           deps.Bulks,
		settings:        deps.Settings,
		generators:      deps.Generators,
		logger:          deps.Logger,
		finalizeTimeout: defaultFinalizeTimeout,
	}
}

// Execute claims the job, calls its provider and records the outcome. A job
// that is gone or no longer pending is skipped; at-least-once delivery makes
// both normal.
func (e *Executor) Execute(ctx context.Context, jobID int64) {
	logger := e.logger.With().Int64("job_id", jobID).Logger()

	job, err := e.jobs.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Debug().Msg("job no longer exists, skipping")
			return
		}
		logger.Error().Err(err).Msg("load job")
		return
	}
	logger = logger.With().Int64("bulk_request_id", job.BulkRequestID).Str("provider", string(job.Provider)).Logger()

	next, err := domain.NextStatus(job.Status, domain.TransitionStart)
	if err != nil {
		logger.Info().Str("status", string(job.Status)).Msg("job not pending, skipping")
		return
	}
	claimed, err := e.jobs.CompareAndSetStatus(ctx, job.ID, job.Status, next, nil)
	if err != nil {
		logger.Error().Err(err).Msg("claim job")
		return
	}
	if !claimed {
		logger.Info().Msg("job claimed elsewhere, skipping")
		return
	}
	job.Status = next

	var (
		encoded string
		runErr  error
	)
	defer func() {
		if r := recover(); r != nil {
			runErr = fmt.Errorf("panic: %v", r)
		}
		e.finalize(ctx, logger, job, encoded, runErr)
	}()

	encoded, runErr = e.generate(ctx, job)
}

func (e *Executor) generate(ctx context.Context, job *domain.PromptJob) (string, error) {
	settings, err := e.settings.GetOrCreate(ctx, job.Provider)
	if err != nil {
		return "", fmt.Errorf("load %s settings: %w", job.Provider, err)
	}
	if err := settings.Validate(); err != nil {
		return "", err
	}
	gen, err := e.generators.Lookup(job.Provider)
	if err != nil {
		return "", err
	}
	result, err := gen.Generate(ctx, job.PromptText, *settings)
	if err != nil {
		return "", err
	}
	encoded, ok := result.FirstImage()
	if !ok {
		return "", image.ErrNoImage
	}
	return encoded, nil
}

// finalize persists the terminal status even when ctx has been canceled and
// then tries to roll the parent request up to completed.
func (e *Executor) finalize(ctx context.Context, logger infra.Logger, job *domain.PromptJob, encoded string, runErr error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), e.finalizeTimeout)
	defer cancel()

	transition := domain.TransitionComplete
	var generated *string
	if runErr == nil {
		uri := image.DataURI(encoded)
		generated = &uri
	} else {
		transition = domain.TransitionFail
		logger.Error().Err(runErr).Bool("retryable", image.IsRetryable(runErr)).Msg("prompt job failed")
	}

	final, err := domain.NextStatus(job.Status, transition)
	if err != nil {
		logger.Error().Err(err).Msg("finalize job")
		return
	}
	ok, err := e.jobs.CompareAndSetStatus(ctx, job.ID, job.Status, final, generated)
	if err != nil {
		logger.Error().Err(err).Str("status", string(final)).Msg("persist final status")
		return
	}
	if !ok {
		// Recovery or an operator moved the job while it ran; their state wins.
		logger.Warn().Str("status", string(final)).Msg("job changed during execution, result discarded")
		return
	}
	if runErr == nil {
		logger.Info().Msg("prompt job completed")
	}

	settled, err := e.bulks.CompleteIfSettled(ctx, job.BulkRequestID)
	if err != nil {
		logger.Error().Err(err).Msg("roll up bulk request")
		return
	}
	if settled {
		logger.Info().Msg("bulk request completed")
	}
}
