package bulk

import (
	"context"
	"fmt"

	"bulkgen/internal/domain"
)

// RetryJob moves one failed job back to pending and schedules it.
func (s *Service) RetryJob(ctx context.Context, jobID int64) (*domain.PromptJob, error) {
	job, err := s.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := s.transitionJob(ctx, job, domain.TransitionRetry); err != nil {
		return nil, err
	}
	if err := s.bulks.SetStatus(ctx, job.BulkRequestID, domain.BulkStatusProcessing); err != nil {
		return nil, fmt.Errorf("reopen bulk request: %w", err)
	}
	s.schedule(ctx, job.ID)
	s.logger.Info().Int64("job_id", job.ID).Int64("bulk_request_id", job.BulkRequestID).Msg("job retried")
	return job, nil
}

// RetryFailed retries every failed job of a request and reports how many moved.
func (s *Service) RetryFailed(ctx context.Context, bulkID int64) (int, error) {
	if _, err := s.bulks.GetByID(ctx, bulkID); err != nil {
		return 0, err
	}
	failed, err := s.jobs.ListByStatus(ctx, bulkID, domain.JobStatusFailed)
	if err != nil {
		return 0, fmt.Errorf("list failed jobs: %w", err)
	}

	retried := make([]int64, 0, len(failed))
	for i := range failed {
		job := &failed[i]
		next, err := domain.NextStatus(job.Status, domain.TransitionRetry)
		if err != nil {
			continue
		}
		ok, err := s.jobs.CompareAndSetStatus(ctx, job.ID, job.Status, next, nil)
		if err != nil {
			return len(retried), fmt.Errorf("retry job %d: %w", job.ID, err)
		}
		if ok {
			retried = append(retried, job.ID)
		}
	}
	if len(retried) == 0 {
		return 0, nil
	}

	if err := s.bulks.SetStatus(ctx, bulkID, domain.BulkStatusProcessing); err != nil {
		return len(retried), fmt.Errorf("reopen bulk request: %w", err)
	}
	for _, id := range retried {
		s.schedule(ctx, id)
	}
	s.logger.Info().Int64("bulk_request_id", bulkID).Int("retried", len(retried)).Msg("failed jobs retried")
	return len(retried), nil
}

// MarkCompleted force-completes a processing job without an image.
func (s *Service) MarkCompleted(ctx context.Context, jobID int64) (*domain.PromptJob, error) {
	job, err := s.loadJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := s.transitionJob(ctx, job, domain.TransitionManualComplete); err != nil {
		return nil, err
	}
	if _, err := s.bulks.CompleteIfSettled(ctx, job.BulkRequestID); err != nil {
		return nil, fmt.Errorf("roll up bulk request: %w", err)
	}
	s.logger.Info().Int64("job_id", job.ID).Int64("bulk_request_id", job.BulkRequestID).Msg("job marked completed")
	return job, nil
}

// transitionJob applies t and persists it only if the job has not moved since
// it was read. A concurrent move is reported against the fresh status.
func (s *Service) transitionJob(ctx context.Context, job *domain.PromptJob, t domain.Transition) error {
	next, err := domain.NextStatus(job.Status, t)
	if err != nil {
		return err
	}
	ok, err := s.jobs.CompareAndSetStatus(ctx, job.ID, job.Status, next, nil)
	if err != nil {
		return fmt.Errorf("update job %d: %w", job.ID, err)
	}
	if !ok {
		current, err := s.loadJob(ctx, job.ID)
		if err != nil {
			return err
		}
		return &domain.TransitionError{From: current.Status, Transition: t}
	}
	job.Status = next
	job.GeneratedImage = nil
	return nil
}
