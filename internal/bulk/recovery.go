package bulk

import (
	"context"
	"fmt"
	"time"

	"bulkgen/internal/domain"
)

// DefaultOlderThan is the stuck threshold used when none is given.
const DefaultOlderThan = 10 * time.Minute

// RecoverOptions scopes a stuck-job sweep. A nil BulkID sweeps every request.
// PendingOlderThan applies to pending jobs when IncludePending is set and
// falls back to OlderThan.
type RecoverOptions struct {
	BulkID           *int64
	OlderThan        time.Duration
	IncludePending   bool
	PendingOlderThan time.Duration
}

// RecoverResult reports what a sweep did.
type RecoverResult struct {
	Selected   int `json:"selected"`
	Reset      int `json:"reset"`
	Dispatched int `json:"dispatched"`
}

// RecoverStuck resets jobs that have sat in processing (and optionally
// pending) since before now-OlderThan back to pending and dispatches them
// again. A job whose original execution is still running may therefore run
// twice; the compare-and-set in the executor keeps the later state.
func (s *Service) RecoverStuck(ctx context.Context, opts RecoverOptions) (RecoverResult, error) {
	var res RecoverResult
	olderThan := opts.OlderThan
	if olderThan <= 0 {
		olderThan = DefaultOlderThan
	}
	if opts.BulkID != nil {
		if _, err := s.bulks.GetByID(ctx, *opts.BulkID); err != nil {
			return res, err
		}
	}

	now := s.now()
	stale, err := s.jobs.ListStale(ctx, opts.BulkID, []domain.JobStatus{domain.JobStatusProcessing}, now.Add(-olderThan))
	if err != nil {
		return res, fmt.Errorf("list stale jobs: %w", err)
	}
	if opts.IncludePending {
		pendingOlderThan := opts.PendingOlderThan
		if pendingOlderThan <= 0 {
			pendingOlderThan = olderThan
		}
		pending, err := s.jobs.ListStale(ctx, opts.BulkID, []domain.JobStatus{domain.JobStatusPending}, now.Add(-pendingOlderThan))
		if err != nil {
			return res, fmt.Errorf("list stale pending jobs: %w", err)
		}
		stale = append(stale, pending...)
	}
	res.Selected = len(stale)

	for _, job := range stale {
		next, err := domain.NextStatus(job.Status, domain.TransitionRecover)
		if err != nil {
			continue
		}
		// Writing pending over pending still refreshes updated_at, so an
		// immediate second sweep selects nothing.
		ok, err := s.jobs.CompareAndSetStatus(ctx, job.ID, job.Status, next, nil)
		if err != nil {
			return res, fmt.Errorf("reset job %d: %w", job.ID, err)
		}
		if !ok {
			continue
		}
		res.Reset++
		if s.schedule(ctx, job.ID) {
			res.Dispatched++
		}
	}

	if opts.BulkID != nil && res.Reset > 0 {
		if err := s.bulks.SetStatus(ctx, *opts.BulkID, domain.BulkStatusProcessing); err != nil {
			return res, fmt.Errorf("reopen bulk request: %w", err)
		}
	}

	event := s.logger.Info()
	if opts.BulkID != nil {
		event = event.Int64("bulk_request_id", *opts.BulkID)
	}
	event.Dur("older_than", olderThan).
		Int("selected", res.Selected).
		Int("reset", res.Reset).
		Int("dispatched", res.Dispatched).
		Msg("stuck job recovery")
	return res, nil
}
