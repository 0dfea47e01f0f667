package repo

import (
	"context"
	"errors"
	"testing"
	"time"

	"bulkgen/internal/domain"
	"bulkgen/internal/sqlinline"
)

func jobRow(id int64, status string, image *string, now time.Time) []any {
	return []any{id, int64(5), "prompt", status, "imagefx", image, now, now}
}

func TestJobGetByID(t *testing.T) {
	now := time.Now()
	img := "data:image/png;base64,AAAA"
	exec := &stubExecutor{rows: [][]any{jobRow(11, "completed", &img, now)}}

	job, err := NewJobRepository(exec).GetByID(context.Background(), 11)
	if err != nil {
		t.Fatalf("GetByID error: %v", err)
	}
	if job.Status != domain.JobStatusCompleted || job.GeneratedImage == nil || *job.GeneratedImage != img {
		t.Fatalf("unexpected job: %+v", job)
	}
}

func TestJobGetByIDNotFound(t *testing.T) {
	_, err := NewJobRepository(&stubExecutor{}).GetByID(context.Background(), 1)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestListByBulkSequences(t *testing.T) {
	now := time.Now()
	exec := &stubExecutor{rows: [][]any{
		append([]any{int64(1)}, jobRow(20, "completed", nil, now)...),
		append([]any{int64(2)}, jobRow(21, "failed", nil, now)...),
	}}
	jobs, err := NewJobRepository(exec).ListByBulk(context.Background(), 5)
	if err != nil {
		t.Fatalf("ListByBulk error: %v", err)
	}
	if len(jobs) != 2 || jobs[0].Sequence != 1 || jobs[1].Sequence != 2 {
		t.Fatalf("unexpected sequences: %+v", jobs)
	}
	if jobs[1].ID != 21 || jobs[1].Status != domain.JobStatusFailed {
		t.Fatalf("unexpected job: %+v", jobs[1])
	}
}

func TestListStaleArgs(t *testing.T) {
	exec := &stubExecutor{}
	cutoff := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	bulkID := int64(4)
	_, err := NewJobRepository(exec).ListStale(context.Background(), &bulkID,
		[]domain.JobStatus{domain.JobStatusProcessing, domain.JobStatusPending}, cutoff)
	if err != nil {
		t.Fatalf("ListStale error: %v", err)
	}
	got := exec.last()
	if got.query != sqlinline.QListStaleJobs {
		t.Fatal("expected stale query")
	}
	statuses, ok := got.args[0].([]string)
	if !ok || len(statuses) != 2 || statuses[0] != "processing" {
		t.Fatalf("unexpected statuses arg: %#v", got.args[0])
	}
	if ptr, ok := got.args[2].(*int64); !ok || *ptr != 4 {
		t.Fatalf("unexpected bulk id arg: %#v", got.args[2])
	}
}

func TestCountByStatus(t *testing.T) {
	exec := &stubExecutor{rows: [][]any{{int64(5), int64(2), int64(1), int64(1), int64(1)}}}
	counts, err := NewJobRepository(exec).CountByStatus(context.Background(), nil)
	if err != nil {
		t.Fatalf("CountByStatus error: %v", err)
	}
	want := domain.StatusCounts{Total: 5, Completed: 2, Failed: 1, Processing: 1, Pending: 1}
	if counts != want {
		t.Fatalf("counts = %+v, want %+v", counts, want)
	}
}

func TestCompareAndSetStatus(t *testing.T) {
	exec := &stubExecutor{tag: "UPDATE 1"}
	repo := NewJobRepository(exec)
	ok, err := repo.CompareAndSetStatus(context.Background(), 3, domain.JobStatusPending, domain.JobStatusProcessing, nil)
	if err != nil || !ok {
		t.Fatalf("CompareAndSetStatus = %v, %v", ok, err)
	}
	args := exec.last().args
	if args[1] != "pending" || args[2] != "processing" {
		t.Fatalf("unexpected args: %#v", args)
	}

	exec.tag = "UPDATE 0"
	ok, err = repo.CompareAndSetStatus(context.Background(), 3, domain.JobStatusPending, domain.JobStatusProcessing, nil)
	if err != nil || ok {
		t.Fatalf("expected lost race, got %v, %v", ok, err)
	}
}
