package bulk

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"bulkgen/internal/domain"
	"bulkgen/internal/providers/image"
	"bulkgen/internal/queue"
)

func TestSubmitScenario(t *testing.T) {
	f := newFixture(t)
	bulk, jobs := f.submit(t, "Batch1", "a cat", "a dog")

	if bulk.Status != domain.BulkStatusProcessing {
		t.Fatalf("bulk status = %s, want processing", bulk.Status)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}
	if got := f.disp.scheduled(); len(got) != 2 || got[0] != jobs[0].ID || got[1] != jobs[1].ID {
		t.Fatalf("scheduled = %v", got)
	}

	report, err := f.svc.Status(context.Background(), bulk.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if report.Jobs[0].Sequence != 1 || report.Jobs[0].PromptText != "a cat" {
		t.Fatalf("first job = %+v", report.Jobs[0])
	}
	if report.Jobs[1].Sequence != 2 || report.Jobs[1].PromptText != "a dog" {
		t.Fatalf("second job = %+v", report.Jobs[1])
	}
	if report.Counts.Total != 2 || report.Counts.Pending != 2 {
		t.Fatalf("counts = %+v", report.Counts)
	}
}

func TestSubmitValidation(t *testing.T) {
	tests := []struct {
		name    string
		in      SubmitInput
		setup   func(f *fixture)
		wantErr error
	}{
		{name: "empty title", in: SubmitInput{Title: " ", Provider: "whisk", Prompts: []string{"a"}}, wantErr: domain.ErrValidation},
		{name: "unknown provider", in: SubmitInput{Title: "t", Provider: "dalle", Prompts: []string{"a"}}, wantErr: domain.ErrValidation},
		{name: "blank prompts", in: SubmitInput{Title: "t", Provider: "whisk", Prompts: []string{" ", ""}}, wantErr: domain.ErrValidation},
		{
			name:    "missing project id",
			in:      SubmitInput{Title: "t", Provider: "whisk", Prompts: []string{"a"}},
			setup:   func(f *fixture) { f.store.settings[domain.ProviderWhisk].ProjectID = "" },
			wantErr: domain.ErrMissingSettings,
		},
		{
			name:    "settings never created",
			in:      SubmitInput{Title: "t", Provider: "imagefx", Prompts: []string{"a"}},
			setup:   func(f *fixture) { delete(f.store.settings, domain.ProviderImageFX) },
			wantErr: domain.ErrMissingSettings,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			if tc.setup != nil {
				tc.setup(f)
			}
			_, _, err := f.svc.Submit(context.Background(), tc.in)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("Submit error = %v, want %v", err, tc.wantErr)
			}
			if len(f.store.bulks) != 0 || len(f.store.jobs) != 0 {
				t.Fatal("records created despite rejected submission")
			}
			if len(f.disp.scheduled()) != 0 {
				t.Fatal("jobs scheduled despite rejected submission")
			}
		})
	}
}

func TestSubmitSurvivesDispatchFailure(t *testing.T) {
	f := newFixture(t)
	f.disp.err = errors.New("broker down")
	bulk, jobs, err := f.svc.Submit(context.Background(), SubmitInput{Title: "t", Provider: "whisk", Prompts: []string{"a"}})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if bulk == nil || len(jobs) != 1 {
		t.Fatal("expected records to exist")
	}
	if got := f.store.job(jobs[0].ID).Status; got != domain.JobStatusPending {
		t.Fatalf("job status = %s, want pending", got)
	}
}

func TestSubmitDoesNotWaitOnFullLocalQueue(t *testing.T) {
	f := newFixture(t)
	q := queue.NewLocal(2)
	defer q.Close()
	f.svc.dispatcher = q

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	start := time.Now()
	_, jobs, err := f.svc.Submit(ctx, SubmitInput{Title: "Overflow", Provider: "whisk", Prompts: []string{"a", "b", "c", "d"}})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 100*time.Millisecond {
		t.Fatalf("Submit took %s", elapsed)
	}

	recvCtx, recvCancel := context.WithTimeout(context.Background(), time.Second)
	defer recvCancel()
	got := map[int64]bool{}
	for range jobs {
		id, err := q.Receive(recvCtx)
		if err != nil {
			t.Fatalf("Receive after %d jobs: %v", len(got), err)
		}
		got[id] = true
	}
	for _, job := range jobs {
		if !got[job.ID] {
			t.Fatalf("job %d never dispatched; got %v", job.ID, got)
		}
	}
}

// ctxDispatcher records whether the context it was handed was still live.
type ctxDispatcher struct {
	mu   sync.Mutex
	errs []error
}

func (d *ctxDispatcher) Schedule(ctx context.Context, jobID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errs = append(d.errs, ctx.Err())
	return ctx.Err()
}

func TestSubmitDispatchesAfterClientCancel(t *testing.T) {
	f := newFixture(t)
	disp := &ctxDispatcher{}
	f.svc.dispatcher = disp

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, jobs, err := f.svc.Submit(ctx, SubmitInput{Title: "Gone", Provider: "whisk", Prompts: []string{"a", "b", "c"}})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if len(disp.errs) != len(jobs) {
		t.Fatalf("dispatched %d of %d jobs", len(disp.errs), len(jobs))
	}
	for i, err := range disp.errs {
		if err != nil {
			t.Fatalf("dispatch %d saw %v", i, err)
		}
	}
}

func TestStatusCountsAddUp(t *testing.T) {
	f := newFixture(t)
	img := "data:image/png;base64,AAAA"
	bulk, jobs := f.submit(t, "Mix", "a", "b", "c", "d", "e")
	now := f.store.clock()
	f.store.setJob(jobs[0].ID, domain.JobStatusCompleted, &img, now)
	f.store.setJob(jobs[1].ID, domain.JobStatusFailed, nil, now)
	f.store.setJob(jobs[2].ID, domain.JobStatusProcessing, nil, now)

	report, err := f.svc.Status(context.Background(), bulk.ID)
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	c := report.Counts
	if c.Total != c.Completed+c.Failed+c.Processing+c.Pending {
		t.Fatalf("counts do not add up: %+v", c)
	}
	want := domain.StatusCounts{Total: 5, Completed: 1, Failed: 1, Processing: 1, Pending: 2}
	if c != want {
		t.Fatalf("counts = %+v, want %+v", c, want)
	}
	if !report.Jobs[0].HasImage || report.Jobs[1].HasImage {
		t.Fatalf("has_image flags wrong: %+v", report.Jobs[:2])
	}

	stats, err := f.svc.Stats(context.Background())
	if err != nil || stats != want {
		t.Fatalf("Stats = %+v, %v", stats, err)
	}
}

func TestStatusNotFound(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.Status(context.Background(), 99); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestGenerateSingle(t *testing.T) {
	f := newFixture(t)
	f.gen.results["a fox"] = resultWith("QUJD")

	uri, err := f.svc.GenerateSingle(context.Background(), "whisk", " a fox ")
	if err != nil {
		t.Fatalf("GenerateSingle: %v", err)
	}
	if uri != "data:image/png;base64,QUJD" {
		t.Fatalf("uri = %q", uri)
	}
	if len(f.store.jobs) != 0 {
		t.Fatal("single generation must not persist jobs")
	}

	f.gen.results["empty"] = &image.Result{}
	if _, err := f.svc.GenerateSingle(context.Background(), "whisk", "empty"); !errors.Is(err, image.ErrNoImage) {
		t.Fatalf("expected ErrNoImage, got %v", err)
	}
	if _, err := f.svc.GenerateSingle(context.Background(), "whisk", ""); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDeleteCascades(t *testing.T) {
	f := newFixture(t)
	a, _ := f.submit(t, "A", "1", "2")
	b, _ := f.submit(t, "B", "3")
	keep, _ := f.submit(t, "C", "4")

	n, err := f.svc.Delete(context.Background(), []int64{a.ID, b.ID})
	if err != nil || n != 2 {
		t.Fatalf("Delete = %d, %v", n, err)
	}
	if len(f.store.jobs) != 1 {
		t.Fatalf("expected only the kept request's job, got %d", len(f.store.jobs))
	}
	if _, err := f.svc.Status(context.Background(), keep.ID); err != nil {
		t.Fatalf("kept request missing: %v", err)
	}
	if _, err := f.svc.Delete(context.Background(), []int64{a.ID}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
	if _, err := f.svc.Delete(context.Background(), nil); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSettingsGetOrCreateAndUpdate(t *testing.T) {
	f := newFixture(t)
	delete(f.store.settings, domain.ProviderImageFX)

	s, err := f.svc.Settings(context.Background(), "imagefx")
	if err != nil {
		t.Fatalf("Settings: %v", err)
	}
	if s.AuthToken != "" {
		t.Fatalf("expected empty defaults, got %+v", s)
	}

	updated, err := f.svc.UpdateSettings(context.Background(), "imagefx", SettingsInput{AuthToken: " new "})
	if err != nil {
		t.Fatalf("UpdateSettings: %v", err)
	}
	if updated.AuthToken != "new" {
		t.Fatalf("token = %q", updated.AuthToken)
	}
	if _, err := f.svc.Settings(context.Background(), "nope"); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestList(t *testing.T) {
	f := newFixture(t)
	f.submit(t, "Old", "1")
	f.submit(t, "New", "2", "3")
	list, err := f.svc.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 2 || list[0].Title != "New" || list[0].Counts.Total != 2 {
		t.Fatalf("unexpected list: %+v", list)
	}
}

func TestParsePrompts(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []string
		wantErr bool
	}{
		{name: "array", raw: `["a cat", "a dog"]`, want: []string{"a cat", "a dog"}},
		{name: "string wrapped array", raw: `"[\"a cat\", \" a dog \"]"`, want: []string{"a cat", "a dog"}},
		{name: "blanks dropped", raw: `["", " x ", "  "]`, want: []string{"x"}},
		{name: "only blanks", raw: `["", " "]`, wantErr: true},
		{name: "empty array", raw: `[]`, wantErr: true},
		{name: "not strings", raw: `[1, 2]`, wantErr: true},
		{name: "object", raw: `{"a": 1}`, wantErr: true},
		{name: "garbage", raw: `a cat, a dog`, wantErr: true},
		{name: "empty", raw: ``, wantErr: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParsePrompts([]byte(tc.raw))
			if tc.wantErr {
				if !errors.Is(err, domain.ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParsePrompts: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
			for i := range got {
				if got[i] != tc.want[i] {
					t.Fatalf("got %v, want %v", got, tc.want)
				}
			}
		})
	}
}
