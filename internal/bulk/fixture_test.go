package bulk

import (
	"bytes"
	"context"
	"encoding/base64"
	"image/color"
	"testing"

	"github.com/disintegration/imaging"

	"bulkgen/internal/domain"
	"bulkgen/internal/infra"
	"bulkgen/internal/providers/image"
)

type fixture struct {
	store *memStore
	gen   *stubGenerator
	disp  *stubDispatcher
	svc   *Service
	exec  *Executor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := newMemStore()
	store.settings[domain.ProviderWhisk] = &domain.ProviderSettings{Provider: domain.ProviderWhisk, AuthToken: "tok", ProjectID: "wf"}
	store.settings[domain.ProviderImageFX] = &domain.ProviderSettings{Provider: domain.ProviderImageFX, AuthToken: "tok"}

	gen := &stubGenerator{results: map[string]*image.Result{}, errs: map[string]error{}, panics: map[string]bool{}}
	registry := image.Registry{domain.ProviderWhisk: gen, domain.ProviderImageFX: gen}
	disp := &stubDispatcher{}
	logger := infra.NopLogger()

	svc := NewService(Deps{
		Bulks:      store,
		Jobs:       jobRepo{store},
		Settings:   settingsRepo{store},
		Generators: registry,
		Dispatcher: disp,
		Logger:     logger,
	})
	svc.now = store.clock
	exec := NewExecutor(ExecutorDeps{
		Jobs:       jobRepo{store},
		Bulks:      store,
		Settings:   settingsRepo{store},
		Generators: registry,
		Logger:     logger,
	})
	return &fixture{store: store, gen: gen, disp: disp, svc: svc, exec: exec}
}

func (f *fixture) submit(t *testing.T, title string, prompts ...string) (*domain.BulkRequest, []domain.PromptJob) {
	t.Helper()
	bulk, jobs, err := f.svc.Submit(context.Background(), SubmitInput{Title: title, Provider: "whisk", Prompts: prompts})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	return bulk, jobs
}

// pngBase64 encodes a tiny solid image.
func pngBase64(t *testing.T) string {
	t.Helper()
	img := imaging.New(2, 2, color.NRGBA{R: 200, A: 255})
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

// assertOutcome checks that a finished job is either completed with an image
// or failed without one.
func assertOutcome(t *testing.T, job domain.PromptJob) {
	t.Helper()
	switch job.Status {
	case domain.JobStatusCompleted:
		if job.GeneratedImage == nil {
			t.Fatalf("job %d completed without image", job.ID)
		}
	case domain.JobStatusFailed:
		if job.GeneratedImage != nil {
			t.Fatalf("job %d failed with image", job.ID)
		}
	default:
		t.Fatalf("job %d not finished: %s", job.ID, job.Status)
	}
}
