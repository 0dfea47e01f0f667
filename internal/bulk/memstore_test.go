package bulk

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"bulkgen/internal/domain"
	"bulkgen/internal/providers/image"
)

// memStore is an in-memory implementation of the three repositories with a
// controllable clock.
type memStore struct {
	mu       sync.Mutex
	now      time.Time
	nextBulk int64
	nextJob  int64
	bulks    map[int64]*domain.BulkRequest
	jobs     map[int64]*domain.PromptJob
	settings map[domain.Provider]*domain.ProviderSettings
}

func newMemStore() *memStore {
	return &memStore{
		now:      time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		bulks:    map[int64]*domain.BulkRequest{},
		jobs:     map[int64]*domain.PromptJob{},
		settings: map[domain.Provider]*domain.ProviderSettings{},
	}
}

func (m *memStore) clock() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *memStore) advance(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
}

func (m *memStore) CreateWithJobs(ctx context.Context, title string, provider domain.Provider, prompts []string) (*domain.BulkRequest, []domain.PromptJob, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextBulk++
	bulk := &domain.BulkRequest{ID: m.nextBulk, Title: title, Status: domain.BulkStatusProcessing, Provider: provider, CreatedAt: m.now, UpdatedAt: m.now}
	m.bulks[bulk.ID] = bulk
	jobs := make([]domain.PromptJob, 0, len(prompts))
	for _, p := range prompts {
		m.nextJob++
		job := &domain.PromptJob{ID: m.nextJob, BulkRequestID: bulk.ID, PromptText: p, Status: domain.JobStatusPending, Provider: provider, CreatedAt: m.now, UpdatedAt: m.now}
		m.jobs[job.ID] = job
		jobs = append(jobs, *job)
	}
	out := *bulk
	return &out, jobs, nil
}

func (m *memStore) GetByID(ctx context.Context, id int64) (*domain.BulkRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bulks[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *b
	return &out, nil
}

func (m *memStore) List(ctx context.Context) ([]domain.BulkSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.BulkSummary
	for _, b := range m.bulks {
		id := b.ID
		out = append(out, domain.BulkSummary{BulkRequest: *b, Counts: m.countLocked(&id)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *memStore) SetStatus(ctx context.Context, id int64, status domain.BulkStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bulks[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.Status = status
	b.UpdatedAt = m.now
	return nil
}

func (m *memStore) CompleteIfSettled(ctx context.Context, id int64) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.bulks[id]
	if !ok || b.Status == domain.BulkStatusCompleted {
		return false, nil
	}
	for _, j := range m.jobs {
		if j.BulkRequestID == id && !j.Status.Terminal() {
			return false, nil
		}
	}
	b.Status = domain.BulkStatusCompleted
	b.UpdatedAt = m.now
	return true, nil
}

func (m *memStore) Delete(ctx context.Context, ids []int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, id := range ids {
		if _, ok := m.bulks[id]; !ok {
			continue
		}
		delete(m.bulks, id)
		n++
		for jid, j := range m.jobs {
			if j.BulkRequestID == id {
				delete(m.jobs, jid)
			}
		}
	}
	return n, nil
}

// jobRepo exposes the job half of memStore; GetByID collides with the bulk side.
type jobRepo struct{ m *memStore }

func (r jobRepo) GetByID(ctx context.Context, id int64) (*domain.PromptJob, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	j, ok := r.m.jobs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	out := *j
	return &out, nil
}

func (r jobRepo) ListByBulk(ctx context.Context, bulkID int64) ([]domain.SequencedJob, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []domain.SequencedJob
	for _, j := range r.m.sortedLocked() {
		if j.BulkRequestID == bulkID {
			out = append(out, domain.SequencedJob{PromptJob: *j, Sequence: len(out) + 1})
		}
	}
	return out, nil
}

func (r jobRepo) ListByStatus(ctx context.Context, bulkID int64, status domain.JobStatus) ([]domain.PromptJob, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []domain.PromptJob
	for _, j := range r.m.sortedLocked() {
		if j.BulkRequestID == bulkID && j.Status == status {
			out = append(out, *j)
		}
	}
	return out, nil
}

func (r jobRepo) ListStale(ctx context.Context, bulkID *int64, statuses []domain.JobStatus, cutoff time.Time) ([]domain.PromptJob, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	var out []domain.PromptJob
	for _, j := range r.m.sortedLocked() {
		if bulkID != nil && j.BulkRequestID != *bulkID {
			continue
		}
		if !j.UpdatedAt.Before(cutoff) {
			continue
		}
		for _, s := range statuses {
			if j.Status == s {
				out = append(out, *j)
				break
			}
		}
	}
	return out, nil
}

func (r jobRepo) CountByStatus(ctx context.Context, bulkID *int64) (domain.StatusCounts, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	return r.m.countLocked(bulkID), nil
}

func (r jobRepo) CompareAndSetStatus(ctx context.Context, id int64, from, to domain.JobStatus, img *string) (bool, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	j, ok := r.m.jobs[id]
	if !ok || j.Status != from {
		return false, nil
	}
	j.Status = to
	j.GeneratedImage = img
	j.UpdatedAt = r.m.now
	return true, nil
}

func (m *memStore) sortedLocked() []*domain.PromptJob {
	out := make([]*domain.PromptJob, 0, len(m.jobs))
	for _, j := range m.jobs {
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}

func (m *memStore) countLocked(bulkID *int64) domain.StatusCounts {
	var c domain.StatusCounts
	for _, j := range m.jobs {
		if bulkID != nil && j.BulkRequestID != *bulkID {
			continue
		}
		c.Total++
		switch j.Status {
		case domain.JobStatusCompleted:
			c.Completed++
		case domain.JobStatusFailed:
			c.Failed++
		case domain.JobStatusProcessing:
			c.Processing++
		case domain.JobStatusPending:
			c.Pending++
		}
	}
	return c
}

// setJob forces a job's state for test setup.
func (m *memStore) setJob(id int64, status domain.JobStatus, img *string, updated time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	j := m.jobs[id]
	j.Status = status
	j.GeneratedImage = img
	j.UpdatedAt = updated
}

func (m *memStore) job(id int64) domain.PromptJob {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.jobs[id]
}

func (m *memStore) bulk(id int64) domain.BulkRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.bulks[id]
}

// settingsRepo exposes the settings half of memStore.
type settingsRepo struct{ m *memStore }

func (r settingsRepo) GetOrCreate(ctx context.Context, provider domain.Provider) (*domain.ProviderSettings, error) {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	s, ok := r.m.settings[provider]
	if !ok {
		s = &domain.ProviderSettings{Provider: provider, UpdatedAt: r.m.now}
		r.m.settings[provider] = s
	}
	out := *s
	return &out, nil
}

func (r settingsRepo) Save(ctx context.Context, settings *domain.ProviderSettings) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	settings.UpdatedAt = r.m.now
	cp := *settings
	r.m.settings[settings.Provider] = &cp
	return nil
}

// stubDispatcher records scheduled ids.
type stubDispatcher struct {
	mu  sync.Mutex
	ids []int64
	err error
}

func (d *stubDispatcher) Schedule(ctx context.Context, jobID int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	d.ids = append(d.ids, jobID)
	return nil
}

func (d *stubDispatcher) scheduled() []int64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]int64(nil), d.ids...)
}

// stubGenerator returns canned results per prompt.
type stubGenerator struct {
	mu      sync.Mutex
	results map[string]*image.Result
	errs    map[string]error
	panics  map[string]bool
	onCall  func(prompt string)
	calls   []string
}

func (g *stubGenerator) Generate(ctx context.Context, prompt string, settings domain.ProviderSettings) (*image.Result, error) {
	g.mu.Lock()
	g.calls = append(g.calls, prompt)
	res, err, boom := g.results[prompt], g.errs[prompt], g.panics[prompt]
	hook := g.onCall
	g.mu.Unlock()
	if hook != nil {
		hook(prompt)
	}
	if boom {
		panic("provider exploded")
	}
	if err != nil {
		return nil, err
	}
	if res == nil {
		return nil, errors.New("no canned result")
	}
	return res, nil
}

func resultWith(encoded ...string) *image.Result {
	panel := image.Panel{}
	for _, e := range encoded {
		panel.GeneratedImages = append(panel.GeneratedImages, image.GeneratedImage{EncodedImage: e})
	}
	return &image.Result{ImagePanels: []image.Panel{panel}}
}
