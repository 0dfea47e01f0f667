package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"bulkgen/internal/bulk"
	"bulkgen/internal/domain"
)

type submitRequest struct {
	Title    string          `json:"title"`
	Provider string          `json:"provider"`
	Prompts  json.RawMessage `json:"prompts"`
}

type submitResponse struct {
	BulkRequest *domain.BulkRequest `json:"bulk_request"`
	JobIDs      []int64             `json:"job_ids"`
	StatusURL   string              `json:"status_url"`
}

// SubmitBulk accepts a JSON body or a form post. Form posts are redirected to
// the status endpoint; JSON clients get the created request back.
func (a *App) SubmitBulk(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	form := isForm(r)
	if form {
		req.Title = r.FormValue("title")
		req.Provider = r.FormValue("provider")
		req.Prompts = json.RawMessage(r.FormValue("prompts"))
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	prompts, err := bulk.ParsePrompts(req.Prompts)
	if err != nil {
		a.fail(w, r, err)
		return
	}

	created, jobs, err := a.Service.Submit(r.Context(), bulk.SubmitInput{
		Title:    req.Title,
		Provider: req.Provider,
		Prompts:  prompts,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}

	location := statusURL(created.ID)
	if form {
		http.Redirect(w, r, location, http.StatusSeeOther)
		return
	}
	ids := make([]int64, 0, len(jobs))
	for _, job := range jobs {
		ids = append(ids, job.ID)
	}
	w.Header().Set("Location", location)
	a.json(w, http.StatusCreated, submitResponse{BulkRequest: created, JobIDs: ids, StatusURL: location})
}

func (a *App) ListBulk(w http.ResponseWriter, r *http.Request) {
	items, err := a.Service.List(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if items == nil {
		items = []domain.BulkSummary{}
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

func (a *App) BulkStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	report, err := a.Service.Status(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, report)
}

func (a *App) DeleteBulk(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.deleteIDs(w, r, []int64{id})
}

type deleteRequest struct {
	IDs []int64 `json:"ids"`
}

// DeleteBulkMany takes ids from a JSON body or from repeated/comma separated
// `ids` form values.
func (a *App) DeleteBulkMany(w http.ResponseWriter, r *http.Request) {
	var ids []int64
	if isForm(r) {
		if err := r.ParseForm(); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid form")
			return
		}
		parsed, err := parseIDs(r.Form["ids"])
		if err != nil {
			a.fail(w, r, err)
			return
		}
		ids = parsed
	} else {
		var req deleteRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
			return
		}
		ids = req.IDs
	}
	a.deleteIDs(w, r, ids)
}

func (a *App) deleteIDs(w http.ResponseWriter, r *http.Request, ids []int64) {
	deleted, err := a.Service.Delete(r.Context(), ids)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

func (a *App) RetryFailed(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	n, err := a.Service.RetryFailed(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"bulk_request_id": id, "retried": n})
}

// ResetStuck recovers one request. `older_than_minutes` and `include_pending`
// query parameters tune the sweep.
func (a *App) ResetStuck(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	opts, err := recoverOptions(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	opts.BulkID = &id
	res, err := a.Service.RecoverStuck(r.Context(), opts)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}

// Recover sweeps every request.
func (a *App) Recover(w http.ResponseWriter, r *http.Request) {
	opts, err := recoverOptions(r)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.Service.RecoverStuck(r.Context(), opts)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, res)
}

func (a *App) Stats(w http.ResponseWriter, r *http.Request) {
	counts, err := a.Service.Stats(r.Context())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, counts)
}

// maxOlderThanMinutes caps the stuck threshold at 30 days.
const maxOlderThanMinutes = 30 * 24 * 60

func recoverOptions(r *http.Request) (bulk.RecoverOptions, error) {
	opts := bulk.RecoverOptions{OlderThan: bulk.DefaultOlderThan}
	q := r.URL.Query()
	if raw := q.Get("older_than_minutes"); raw != "" {
		minutes, err := strconv.Atoi(raw)
		if err != nil || minutes <= 0 {
			return opts, &domain.ValidationError{Field: "older_than_minutes", Reason: "must be a positive integer"}
		}
		if minutes > maxOlderThanMinutes {
			return opts, &domain.ValidationError{Field: "older_than_minutes", Reason: "must be at most " + strconv.Itoa(maxOlderThanMinutes)}
		}
		opts.OlderThan = time.Duration(minutes) * time.Minute
	}
	if raw := q.Get("include_pending"); raw != "" {
		include, err := strconv.ParseBool(raw)
		if err != nil {
			return opts, &domain.ValidationError{Field: "include_pending", Reason: "must be a boolean"}
		}
		opts.IncludePending = include
	}
	return opts, nil
}
