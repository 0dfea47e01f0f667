package handlers

import (
	"net/http"

	"bulkgen/internal/domain"
)

type jobResponse struct {
	ID            int64            `json:"id"`
	BulkRequestID int64            `json:"bulk_request_id"`
	Status        domain.JobStatus `json:"status"`
}

func (a *App) RetryPrompt(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	job, err := a.Service.RetryJob(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusAccepted, jobResponse{ID: job.ID, BulkRequestID: job.BulkRequestID, Status: job.Status})
}

func (a *App) MarkPromptCompleted(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		a.fail(w, r, err)
		return
	}
	job, err := a.Service.MarkCompleted(r.Context(), id)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, jobResponse{ID: job.ID, BulkRequestID: job.BulkRequestID, Status: job.Status})
}
