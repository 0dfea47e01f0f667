package handlers

import (
	"encoding/json"
	"net/http"
)

type generateRequest struct {
	Provider string `json:"provider"`
	Prompt   string `json:"prompt"`
}

type generateResponse struct {
	Provider string `json:"provider"`
	Prompt   string `json:"prompt"`
	Image    string `json:"image"`
}

// Generate runs a single prompt synchronously and returns the image as a data URI.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if isForm(r) {
		req.Provider = r.FormValue("provider")
		req.Prompt = r.FormValue("prompt")
	} else if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	uri, err := a.Service.GenerateSingle(r.Context(), req.Provider, req.Prompt)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, generateResponse{Provider: req.Provider, Prompt: req.Prompt, Image: uri})
}
