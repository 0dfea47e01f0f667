package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"bulkgen/internal/bulk"
	"bulkgen/internal/domain"

	"github.com/go-chi/chi/v5"
)

// settingsResponse never echoes the token itself.
type settingsResponse struct {
	Provider     domain.Provider `json:"provider"`
	ProjectID    string          `json:"project_id"`
	HasAuthToken bool            `json:"has_auth_token"`
	TokenHint    string          `json:"token_hint,omitempty"`
	Configured   bool            `json:"configured"`
	UpdatedAt    time.Time       `json:"updated_at"`
}

func newSettingsResponse(s *domain.ProviderSettings) settingsResponse {
	resp := settingsResponse{
		Provider:     s.Provider,
		ProjectID:    s.ProjectID,
		HasAuthToken: s.AuthToken != "",
		Configured:   s.Validate() == nil,
		UpdatedAt:    s.UpdatedAt,
	}
	if n := len(s.AuthToken); n > 8 {
		resp.TokenHint = "..." + s.AuthToken[n-4:]
	}
	return resp
}

func (a *App) GetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := a.Service.Settings(r.Context(), chi.URLParam(r, "provider"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, newSettingsResponse(settings))
}

func (a *App) PutSettings(w http.ResponseWriter, r *http.Request) {
	var in bulk.SettingsInput
	if isForm(r) {
		in.AuthToken = r.FormValue("auth_token")
		in.ProjectID = r.FormValue("project_id")
	} else if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	settings, err := a.Service.UpdateSettings(r.Context(), chi.URLParam(r, "provider"), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, newSettingsResponse(settings))
}
