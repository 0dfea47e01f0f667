package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"bulkgen/internal/bulk"
	"bulkgen/internal/domain"
	"bulkgen/internal/infra"
	"bulkgen/internal/providers/image"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
)

// BulkService is the slice of *bulk.Service the HTTP layer drives.
type BulkService interface {
	Submit(ctx context.Context, in bulk.SubmitInput) (*domain.BulkRequest, []domain.PromptJob, error)
	GenerateSingle(ctx context.Context, provider, prompt string) (string, error)
	Status(ctx context.Context, bulkID int64) (*bulk.StatusReport, error)
	List(ctx context.Context) ([]domain.BulkSummary, error)
	Stats(ctx context.Context) (domain.StatusCounts, error)
	Delete(ctx context.Context, ids []int64) (int64, error)
	RetryJob(ctx context.Context, jobID int64) (*domain.PromptJob, error)
	RetryFailed(ctx context.Context, bulkID int64) (int, error)
	MarkCompleted(ctx context.Context, jobID int64) (*domain.PromptJob, error)
	RecoverStuck(ctx context.Context, opts bulk.RecoverOptions) (bulk.RecoverResult, error)
	Archive(ctx context.Context, ids []int64) (*bulk.Archive, error)
	Settings(ctx context.Context, provider string) (*domain.ProviderSettings, error)
	UpdateSettings(ctx context.Context, provider string, in bulk.SettingsInput) (*domain.ProviderSettings, error)
}

type App struct {
	Service BulkService
	Logger  infra.Logger
}

func NewApp(svc BulkService, logger infra.Logger) *App {
	return &App{Service: svc, Logger: logger}
}

type errorResponse struct {
	Error       string `json:"error"`
	Message     string `json:"message"`
	Field       string `json:"field,omitempty"`
	SettingsURL string `json:"settings_url,omitempty"`
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorResponse{Error: errCode, Message: message})
}

// fail maps service errors onto status codes. Anything unrecognised is logged
// and reported as a generic 500.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation *domain.ValidationError
		settings   *domain.SettingsError
		transition *domain.TransitionError
		status     *image.StatusError
		transport  *image.TransportError
	)
	switch {
	case errors.As(err, &validation):
		a.json(w, http.StatusBadRequest, errorResponse{Error: "validation_failed", Message: validation.Reason, Field: validation.Field})
	case errors.As(err, &settings):
		a.json(w, http.StatusPreconditionFailed, errorResponse{
			Error:       "settings_required",
			Message:     "configure " + string(settings.Provider) + " credentials before generating",
			Field:       settings.Field,
			SettingsURL: "/v1/settings/" + string(settings.Provider),
		})
	case errors.Is(err, image.ErrMissingCredentials):
		a.error(w, http.StatusPreconditionFailed, "settings_required", err.Error())
	case errors.Is(err, domain.ErrNotFound):
		a.error(w, http.StatusNotFound, "not_found", "resource not found")
	case errors.As(err, &transition):
		a.error(w, http.StatusConflict, "invalid_transition", transition.Error())
	case errors.As(err, &status), errors.As(err, &transport),
		errors.Is(err, image.ErrNoImage), errors.Is(err, image.ErrMalformedResponse):
		a.log(r).Warn().Err(err).Msg("provider request failed")
		a.error(w, http.StatusBadGateway, "provider_failed", err.Error())
	default:
		a.log(r).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		a.error(w, http.StatusInternalServerError, "internal", "internal error")
	}
}

// log prefers the request-scoped logger set by the middleware chain.
func (a *App) log(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &a.Logger
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, &domain.ValidationError{Field: name, Reason: "must be a positive integer"}
	}
	return id, nil
}

// parseIDs accepts comma separated and repeated values.
func parseIDs(values []string) ([]int64, error) {
	var ids []int64
	seen := make(map[int64]struct{})
	for _, value := range values {
		for _, part := range strings.Split(value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.ParseInt(part, 10, 64)
			if err != nil || id <= 0 {
				return nil, &domain.ValidationError{Field: "ids", Reason: "ids must be positive integers"}
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, &domain.ValidationError{Field: "ids", Reason: "at least one id is required"}
	}
	return ids, nil
}

func isForm(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data")
}

func statusURL(bulkID int64) string {
	return "/v1/bulk/" + strconv.FormatInt(bulkID, 10) + "/status"
}
