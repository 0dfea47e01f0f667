package httpapi

import (
	"net/http"
	"time"

	"bulkgen/internal/http/handlers"
	"bulkgen/internal/infra"
	"bulkgen/internal/infra/geoip"
	mw "bulkgen/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Options struct {
	Logger          infra.Logger
	AllowedOrigins  []string
	RateLimitPerMin int
	// Locator adds a country field to access logs when set.
	Locator geoip.Locator
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RealIP,
		mw.RequestID,
		mw.Country(opts.Locator),
		mw.Logger(opts.Logger),
		middleware.Recoverer,
	)
	if len(opts.AllowedOrigins) > 0 {
		r.Use(mw.CORS(opts.AllowedOrigins))
	}

	r.Get("/v1/healthz", app.Health)

	r.Group(func(r chi.Router) {
		r.Use(mw.RateLimit(opts.RateLimitPerMin, time.Minute))

		r.Post("/v1/generate", app.Generate)

		r.Route("/v1/bulk", func(r chi.Router) {
			r.Get("/", app.ListBulk)
			r.Post("/", app.SubmitBulk)
			r.Post("/delete", app.DeleteBulkMany)
			r.Get("/download", app.DownloadMany)
			r.Post("/download", app.DownloadMany)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/status", app.BulkStatus)
				r.Delete("/", app.DeleteBulk)
				r.Post("/retry-failed", app.RetryFailed)
				r.Post("/reset-stuck", app.ResetStuck)
				r.Get("/download", app.DownloadBulk)
			})
		})

		r.Route("/v1/prompts/{id}", func(r chi.Router) {
			r.Post("/retry", app.RetryPrompt)
			r.Post("/mark-completed", app.MarkPromptCompleted)
		})

		r.Get("/v1/settings/{provider}", app.GetSettings)
		r.Put("/v1/settings/{provider}", app.PutSettings)
		r.Post("/v1/recover", app.Recover)
		r.Get("/v1/stats", app.Stats)
	})

	return r
}
