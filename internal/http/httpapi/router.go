package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"genstudio/internal/http/handlers"
	"genstudio/internal/infra"
	"genstudio/internal/middleware"
)

// Options configures the cross-cutting middleware.
type Options struct {
	Logger          infra.Logger
	AllowedOrigins  []string
	DefaultLocale   string
	CountryLookup   middleware.CountryLookup
	RateLimitPerMin int
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.Metrics,
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
	)

	r.Get("/v1/healthz", app.Health)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// generations and upscales share one per-client budget
	limit := middleware.RateLimit(opts.RateLimitPerMin, time.Minute)

	r.Route("/v1", func(r chi.Router) {
		r.With(limit).Post("/generations", app.CreateGeneration)

		r.Route("/history", func(r chi.Router) {
			r.Get("/", app.ListHistory)
			r.Post("/", app.CreateHistory)
			r.Delete("/", app.ClearHistory)
			r.Get("/export", app.ExportHistory)
			r.Delete("/{id}", app.DeleteHistory)
			r.Get("/{id}/asset", app.DownloadAsset)
			r.With(limit).Post("/{id}/upscale", app.UpscaleEntry)
		})

		r.Put("/credentials", app.PutCredentials)
	})

	return r
}
