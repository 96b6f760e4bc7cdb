package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"donorhub/internal/http/handlers"
	"donorhub/internal/middleware"
)

// NewRouter wires every route behind the shared middleware chain. The
// country lookup may be nil when no GeoIP database is configured.
func NewRouter(app *handlers.App, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(app.Config.CORSAllowedOrigins),
		middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute),
		middleware.I18N("en", lookup),
	)

	r.Get("/metrics", promhttp.Handler().ServeHTTP)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)

		r.Route("/donors", func(r chi.Router) {
			r.Get("/", app.DonorsList)
			r.Post("/", app.DonorsCreate)
			r.Get("/{id}", app.DonorsGet)
			r.Put("/{id}", app.DonorsUpdate)
			r.Delete("/{id}", app.DonorsDelete)
			r.Post("/{id}/donated", app.DonorsMarkDonated)
			r.Get("/{id}/compatibility", app.DonorsCompatibility)
		})

		r.Get("/compatibility", app.CompatibilityTable)

		r.Route("/groups", func(r chi.Router) {
			r.Get("/", app.GroupsList)
			r.Post("/", app.GroupsCreate)
			r.Delete("/{id}", app.GroupsDelete)
		})

		r.Get("/stats", app.Stats)

		r.Get("/export", app.ExportJSON)
		r.Get("/export/xlsx", app.ExportXLSX)
		r.Get("/export/archive", app.ExportArchive)
		r.Post("/import", app.Import)

		r.Get("/settings/cloud", app.SettingsCloudGet)
		r.Put("/settings/cloud", app.SettingsCloudPut)

		r.Post("/sync/push", app.SyncPush)
		r.Post("/assistant", app.AssistantAsk)
	})

	return r
}
