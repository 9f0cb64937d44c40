package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"adsnap-server/internal/http/handlers"
	"adsnap-server/internal/middleware"
)

// NewRouter wires the API surface. lookup resolves client IPs to country
// codes for locale negotiation and may be nil.
func NewRouter(app *handlers.App, lookup middleware.CountryLookup) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(*app.Logger),
		middleware.CORS(app.Config.AllowedOrigins),
		middleware.I18N("en", lookup),
	)

	r.Get("/v1/healthz", app.Health)
	r.Post("/v1/prompts/enhance", app.EnhancePrompt)

	r.Route("/v1/sessions", func(r chi.Router) {
		r.Post("/", app.CreateSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", app.GetSession)
			r.Delete("/", app.DeleteSession)
			r.Post("/check", app.CheckResults)
			r.Get("/download", app.Download)
			r.Get("/export", app.Export)

			// Generation routes carry the per-IP limit; everything above is
			// cheap enough to stay outside it.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RateLimit(app.Config.RateLimitPerMin, time.Minute))
				r.Post("/packshot", app.Packshot)
				r.Post("/shadow", app.Shadow)
				r.Post("/lifestyle/text", app.LifestyleByText)
				r.Post("/lifestyle/image", app.LifestyleByImage)
				r.Post("/fill", app.Fill)
				r.Post("/erase", app.Erase)
				r.Post("/generate", app.Generate)
			})
		})
	})

	return r
}
