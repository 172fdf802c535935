package rest

import (
	"net/http"

	"github.com/Abdurahmanit/rental-listing-service/internal/adapter/rest/middleware"
	"github.com/Abdurahmanit/rental-listing-service/internal/platform/logger"
	"github.com/Abdurahmanit/rental-listing-service/internal/platform/metrics"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

type RouterConfig struct {
	Handler        *ListingHandler
	Auth           middleware.Authenticator
	CookieName     string
	AllowedOrigins []string
	ServiceName    string
	Metrics        *metrics.MetricsManager
	Logger         *logger.Logger
}

// NewRouter builds the chi router for the listing API.
func NewRouter(cfg RouterConfig) http.Handler {
	h := cfg.Handler
	log := cfg.Logger.Named("http")

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.Tracing(cfg.ServiceName))
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.Metrics(cfg.Metrics))
	r.Use(chimw.Recoverer)

	r.NotFound(h.HandleNotFound)
	r.Get("/healthz", h.HandleHealth)

	r.Route("/listings", func(r chi.Router) {
		r.With(middleware.OptionalToken(cfg.CookieName)).Get("/{id}", h.HandleGetListing)

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth(cfg.Auth, cfg.CookieName, log))

			r.Post("/add", h.HandleCreateListing)
			r.Get("/", h.HandleListOwned)
			r.Put("/{id}", h.HandleUpdateListing)
			r.Delete("/{id}", h.HandleDeleteListing)
			r.Delete("/{id}/{imageName}", h.HandleRemoveImage)
		})
	})

	return r
}
