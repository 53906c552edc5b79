package webhook

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterConfig assembles the service's HTTP surface.
type RouterConfig struct {
	Handler     *Handler
	Admin       *AdminHandler
	RateLimiter *RateLimiter
}

// NewRouter mounts the webhook, admin, health, and metrics endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/webhooks", func(sr chi.Router) {
		if cfg.RateLimiter != nil {
			sr.Use(cfg.RateLimiter.Middleware)
		}
		sr.Post("/orders", cfg.Handler.HandleOrderEvent)
	})

	if cfg.Admin != nil {
		r.Route("/admin", func(sr chi.Router) {
			sr.Use(cfg.Admin.Authorize)
			sr.Get("/config", cfg.Admin.GetConfig)
			sr.Put("/config", cfg.Admin.PutConfig)
			sr.Get("/audits", cfg.Admin.GetAudits)
		})
	}

	return r
}
