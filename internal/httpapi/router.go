package httpapi

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tamirms/commonpass/internal/logging"
)

// maxBody bounds /v1 request bodies; a check request is one short string.
const maxBody = 64 << 10

// RouterOption configures NewRouter.
type RouterOption func(*routerConfig)

type routerConfig struct {
	limiter *RateLimiter
}

// WithRateLimit limits POST /v1/check per client. A nil limiter disables
// limiting.
func WithRateLimit(rl *RateLimiter) RouterOption {
	return func(c *routerConfig) { c.limiter = rl }
}

// NewRouter creates the chi router with middleware and all routes.
func NewRouter(h *Handler, log *logging.Logger, opts ...RouterOption) chi.Router {
	var cfg routerConfig
	for _, opt := range opts {
		opt(&cfg)
	}
	if log == nil {
		log = logging.NoopLogger()
	}
	r := chi.NewRouter()

	r.Use(RequestID)
	r.Use(middleware.RealIP)
	r.Use(AccessLog(log))
	r.Use(middleware.Recoverer)

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)

	r.Route("/v1", func(r chi.Router) {
		r.Use(MaxBodySize(maxBody))
		if cfg.limiter != nil {
			r.With(cfg.limiter.Middleware).Post("/check", h.Check)
		} else {
			r.Post("/check", h.Check)
		}
		r.Get("/version", h.Version)
		if h.Reload != nil {
			r.Post("/reload", h.ReloadFilter)
		}
	})
	return r
}
