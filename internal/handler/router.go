package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/benchmarket/benchchat/internal/handler/chat"
	"github.com/benchmarket/benchchat/internal/handler/company"
	"github.com/benchmarket/benchchat/internal/handler/stream"
	middlewarePkg "github.com/benchmarket/benchchat/internal/middleware"
	companyModel "github.com/benchmarket/benchchat/internal/model/company"
	chatService "github.com/benchmarket/benchchat/internal/service/chat"
)

type routerOptions struct {
	rps   float64
	burst int
}

// RouterOption tunes NewRouter.
type RouterOption func(*routerOptions)

// WithRateLimit limits each authenticated caller to rps requests per
// second after burst. A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) RouterOption {
	return func(o *routerOptions) {
		o.rps, o.burst = rps, burst
	}
}

// NewRouter wires HTTP routes to core services. A non-nil reg enables
// request metrics and the /metrics endpoint.
func NewRouter(companies companyModel.Store, chatSvc *chatService.Service, reg *prometheus.Registry, logger *zap.Logger, opts ...RouterOption) http.Handler {
	var o routerOptions
	for _, opt := range opts {
		opt(&o)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	if reg != nil {
		metrics := middlewarePkg.NewMetrics(reg, "benchchat-api")
		r.Use(metrics.Handler)
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	companyHandler := company.New(companies)
	chatHandler := chat.New(chatSvc)
	streamHandler := stream.New(chatSvc, logger)

	r.Route("/api", func(api chi.Router) {
		companyHandler.RegisterRoutes(api)

		api.Group(func(authed chi.Router) {
			authed.Use(middlewarePkg.Auth(companies))
			if o.rps > 0 {
				authed.Use(middlewarePkg.RateLimit(o.rps, o.burst))
			}
			chatHandler.RegisterRoutes(authed)
			streamHandler.RegisterRoutes(authed)
		})
	})

	return r
}
