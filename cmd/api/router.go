package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/calculadora/internal/cart"
	"github.com/noah-isme/calculadora/internal/catalog"
	"github.com/noah-isme/calculadora/internal/common"
	"github.com/noah-isme/calculadora/internal/config"
	"github.com/noah-isme/calculadora/internal/health"
	"github.com/noah-isme/calculadora/internal/obs"
	"github.com/noah-isme/calculadora/internal/pricing"
	"github.com/noah-isme/calculadora/internal/ratelimit"
	"github.com/noah-isme/calculadora/internal/resilience"
	"github.com/noah-isme/calculadora/internal/security"
)

type routerDeps struct {
	Config      *config.Config
	Logger      zerolog.Logger
	Catalog     *catalog.Catalog
	Formatter   *pricing.Formatter
	Session     *cart.Session
	Redis       *redis.Client
	HTTPMetrics *obs.HTTPMetrics
	Tracing     bool
}

func newRouter(d routerDeps) http.Handler {
	cfg := d.Config

	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Catalog: d.Catalog, Formatter: d.Formatter})
	calcHandler := &cart.Handler{Session: d.Session, Formatter: d.Formatter}

	idem := common.Idem{R: d.Redis, TTL: cfg.IdempotencyTTL, Prefix: "calc:idem:"}
	var limiter ratelimit.Limiter = ratelimit.NewMemory("calc:ratelimit")
	if d.Redis != nil {
		breaker := resilience.NewBreaker(resilience.BreakerConfig{
			Target: "redis",
			Logger: d.Logger.With().Str("component", "breaker").Logger(),
		})
		idem.Breaker = breaker
		limiter = ratelimit.Guarded{
			Primary:  ratelimit.SlidingWindow{Client: d.Redis, Prefix: "calc:ratelimit:"},
			Fallback: limiter,
			Breaker:  breaker,
		}
	}
	rl := ratelimit.Handler{
		Limiter: limiter,
		Config: ratelimit.Config{
			Key:    ratelimit.ByClientIP("writes:"),
			Window: cfg.RateLimitWindow,
			Max:    cfg.RateLimitMax,
		},
		OnError: func(err error) {
			d.Logger.Warn().Err(err).Msg("rate limiter unavailable")
		},
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if d.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	if d.HTTPMetrics != nil {
		r.Use(obs.HTTPObs{Metrics: d.HTTPMetrics}.Middleware)
	}
	r.Use(obs.RequestLogger{Logger: d.Logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins(cfg),
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", common.IdempotencyHeader},
		ExposedHeaders: []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		MaxAge:         300,
	}))
	r.Use(security.Headers{Enable: cfg.SecurityHeadersEnabled, EnableHSTS: cfg.HSTSEnabled, NoStore: true}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.BodyLimitBytes}.Middleware)

	if d.HTTPMetrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{Checker: readinessChecker{catalog: d.Catalog, redis: d.Redis}}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Get("/products", catalogHandler.Products)
		v.Get("/products/{id}", catalogHandler.ProductDetail)

		v.Route("/calculator", func(c chi.Router) {
			c.Get("/", calcHandler.Get)
			c.Group(func(g chi.Router) {
				g.Use(rl.Middleware)
				g.Use(idem.Middleware)
				g.Post("/select", calcHandler.Select)
				g.Patch("/form", calcHandler.UpdateForm)
				g.Post("/items", calcHandler.AddItem)
				g.Delete("/items", calcHandler.Clear)
				g.Patch("/items/{productId}", calcHandler.UpdateItem)
				g.Delete("/items/{productId}", calcHandler.RemoveItem)
				g.Post("/calculate", calcHandler.Calculate)
			})
		})
	})

	return r
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	catalog *catalog.Catalog
	redis   *redis.Client
}

func (c readinessChecker) PingCatalog(context.Context) error {
	if c.catalog == nil || c.catalog.Len() == 0 {
		return errors.New("catalog not loaded")
	}
	return nil
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return health.ErrDisabled
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}
