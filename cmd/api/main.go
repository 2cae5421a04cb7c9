package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/calculadora/internal/cart"
	"github.com/noah-isme/calculadora/internal/catalog"
	"github.com/noah-isme/calculadora/internal/config"
	"github.com/noah-isme/calculadora/internal/health"
	"github.com/noah-isme/calculadora/internal/obs"
	"github.com/noah-isme/calculadora/internal/pricing"
	"github.com/noah-isme/calculadora/internal/resilience"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.Obs.LogFormat, cfg.Obs.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	obs.MustRegisterDomainMetrics(cfg.Obs.MetricsNamespace, nil)
	resilience.MustRegisterMetrics(cfg.Obs.MetricsNamespace, nil)
	var httpMetrics *obs.HTTPMetrics
	if cfg.Obs.EnablePrometheus {
		httpMetrics = obs.NewHTTPMetrics(cfg.Obs.MetricsNamespace, obs.ParseBucketsCSV(cfg.Obs.MetricsBuckets), nil)
	}

	tracingEnabled := cfg.Obs.EnableTracing
	if tracingEnabled {
		shutdown, err := obs.InitTracer(ctx, obs.TracingConfig{
			ServiceName:   "calculadora-api",
			Endpoint:      cfg.Obs.OTLPEndpoint,
			Exporter:      cfg.Obs.TracingExporter,
			SamplingRatio: cfg.Obs.SamplingRatio,
			Environment:   cfg.AppEnv,
		})
		if err != nil {
			logger.Error().Err(err).Msg("initialise tracing")
			tracingEnabled = false
		} else {
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Error().Err(err).Msg("shutdown tracer")
				}
			}()
		}
	}

	products, err := catalog.LoadFile(cfg.CatalogPath)
	if err != nil {
		logger.Fatal().Err(err).Str("path", cfg.CatalogPath).Msg("load catalog")
	}
	formatter, err := pricing.NewFormatter(cfg.Locale, cfg.CurrencyCode)
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise currency formatter")
	}
	session := cart.NewSession(cart.SessionConfig{
		Catalog:    products,
		PanelShare: cart.ParsePercent(cfg.PanelShareDefault),
		Logger:     logger.With().Str("component", "calculator").Logger(),
	})
	logger.Info().Int("products", products.Len()).Str("currency", formatter.Currency()).Msg("catalog loaded")

	redisClient := connectRedis(ctx, cfg, tracingEnabled, logger)
	if redisClient != nil {
		defer func() {
			if err := redisClient.Close(); err != nil {
				logger.Error().Err(err).Msg("close redis")
			}
		}()
	}

	srv := &http.Server{
		Addr: cfg.HTTPAddr(),
		Handler: newRouter(routerDeps{
			Config:      cfg,
			Logger:      logger,
			Catalog:     products,
			Formatter:   formatter,
			Session:     session,
			Redis:       redisClient,
			HTTPMetrics: httpMetrics,
			Tracing:     tracingEnabled,
		}),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	case <-ctx.Done():
		health.SetReady(false)
		logger.Info().Msg("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error().Err(err).Msg("graceful shutdown")
		}
	}
}

// connectRedis returns nil when Redis is not configured or unreachable. The
// calculator then runs with in-memory rate limiting and no idempotency guard.
func connectRedis(ctx context.Context, cfg *config.Config, tracing bool, logger zerolog.Logger) *redis.Client {
	if !cfg.RedisEnabled() {
		logger.Info().Msg("redis disabled")
		return nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	client := redis.NewClient(opts)
	if tracing {
		if err := redisotel.InstrumentTracing(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis tracing")
		}
	}
	if cfg.Obs.EnablePrometheus {
		if err := redisotel.InstrumentMetrics(client); err != nil {
			logger.Error().Err(err).Msg("instrument redis metrics")
		}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Error().Err(err).Msg("ping redis")
		_ = client.Close()
		return nil
	}
	return client
}
