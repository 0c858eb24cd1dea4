// Package app assembles the service from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/noah-isme/backend-kasir/internal/billing"
	"github.com/noah-isme/backend-kasir/internal/catalog"
	"github.com/noah-isme/backend-kasir/internal/config"
	"github.com/noah-isme/backend-kasir/internal/events"
	"github.com/noah-isme/backend-kasir/internal/health"
	"github.com/noah-isme/backend-kasir/internal/lock"
	"github.com/noah-isme/backend-kasir/internal/ratelimit"
	"github.com/noah-isme/backend-kasir/internal/remote"
	"github.com/noah-isme/backend-kasir/internal/resilience"
	"github.com/noah-isme/backend-kasir/internal/session"
	"github.com/noah-isme/backend-kasir/internal/settings"
	"github.com/noah-isme/backend-kasir/internal/submission"
	"github.com/noah-isme/backend-kasir/internal/units"
)

const eventStream = "kasir:events"

// Dependencies enumerates the services shared by the HTTP surface.
type Dependencies struct {
	Config    *config.Config
	Logger    zerolog.Logger
	Redis     *redis.Client
	Limiter   *limiter.Limiter
	Validator *submission.Validator
	Breaker   *resilience.Breaker
	Remote    remote.Client
	Catalog   catalog.CachedSource
	Settings  settings.Store
	Tax       settings.TaxSource
	Events    *events.Bus
	Registry  *session.Registry
	Billing   *billing.Service
}

// New connects to Redis when configured and builds every collaborator.
// Without REDIS_URL the settings store, rate limiter and idempotency fall
// back to process memory or are disabled.
func New(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*Dependencies, error) {
	if cfg == nil {
		return nil, errors.New("app: config missing")
	}
	deps := &Dependencies{Config: cfg, Logger: logger, Validator: submission.NewValidator()}

	if cfg.RedisURL != "" {
		rdb, err := newRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		deps.Redis = rdb
	}

	lim, err := ratelimit.New(deps.Redis, cfg.RateLimit, "kasir:ratelimit")
	if err != nil {
		deps.Close()
		return nil, err
	}
	deps.Limiter = lim

	deps.Breaker = resilience.NewBreaker(cfg.BreakerMinRequests, cfg.BreakerFailureRatio, cfg.BreakerOpenFor).
		WithTarget("billing_api").
		WithLogger(logger)
	deps.Remote = remote.Client{
		BaseURL: cfg.RemoteBaseURL,
		Token:   cfg.RemoteToken,
		HTTP: resilience.HTTPClient{
			Client:      &http.Client{Transport: otelhttp.NewTransport(http.DefaultTransport)},
			Breaker:     deps.Breaker,
			BaseBackoff: 200 * time.Millisecond,
			MaxAttempts: cfg.RemoteMaxAttempts,
			Jitter:      0.2,
			Timeout:     cfg.RemoteTimeout,
		},
	}

	if deps.Redis != nil {
		deps.Settings = settings.NewRedisStore(deps.Redis, cfg.SettingsKeyPrefix)
	} else {
		deps.Settings = settings.NewMemoryStore()
	}
	deps.Catalog = catalog.CachedSource{
		Source: deps.Remote,
		Cache:  catalog.NewCache(deps.Redis, cfg.CatalogCacheTTL),
		Lock:   lock.Locker{R: deps.Redis, Prefix: "kasir:lock:"},
		Logger: logger,
	}
	deps.Tax = settings.CachedTax{
		Remote:  deps.Remote,
		Store:   deps.Settings,
		Default: cfg.DefaultGSTPercentage,
		Logger:  logger,
	}

	deps.Events = &events.Bus{Notifiers: []events.Notifier{events.LogNotifier{Logger: logger}}}
	if deps.Redis != nil {
		deps.Events.Store = events.RedisStreamStore{Client: deps.Redis, Stream: eventStream, MaxLen: 10000}
	}

	deps.Registry = &session.Registry{IdleTTL: cfg.SessionIdleTTL}
	deps.Billing = &billing.Service{
		Registry:  deps.Registry,
		Catalog:   deps.Catalog,
		Tax:       deps.Tax,
		Submitter: deps.Remote,
		Validator: deps.Validator,
		Events:    deps.Events,
		Units:     units.Default(),
		RoundOff:  cfg.DefaultRoundOff,
		Logger:    logger,
	}
	return deps, nil
}

func newRedis(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if cfg.Obs.TracingEnabled {
		if err := redisotel.InstrumentTracing(rdb); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("instrument redis tracing: %w", err)
		}
	}
	if cfg.Obs.MetricsEnabled {
		if err := redisotel.InstrumentMetrics(rdb); err != nil {
			_ = rdb.Close()
			return nil, fmt.Errorf("instrument redis metrics: %w", err)
		}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return rdb, nil
}

// Close releases connections.
func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error().Err(err).Msg("close redis")
		}
	}
}

// Readiness probes Redis and the billing API.
func (d *Dependencies) Readiness() health.Checker {
	return readinessChecker{redis: d.Redis, remote: d.Remote}
}

type readinessChecker struct {
	redis  *redis.Client
	remote remote.Client
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return health.ErrSkipped
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}

func (c readinessChecker) PingRemote(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.remote.Ping(ctx)
}
