// Package app wires storage, messaging and the domain services into one
// process. The HTTP server and the admin CLI share it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/md-rashed-zaman/staffplan/libs/auth"
	"github.com/md-rashed-zaman/staffplan/libs/db"
	"github.com/md-rashed-zaman/staffplan/libs/httpx"
	"github.com/md-rashed-zaman/staffplan/libs/kafkax"
	"github.com/md-rashed-zaman/staffplan/libs/runtime"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/availability"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/cache"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/consumer"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/csvimport"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/directory"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/handlers"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/inbox"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/jobs"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/model"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/outbox"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/report"
	"github.com/md-rashed-zaman/staffplan/services/staffplan-service/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/segmentio/kafka-go"
	"golang.org/x/sync/errgroup"
)

type AvailabilityReader interface {
	Available(ctx context.Context, periodDays int) ([]availability.View, error)
}

type App struct {
	Settings Settings
	Logger   *slog.Logger

	Pool   *db.Pool
	Store  *storage.Store
	Redis  *redis.Client
	Writer *kafka.Writer

	Departments *directory.Service[model.Department, *model.Department]
	Projects    *directory.Service[model.Project, *model.Project]
	Users       *directory.Service[model.User, *model.User]
	Positions   *directory.Service[model.ProjectPosition, *model.ProjectPosition]

	Availability AvailabilityReader
	Reports      *report.Service
	// Requests is nil when Kafka is not configured.
	Requests *report.Requests

	events *outbox.Repository
	cache  *cache.Availability
}

// New connects to Postgres and the optional Redis and Kafka backends and
// builds every service. Close releases the connections.
func New(ctx context.Context, s Settings, logger *slog.Logger) (*App, error) {
	if err := s.RequireDatabase(); err != nil {
		return nil, err
	}
	pool, err := db.Open(ctx, s.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	a := &App{
		Settings: s,
		Logger:   logger,
		Pool:     pool,
		Store:    storage.New(pool),
		events:   outbox.NewRepository(),
	}
	if s.RedisAddr != "" {
		a.Redis = redis.NewClient(&redis.Options{
			Addr:     s.RedisAddr,
			Password: s.RedisPassword,
			DB:       s.RedisDB,
		})
	}
	if len(s.KafkaBrokers) > 0 {
		a.Writer = kafkax.NewWriter(s.KafkaBrokers)
	}
	a.build()
	return a, nil
}

func (a *App) build() {
	var avail AvailabilityReader = availability.NewService(a.Store, a.Store, a.Logger)
	if a.Redis != nil {
		a.cache = cache.NewAvailability(avail, cache.NewRedisBackend(a.Redis), a.Logger, a.Settings.AvailabilityCacheTTL)
		avail = a.cache
	}
	a.Availability = avail

	invalidate := func(ctx context.Context) {
		if a.cache != nil {
			a.cache.Invalidate(ctx)
		}
	}
	a.Departments = directory.New[model.Department](directory.Departments, a.Store, a.Pool, a.Store.Departments, a.events, a.Logger).OnChange(invalidate)
	a.Projects = directory.New[model.Project](directory.Projects, a.Store, a.Pool, a.Store.Projects, a.events, a.Logger).OnChange(invalidate)
	a.Users = directory.New[model.User](directory.Users, a.Store, a.Pool, a.Store.Users, a.events, a.Logger).OnChange(invalidate)
	a.Positions = directory.New[model.ProjectPosition](directory.Positions, a.Store, a.Pool, a.Store.Positions, a.events, a.Logger).OnChange(invalidate)

	a.Reports = report.NewService(a.Store, a.Store, a.Store.Reports, a.events, a.Logger, report.Config{
		AvailabilityHorizonDays: a.Settings.ReportAvailabilityDays,
	})
	if a.Writer != nil {
		a.Requests = report.NewRequests(a.Store, a.events)
	}
}

func (a *App) Close() {
	if a.Writer != nil {
		_ = a.Writer.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	a.Pool.Close()
}

// Migrate applies the embedded schema migrations.
func (a *App) Migrate(ctx context.Context) error {
	return storage.Migrate(ctx, a.Pool, a.Logger)
}

// Handler returns the HTTP surface: health endpoints plus the JWT protected
// API, behind the shared middleware chain.
func (a *App) Handler() (http.Handler, error) {
	guard, err := a.authGuard()
	if err != nil {
		return nil, err
	}

	checks := []runtime.ReadyCheck{{Name: "db", Check: db.ReadyCheck(a.Pool)}}
	if a.Redis != nil {
		rdb := a.Redis
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
	}
	if len(a.Settings.KafkaBrokers) > 0 {
		checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(a.Settings.KafkaBrokers)})
	}
	mux := runtime.NewBaseMuxWithReady(checks...)

	errs := handlers.NewErrors(a.Logger)
	var requests handlers.ReportRequester
	if a.Requests != nil {
		requests = a.Requests
	}
	handlers.API(mux, guard,
		handlers.NewResource("/api/departments", a.Departments, csvimport.Departments, errs, a.Logger),
		handlers.NewResource("/api/projects", a.Projects, csvimport.Projects, errs, a.Logger),
		handlers.NewResource("/api/users", a.Users, csvimport.Users, errs, a.Logger),
		handlers.NewResource("/api/project-positions", a.Positions, csvimport.Positions, errs, a.Logger),
		handlers.NewAvailability(a.Availability, errs),
		handlers.NewReports(a.Reports, requests, errs, a.Logger, a.Settings.ReportsGenerateRole),
	)

	return httpx.Chain(mux,
		httpx.WithCORS(httpx.DefaultCORSPolicy(a.Settings.CORSOrigins)),
		httpx.WithRequestID,
		httpx.WithAccessLog(a.Logger),
		httpx.WithRecover(a.Logger),
		httpx.WithBodyLimit(a.Settings.BodyLimitBytes),
		httpx.WithTimeout(a.Settings.RequestTimeout),
		a.rateLimit(),
	), nil
}

func (a *App) authGuard() (httpx.Middleware, error) {
	if err := a.Settings.RequireAuth(); err != nil {
		return nil, err
	}
	cfg := auth.ValidatorConfig{
		Secret:   a.Settings.JWTSecret,
		Issuer:   a.Settings.JWTIssuer,
		Audience: a.Settings.JWTAudience,
	}
	if a.Settings.JWKSURL != "" {
		cfg.JWKS = auth.NewJWKSClient(a.Settings.JWKSURL, a.Settings.JWKSCacheTTL)
	}
	v, err := auth.NewValidator(cfg)
	if err != nil {
		return nil, err
	}
	return auth.RequireAuth(v, a.Logger), nil
}

func (a *App) rateLimit() httpx.Middleware {
	limit := a.Settings.RateLimitPerMinute
	if limit <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	if a.Redis != nil {
		rl := httpx.NewRedisRateLimiter(a.Redis, limit, time.Minute, "staffplan:rl", nil)
		a.Logger.Info("rate limiting enabled (redis)", "per_minute", limit)
		return rl.Middleware(a.Logger, a.Settings.RateLimitFailOpen)
	}
	a.Logger.Info("rate limiting enabled (in-memory)", "per_minute", limit)
	return httpx.NewRateLimiter(limit, time.Minute, nil).Middleware()
}

// RunBackground runs the outbox publisher, the report request consumer and
// the monthly report job until ctx is cancelled.
func (a *App) RunBackground(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if a.Writer != nil {
		publisher := outbox.NewPublisher(a.Store, a.events, a.Writer, a.Logger, outbox.PublisherConfig{
			PollEvery: 2 * time.Second,
			BatchSize: 50,
			Retention: 7 * 24 * time.Hour,
		})
		g.Go(func() error {
			publisher.Run(ctx)
			return nil
		})

		reader := kafkax.NewReader(a.Settings.KafkaBrokers, a.Settings.KafkaGroupID, a.Settings.ReportRequestTopic)
		c := consumer.New(reader, inbox.NewRepository(a.Pool), a.Logger, consumer.ReportRequestHandler(a.Reports))
		g.Go(func() error {
			c.Run(ctx)
			return nil
		})
	} else {
		a.Logger.Info("kafka not configured; outbox events stay unpublished")
	}

	if a.Settings.ReportWorkerEnabled {
		var locker jobs.Locker
		if a.Redis != nil {
			locker = jobs.NewRedisLocker(a.Redis, "staffplan:lock:")
		}
		worker := jobs.NewReportWorker(a.Reports, a.Store, locker, a.Logger, jobs.WorkerConfig{
			Interval: a.Settings.ReportCheckInterval,
		})
		g.Go(func() error {
			worker.Run(ctx)
			return nil
		})
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
