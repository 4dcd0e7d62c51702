// Package app assembles the rental agent from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/Proton-105/rental-agent/internal/agent"
	apperrors "github.com/Proton-105/rental-agent/internal/errors"
	"github.com/Proton-105/rental-agent/internal/health"
	"github.com/Proton-105/rental-agent/internal/httpapi"
	"github.com/Proton-105/rental-agent/internal/inventory"
	"github.com/Proton-105/rental-agent/internal/jobs"
	"github.com/Proton-105/rental-agent/internal/jobs/handlers"
	"github.com/Proton-105/rental-agent/internal/lifecycle"
	"github.com/Proton-105/rental-agent/internal/lock"
	"github.com/Proton-105/rental-agent/internal/prompt"
	"github.com/Proton-105/rental-agent/internal/ratelimit"
	"github.com/Proton-105/rental-agent/internal/session"
	"github.com/Proton-105/rental-agent/internal/toolserver"
	"github.com/Proton-105/rental-agent/internal/validation"
	"github.com/Proton-105/rental-agent/internal/verification"
	"github.com/Proton-105/rental-agent/internal/workflow"
	"github.com/Proton-105/rental-agent/pkg/config"
	"github.com/Proton-105/rental-agent/pkg/graceful"
	"github.com/Proton-105/rental-agent/pkg/logger"
	"github.com/Proton-105/rental-agent/pkg/metrics"
	redisclient "github.com/Proton-105/rental-agent/pkg/redis"
)

const (
	toolRateLimitPrefix = "tool:"
	sentryFlushTimeout  = 2 * time.Second
)

// App holds every long-lived component of the service.
type App struct {
	Config   *config.Config
	Log      *slog.Logger
	LevelVar *slog.LevelVar
	Errors   *apperrors.Handler

	Redis     *redis.Client
	Backend   *Backend
	Inventory inventory.Store
	Agent     *agent.Agent
	Sessions  *session.Manager
	Tools     *toolserver.Server
	Checker   *health.Checker
	Probes    *lifecycle.Probes
	Shutdown  *lifecycle.Shutdown

	sessionStore session.Store
	callLocker   lock.Locker
	memLimiter   *ratelimit.MemoryLimiter
	jobsClient   jobs.Manager
}

// NewLogger builds the process logger from cfg. Sentry forwarding needs InitSentry first.
func NewLogger(cfg *config.Config, out io.Writer) (*slog.Logger, *slog.LevelVar, error) {
	return logger.New(logger.Options{
		Level:  cfg.Logger.Level,
		Format: cfg.Logger.Format,
		Output: out,
		File: logger.FileOptions{
			Path:       cfg.Logger.File.Path,
			MaxSizeMB:  cfg.Logger.File.MaxSizeMB,
			MaxBackups: cfg.Logger.File.MaxBackups,
			MaxAgeDays: cfg.Logger.File.MaxAgeDays,
			Compress:   cfg.Logger.File.Compress,
		},
		Service:       cfg.Service.Name,
		Version:       cfg.Service.Version,
		Env:           cfg.AppEnv,
		SentryEnabled: cfg.Sentry.Enabled,
		SentryLevel:   cfg.Sentry.Level,
	})
}

// InitSentry initialises the Sentry SDK when enabled.
func InitSentry(cfg *config.Config) error {
	if !cfg.Sentry.Enabled {
		return nil
	}

	return sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.Sentry.DSN,
		Environment:      cfg.AppEnv,
		Release:          cfg.Service.Name + "@" + cfg.Service.Version,
		TracesSampleRate: cfg.Sentry.TracesSampleRate,
	})
}

// New connects every dependency and builds the workflow. On error, anything
// already opened is closed.
func New(ctx context.Context, cfg *config.Config, log *slog.Logger, levelVar *slog.LevelVar) (_ *App, err error) {
	if log == nil {
		log = slog.Default()
	}

	a := &App{
		Config:   cfg,
		Log:      log,
		LevelVar: levelVar,
		Errors:   apperrors.NewHandler(log, cfg.Sentry.Enabled),
		Checker:  health.NewChecker(log, 0),
	}
	a.Probes = lifecycle.NewProbes(a.Checker, log)
	a.Shutdown = lifecycle.NewShutdown(log, a.Probes)

	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	if cfg.Sentry.Enabled {
		a.Shutdown.Register("sentry", func(context.Context) error {
			sentry.Flush(sentryFlushTimeout)
			return nil
		})
	}

	if cfg.Redis.Enabled {
		a.Redis, err = redisclient.New(ctx, cfg.Redis.Config)
		if err != nil {
			return nil, fmt.Errorf("connect redis: %w", err)
		}
		a.Shutdown.Register("redis", lifecycle.CloserHook(a.Redis))
		a.Checker.AddCheck("redis", health.NewRedisChecker(a.Redis))
	}

	locker := a.locker()
	a.callLocker = locker

	a.Backend, err = OpenBackend(ctx, cfg.Inventory, locker, log)
	if err != nil {
		return nil, fmt.Errorf("open inventory backend: %w", err)
	}
	a.Shutdown.Register("inventory", func(context.Context) error { return a.Backend.Close() })
	a.Checker.AddCheck("inventory", health.NewInventoryChecker(a.Backend.Store))
	if a.Backend.DB != nil {
		a.Checker.AddCheck("postgres", health.NewDBChecker(a.Backend.DB))
	}

	a.Inventory = inventory.NewGuarded(a.Backend.Store, a.Backend.Name, inventory.GuardOptions{
		Timeout: cfg.Inventory.Timeout,
		Retry:   apperrors.RetryPolicy{MaxRetries: cfg.Inventory.MaxRetries},
	}, a.Errors, log)

	prompts, err := prompt.New(cfg.Workflow.CompanyName)
	if err != nil {
		return nil, err
	}

	gateway := verification.NewBounded(
		verification.NewPlaceholder(cfg.Workflow.BusinessName, log),
		cfg.Verification.Timeout, nil, a.Errors, log,
	)

	a.Agent, err = agent.New(agent.Deps{
		Store:       a.Inventory,
		Gateway:     gateway,
		Prompts:     prompts,
		Validator:   validation.New(),
		Notifier:    a.notifier(),
		Errors:      a.Errors,
		Log:         log,
		CompanyName: cfg.Workflow.CompanyName,
	})
	if err != nil {
		return nil, err
	}

	a.sessionStore = session.NewMemoryStore()
	if a.Redis != nil {
		a.sessionStore = session.NewRedisStore(a.Redis, cfg.Session.TTL, log)
	}

	a.Sessions = session.NewManager(a.Agent, a.sessionStore, locker, session.Options{
		MaxNegotiationAttempts: cfg.Workflow.MaxNegotiationAttempts,
		LockTimeout:            cfg.Session.LockTimeout,
	}, log)

	var limiter ratelimit.Limiter
	if a.Redis != nil {
		limiter = ratelimit.NewRedisLimiter(a.Redis, log)
	} else {
		a.memLimiter = ratelimit.NewMemoryLimiter()
		limiter = a.memLimiter
	}
	guard := ratelimit.NewGuard(limiter, ratelimit.Rule{
		Limit:  cfg.RateLimit.Limit,
		Window: cfg.RateLimit.Window,
	}, toolRateLimitPrefix, log)

	a.Tools = toolserver.New(a.Sessions, guard, a.Errors, log, cfg.Service.Version)

	workflow.RegisterTransitionRecorder(metrics.RecordStageTransition)

	return a, nil
}

func (a *App) locker() lock.Locker {
	if a.Redis == nil {
		return lock.NewLocalLocker()
	}

	ttl := a.Config.Session.LockTimeout + a.Config.Verification.Timeout + a.Config.Inventory.Timeout
	return lock.NewRedisLocker(a.Redis, ttl, a.Log)
}

func (a *App) redisConnOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     a.Config.Redis.Addr,
		Password: a.Config.Redis.Password,
		DB:       a.Config.Redis.DB,
	}
}

func (a *App) notifier() agent.Notifier {
	if !a.Config.Jobs.Enabled || a.Redis == nil {
		return agent.NopNotifier{}
	}

	a.jobsClient = jobs.NewManager(a.redisConnOpt(), a.Log)
	a.Shutdown.Register("jobs-client", func(context.Context) error { return a.jobsClient.Close() })
	return jobs.NewBookingNotifier(a.jobsClient, a.Log)
}

// startBackground launches the cleaners, the stage collector and the jobs worker.
func (a *App) startBackground(ctx context.Context) error {
	cfg := a.Config

	go session.NewCleaner(a.sessionStore, a.callLocker, a.Log, cfg.Session.TTL, cfg.Session.CleanupInterval).Run(ctx)

	if a.memLimiter != nil {
		go ratelimit.NewCleaner(a.memLimiter, cfg.RateLimit.Window, cfg.Session.CleanupInterval, a.Log).Run(ctx)
	}

	stages := make([]string, 0, len(workflow.Stages()))
	for _, s := range workflow.Stages() {
		stages = append(stages, s.String())
	}
	go metrics.NewStageCollector(a.Sessions, stages, 0, a.Log).Run(ctx)

	if !cfg.Jobs.Enabled || a.Redis == nil {
		return nil
	}

	worker := jobs.NewWorker(a.redisConnOpt(), jobs.DefaultQueues, cfg.Jobs.Concurrency, a.Log)
	worker.RegisterHandler(jobs.TaskTypeBookingConfirmation, handlers.NewBookingConfirmationHandler(a.Log))
	worker.RegisterHandler(jobs.TaskTypeInventorySnapshot, handlers.NewInventorySnapshotHandler(a.Backend.Store, a.Log))
	if err := worker.Start(); err != nil {
		return fmt.Errorf("start jobs worker: %w", err)
	}
	a.Shutdown.Register("jobs-worker", func(context.Context) error {
		worker.Shutdown()
		return nil
	})

	scheduler := jobs.NewScheduler(a.redisConnOpt(), cfg.Jobs.SnapshotSpec, a.Log)
	if err := scheduler.RegisterTasks(); err != nil {
		return fmt.Errorf("register scheduled tasks: %w", err)
	}
	scheduler.Run()
	a.Shutdown.Register("jobs-scheduler", func(context.Context) error {
		scheduler.Shutdown()
		return nil
	})

	return nil
}

// Handler builds the HTTP surface. SSE endpoints are included when the MCP
// transport is sse.
func (a *App) Handler() http.Handler {
	opts := httpapi.Options{
		Service: a.Config.Service.Name,
		Version: a.Config.Service.Version,
		Checker: a.Probes,
	}

	if a.Config.MCP.Transport == "sse" {
		baseURL := a.Config.MCP.BaseURL
		if baseURL == "" {
			baseURL = fmt.Sprintf("http://localhost:%d", a.Config.Server.Port)
		}
		sse := a.Tools.SSE(baseURL)
		opts.SSE = sse.SSEHandler()
		opts.Message = sse.MessageHandler()
	}

	return httpapi.NewRouter(opts, a.Log)
}

// Serve runs the HTTP server and background work until ctx is canceled, then
// executes the shutdown hooks.
func (a *App) Serve(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.startBackground(runCtx); err != nil {
		return err
	}

	srv := graceful.NewServer(a.Log, &http.Server{
		Addr:              a.Config.Server.Address(),
		Handler:           a.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}, a.Config.Server.ShutdownTimeout)

	serveErr := srv.ListenAndServe(runCtx)
	cancel()

	return errors.Join(serveErr, a.Close(context.Background()))
}

// ServeStdio serves the tools over stdin/stdout until EOF, then executes the shutdown hooks.
func (a *App) ServeStdio(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	if err := a.startBackground(runCtx); err != nil {
		return err
	}

	serveErr := a.Tools.ServeStdio()
	cancel()

	return errors.Join(serveErr, a.Close(context.Background()))
}

// Close runs the shutdown hooks within the configured shutdown timeout.
func (a *App) Close(ctx context.Context) error {
	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return a.Shutdown.Execute(ctx)
}

// ApplyConfig re-applies the settings that can change without a restart.
func (a *App) ApplyConfig(cfg *config.Config) {
	if a.LevelVar == nil {
		return
	}

	level, err := logger.ParseLevel(cfg.Logger.Level)
	if err != nil {
		a.Log.Warn("ignoring invalid log level", slog.String("level", cfg.Logger.Level))
		return
	}

	a.LevelVar.Set(level)
	a.Log.Info("log level updated", slog.String("level", level.String()))
}
