package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/learnflex/learnflex-api/internal/api"
	"github.com/learnflex/learnflex-api/internal/bundle"
	"github.com/learnflex/learnflex-api/internal/config"
	"github.com/learnflex/learnflex-api/internal/docsync"
	"github.com/learnflex/learnflex-api/internal/domain"
	"github.com/learnflex/learnflex-api/internal/events"
	"github.com/learnflex/learnflex-api/internal/platform/cache"
	"github.com/learnflex/learnflex-api/internal/platform/gemini"
	"github.com/learnflex/learnflex-api/internal/platform/observability"
	"github.com/learnflex/learnflex-api/internal/platform/postgres"
	"github.com/learnflex/learnflex-api/internal/platform/storage"
	"github.com/learnflex/learnflex-api/internal/service"
	"github.com/learnflex/learnflex-api/internal/service/auth"
	"github.com/learnflex/learnflex-api/internal/session"
	"github.com/learnflex/learnflex-api/internal/task"
)

// syncChannel is the Redis channel carrying sync status between instances.
const syncChannel = "learnflex:sync-status"

// sessionSweepInterval is how often idle action sessions are expired.
const sessionSweepInterval = time.Minute

// application holds the shared dependencies and owns their shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	cache           cache.Cache
	jwtService      auth.JWTService
	taskRunner      *task.TaskRunner
	handlers        api.Handlers
	shutdownTracing observability.ShutdownFunc

	// cancel stops background goroutines started for the application.
	cancel context.CancelFunc
}

// newApplication builds every store, service and handler. Background work
// (task workers, session janitors, the sync bus) runs until cleanup.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	bg, cancel := context.WithCancel(context.WithoutCancel(ctx))
	app := &application{config: cfg, logger: logger, db: db, cancel: cancel}
	ok := false
	defer func() {
		if !ok {
			app.cleanup()
		}
	}()

	var err error
	app.shutdownTracing, err = observability.SetupTracing(ctx, cfg.Telemetry, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	users := postgres.NewPostgresUserStore(db, cfg.Auth.BcryptCost, logger)
	tasks := postgres.NewPostgresTaskStore(db, logger)
	documents := postgres.NewRawDocumentStore(db, logger)
	repos := service.Repositories{
		Profiles:  postgres.NewDocumentStore[domain.Profile](db, logger),
		Curricula: postgres.NewDocumentStore[domain.Curriculum](db, logger),
		Modules:   postgres.NewDocumentStore[domain.Module](db, logger),
		Lessons:   postgres.NewDocumentStore[domain.Lesson](db, logger),
		Sections:  postgres.NewDocumentStore[domain.Section](db, logger),
	}

	var bus docsync.Bus
	app.cache, bus, err = setupCache(ctx, cfg.Cache, logger)
	if err != nil {
		return nil, err
	}
	bundles := bundle.NewManager(repos, app.cache,
		time.Duration(cfg.Cache.BundleTTLMinutes)*time.Minute, logger)

	generator, err := gemini.NewGeminiGenerator(ctx, logger, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM generator: %w", err)
	}
	logger.Info("LLM generator initialized", "model", cfg.LLM.ModelName)

	var photos service.PhotoPresigner
	if cfg.Storage.Enabled() {
		presigner, err := storage.NewS3Presigner(ctx, cfg.Storage)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize photo storage: %w", err)
		}
		photos = presigner
		logger.Info("photo storage enabled", "bucket", cfg.Storage.Bucket)
	}

	emitter := events.NewInMemoryEventEmitter(logger)
	library := service.NewLibraryService(db, repos, generator, emitter, tasks, bundles, logger)

	factory := task.NewContentTaskFactory(library, logger)
	app.taskRunner = task.NewTaskRunner(tasks, factory, task.TaskRunnerConfig{
		WorkerCount:  cfg.Task.WorkerCount,
		QueueSize:    cfg.Task.QueueSize,
		StuckTaskAge: time.Duration(cfg.Task.StuckTaskAgeMinutes) * time.Minute,
	}, logger)
	emitter.RegisterHandler(task.NewTaskFactoryEventHandler(factory, app.taskRunner, logger))
	if err := app.taskRunner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}

	profiles := service.NewProfileService(db, repos.Profiles, users, photos, bundles, logger)
	accounts := service.NewAuthService(db, users, documents, app.jwtService, auth.NewBcryptVerifier(), bundles, logger)
	quizzes := service.NewQuizService(db, repos, generator, cfg.Learning.PassingRatio, bundles, logger)
	questionnaire := service.NewQuestionnaireService(generator, repos.Profiles, profiles, logger)
	dashboard := service.NewDashboardService(repos, cfg.Learning.PassingRatio, logger)

	syncManager := docsync.NewManager(db, documents, bundles, logger)
	if bus != nil {
		if err := syncManager.AttachBus(bg, bus); err != nil {
			return nil, err
		}
	}

	sessionTTL := time.Duration(cfg.Session.TTLMinutes) * time.Minute
	quizSessions := session.NewRegistry[session.QuizState, session.Action](sessionTTL, logger)
	styleSessions := session.NewRegistry[session.QuestionnaireState, session.Action](sessionTTL, logger)
	go quizSessions.RunJanitor(bg, sessionSweepInterval)
	go styleSessions.RunJanitor(bg, sessionSweepInterval)

	app.handlers = api.Handlers{
		Auth:      api.NewAuthHandler(accounts, []api.OwnedSessions{quizSessions, styleSessions}, logger),
		Profile:   api.NewProfileHandler(profiles, logger),
		Sessions:  api.NewSessionHandler(questionnaire, quizzes, quizSessions, styleSessions, logger),
		Library:   api.NewLibraryHandler(library, bundles, logger),
		Dashboard: api.NewDashboardHandler(dashboard, logger),
		Sync:      api.NewSyncHandler(syncManager, cfg.Server.AllowedOrigins, logger),
		Health: api.NewHealthHandler(map[string]api.HealthCheck{
			"database": db.PingContext,
			"cache":    app.cache.HealthCheck,
		}, logger),
	}

	ok = true
	logger.Info("application initialized")
	return app, nil
}

// setupCache connects to Redis when a URL is configured and returns the
// status bus sharing its client. Without a URL the in-process cache is used
// and sync status stays local to this instance.
func setupCache(ctx context.Context, cfg config.CacheConfig, logger *slog.Logger) (cache.Cache, docsync.Bus, error) {
	if cfg.URL == "" {
		logger.Info("using in-memory cache")
		return cache.NewMemory(), nil, nil
	}

	redisCache, err := cache.NewRedis(ctx, cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	bus, err := cache.NewRedisPubSub(redisCache, syncChannel, logger)
	if err != nil {
		_ = redisCache.Close()
		return nil, nil, fmt.Errorf("failed to set up sync bus: %w", err)
	}
	logger.Info("using redis cache")
	return redisCache, bus, nil
}

// Run serves HTTP until ctx is canceled, then shuts everything down.
func (app *application) Run(ctx context.Context) error {
	err := app.startHTTPServer(ctx, app.setupRouter())
	app.cleanup()
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// cleanup releases resources in reverse order of creation. It is safe to
// call on a partially built application.
func (app *application) cleanup() {
	if app.cancel != nil {
		app.cancel()
	}
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}
	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			app.logger.Error("error closing cache", "error", err)
		}
	}
	if app.shutdownTracing != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := app.shutdownTracing(ctx); err != nil {
			app.logger.Error("error flushing traces", "error", err)
		}
		cancel()
	}
	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}
	app.logger.Info("application shutdown completed")
}
