package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/phrazzld/matcher-api/internal/api"
	apimiddleware "github.com/phrazzld/matcher-api/internal/api/middleware"
	"github.com/phrazzld/matcher-api/internal/config"
	"github.com/phrazzld/matcher-api/internal/inference"
	"github.com/phrazzld/matcher-api/internal/platform/gemini"
	"github.com/phrazzld/matcher-api/internal/platform/openrouter"
	"github.com/phrazzld/matcher-api/internal/platform/postgres"
	"github.com/phrazzld/matcher-api/internal/platform/postgres/migrations"
	"github.com/phrazzld/matcher-api/internal/service"
	"github.com/phrazzld/matcher-api/internal/store"
	"github.com/phrazzld/matcher-api/internal/task"
)

// application holds the wired dependencies for one server process.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	queueStore     store.QueueStore
	candidateStore store.CandidateStore

	intakeService *service.IntakeService
	jobService    *service.JobService
	matchService  *service.MatchService

	runner *task.Runner
}

// buildApplication connects the database, applies migrations, constructs the
// inference provider, and wires stores, services, and the worker runner.
func buildApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := migrations.Up(db); err != nil {
		return nil, err
	}

	provider, err := newProvider(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	resumeStore := postgres.NewResumeStore(db)
	candidateStore := postgres.NewCandidateStore(db)
	jobStore := postgres.NewJobStore(db)
	matchStore := postgres.NewMatchStore(db)
	queueStore := postgres.NewQueueStore(db)
	matchCompleter := postgres.NewMatchCompleter(db)

	intakeService := service.NewIntakeService(
		resumeStore,
		candidateStore,
		queueStore,
		provider,
		service.PlainTextExtractor{},
		cfg.Worker.MaxAttempts,
		logger,
	)
	jobService := service.NewJobService(jobStore, queueStore, provider, cfg.Worker.MaxAttempts, logger)
	matchService := service.NewMatchService(
		candidateStore,
		resumeStore,
		jobStore,
		matchStore,
		queueStore,
		provider,
		cfg.Worker.MaxAttempts,
		logger,
	)

	processors := []task.Processor{
		task.NewExtractionProcessor(resumeStore, candidateStore, provider),
		task.NewAnonymizationProcessor(resumeStore, provider),
		task.NewAnalysisProcessor(jobStore, provider),
		task.NewMatchProcessor(candidateStore, jobStore, resumeStore, matchStore, matchCompleter, provider),
	}

	runner, err := task.NewRunner(
		processors,
		queueStore,
		cfg.Worker.MaxAttempts,
		time.Duration(cfg.Worker.PollIntervalSeconds)*time.Second,
		time.Duration(cfg.Worker.ShutdownGraceSeconds)*time.Second,
		logger,
	)
	if err != nil {
		return nil, err
	}

	return &application{
		config:         cfg,
		logger:         logger,
		db:             db,
		queueStore:     queueStore,
		candidateStore: candidateStore,
		intakeService:  intakeService,
		jobService:     jobService,
		matchService:   matchService,
		runner:         runner,
	}, nil
}

// newProvider constructs the configured inference provider.
func newProvider(ctx context.Context, cfg *config.Config, logger *slog.Logger) (inference.Provider, error) {
	switch cfg.LLM.Provider {
	case "gemini":
		provider, err := gemini.New(ctx, logger, cfg.LLM)
		if err != nil {
			return nil, err
		}
		return provider, nil
	case "openrouter":
		provider, err := openrouter.New(logger, cfg.LLM)
		if err != nil {
			return nil, err
		}
		return provider, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLM.Provider)
	}
}

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(apimiddleware.Trace)

	resumeHandler := api.NewResumeHandler(app.intakeService, app.candidateStore, app.logger)
	jobHandler := api.NewJobHandler(app.jobService, app.logger)
	matchHandler := api.NewMatchHandler(app.matchService, app.logger)
	queueHandler := api.NewQueueHandler(app.queueStore, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Post("/resumes", resumeHandler.UploadResumes)
		r.Get("/resumes/{id}/candidate", resumeHandler.GetCandidate)
		r.Post("/jobs", jobHandler.SubmitJob)
		r.Post("/matches", matchHandler.Match)
		r.Get("/queue/stats", queueHandler.GetStats)
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}

// cleanup releases resources held by the application.
func (app *application) cleanup() {
	if err := app.db.Close(); err != nil {
		app.logger.Error("Failed to close database", "error", err)
	}
}
