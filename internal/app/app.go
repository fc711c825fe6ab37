// Package app builds and owns the application's components: config,
// logger, database pool, knowledge store, model gateway, tools, and the
// conversation router.
package app

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/valet-ai/valet/db"
	"github.com/valet-ai/valet/internal/agent"
	"github.com/valet-ai/valet/internal/config"
	"github.com/valet-ai/valet/internal/knowledge"
	"github.com/valet-ai/valet/internal/llm"
	"github.com/valet-ai/valet/internal/log"
	"github.com/valet-ai/valet/internal/rag"
	"github.com/valet-ai/valet/internal/scheduler"
	"github.com/valet-ai/valet/internal/tools"
)

// connectTimeout bounds the initial database connection attempt.
const connectTimeout = 10 * time.Second

// App is the application container.
type App struct {
	Config    *config.Config
	Logger    log.Logger
	Pool      *pgxpool.Pool
	Store     *knowledge.Store
	Client    llm.Client
	Indexer   *rag.Indexer
	Retriever *rag.Retriever
	Tools     *tools.Registry
	Router    *agent.Router
	Scheduler *scheduler.Service
}

// New loads configuration, runs migrations, and wires every component.
// Call Close when done.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return NewWithConfig(ctx, cfg)
}

// NewWithConfig wires the application from an already validated config.
func NewWithConfig(ctx context.Context, cfg *config.Config) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	logger := log.New(log.Config{
		Level: log.ParseLevel(cfg.LogLevel),
		JSON:  !cfg.IsDevelopment(),
	})

	if err := db.Migrate(cfg.PostgresURL()); err != nil {
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	pool, err := pgxpool.New(connectCtx, cfg.PostgresConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	a, err := assemble(cfg, logger, pool)
	if err != nil {
		pool.Close()
		return nil, err
	}
	return a, nil
}

// assemble wires the components above the database layer.
func assemble(cfg *config.Config, logger log.Logger, pool *pgxpool.Pool) (*App, error) {
	store, err := knowledge.NewStore(pool, logger)
	if err != nil {
		return nil, fmt.Errorf("building store: %w", err)
	}

	client, err := llm.NewOpenAI(cfg.OpenAIAPIKey, cfg.ChatModel, cfg.EmbeddingModel)
	if err != nil {
		return nil, fmt.Errorf("building model client: %w", err)
	}

	chunker := rag.NewChunker(cfg.ChunkSize, cfg.ChunkOverlap)
	extractor := rag.NewExtractor(logger)
	indexer, err := rag.NewIndexer(store, client, extractor, chunker, logger)
	if err != nil {
		return nil, fmt.Errorf("building indexer: %w", err)
	}
	retriever, err := rag.NewRetriever(store, client, logger)
	if err != nil {
		return nil, fmt.Errorf("building retriever: %w", err)
	}

	registry := tools.NewRegistry(logger)
	var auth *tools.GoogleAuth
	if cfg.GoogleCredentialsFile != "" {
		auth = tools.NewGoogleAuth(cfg.GoogleCredentialsFile, cfg.GoogleTokenDir)
	}
	if err := tools.RegisterBuiltins(registry, auth, retriever, cfg.TopK); err != nil {
		return nil, fmt.Errorf("registering tools: %w", err)
	}

	router, err := agent.NewRouter(client, registry, logger,
		agent.WithMaxRounds(cfg.MaxRounds))
	if err != nil {
		return nil, fmt.Errorf("building router: %w", err)
	}

	sched := scheduler.New(logger)
	a := &App{
		Config:    cfg,
		Logger:    logger,
		Pool:      pool,
		Store:     store,
		Client:    client,
		Indexer:   indexer,
		Retriever: retriever,
		Tools:     registry,
		Router:    router,
		Scheduler: sched,
	}
	if err := a.registerJobs(); err != nil {
		return nil, fmt.Errorf("registering jobs: %w", err)
	}
	return a, nil
}

// registerJobs sets up the background work: a nightly re-index of the
// watched data directory.
func (a *App) registerJobs() error {
	if a.Config.DataDir == "" {
		return nil
	}
	return a.Scheduler.Daily("reindex-data-dir", 3, 0, func(ctx context.Context) error {
		results, err := a.Indexer.IngestDir(ctx, a.Config.DataDir)
		if err != nil {
			return err
		}
		a.Logger.Info("nightly reindex complete", "documents", len(results))
		return nil
	})
}

// Close releases the application's resources.
func (a *App) Close() {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Pool != nil {
		a.Pool.Close()
		a.Logger.Info("database pool closed")
	}
}
