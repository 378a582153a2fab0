package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"trackgen/api/internal/config"
	"trackgen/api/internal/llm"
	"trackgen/api/internal/llm/gemini"
	"trackgen/api/internal/llm/gpt"
	"trackgen/api/internal/logger"
	"trackgen/api/internal/prompt"
	"trackgen/api/internal/store"
	"trackgen/api/internal/track"
)

// App holds the long-lived clients shared by every request.
type App struct {
	Config  *config.Config
	Log     *zap.Logger
	Repo    store.Repo
	Engine  llm.Engine
	Service *track.Service

	closers []func(context.Context) error
}

// NewLogger builds the process logger and replays the warnings config.Load
// collected before it existed.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	log, err := logger.New(logger.Config{Level: cfg.LogLevel, OutputPath: cfg.LogFile})
	if err != nil {
		return nil, err
	}
	for _, w := range cfg.Warnings {
		log.Warn("config", zap.String("warning", w))
	}
	return log, nil
}

// New opens the store, the optional cache and the model client. On error
// everything opened so far is closed again.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (_ *App, err error) {
	a := &App{Config: cfg, Log: log}
	defer func() {
		if err != nil {
			_ = a.Close(context.Background())
		}
	}()

	prompts, err := prompt.New(cfg.PromptDir)
	if err != nil {
		return nil, err
	}

	repo, err := OpenRepo(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	if cfg.RedisAddr != "" {
		rdb, rerr := store.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if rerr != nil {
			log.Warn("redis unavailable, track cache disabled", zap.String("addr", cfg.RedisAddr), zap.Error(rerr))
		} else {
			log.Info("track cache enabled", zap.String("addr", cfg.RedisAddr), zap.Duration("ttl", cfg.CacheTTL))
			repo = store.NewCachedRepo(repo, rdb, cfg.CacheTTL, log)
		}
	}
	a.Repo = repo
	a.closers = append(a.closers, repo.Close)

	engs := &llm.Engines{}
	if cfg.GeminiAPIKey != "" {
		g, gerr := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiTemperature)
		if gerr != nil {
			return nil, gerr
		}
		engs.Gemini = g
		a.closers = append(a.closers, func(context.Context) error { return g.Close() })
	}
	if cfg.OpenAIAPIKey != "" {
		engs.OpenAI = gpt.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, float64(cfg.OpenAITemperature))
	}
	a.Engine, err = engs.GetEngine(cfg.ModelProvider)
	if err != nil {
		return nil, fmt.Errorf("model provider: %w", err)
	}
	log.Info("model engine ready", zap.String("engine", a.Engine.Name()), zap.String("model", a.Engine.GetModel()))

	a.Service = track.NewService(a.Repo, a.Engine, prompts, log, track.Options{
		MaxCheckpoints:    cfg.MaxCheckpoints,
		DefaultFlashcards: cfg.DefaultFlashcards,
	})
	return a, nil
}

// OpenRepo connects the configured track store without a cache.
func OpenRepo(ctx context.Context, cfg *config.Config, log *zap.Logger) (store.Repo, error) {
	switch cfg.StoreBackend {
	case "", "mongo", "mongodb":
		return store.NewMongoRepo(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MongoCollection, log)
	case "postgres", "pg":
		repo, err := store.OpenPostgres(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		log.Info("db connected", zap.String("dsn", config.SafeDSNSummary(cfg.DatabaseURL)))
		return repo, nil
	default:
		return nil, fmt.Errorf("unknown STORE_BACKEND %q; use mongo or postgres", cfg.StoreBackend)
	}
}

// Close releases clients in reverse order of opening.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
