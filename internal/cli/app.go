package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/greenpoint-eco/greenpoint/internal/app/chat"
	"github.com/greenpoint-eco/greenpoint/internal/app/energy"
	"github.com/greenpoint-eco/greenpoint/internal/app/engagement"
	"github.com/greenpoint-eco/greenpoint/internal/app/events"
	"github.com/greenpoint-eco/greenpoint/internal/app/leaderboard"
	"github.com/greenpoint-eco/greenpoint/internal/daemon"
	"github.com/greenpoint-eco/greenpoint/internal/domain"
	"github.com/greenpoint-eco/greenpoint/internal/infra/logger"
	"github.com/greenpoint-eco/greenpoint/internal/infra/ollama"
	"github.com/greenpoint-eco/greenpoint/internal/infra/redis"
	"github.com/greenpoint-eco/greenpoint/internal/infra/sqlite"
	"github.com/greenpoint-eco/greenpoint/internal/infra/store"
)

// ─── Service Wiring ─────────────────────────────────────────────────────────
// app holds one fully wired service graph. serve and the one-shot commands
// build the same graph so they read and write the same records.

type app struct {
	cfg       daemon.Config
	log       *logger.Logger
	store     *store.Store
	bus       *events.Bus
	board     *leaderboard.Service
	estimator *energy.Estimator
	engine    *engagement.Engine
	chat      *chat.Service
}

// newApp opens the configured store, seeds the teams and wires services.
func newApp(ctx context.Context, cfg daemon.Config, log *logger.Logger) (*app, error) {
	kv, err := openKV(ctx, cfg, log)
	if err != nil {
		return nil, err
	}
	st := store.New(kv)

	bus := events.NewBus(log)
	board := leaderboard.New(st, bus, log)
	if _, err := board.Seed(ctx); err != nil {
		st.Close()
		return nil, fmt.Errorf("seed teams: %w", err)
	}

	est := energy.New(estimatorConfig(cfg), newClassifier(cfg, log), log)

	engine := engagement.New(st, board, bus, log)
	svc := chat.New(st, est, engine, board, log)

	return &app{
		cfg:       cfg,
		log:       log,
		store:     st,
		bus:       bus,
		board:     board,
		estimator: est,
		engine:    engine,
		chat:      svc,
	}, nil
}

func (a *app) Close() error { return a.store.Close() }

func openKV(ctx context.Context, cfg daemon.Config, log *logger.Logger) (store.KV, error) {
	switch cfg.Store.Backend {
	case daemon.BackendMemory:
		log.Warn("using in-memory store; records are lost on exit")
		return store.NewMemoryKV(), nil
	case daemon.BackendRedis:
		kv, err := redis.New(ctx, redis.Options{
			URL:    cfg.Store.RedisURL,
			Addr:   cfg.Store.RedisAddr,
			Prefix: cfg.Store.RedisPrefix,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("open redis store: %w", err)
		}
		return kv, nil
	default:
		db, err := sqlite.Open(cfg.StorePath())
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return db, nil
	}
}

func estimatorConfig(cfg daemon.Config) energy.Config {
	return energy.Config{
		ClassifierTimeout: daemon.ParseDuration(cfg.Estimator.ClassifierTimeout, energy.DefaultConfig().ClassifierTimeout),
		Seed:              cfg.Estimator.Seed,
	}
}

// newClassifier returns nil when the classifier is disabled, which selects
// the heuristic estimator.
func newClassifier(cfg daemon.Config, log *logger.Logger) domain.Classifier {
	if !cfg.Classifier.Enabled {
		return nil
	}
	c := ollama.New(ollama.Config{
		BaseURL:     cfg.Classifier.URL,
		Model:       cfg.Classifier.Model,
		Temperature: cfg.Classifier.Temperature,
		NumPredict:  cfg.Classifier.NumPredict,
		Timeout:     daemon.ParseDuration(cfg.Classifier.Timeout, ollama.DefaultTimeout),
	}, log)
	log.Info("classifier enabled", "url", cfg.Classifier.URL, "model", c.Model())
	return c
}

// openApp loads config and builds an app with a quiet logger for one-shot
// commands.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := logger.New("prod")
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg, log)
}

func commandContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 2*time.Minute)
}
