package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/greenqa/internal/analysis"
	"github.com/kailas-cloud/greenqa/internal/config"
	"github.com/kailas-cloud/greenqa/internal/db"
	dbBolt "github.com/kailas-cloud/greenqa/internal/db/bolt"
	dbRedis "github.com/kailas-cloud/greenqa/internal/db/redis"
	"github.com/kailas-cloud/greenqa/internal/domain"
	"github.com/kailas-cloud/greenqa/internal/domain/document"
	"github.com/kailas-cloud/greenqa/internal/domain/simplify"
	logpkg "github.com/kailas-cloud/greenqa/internal/logger"
	"github.com/kailas-cloud/greenqa/internal/metrics"
	snapshotrepo "github.com/kailas-cloud/greenqa/internal/repository/snapshot"
	"github.com/kailas-cloud/greenqa/internal/sample"
	qauc "github.com/kailas-cloud/greenqa/internal/usecase/qa"
)

// app is the composition root shared by all commands.
type app struct {
	cfg       config.Config
	logger    *zap.Logger
	store     db.Store
	snapshots *snapshotrepo.Repo
	qa        *qauc.Service
}

// newApp loads config, connects storage and wires the question answering service.
// loggerEnv is the logger preset: the config env for serve, "cli" for one-shot commands.
func newApp(ctx context.Context, env, loggerEnv string) (*app, error) {
	cfg, err := config.Load(env)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	var logger *zap.Logger
	if loggerEnv == env {
		logger, err = logpkg.NewLogger(loggerEnv, cfg.Logging.Level)
	} else {
		logger, err = logpkg.NewLogger(loggerEnv)
	}
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	store, err := openStore(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Database.Driver, err)
	}
	if err := store.WaitForReady(ctx, time.Duration(cfg.Database.ReadinessTimeout)*time.Second); err != nil {
		store.Close()
		return nil, fmt.Errorf("database not ready: %w", err)
	}

	// Register index metrics explicitly (no init())
	metrics.RegisterQAMetrics()

	snapshots, err := snapshotrepo.New(store, cfg.Storage.KeyPrefix)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("create snapshot repository: %w", err)
	}

	analyzer, err := analysis.New()
	if err != nil {
		snapshots.Close()
		store.Close()
		return nil, fmt.Errorf("create analyzer: %w", err)
	}

	qa, err := qauc.New(
		qauc.Params{Chunking: cfg.Chunking.Params(), MaxFeatures: cfg.Retrieval.MaxFeatures},
		analyzer,
		simplify.New(simplify.DefaultRules(), cfg.Simplify.Options()),
		snapshots,
		logger,
	)
	if err != nil {
		snapshots.Close()
		store.Close()
		return nil, fmt.Errorf("create qa service: %w", err)
	}

	return &app{
		cfg:       cfg,
		logger:    logger,
		store:     store,
		snapshots: snapshots,
		qa:        qa,
	}, nil
}

func (a *app) close() {
	a.snapshots.Close()
	a.store.Close()
	_ = a.logger.Sync()
}

// openStore creates the snapshot store for the configured driver.
func openStore(cfg config.DatabaseConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverBolt:
		s, err := dbBolt.NewStore(dbBolt.Config{Path: cfg.Path})
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverRedis:
		s, err := dbRedis.NewStore(dbRedis.Config{Addrs: cfg.Addrs, Password: cfg.Password})
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown database driver %q", cfg.Driver)
	}
}

// loadInitial brings the service to BUILT at startup, in order of preference:
// the configured document file (always rebuilt, it may have changed while we were down),
// the cached snapshot, then the embedded sample. An unreadable document file falls back
// to the snapshot so a bad deploy does not take answers away.
func (a *app) loadInitial(ctx context.Context) error {
	if path := a.cfg.Document.Path; path != "" {
		_, err := a.qa.ProcessFile(ctx, path)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrUnreadable) && !errors.Is(err, domain.ErrNoChunks) {
			return fmt.Errorf("process %s: %w", path, err)
		}
		a.logger.Warn("Document not usable, falling back to cached index",
			zap.String("path", path), zap.Error(err))
	}

	restored, err := a.qa.Restore(ctx)
	if err != nil {
		return fmt.Errorf("restore index: %w", err)
	}
	if restored || !a.cfg.Document.Sample {
		return nil
	}

	doc, err := document.New(sample.Source, sample.Document())
	if err != nil {
		return fmt.Errorf("load sample: %w", err)
	}
	if _, err := a.qa.Process(ctx, doc); err != nil {
		return fmt.Errorf("process sample: %w", err)
	}
	return nil
}
