package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/aretw0/chatter/internal/config"
	"github.com/aretw0/chatter/pkg/adapters/file"
	"github.com/aretw0/chatter/pkg/adapters/memory"
	redisadapter "github.com/aretw0/chatter/pkg/adapters/redis"
	"github.com/aretw0/chatter/pkg/adapters/sqlite"
	"github.com/aretw0/chatter/pkg/persistence/middleware"
	"github.com/aretw0/chatter/pkg/ports"
)

// pingTimeout bounds the startup connectivity check of network backends.
const pingTimeout = 5 * time.Second

// Stores bundles the persistence of one storage backend.
type Stores struct {
	Nodes       ports.NodeStore
	Submissions ports.SubmissionStore
	// Locker is nil for single-process backends.
	Locker ports.DistributedLocker

	closers []func() error
}

// Close releases connections held by the backend.
func (s *Stores) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}

// OpenStores builds the node and submission stores for the configured backend.
// Lead fields are redacted and sealed when the config asks for it.
func OpenStores(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*Stores, error) {
	stores, err := openBackend(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var mws []middleware.Middleware
	if len(cfg.Redact) > 0 {
		pii, err := middleware.NewPIIMiddleware(cfg.Redact)
		if err != nil {
			_ = stores.Close()
			return nil, err
		}
		mws = append(mws, pii)
		logger.Info("Redacting lead fields", "patterns", cfg.Redact)
	}
	active, fallback, err := cfg.Keys()
	if err != nil {
		_ = stores.Close()
		return nil, err
	}
	if active != nil {
		enc, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: active, FallbackKeys: fallback})
		if err != nil {
			_ = stores.Close()
			return nil, err
		}
		mws = append(mws, enc)
		logger.Info("Encrypting lead fields at rest", "fallback_keys", len(fallback))
	}
	stores.Submissions = middleware.Chain(stores.Submissions, mws...)
	return stores, nil
}

func openBackend(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (*Stores, error) {
	switch cfg.Backend {
	case config.BackendMemory, "":
		nodes, err := memory.NewNodeStore()
		if err != nil {
			return nil, err
		}
		logger.Warn("Using in-memory storage; rules and leads are lost on exit")
		return &Stores{Nodes: nodes, Submissions: memory.NewSubmissionStore()}, nil

	case config.BackendSQLite:
		db, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, err
		}
		nodes, err := sqlite.NewNodeStore(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		subs, err := sqlite.NewSubmissionStore(db)
		if err != nil {
			_ = db.Close()
			return nil, err
		}
		logger.Info("Using SQLite storage", "path", cfg.SQLite.Path)
		return &Stores{Nodes: nodes, Submissions: subs, closers: []func() error{db.Close}}, nil

	case config.BackendRedis:
		client := redisadapter.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("failed to reach redis at %s: %w", cfg.Redis.Addr, err)
		}
		prefix := redisadapter.WithPrefix(cfg.Redis.Prefix)
		logger.Info("Using Redis storage", "addr", cfg.Redis.Addr, "prefix", cfg.Redis.Prefix)
		return &Stores{
			Nodes:       redisadapter.NewNodeStore(client, prefix),
			Submissions: redisadapter.NewSubmissionStore(client, prefix),
			Locker:      redisadapter.NewLocker(client, cfg.Redis.Prefix),
			closers:     []func() error{client.Close},
		}, nil

	case config.BackendFile:
		nodes := file.NewNodeStore(cfg.File.Path)
		subs := file.NewSubmissionStore(filepath.Join(filepath.Dir(nodes.Path()), "submissions.json"))
		logger.Info("Using file storage", "path", nodes.Path())
		return &Stores{Nodes: nodes, Submissions: subs}, nil

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
