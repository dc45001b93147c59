package main

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/aretw0/emergence/internal/config"
	"github.com/aretw0/emergence/internal/logging"
	"github.com/aretw0/emergence/pkg/adapters/file"
	"github.com/aretw0/emergence/pkg/adapters/memory"
	"github.com/aretw0/emergence/pkg/adapters/player"
	"github.com/aretw0/emergence/pkg/adapters/redis"
	"github.com/aretw0/emergence/pkg/domain"
	"github.com/aretw0/emergence/pkg/ports"
	"github.com/aretw0/emergence/pkg/session"
	"github.com/spf13/cobra"
)

// app is the configuration and logger shared by the commands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
}

// loadApp resolves config file, environment and flags, in that order of precedence.
// A positional argument replaces the document path.
func loadApp(cmd *cobra.Command, args []string) (*app, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if doc, _ := cmd.Flags().GetString("document"); doc != "" {
		cfg.Document = doc
	}
	if len(args) > 0 {
		cfg.Document = args[0]
	}
	if v, _ := cmd.Flags().GetString("log-level"); v != "" {
		cfg.Log.Level = v
	}
	if v, _ := cmd.Flags().GetString("log-format"); v != "" {
		cfg.Log.Format = v
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	level, err := logging.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, err
	}
	logger := logging.NewWithOptions(cmd.ErrOrStderr(), level, logging.Format(cfg.Log.Format))
	return &app{cfg: cfg, logger: logger}, nil
}

func (a *app) source() *file.Source {
	return file.NewSource(a.cfg.Document, file.WithLogger(a.logger))
}

func (a *app) player() *player.Timed {
	seq := a.cfg.Sequences
	return player.NewTimed(
		player.WithDuration(domain.SequenceEmergence, seq.Emergence),
		player.WithDuration(domain.SequenceBurst, seq.Burst),
		player.WithDuration(domain.SequenceReveal, seq.Reveal),
		player.WithDuration(domain.SequenceTeardown, seq.Teardown),
	)
}

// sessions builds the snapshot store and, for redis, a distributed lock. The returned
// func releases connections.
func (a *app) sessions() (*session.Manager, func() error, error) {
	noop := func() error { return nil }
	opts := []session.Option{session.WithLogger(a.logger)}

	var store ports.SnapshotStore
	switch a.cfg.Store.Driver {
	case "file":
		store = file.NewStore(filepath.Clean(a.cfg.Store.Path))
	case "redis":
		rs, err := redis.New(a.cfg.Store.RedisURL, redis.WithTTL(a.cfg.Store.TTL))
		if err != nil {
			return nil, noop, err
		}
		store = rs
		opts = append(opts, session.WithLocker(redis.NewLocker(rs.Client(), "emergence:lock:")))
		return session.NewManager(store, opts...), rs.Close, nil
	case "memory":
		store = memory.NewStore()
	default:
		return nil, noop, fmt.Errorf("unknown store driver %q", a.cfg.Store.Driver)
	}
	return session.NewManager(store, opts...), noop, nil
}
