package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/hostflow/hostflow/internal/cache"
	"github.com/hostflow/hostflow/internal/config"
	"github.com/hostflow/hostflow/internal/insights"
	"github.com/hostflow/hostflow/internal/logging"
	"github.com/hostflow/hostflow/internal/remote"
	"github.com/hostflow/hostflow/internal/session"
	"github.com/hostflow/hostflow/internal/state"
	"github.com/hostflow/hostflow/internal/sync"
)

// appVersion stamps pushed snapshots so an older console can warn when a
// newer client wrote the cloud copy.
const appVersion = "v9.0.0"

// App wires the full console stack for one command invocation.
type App struct {
	Cfg     *config.Config
	Cache   *cache.Cache
	Store   *state.Store
	Remote  *remote.Client
	Orch    *sync.Orchestrator
	Session *session.Manager
	Advisor *insights.Advisor
	Logger  *log.Logger

	logCloser io.Closer
}

// openApp builds the stack and bootstraps the session from the local cache
// and the cloud store.
func openApp(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := logging.New("hostflow")

	inv, err := state.DefaultInventory()
	if err != nil {
		return nil, fmt.Errorf("failed to load inventory catalog: %w", err)
	}
	store := state.NewStore(inv, state.DefaultStayPackages(), appVersion)

	c, err := cache.Open(filepath.Join(cfg.DataDir, "cache.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to open local cache: %w", err)
	}

	client := remote.New(&remote.Config{
		BaseURL: cfg.Remote.BaseURL,
		Bucket:  cfg.Remote.Bucket,
		Timeout: cfg.Remote.Timeout,
		Hints:   c,
	})

	orch := sync.New(store, c, client, &sync.Config{
		DebounceInterval: cfg.Sync.DebounceInterval,
		Logger:           logger,
	})

	app := &App{
		Cfg:     cfg,
		Cache:   c,
		Store:   store,
		Remote:  client,
		Orch:    orch,
		Session: session.New(store, c, client, orch, logger),
		Advisor: insights.New(&insights.Config{
			APIKey: cfg.AI.APIKey,
			Model:  cfg.AI.Model,
			Logger: logger,
		}),
		Logger: logger,
	}

	if err := orch.Bootstrap(ctx); err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to bootstrap session: %w", err)
	}
	return app, nil
}

// Close cancels pending sync work and releases the cache.
func (a *App) Close() {
	a.Orch.Close()
	if err := a.Cache.Close(); err != nil {
		a.Logger.Printf("WARNING: closing cache: %v", err)
	}
	if a.logCloser != nil {
		_ = a.logCloser.Close()
	}
}

// flush pushes unsynced edits before a one-shot command exits. The debounce
// window suits a long-lived console; a command that mutates and exits would
// otherwise strand its edits in the local cache until the next run. A failed
// push is a warning, not a command failure — the edit is already durable
// locally and the next mutation retries.
func (a *App) flush(ctx context.Context) error {
	if a.Orch.Phase() != sync.PhaseReady {
		return nil
	}
	st := a.Orch.Status()
	if !st.PushPending && !st.PushInFlight {
		return nil
	}
	if _, err := a.Orch.ForcePush(ctx); err != nil {
		a.Logger.Printf("WARNING: cloud push failed, edits kept locally: %v", err)
	}
	return nil
}

// requireUser returns the signed-in operator or an error telling the user
// to log in.
func (a *App) requireUser() (*state.User, error) {
	u := a.Store.CurrentUser()
	if u == nil {
		return nil, fmt.Errorf("not signed in — run 'hostflow login' first")
	}
	return u, nil
}

// readLines reads a file into trimmed, non-empty lines.
func readLines(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, nil
}
