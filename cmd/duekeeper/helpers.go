package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/joshsymonds/duekeeper/internal/cli"
	"github.com/joshsymonds/duekeeper/internal/config"
	"github.com/joshsymonds/duekeeper/internal/engine"
	"github.com/joshsymonds/duekeeper/internal/storage"
)

// openEngine builds the engine on the configured database. The
// returned cleanup must run before the process exits.
func openEngine(ctx context.Context) (*engine.Engine, func(), error) {
	dbPath := config.ExpandPath(viper.GetString("database.path"))
	if dbPath == "" {
		var err error
		dbPath, err = config.DefaultDBPath()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	cfg := engine.DefaultConfig()
	if d := viper.GetDuration("seal.countdown"); d > 0 {
		cfg.CountdownDelay = d
	}
	if d := viper.GetDuration("seal.grace"); d > 0 {
		cfg.GraceDelay = d
	}
	cfg.CatchUp = viper.GetBool("reconcile.catch_up")

	eng := engine.NewWithConfig(store, nil, nil, cli.NewToastNotifier(), cfg)
	cleanup := func() { _ = store.Close() }
	return eng, cleanup, nil
}

// findTarget resolves a command-line target (an ID prefix or a
// case-insensitive name) against the active set.
func findTarget(views []engine.ObligationView, target string) (engine.ObligationView, error) {
	lowered := strings.ToLower(target)

	var matches []engine.ObligationView
	for _, v := range views {
		if strings.HasPrefix(v.ID.String(), lowered) || strings.ToLower(v.Name) == lowered {
			matches = append(matches, v)
		}
	}

	switch len(matches) {
	case 0:
		return engine.ObligationView{}, fmt.Errorf("no obligation matches %q", target)
	case 1:
		return matches[0], nil
	default:
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, fmt.Sprintf("%s (%s)", m.Name, m.ID.String()[:8]))
		}
		return engine.ObligationView{}, fmt.Errorf("%q is ambiguous: %s", target, strings.Join(names, ", "))
	}
}
