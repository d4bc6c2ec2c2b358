// Package cli implements the synapse CLI commands.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/synapse/internal/config"
	"github.com/rcliao/synapse/internal/manager"
	"github.com/rcliao/synapse/internal/observe"
	"github.com/rcliao/synapse/internal/persist"
)

var (
	dbPath     string
	configPath string
	verbose    bool
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "synapse",
	Short: "Tiered associative memory for automated agents",
	Long: "Synapse keeps an agent's memories in three tiers: a fleeting scratchpad, " +
		"a bounded working set, and a persistent long-term store whose entries form " +
		"an associative graph. Importance picks the tier; recall searches all three.",
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Storage path (default: $SYNAPSE_DB or ~/.synapse/memory.json)")
	RootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file path")
	RootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Debug logging")
}

func getStorePath(cfg *config.Config) string {
	if dbPath != "" {
		return dbPath
	}
	if env := os.Getenv("SYNAPSE_DB"); env != "" {
		return env
	}
	if cfg.Storage.Path != "" {
		return cfg.Storage.Path
	}
	home, _ := os.UserHomeDir()
	name := "memory.json"
	if cfg.Storage.Backend == "sqlite" {
		name = "memory.db"
	}
	return filepath.Join(home, ".synapse", name)
}

func openManager(ctx context.Context) (*manager.Manager, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	return openManagerWith(ctx, cfg, observe.New(verbose).Log())
}

func openManagerWith(ctx context.Context, cfg *config.Config, log *zap.Logger) (*manager.Manager, error) {
	path := getStorePath(cfg)

	var p persist.Store
	var err error
	switch cfg.Storage.Backend {
	case "", "json":
		p, err = persist.NewFileStore(path)
	case "sqlite":
		p, err = persist.NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
	if err != nil {
		return nil, err
	}

	m := manager.New(p, manager.Options{
		WorkingSetSize:       cfg.WorkingSet.MaxSize,
		CompressionThreshold: cfg.WorkingSet.CompressionThreshold,
		DecayRate:            cfg.Graph.DecayRate,
		MaxStrength:          cfg.Graph.MaxStrength,
		PruneThreshold:       cfg.LongTerm.PruneThreshold,
		MaxEntries:           cfg.LongTerm.MaxEntries,
		Logger:               log,
	})
	m.Initialize(ctx)
	return m, nil
}

func exitErr(msg string, err error) {
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}
