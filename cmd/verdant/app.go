package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nvandessel/verdant/internal/config"
	"github.com/nvandessel/verdant/internal/garden"
	"github.com/nvandessel/verdant/internal/logging"
	"github.com/nvandessel/verdant/internal/metrics"
	"github.com/nvandessel/verdant/internal/random"
	"github.com/nvandessel/verdant/internal/store"
	"github.com/spf13/cobra"
)

// app bundles what every garden command needs: the loaded configuration
// and a Service over the configured store.
type app struct {
	cfg       *config.VerdantConfig
	svc       *garden.Service
	store     store.GardenStore
	recorder  *metrics.Recorder
	logger    *slog.Logger
	decisions *logging.DecisionLogger

	root     string
	gardenID string
	jsonOut  bool
}

// newApp loads config and opens the store named by it. Callers must Close.
func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	root, _ := cmd.Flags().GetString("root")
	gardenID, _ := cmd.Flags().GetString("garden")
	jsonOut, _ := cmd.Flags().GetBool("json")

	// An explicit --root wins over storage.root from the config file.
	storeRoot := ""
	if f := cmd.Flags().Lookup("root"); f != nil && f.Changed {
		storeRoot = root
	} else if cfg.Storage.Root == "" {
		storeRoot = root
	}

	st, err := store.Open(cmd.Context(), cfg.StoreOptions(storeRoot))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	logger := logging.NewLogger(cfg.Logging.Level, cfg.Logging.Format, os.Stderr)
	decisions := logging.NewDecisionLogger(store.LocalVerdantPath(root), cfg.Logging.Level)
	recorder := metrics.NewRecorder()

	opts := []garden.Option{
		garden.WithConfig(cfg.GardenConfig()),
		garden.WithLogger(logger),
		garden.WithDecisionLogger(decisions),
		garden.WithRecorder(recorder),
	}
	if cfg.Simulation.Seed != 0 {
		opts = append(opts, garden.WithRandom(random.New(int64(cfg.Simulation.Seed))))
	}

	return &app{
		cfg:       cfg,
		svc:       garden.NewService(st, opts...),
		store:     st,
		recorder:  recorder,
		logger:    logger,
		decisions: decisions,
		root:      root,
		gardenID:  gardenID,
		jsonOut:   jsonOut,
	}, nil
}

// Close releases the store and the decision log.
func (a *app) Close() error {
	a.decisions.Close()
	return a.store.Close()
}
