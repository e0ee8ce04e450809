// Package main implements the jurimetrics CLI: extraction, aggregation,
// influence graphs and predictive models over judicial decision texts.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fallaxis/jurimetrics/internal/catalog"
	"github.com/fallaxis/jurimetrics/internal/config"
	"github.com/fallaxis/jurimetrics/internal/logging"
	"github.com/fallaxis/jurimetrics/internal/pipeline"
	"github.com/fallaxis/jurimetrics/internal/predict"
	"github.com/fallaxis/jurimetrics/internal/storage"
	"github.com/fallaxis/jurimetrics/internal/storage/postgres"
)

var (
	configPath string
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "jurimetrics",
	Short: "Judicial pattern analysis and predictive modeling pipeline",
	Long: `jurimetrics extracts interpretable factors and citations from judicial
decision texts, aggregates them into per-entity profiles, jurisprudential
lines and influence graphs, and trains per-entity outcome models.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML config file")
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(linesCmd)
	rootCmd.AddCommand(graphCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(predictCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(serveCmd)
}

// app holds the wired process dependencies behind every subcommand.
type app struct {
	cfg     *config.Config
	logger  *zap.Logger
	store   storage.Store
	service *pipeline.Service
	close   func()
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return nil, err
	}

	cat, err := catalog.Load(cfg.Catalog.Path)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}

	var (
		store      storage.Store
		closeStore = func() {}
	)
	switch cfg.Storage.Driver {
	case "postgres":
		pg, err := postgres.New(ctx, cfg.Storage.DSN, logger)
		if err != nil {
			return nil, err
		}
		store = pg
		closeStore = pg.Close
	default:
		store = storage.NewMemoryStore()
	}

	registry, err := predict.NewRegistry(cfg.Models.Dir, logger)
	if err != nil {
		closeStore()
		return nil, err
	}

	service, err := pipeline.New(cat, store, registry, pipeline.Options{
		MinDecisionsProfile: cfg.Analysis.MinDecisionsProfile,
		MinDecisionsLine:    cfg.Analysis.MinDecisionsLine,
		MinDecisionsModel:   cfg.Analysis.MinDecisionsModel,
		SplitRatio:          cfg.Analysis.SplitRatio,
		DistanceThreshold:   cfg.Analysis.DistanceThreshold,
		SaturationK:         cfg.Analysis.SaturationK,
		MinWords:            cfg.Analysis.MinWords,
		Seed:                cfg.Analysis.Seed,
		Workers:             cfg.Pipeline.Workers,
		RetryAttempts:       cfg.Pipeline.RetryAttempts,
		RetryBackoff:        cfg.Pipeline.RetryBackoff,
	}, logger)
	if err != nil {
		closeStore()
		return nil, err
	}

	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   store,
		service: service,
		close: func() {
			closeStore()
			_ = logger.Sync()
		},
	}, nil
}

// printJSON writes v to stdout, indented.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

// printCaveats surfaces run caveats on stderr so they are visible even
// when stdout is piped into another tool.
func printCaveats(caveats []pipeline.Caveat) {
	for _, c := range caveats {
		fmt.Fprintf(os.Stderr, "caveat [%s]: %s\n", c.Kind, c.Message)
	}
}
