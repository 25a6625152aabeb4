package cmd

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/abhisek/certprep/internal/cache"
	"github.com/abhisek/certprep/internal/catalog"
	"github.com/abhisek/certprep/internal/config"
	"github.com/abhisek/certprep/internal/logging"
	"github.com/abhisek/certprep/internal/readiness"
	"github.com/abhisek/certprep/internal/store"
)

var (
	cfg    *config.Config
	logger *logrus.Logger
)

var rootCmd = &cobra.Command{
	Use:           "certprep",
	Short:         "Adaptive practice and exam readiness for certification courses",
	Long:          "certprep drills certification questions adaptively and scores how ready a learner is to sit the exam.",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return loadConfig(cmd)
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to a certprep.yaml config file")
	pf.String("db", "", "Database DSN or SQLite file path (overrides CERTPREP_DB)")
	pf.String("driver", "", "Database driver: sqlite or postgres")
	pf.String("log-level", "", "Log level: debug, info, warn, error")
	pf.String("learner", "", "Learner id")

	rootCmd.AddCommand(drillCmd)
	rootCmd.AddCommand(reportCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(importCmd)
	rootCmd.AddCommand(strengthCmd)
	rootCmd.AddCommand(resetCmd)
	rootCmd.AddCommand(llmCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig reads configuration and applies persistent flag overrides.
func loadConfig(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	c, err := config.Load(path)
	if err != nil {
		return err
	}

	overrides := map[string]*string{
		"db":        &c.Store.DSN,
		"driver":    &c.Store.Driver,
		"log-level": &c.Log.Level,
		"learner":   &c.Learner,
	}
	for name, dst := range overrides {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			*dst = f.Value.String()
		}
	}

	l, err := logging.New(c.Log, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	cfg, logger = c, l
	return nil
}

// openStore opens the configured attempt-history store.
func openStore() (*store.Store, error) {
	dsn, err := cfg.Store.ResolveDSN()
	if err != nil {
		return nil, fmt.Errorf("resolve database: %w", err)
	}
	st, err := store.Open(cfg.Store.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	return st, nil
}

// readinessAggregator builds the aggregator with the catalog's module order.
func readinessAggregator(cat *catalog.Catalog) *readiness.Aggregator {
	rc := cfg.Readiness
	if len(rc.ModuleOrder) == 0 {
		rc.ModuleOrder = cat.ModuleOrder()
	}
	return readiness.New(rc)
}

// invalidateCache drops cached snapshots after a CLI write. Failures only
// warn; a stale entry expires with its TTL.
func invalidateCache(ctx context.Context, learnerID string) {
	if cfg.Cache.Backend != "redis" {
		return
	}
	c, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		logger.WithError(err).Warn("snapshot cache unavailable")
		return
	}
	defer c.Close()
	if err := cache.InvalidateLearner(ctx, c, learnerID); err != nil {
		logger.WithError(err).WithField("learner", learnerID).Warn("cache invalidation failed")
	}
}
