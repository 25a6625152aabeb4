package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/certprep/internal/cache"
	"github.com/abhisek/certprep/internal/catalog"
	"github.com/abhisek/certprep/internal/passprob"
	"github.com/abhisek/certprep/internal/server"
)

// conceptCacheTTL bounds how long resolved concepts are reused.
const conceptCacheTTL = 10 * time.Minute

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the JSON HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "Listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Default()
	if err != nil {
		return fmt.Errorf("load catalog: %w", err)
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	snapshots, err := cache.New(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("open snapshot cache: %w", err)
	}
	defer snapshots.Close()

	srv, err := server.New(server.Deps{
		Catalog:   cat,
		Concepts:  catalog.NewConceptCache(cat, conceptCacheTTL),
		Attempts:  st.AttemptRepo(),
		Cache:     snapshots,
		Readiness: readinessAggregator(cat),
		PassProb:  passprob.New(cfg.PassProb),
		Logger:    logger.WithField("component", "http"),
	}, server.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		CacheTTL:       cfg.Cache.TTL,
		RequestTimeout: cfg.Server.RequestTimeout,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
	})
	if err != nil {
		return err
	}

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = cfg.Server.Addr
	}
	return srv.Run(ctx, addr)
}
