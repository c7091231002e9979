package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/portfoligo/api-server/db"
	"github.com/portfoligo/api-server/pkg/conf"
	"github.com/portfoligo/api-server/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func newRootCmd() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "api-server",
		Short:         "PortfoliGO fantasy stock league API server",
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", ".", "directory holding conf.yaml")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, the draft clocks, the score consumer and the season cron",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := conf.Load(configPath)
			if err != nil {
				return err
			}
			return serve(cmd.Context(), cfg)
		},
	}

	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := conf.Load(configPath)
			if err != nil {
				return err
			}
			log := logger.New(cfg.Log)
			gdb, err := db.Open(cfg.Database.DSN, log)
			if err != nil {
				return err
			}
			if err := db.Migrate(gdb); err != nil {
				return err
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	}

	root.AddCommand(serveCmd, migrateCmd)
	return root
}

func serve(parent context.Context, cfg *conf.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.New(cfg.Log)

	gdb, err := db.Open(cfg.Database.DSN, log)
	if err != nil {
		return err
	}
	if err := db.Migrate(gdb); err != nil {
		return err
	}
	kv, err := initKVStore(cfg.Redis, log)
	if err != nil {
		return err
	}
	defer kv.Close()

	app := NewApp(cfg, log, gdb, kv)
	defer app.Close()

	sched, err := app.initScheduler()
	if err != nil {
		return err
	}
	sched.Start()
	defer sched.Stop()

	if cfg.AMQP.Enabled {
		closeBroker, err := app.initBroker(ctx)
		if err != nil {
			return err
		}
		defer closeBroker()
	}

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           app.R,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Server.Addr).Msg("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
