package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/mmynk/honeyfile/internal/auth"
	"github.com/mmynk/honeyfile/internal/catalog"
	"github.com/mmynk/honeyfile/internal/config"
	"github.com/mmynk/honeyfile/internal/metrics"
	"github.com/mmynk/honeyfile/internal/server"
	"github.com/mmynk/honeyfile/internal/service"
	"github.com/mmynk/honeyfile/internal/settlement"
	"github.com/mmynk/honeyfile/internal/stats"
	"github.com/mmynk/honeyfile/internal/storage/sqlite"
	"github.com/mmynk/honeyfile/pkg/logging"
)

const shutdownTimeout = 10 * time.Second

var configPath string

func main() {
	root := &cobra.Command{
		Use:           "honeyfile",
		Short:         "Point ledger and file exchange server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a TOML config file (default $HONEYFILE_CONFIG)")

	root.AddCommand(newServeCmd(), newMigrateCmd(), newStatsCmd())

	if err := root.Execute(); err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

// loadConfig reads the config and installs the tint logger at its level.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.SetupWithLevel(logging.ParseLevel(cfg.Log.Level))
	return cfg, logger, nil
}

func openStore(cfg *config.Config, logger *slog.Logger) (*sqlite.SQLiteStore, error) {
	store, err := sqlite.New(cfg.Database.Path, sqlite.WithBusyTimeout(cfg.Database.BusyTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	logger.Info("Storage initialized", "database", cfg.Database.Path)
	return store, nil
}

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Connect RPC server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return serve(cmd.Context(), cfg, logger)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	store, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	engine := settlement.NewEngine(store, settlement.Config{
		UploadBonus:    cfg.Points.UploadBonus,
		StorageRetries: cfg.Settlement.StorageRetries,
	}, m, logger)
	aggregator := stats.NewAggregator(store, logger)
	files := catalog.New(store, engine, catalog.Config{
		DefaultPrice:      cfg.Points.DownloadCost,
		MaxFileSizeMB:     cfg.Upload.MaxFileSizeMB,
		AllowedExtensions: cfg.Upload.AllowedExtensions,
	}, m, logger)

	jwtManager := auth.NewJWTManager(cfg.Auth.SecretKey, cfg.Auth.SessionTimeout)
	authenticator := auth.NewPasswordAuthenticator(store, cfg.Points.Initial)

	handler := server.NewHandler(server.Deps{
		Auth:     service.NewAuthService(authenticator, jwtManager, logger),
		Ledger:   service.NewLedgerService(engine, aggregator, logger),
		Files:    service.NewFileService(files, logger),
		JWT:      jwtManager,
		Gatherer: reg,
		Ping:     func(r *http.Request) error { return store.Ping(r.Context()) },
		Logger:   logger,

		CORSOrigins: cfg.Server.CORSOrigins,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Connect server starting", "address", cfg.Server.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			// Opening the store runs migrations.
			store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			return store.Close()
		},
	}
}

func newStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <account-id>",
		Short: "Print an account's statistics as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			st, err := stats.NewAggregator(store, logger).GetStatistics(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(st)
		},
	}
}
