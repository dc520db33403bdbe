package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"kavosh/internal/app"
	"kavosh/internal/config"
	"kavosh/internal/logger"
	"kavosh/internal/metrics"
	"kavosh/internal/store"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:           "api",
		Short:         "Kavosh search API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return loadEnv(envFile)
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", ".env", "environment file loaded before reading configuration")

	serve := serveCmd()
	root.AddCommand(serve, reindexCmd(), migrateCmd())
	root.RunE = serve.RunE

	return root
}

func loadEnv(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

func newLogger(cfg config.Config) zerolog.Logger {
	return logger.New(logger.Config{
		Level:      cfg.LogLevel,
		Pretty:     cfg.LogPretty,
		WithCaller: cfg.LogLevel == "debug",
	})
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			log := newLogger(cfg)
			ctx := cmd.Context()

			if err := store.ApplyMigrations(ctx, cfg.DatabaseURL); err != nil {
				log.Error().Err(err).Msg("migrations failed")
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
			m := metrics.New(reg)

			c, err := build(ctx, cfg, log, m)
			if err != nil {
				log.Error().Err(err).Msg("startup failed")
				return err
			}
			defer c.Close()

			service := app.New(cfg, app.Deps{
				Search:   c.search,
				Reindex:  c.reindexer,
				History:  c.history,
				Auth:     c.auth,
				Database: c.store,
				Engine:   c.engine,
				Cache:    c.pinger(),
				Logger:   log,
			})
			httpServer := app.NewHTTPServer(service, cfg.CORSOrigin, m, log)
			server := &http.Server{
				Addr:              cfg.Addr,
				Handler:           httpServer.Handler(),
				ReadHeaderTimeout: 10 * time.Second,
				ReadTimeout:       15 * time.Second,
				WriteTimeout:      cfg.ReindexTimeout + 30*time.Second,
				IdleTimeout:       60 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				log.Info().Str("addr", cfg.Addr).Str("index", cfg.SearchIndex).Msg("kavosh api listening")
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					errCh <- err
				}
			}()

			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
			select {
			case <-sigCh:
			case err := <-errCh:
				log.Error().Err(err).Msg("server failed")
				return err
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("shutdown error")
			}
			c.history.Wait()
			return nil
		},
	}
}

func reindexCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reindex",
		Short: "Rebuild the search index from the document store",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			log := newLogger(cfg)

			m := metrics.New(prometheus.NewRegistry())
			c, err := build(cmd.Context(), cfg, log, m)
			if err != nil {
				log.Error().Err(err).Msg("startup failed")
				return err
			}
			defer c.Close()

			report, err := c.reindexer.Run(cmd.Context())
			if err != nil {
				log.Error().Err(err).Msg("reindex failed")
				return err
			}
			log.Info().Int("indexed", report.Indexed).Int("skipped", report.Skipped).Int("failed", len(report.Failed)).Msg("reindex finished")
			if !report.Success() {
				for _, key := range report.Failed {
					fmt.Fprintln(cmd.ErrOrStderr(), key)
				}
				return fmt.Errorf("%d documents failed to index", len(report.Failed))
			}
			return nil
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			log := newLogger(cfg)
			if err := store.ApplyMigrations(cmd.Context(), cfg.DatabaseURL); err != nil {
				log.Error().Err(err).Msg("migrations failed")
				return err
			}
			log.Info().Msg("migrations applied")
			return nil
		},
	}
}
