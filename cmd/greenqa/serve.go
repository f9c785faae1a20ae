package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/greenqa/internal/domain/search/mode"
	"github.com/kailas-cloud/greenqa/internal/metrics"
	chiTransport "github.com/kailas-cloud/greenqa/internal/transport/chi"
	healthuc "github.com/kailas-cloud/greenqa/internal/usecase/health"
	"github.com/kailas-cloud/greenqa/internal/version"
	"github.com/kailas-cloud/greenqa/internal/watch"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long: `Run the question answering HTTP API.

At startup the configured document is indexed (or the cached index restored,
or the built-in sample used). With document.watch enabled the index is rebuilt
whenever the document changes.

Examples:
  # Local development with the sample document
  greenqa serve

  # Production config on another port
  greenqa serve --env prod --port 9090`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "override http.port")
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	a, err := newApp(ctx, envName, envName)
	if err != nil {
		return err
	}
	defer a.close()
	logger := a.logger
	cfg := a.cfg
	if servePort > 0 {
		cfg.HTTP.Port = servePort
	}

	logger.Info("Starting greenqa API server",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", envName),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Int("chunk_size", cfg.Chunking.Size),
		zap.Int("chunk_overlap", cfg.Chunking.Overlap),
		zap.Float64("threshold", cfg.Retrieval.Threshold),
	)

	if err := a.loadInitial(ctx); err != nil {
		return err
	}
	status := a.qa.Status()
	logger.Info("Index state at startup",
		zap.String("state", string(status.State)),
		zap.String("source", status.Source),
		zap.Int("chunks", status.Chunks),
	)

	if cfg.Document.Watch {
		w, err := watch.New(cfg.Document.Path, cfg.Document.Debounce(), func(ctx context.Context, path string) error {
			_, err := a.qa.ProcessFile(ctx, path)
			return err
		}, logger)
		if err != nil {
			return fmt.Errorf("create document watcher: %w", err)
		}
		if err := w.Start(ctx); err != nil {
			return fmt.Errorf("start document watcher: %w", err)
		}
		defer w.Stop()
	}

	healthSvc := healthuc.New(a.store, a.qa)
	server := chiTransport.NewServer(a.qa, healthSvc, chiTransport.AskDefaults{
		Mode:         mode.Mode(cfg.Retrieval.DefaultMode),
		Threshold:    cfg.Retrieval.Threshold,
		Alternatives: cfg.Retrieval.Alternatives,
	}, cfg.Document.Path, logger)

	metrics.RegisterHTTPMetrics()

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.APIKeys))
	r.Use(metrics.Middleware())
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSONError(w, http.StatusNotFound, "not_found", "route not found")
	})
	server.Register(r)

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-quit:
		logger.Info("Received shutdown signal")
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
	return nil
}
