// Command web serves the IP performance dashboard API.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"ipdash/internal/config"
	"ipdash/internal/dataset"
	"ipdash/internal/datasource"
	"ipdash/internal/infrastructure"
	"ipdash/internal/services"
	transport "ipdash/internal/transport/http"
	"ipdash/pkg/contracts"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	source, err := datasource.FromConfig(ctx, cfg, logger)
	if err != nil {
		return err
	}

	service := services.NewDashboardService(source, dataset.ColumnMap(cfg.Columns), cfg.Analytics, logger)
	router := transport.NewRouter(service, cfg.Server, logger)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			slog.String("version", contracts.Version),
			slog.Int("port", cfg.Server.Port),
			slog.String("source", source.ID()))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
