package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/urfave/cli/v2"

	"github.com/zumaops/stockboard/internal/api"
	"github.com/zumaops/stockboard/internal/api/handlers"
	"github.com/zumaops/stockboard/pkg/logger"
)

func runServe(c *cli.Context) error {
	cfg := loadConfig(c)
	gin.SetMode(cfg.Server.Mode)

	svc, err := newService(c.Context, cfg)
	if err != nil {
		return err
	}

	inventory := handlers.NewInventoryHandler()
	refresh := func(ctx context.Context) {
		result, err := svc.Refresh(ctx)
		if err != nil {
			logger.Log.Error().Err(err).Msg("Refresh failed")
			return
		}
		inventory.SetSnapshot(result.Snapshot, result.Page)
	}
	refresh(c.Context)

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if interval := c.Int("refresh-interval"); interval > 0 {
		ticker := time.NewTicker(time.Duration(interval) * time.Second)
		go func() {
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					refresh(ctx)
				}
			}
		}()
	}

	router := api.NewRouter(inventory, cfg.Server.AllowedOrigins)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log.Info().Str("addr", srv.Addr).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Log.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
