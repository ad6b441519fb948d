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

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/dukerupert/larder/internal/backup"
	"github.com/dukerupert/larder/internal/database"
	"github.com/dukerupert/larder/internal/handler"
	"github.com/dukerupert/larder/internal/recipe"
	"github.com/dukerupert/larder/internal/server"
)

const (
	cleanupInterval = 10 * time.Minute
	limiterMaxIdle  = time.Hour
	shutdownTimeout = 10 * time.Second
)

func (a *app) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	if err := a.cfg.Validate(); err != nil {
		return err
	}
	logger := a.logger

	db, err := database.Open(a.cfg.DBPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	var gen handler.RecipeGenerator
	g, err := recipe.NewGenerator(a.cfg.Recipe(), logger.With("component", "recipe_generator"))
	switch {
	case errors.Is(err, recipe.ErrNotConfigured):
		logger.Warn("no OpenAI API key set, recipe generation disabled")
	case err != nil:
		return fmt.Errorf("recipe generator: %w", err)
	default:
		gen = g
	}

	srv := server.New(db, server.Config{
		JWTSecret:           a.cfg.JWT.Secret,
		JWTIssuer:           a.cfg.JWT.Issuer,
		RecipeRatePerMinute: a.cfg.RecipeRatePerMinute,
		WSOriginPatterns:    a.cfg.WSOriginPatterns,
	}, gen, logger)

	// No read or write timeout: /ws connections stay open.
	httpServer := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	group, ctx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Info("larder starting", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		ticker := time.NewTicker(cleanupInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				srv.RateLimiter().Cleanup(limiterMaxIdle)
				logger.Debug("rate limiter cleanup", "tracked_keys", srv.RateLimiter().Len())
			case <-ctx.Done():
				return nil
			}
		}
	})

	if a.cfg.Backup.Scheduled() {
		mgr := backup.NewManager(db, a.cfg.Backup.Target(), backup.Config{
			Passphrase: a.cfg.Backup.Passphrase,
			Keep:       a.cfg.Backup.Keep,
		}, logger.With("component", "backup"))

		group.Go(func() error {
			ticker := time.NewTicker(a.cfg.Backup.Interval)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					// Failures are logged and counted by the manager; the next tick retries.
					mgr.Run(ctx)
				case <-ctx.Done():
					return nil
				}
			}
		})
		logger.Info("scheduled backups enabled", "interval", a.cfg.Backup.Interval)
	}

	return group.Wait()
}
