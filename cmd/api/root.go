package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/vaughan-dsouza/BeAuth/internal/auth"
	"github.com/vaughan-dsouza/BeAuth/internal/config"
	"github.com/vaughan-dsouza/BeAuth/internal/db"
	"github.com/vaughan-dsouza/BeAuth/internal/handlers"
	"github.com/vaughan-dsouza/BeAuth/internal/logging"
	"github.com/vaughan-dsouza/BeAuth/internal/metrics"
	"github.com/vaughan-dsouza/BeAuth/internal/session"
	"github.com/vaughan-dsouza/BeAuth/internal/store"
)

const shutdownTimeout = 5 * time.Second

var configFile string

// NewRootCmd creates the command that runs the API server.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "beauth",
		Short:         "BeAuth - user accounts and cookie sessions over HTTP",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return runServe(ctx, cmd)
		},
	}

	cmd.Flags().StringVar(&configFile, "config", "", "config file path")
	config.RegisterFlags(cmd.Flags())

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil {
		cmd.PrintErrln("No .env file found")
	}

	cfg, err := config.Load(cmd.Flags(), configFile, os.LookupEnv)
	if err != nil {
		cmd.PrintErrln("config:", err)
		return err
	}
	if err := cfg.Validate(); err != nil {
		cmd.PrintErrln("config:", err)
		return err
	}

	logger := logging.Setup("beauth", cfg.LogFormat, cfg.LogLevel, cmd.ErrOrStderr())
	slog.SetDefault(logger)

	dbConn, err := db.Connect(cfg.DatabaseURL, db.PoolOptions{
		MaxOpen:     cfg.DBMaxOpen,
		MaxIdle:     cfg.DBMaxIdle,
		MaxLifetime: cfg.DBMaxLifetime,
	})
	if err != nil {
		logging.LogError(logger, "db connect failed", err)
		return err
	}
	defer dbConn.Close()

	tokens, err := auth.NewTokenService([]byte(cfg.JWTSecret))
	if err != nil {
		logging.LogError(logger, "token service", err)
		return err
	}
	svc, err := auth.NewService(store.NewUserRepository(dbConn), auth.NewBcryptHasher(), tokens, logger)
	if err != nil {
		logging.LogError(logger, "auth service", err)
		return err
	}

	h := handlers.NewHandler(svc, session.NewTransport(cfg.IsProduction()), metrics.New(), logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			err = oops.Code("SERVER_FAILED").With("addr", srv.Addr).Wrap(err)
			logging.LogError(logger, "listen", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logging.LogError(logger, "server forced to shutdown", err)
		return err
	}

	logger.Info("server exited")
	return nil
}
