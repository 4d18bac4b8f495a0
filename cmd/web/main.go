package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"airbnblite/config"
	"airbnblite/internal/handler"
	"airbnblite/pkg/apiclient"
	"airbnblite/pkg/logger"
)

func main() {
	if err := newCommand().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "airbnblite",
		Short:        "Airbnb Lite web front end",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			return run(cmd.Context(), path)
		},
	}
	cmd.PersistentFlags().StringP("config", "c", "", "Path to config file")
	return cmd
}

func run(ctx context.Context, configPath string) error {
	// .env is optional
	if err := godotenv.Load(); err != nil {
		log.Println(".env file not found")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	sugar, err := logger.New(cfg.Server.Env)
	if err != nil {
		return err
	}
	defer func() { _ = sugar.Sync() }()

	api := apiclient.New(cfg.API.BaseURL, cfg.API.Timeout)

	h, err := handler.NewHandler(api, cfg.Session, sugar)
	if err != nil {
		sugar.Errorw("templates failed to load", "error", err)
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	go h.SweepVisitors(ctx, cfg.Session.IdleTTL)

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           h.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("server started", "addr", "http://localhost:"+cfg.Server.Port, "api", cfg.API.BaseURL, "env", cfg.Server.Env)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			sugar.Errorw("server failed", "error", err)
			return err
		}
		return nil
	case <-ctx.Done():
	}

	sugar.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
