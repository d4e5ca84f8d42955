package main

import (
	"context"
	"errors"
	"net/http"
	"os"

	"task-manager/server/config"
	"task-manager/server/logging"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().String("store", "", "storage backend: mongo or memory (overrides STORE)")
	serveCmd.Flags().String("port", "", "listen port (overrides PORT)")
}

func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	if store, _ := cmd.Flags().GetString("store"); store != "" {
		os.Setenv("STORE", store)
	}
	if port, _ := cmd.Flags().GetString("port"); port != "" {
		os.Setenv("PORT", port)
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.InitLogger(logging.Options{
		File:       cfg.Log.File,
		Level:      cfg.Log.Level,
		Production: cfg.IsProduction(),
	})
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logging.Logger.Infof("Event ID: SERVICE_START, Description: Starting task manager in %s mode", cfg.App.Env)

	a, err := newApp(cmd.Context(), cfg)
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      a.handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}
	go func() {
		logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed: %v", err)
		}
	}()

	ops := map[string]gfshutdown.Operation{
		"http-server": func(ctx context.Context) error {
			logging.Logger.Info("Event ID: SERVER_SHUTDOWN, Description: Graceful shutdown initiated")
			return server.Shutdown(ctx)
		},
	}
	for name, op := range a.closers {
		ops[name] = op
	}

	exitCode := <-gfshutdown.GracefulShutdown(context.Background(), cfg.HTTP.ShutdownTimeout, ops)
	logging.Logger.Infof("Event ID: SERVICE_STOPPED, Description: Exited with code %d", exitCode)
	os.Exit(exitCode)
	return nil
}
