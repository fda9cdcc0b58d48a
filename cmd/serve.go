package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"hoursync/assistant"
	"hoursync/config"
	"hoursync/metrics"
	"hoursync/storage"
	"hoursync/web"

	"github.com/spf13/cobra"
)

var (
	serveAddr   string
	serveDBPath string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server: sync engine, hours log, PIN lookup and assistant relay",
	Long: `Start the HTTP server exposing the payroll sync engine and its
supporting endpoints.

Endpoints:
- POST /api/sync   push a batch of hour entries into today's payroll draft (app key required)
- POST /api/hours  append entries to the local hours log (app key required)
- POST /api/pin    map a login PIN to the configured employee
- POST /api/chat   relay a conversation to the assistant upstream
- GET  /healthz    liveness probe
- GET  /metrics    Prometheus metrics`,
	Example: `
  # Start server with config defaults
  hoursync serve

  # Custom listen address and database path
  hoursync serve --addr :9090 --db ./hoursync.db
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		addr := serveAddr
		if addr == "" {
			addr = cfg.Server.ListenAddr
		}
		dbPath := serveDBPath
		if dbPath == "" {
			dbPath = cfg.Storage.DatabasePath
		}

		logger := newLogger()
		recorder := metrics.NewRecorder()

		store, err := storage.OpenSQLite(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		engine, err := buildEngine(cfg, store, logger, recorder)
		if err != nil {
			return err
		}

		var chat web.ChatClient
		if cfg.Assistant.APIURL != "" && cfg.Assistant.APIKey != "" {
			client, chatErr := assistant.NewClient(assistant.ClientConfig{
				APIURL: cfg.Assistant.APIURL,
				APIKey: cfg.Assistant.APIKey,
			})
			if chatErr != nil {
				return chatErr
			}
			chat = client
		}

		handler := web.NewServer(web.ServerConfig{
			Config:   cfg,
			Engine:   engine,
			HoursLog: store,
			Chat:     chat,
			Logger:   logger,
			Metrics:  recorder,
			AppKey:   cfg.Server.AppKey,
		})

		server := &http.Server{
			Addr:    addr,
			Handler: handler,
		}

		errCh := make(chan error, 1)
		go func() {
			errCh <- server.ListenAndServe()
		}()

		fmt.Printf("Listening on %s\n", addr)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		case <-sigCh:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("shutdown server: %w", err)
			}
			err := <-errCh
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (default: server.listen_addr from config)")
	serveCmd.Flags().StringVar(&serveDBPath, "db", "", "Path to local SQLite database (default: storage.database_path from config)")
}
