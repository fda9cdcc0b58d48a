package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"hoursync/config"
	"hoursync/metrics"
	"hoursync/payroll"
	"hoursync/storage"
	"hoursync/sync"
)

func newLogger() zerolog.Logger {
	return zerolog.New(os.Stderr).With().Timestamp().Logger()
}

// buildEngine wires the payroll client, token source and sync engine from the
// loaded configuration. Both serve and sync share this assembly.
func buildEngine(cfg *config.Config, store *storage.SQLiteStore, logger zerolog.Logger, recorder metrics.Recorder) (*sync.Service, error) {
	maxAge := payroll.DefaultTokenMaxAge
	if cfg.Payroll.TokenMaxAge != "" {
		parsed, err := time.ParseDuration(cfg.Payroll.TokenMaxAge)
		if err != nil {
			return nil, fmt.Errorf("invalid payroll.token_max_age: %w", err)
		}
		maxAge = parsed
	}

	tokens, err := payroll.NewTokenSource(payroll.TokenSourceConfig{
		TokenURL: cfg.Payroll.TokenURL,
		Username: cfg.Payroll.Username,
		Password: cfg.Payroll.Password,
		MaxAge:   maxAge,
		Store:    store,
		Metrics:  recorder,
	})
	if err != nil {
		return nil, err
	}

	client, err := payroll.NewClient(payroll.ClientConfig{
		BaseURL:   cfg.Payroll.APIURL,
		Tokens:    tokens,
		UserAgent: "hoursync/1.0",
		Metrics:   recorder,
	})
	if err != nil {
		return nil, err
	}

	return sync.New(sync.Config{
		Client:           client,
		Store:            store,
		UnitPrice:        cfg.Payroll.HourlyPrice,
		DraftTitlePrefix: cfg.Payroll.DraftTitlePrefix,
		Logger:           logger,
		Metrics:          recorder,
	})
}
