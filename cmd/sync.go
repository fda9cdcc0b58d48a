package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"hoursync/config"
	"hoursync/hours"
	"hoursync/internal/timeutil"
	"hoursync/metrics"
	"hoursync/storage"

	"github.com/spf13/cobra"
)

var (
	syncInput        string
	syncEmploymentID string
	syncDBPath       string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Push a batch of hour entries into today's payroll draft",
	Long: `Read hour entries from a JSON file and push them into today's payroll
draft, one wage row per entry.

The input file contains an array of entries:
[{"date": "2026-08-28", "start": "09:00", "end": "12:30", "hours": 3.5, "project": "Acme", "notes": "onboarding"}]

Dates in DD-MM-YYYY form are accepted and normalized.`,
	Example: `
  # Sync entries for the single configured employee
  hoursync sync --input entries.json

  # Sync for an explicit employment
  hoursync sync --input entries.json --employment-id emp-123
`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.LoadAndValidate()
		if err != nil {
			return err
		}

		raw, err := os.ReadFile(syncInput)
		if err != nil {
			return fmt.Errorf("read input file: %w", err)
		}
		var entries []hours.Entry
		if err := json.Unmarshal(raw, &entries); err != nil {
			return fmt.Errorf("parse input file: %w", err)
		}
		if len(entries) == 0 {
			return fmt.Errorf("input file contains no entries")
		}
		for i := range entries {
			entries[i].Date = timeutil.ToISODate(entries[i].Date)
			if entries[i].Date == "" {
				return fmt.Errorf("entries[%d].date is required", i)
			}
			if entries[i].Hours <= 0 {
				return fmt.Errorf("entries[%d].hours must be > 0", i)
			}
		}

		employmentID := syncEmploymentID
		if employmentID == "" {
			if len(cfg.Employees) != 1 {
				return fmt.Errorf("--employment-id is required when not exactly one employee is configured")
			}
			employmentID = cfg.Employees[0].EmploymentID
		}

		dbPath := syncDBPath
		if dbPath == "" {
			dbPath = cfg.Storage.DatabasePath
		}
		store, err := storage.OpenSQLite(dbPath)
		if err != nil {
			return err
		}
		defer store.Close()

		engine, err := buildEngine(cfg, store, newLogger(), metrics.Noop{})
		if err != nil {
			return err
		}

		report, err := engine.Run(cmd.Context(), entries, employmentID)
		if err != nil {
			return err
		}

		encoded, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("encode report: %w", err)
		}
		fmt.Println(string(encoded))

		if report.TotalFailed > 0 {
			return fmt.Errorf("%d of %d entries failed", report.TotalFailed, report.TotalFailed+report.TotalSent)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(syncCmd)

	syncCmd.Flags().StringVarP(&syncInput, "input", "i", "", "Path to JSON file with hour entries")
	syncCmd.Flags().StringVar(&syncEmploymentID, "employment-id", "", "Employment to sync for (default: the single configured employee)")
	syncCmd.Flags().StringVar(&syncDBPath, "db", "", "Path to local SQLite database (default: storage.database_path from config)")

	_ = syncCmd.MarkFlagRequired("input")
}
