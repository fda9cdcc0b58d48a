package output

import (
	"encoding/csv"
	"fmt"
	"hoursync/hours"
	"os"
	"strconv"
	"time"
)

type CSVWriter struct{}

func (w *CSVWriter) Write(path string, entries []hours.SavedEntry) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv output %s: %w", path, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	headers := []string{"Date", "Start", "End", "Hours", "Project", "Notes", "SavedAt"}
	if err := writer.Write(headers); err != nil {
		return fmt.Errorf("write csv headers: %w", err)
	}

	for _, entry := range entries {
		row := []string{
			entry.Entry.Date,
			entry.Entry.Start,
			entry.Entry.End,
			strconv.FormatFloat(entry.Entry.Hours, 'f', 2, 64),
			entry.Entry.Project,
			entry.Entry.Notes,
			entry.SavedAt.Format(time.RFC3339),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}

	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}

	return nil
}
