package output

import (
	"fmt"
	"hoursync/hours"
	"strconv"
	"time"

	"github.com/xuri/excelize/v2"
)

type ExcelWriter struct{}

func (w *ExcelWriter) Write(path string, entries []hours.SavedEntry) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := file.GetSheetName(0)
	headers := []string{"Date", "Start", "End", "Hours", "Project", "Notes", "SavedAt"}

	for col, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return fmt.Errorf("set excel header %s: %w", cell, err)
		}
	}

	for i, entry := range entries {
		row := i + 2
		values := []string{
			entry.Entry.Date,
			entry.Entry.Start,
			entry.Entry.End,
			strconv.FormatFloat(entry.Entry.Hours, 'f', 2, 64),
			entry.Entry.Project,
			entry.Entry.Notes,
			entry.SavedAt.Format(time.RFC3339),
		}

		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return fmt.Errorf("set excel value %s: %w", cell, err)
			}
		}
	}

	if err := file.SaveAs(path); err != nil {
		return fmt.Errorf("save excel output %s: %w", path, err)
	}

	return nil
}
