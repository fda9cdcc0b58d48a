package output

import (
	"fmt"
	"hoursync/hours"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// DailySummary aggregates the logged entries of one calendar day. Hours are
// summed as decimals so quarter-hour fractions do not drift.
type DailySummary struct {
	Date       string
	TotalHours decimal.Decimal
	Projects   string
	EntryCount int
}

func BuildDailySummaries(entries []hours.SavedEntry) []DailySummary {
	if len(entries) == 0 {
		return []DailySummary{}
	}

	byDay := make(map[string][]hours.SavedEntry)
	for _, entry := range entries {
		byDay[entry.Entry.Date] = append(byDay[entry.Entry.Date], entry)
	}

	days := make([]string, 0, len(byDay))
	for day := range byDay {
		days = append(days, day)
	}
	sort.Strings(days)

	summaries := make([]DailySummary, 0, len(days))
	for _, day := range days {
		summaries = append(summaries, summarizeDay(day, byDay[day]))
	}

	return summaries
}

func summarizeDay(day string, entries []hours.SavedEntry) DailySummary {
	total := decimal.Zero
	seenProjects := make(map[string]struct{})
	projects := make([]string, 0, len(entries))

	for _, entry := range entries {
		total = total.Add(decimal.NewFromFloat(entry.Entry.Hours))
		project := strings.TrimSpace(entry.Entry.Project)
		if project == "" {
			continue
		}
		if _, exists := seenProjects[project]; exists {
			continue
		}
		seenProjects[project] = struct{}{}
		projects = append(projects, project)
	}

	return DailySummary{
		Date:       day,
		TotalHours: total,
		Projects:   strings.Join(projects, ", "),
		EntryCount: len(entries),
	}
}

func WriteDailySummaries(path, format string, summaries []DailySummary) error {
	switch normalizeFormat(format) {
	case "csv":
		return writeDailySummariesCSV(path, summaries)
	case "excel", "xlsx":
		return writeDailySummariesExcel(path, summaries)
	default:
		return fmt.Errorf("unsupported output format for daily summaries: %s", format)
	}
}
