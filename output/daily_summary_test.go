package output

import (
	"testing"

	"github.com/shopspring/decimal"

	"hoursync/hours"
)

func entry(date string, hoursWorked float64, project string) hours.SavedEntry {
	return hours.SavedEntry{Entry: hours.Entry{Date: date, Hours: hoursWorked, Project: project}}
}

func TestBuildDailySummaries_Empty(t *testing.T) {
	t.Parallel()

	summaries := BuildDailySummaries(nil)
	if len(summaries) != 0 {
		t.Fatalf("expected no summaries, got %d", len(summaries))
	}
}

func TestBuildDailySummaries_GroupsAndTotals(t *testing.T) {
	t.Parallel()

	entries := []hours.SavedEntry{
		entry("2026-08-28", 0.1, "Acme"),
		entry("2026-08-28", 0.2, "Internal"),
		entry("2026-08-27", 8, "Acme"),
		entry("2026-08-28", 1.25, "Acme"),
	}

	summaries := BuildDailySummaries(entries)
	if len(summaries) != 2 {
		t.Fatalf("expected 2 days, got %d", len(summaries))
	}

	if summaries[0].Date != "2026-08-27" {
		t.Fatalf("days must be sorted, got %q first", summaries[0].Date)
	}
	if !summaries[0].TotalHours.Equal(decimal.NewFromInt(8)) {
		t.Fatalf("unexpected total for first day: %s", summaries[0].TotalHours)
	}

	second := summaries[1]
	if second.EntryCount != 3 {
		t.Fatalf("expected 3 entries on second day, got %d", second.EntryCount)
	}
	// 0.1 + 0.2 + 1.25 must come out exactly, not as a float artifact.
	if got := second.TotalHours.StringFixed(2); got != "1.55" {
		t.Fatalf("expected exact decimal total 1.55, got %s", got)
	}
	if second.Projects != "Acme, Internal" {
		t.Fatalf("projects must be deduplicated in first-seen order, got %q", second.Projects)
	}
}

func TestBuildDailySummaries_SkipsEmptyProjects(t *testing.T) {
	t.Parallel()

	entries := []hours.SavedEntry{
		entry("2026-08-28", 2, ""),
		entry("2026-08-28", 1, "  "),
	}

	summaries := BuildDailySummaries(entries)
	if summaries[0].Projects != "" {
		t.Fatalf("blank projects must be skipped, got %q", summaries[0].Projects)
	}
}

func TestWriterForFormat(t *testing.T) {
	t.Parallel()

	if _, err := WriterForFormat("csv"); err != nil {
		t.Fatalf("csv writer: %v", err)
	}
	if _, err := WriterForFormat(" Excel "); err != nil {
		t.Fatalf("excel writer: %v", err)
	}
	if _, err := WriterForFormat("pdf"); err == nil {
		t.Fatalf("expected error for unsupported format")
	}
}
