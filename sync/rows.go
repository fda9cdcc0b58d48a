package sync

import (
	"encoding/json"
	"strings"

	"hoursync/hours"
	"hoursync/payroll"
)

// descriptionSeparator joins the non-empty parts of a row description.
const descriptionSeparator = " | "

// BuildDescription renders the human-readable message for an hourly wage
// row: date, time range (or "alkaen <start>" when only the start is known),
// project and notes, in that order, skipping empty parts.
func BuildDescription(entry hours.Entry) string {
	parts := make([]string, 0, 4)

	if entry.Date != "" {
		parts = append(parts, entry.Date)
	}

	switch {
	case entry.Start != "" && entry.End != "":
		parts = append(parts, entry.Start+"-"+entry.End)
	case entry.Start != "":
		parts = append(parts, "alkaen "+entry.Start)
	}

	if entry.Project != "" {
		parts = append(parts, entry.Project)
	}
	if entry.Notes != "" {
		parts = append(parts, entry.Notes)
	}

	return strings.Join(parts, descriptionSeparator)
}

// HourlySalaryRowIndex is the row-selection policy for the canonical hourly
// wage row: the first row of type "hourlySalary", scanning in order.
func HourlySalaryRowIndex(rows []payroll.Row) (int, bool) {
	for i, row := range rows {
		if row.RowType == payroll.RowTypeHourlySalary {
			return i, true
		}
	}
	return 0, false
}

// MergeEntry merges one hour entry into a calculation's row set.
//
// For a freshly created calculation the generated template's hourly wage row
// is overwritten in place (count and message only), keeping the row count
// stable; a template without one gets the row appended. For a reused
// calculation a new row is always appended so every sync adds one more line
// item to the ledger.
func MergeEntry(rows []payroll.Row, entry hours.Entry, isNew bool, unitPrice float64) []payroll.Row {
	description := BuildDescription(entry)

	if isNew {
		if idx, found := HourlySalaryRowIndex(rows); found {
			rows[idx].Count = entry.Hours
			rows[idx].Message = description
			return rows
		}
		return append(rows, newHourlyRow(len(rows), entry.Hours, unitPrice, description))
	}

	return append(rows, newHourlyRow(maxRowIndex(rows)+1, entry.Hours, unitPrice, description))
}

func maxRowIndex(rows []payroll.Row) int {
	max := -1
	for _, row := range rows {
		if row.RowIndex > max {
			max = row.RowIndex
		}
	}
	return max
}

func newHourlyRow(index int, count, unitPrice float64, description string) payroll.Row {
	return payroll.Row{
		RowIndex:   index,
		RowType:    payroll.RowTypeHourlySalary,
		Count:      count,
		Price:      unitPrice,
		Unit:       "hours",
		Message:    description,
		Source:     "undefined",
		SourceID:   json.RawMessage("null"),
		Accounting: json.RawMessage(`{"vatPercent":null,"vatEntries":null,"dimensions":[],"entry":null}`),
		Period:     json.RawMessage("null"),
		Data:       json.RawMessage("{}"),
	}
}
