package timeutil

import (
	"strings"
	"time"
)

const (
	isoDayLayout     = "2006-01-02"
	finnishDayLayout = "02.01.2006"
	clockLayout      = "15:04"
)

func StartOfDay(value time.Time) time.Time {
	return time.Date(value.Year(), value.Month(), value.Day(), 0, 0, 0, 0, value.Location())
}

func SameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// ISODay formats a calendar date as YYYY-MM-DD.
func ISODay(value time.Time) string {
	return value.Format(isoDayLayout)
}

// FinnishDay formats a calendar date as DD.MM.YYYY.
func FinnishDay(value time.Time) string {
	return value.Format(finnishDayLayout)
}

// Clock formats the time-of-day as HH:MM.
func Clock(value time.Time) string {
	return value.Format(clockLayout)
}

// ToISODate converts an entry date in DD-MM-YYYY form to YYYY-MM-DD. Values
// in any other shape are returned unchanged.
func ToISODate(value string) string {
	parts := strings.Split(strings.TrimSpace(value), "-")
	if len(parts) == 3 && len(parts[0]) == 2 {
		return parts[2] + "-" + parts[1] + "-" + parts[0]
	}
	return value
}
