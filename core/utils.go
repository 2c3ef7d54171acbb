package core

import (
	"fmt"
	"time"
)

// DateLayout is the layout of every date string stored in documents.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, CleanString(s))
}

// SchoolYear returns the Japanese school year (nendo) of t: April 1st to March 31st,
// labeled by its starting calendar year.
func SchoolYear(t time.Time) int {
	if t.Month() >= time.April {
		return t.Year()
	}
	return t.Year() - 1
}

// SchoolYearBounds returns the first and last day of the school year sy.
func SchoolYearBounds(sy int) (time.Time, time.Time) {
	start := time.Date(sy, time.April, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(sy+1, time.March, 31, 0, 0, 0, 0, time.UTC)
	return start, end
}

// NendoLabel renders sy as "2025年度".
func NendoLabel(sy int) string {
	return fmt.Sprintf("%d年度", sy)
}
