// Package period derives calendar period keys used to bucket votes and
// archive snapshots. All keys are computed in UTC.
package period

import (
	"fmt"
	"time"
)

// WeekKey returns the ISO-8601 week key for t, formatted as "2006-W02".
// ISO weeks are Thursday-anchored, so the key's year can differ from the
// calendar year around January 1st.
func WeekKey(t time.Time) string {
	year, week := t.UTC().ISOWeek()
	return fmt.Sprintf("%04d-W%02d", year, week)
}

// NextWeekKey returns the week key immediately following t's week.
func NextWeekKey(t time.Time) string {
	return WeekKey(t.UTC().AddDate(0, 0, 7))
}

// MonthKey returns the month key for t, formatted as "2006-01".
func MonthKey(t time.Time) string {
	u := t.UTC()
	return fmt.Sprintf("%04d-%02d", u.Year(), int(u.Month()))
}

// YearKey returns the year key for t, formatted as "2006".
func YearKey(t time.Time) string {
	return fmt.Sprintf("%04d", t.UTC().Year())
}

// CompareWeekKeys orders two week keys chronologically by (year, week),
// returning -1, 0, or 1. Plain string order would put "W10" before "W9",
// hence the numeric parse. Malformed keys sort before any valid key.
func CompareWeekKeys(a, b string) int {
	ay, aw, aok := parseWeekKey(a)
	by, bw, bok := parseWeekKey(b)
	if aok != bok {
		if !aok {
			return -1
		}
		return 1
	}
	switch {
	case ay != by:
		return sign(ay - by)
	case aw != bw:
		return sign(aw - bw)
	default:
		return 0
	}
}

func parseWeekKey(key string) (year, week int, ok bool) {
	n, err := fmt.Sscanf(key, "%d-W%d", &year, &week)
	if err != nil || n != 2 {
		return 0, 0, false
	}
	return year, week, true
}

func sign(n int) int {
	switch {
	case n < 0:
		return -1
	case n > 0:
		return 1
	default:
		return 0
	}
}
