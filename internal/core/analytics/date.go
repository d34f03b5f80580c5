package analytics

import (
	"fmt"
	"time"
)

// DefaultPeriod is used when a request names no range.
const DefaultPeriod = "last_30_days"

// GetDateRange returns a UTC date range based on a period name.
func GetDateRange(period string, now time.Time) *DateRange {
	now = now.UTC()
	var start, end time.Time
	day := func(t time.Time) time.Time {
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	}

	switch period {
	case "today":
		start = day(now)
		end = now

	case "yesterday":
		start = day(now.AddDate(0, 0, -1))
		end = day(now).Add(-time.Nanosecond)

	case "this_week":
		// Start of week (Monday)
		weekday := int(now.Weekday())
		if weekday == 0 {
			weekday = 7
		}
		start = day(now.AddDate(0, 0, -weekday+1))
		end = now

	case "this_month":
		start = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end = now

	case "last_month":
		start = time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, time.UTC)
		end = time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC).Add(-time.Nanosecond)

	case "this_year":
		start = time.Date(now.Year(), 1, 1, 0, 0, 0, 0, time.UTC)
		end = now

	case "last_7_days":
		start = now.AddDate(0, 0, -7)
		end = now

	case "last_90_days":
		start = now.AddDate(0, 0, -90)
		end = now

	default:
		start = now.AddDate(0, 0, -30)
		end = now
	}

	return &DateRange{Start: start, End: end, Field: "created_at"}
}

// ParseDateRange builds a range from optional RFC3339 or YYYY-MM-DD bounds.
// Missing bounds fall back to the last 30 days ending now.
func ParseDateRange(startRaw, endRaw string, now time.Time) (*DateRange, error) {
	r := GetDateRange(DefaultPeriod, now)
	if startRaw != "" {
		t, err := parseDate(startRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid start_date: %w", err)
		}
		r.Start = t
	}
	if endRaw != "" {
		t, err := parseDate(endRaw)
		if err != nil {
			return nil, fmt.Errorf("invalid end_date: %w", err)
		}
		r.End = t
	}
	if r.End.Before(r.Start) {
		return nil, fmt.Errorf("end_date must not be before start_date")
	}
	return r, nil
}

func parseDate(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}

// DayKeys returns every calendar day (YYYY-MM-DD) touched by [start, end].
func DayKeys(start, end time.Time) []string {
	keys := []string{}
	current := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())

	for !current.After(end) {
		keys = append(keys, current.Format("2006-01-02"))
		current = current.AddDate(0, 0, 1)
	}

	return keys
}
