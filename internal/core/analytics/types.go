package analytics

import "time"

// DateRange represents a time period for filtering
type DateRange struct {
	Start time.Time
	End   time.Time
	Field string // Date field to filter on (e.g., "created_at")
}

// Filters are WHERE conditions. A key containing "?" is used as a clause
// with its value (or the elements of a []interface{} value) as arguments;
// any other key is an equality test on that column.
type Filters map[string]interface{}

// DayCount is one bucket of a daily series.
type DayCount struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// DaySum is one bucket of a daily total.
type DaySum struct {
	Date  string  `json:"date"`
	Value float64 `json:"value"`
}
