package analytics

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Aggregator provides generic database aggregation helpers
type Aggregator struct {
	db *gorm.DB
}

// NewAggregator creates a new aggregator
func NewAggregator(db *gorm.DB) *Aggregator {
	return &Aggregator{db: db}
}

func (a *Aggregator) query(ctx context.Context, table string, filters Filters, dr *DateRange) *gorm.DB {
	db := a.db.WithContext(ctx).Table(table)

	for condition, value := range filters {
		if strings.Contains(condition, "?") {
			if args, ok := value.([]interface{}); ok {
				db = db.Where(condition, args...)
			} else {
				db = db.Where(condition, value)
			}
		} else {
			db = db.Where(fmt.Sprintf("%s = ?", condition), value)
		}
	}

	if dr != nil {
		field := dr.Field
		if field == "" {
			field = "created_at"
		}
		db = db.Where(fmt.Sprintf("%s >= ? AND %s <= ?", field, field), dr.Start, dr.End)
	}

	return db
}

// Count performs a COUNT(*) with filters
func (a *Aggregator) Count(ctx context.Context, table string, filters Filters, dr *DateRange) (int64, error) {
	var count int64
	if err := a.query(ctx, table, filters, dr).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("count query failed: %w", err)
	}
	return count, nil
}

// CountBy groups rows by column and counts each group.
func (a *Aggregator) CountBy(ctx context.Context, table, column string, filters Filters, dr *DateRange) (map[string]int64, error) {
	var rows []struct {
		GroupKey string
		Count    int64
	}
	err := a.query(ctx, table, filters, dr).
		Select(fmt.Sprintf("%s AS group_key, COUNT(*) AS count", column)).
		Group(column).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("group count query failed: %w", err)
	}

	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.GroupKey] = r.Count
	}
	return out, nil
}

// Sum returns SUM(column) as a decimal. An empty set sums to zero.
func (a *Aggregator) Sum(ctx context.Context, table, column string, filters Filters, dr *DateRange) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	row := a.query(ctx, table, filters, dr).Select(fmt.Sprintf("SUM(%s)", column)).Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, fmt.Errorf("sum query failed: %w", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// CountAndSumBy groups rows by column and returns count and SUM(sumColumn)
// per group.
func (a *Aggregator) CountAndSumBy(ctx context.Context, table, column, sumColumn string, filters Filters) (map[string]int64, map[string]decimal.Decimal, error) {
	rows, err := a.query(ctx, table, filters, nil).
		Select(fmt.Sprintf("%s, COUNT(*), SUM(%s)", column, sumColumn)).
		Group(column).
		Rows()
	if err != nil {
		return nil, nil, fmt.Errorf("group sum query failed: %w", err)
	}
	defer rows.Close()

	counts := map[string]int64{}
	sums := map[string]decimal.Decimal{}
	for rows.Next() {
		var key string
		var count int64
		var sum decimal.NullDecimal
		if err := rows.Scan(&key, &count, &sum); err != nil {
			return nil, nil, fmt.Errorf("group sum scan failed: %w", err)
		}
		counts[key] = count
		sums[key] = sum.Decimal
	}
	return counts, sums, rows.Err()
}

// CountByDay buckets rows by calendar day of dr.Field and fills days with
// no rows with zero.
func (a *Aggregator) CountByDay(ctx context.Context, table string, filters Filters, dr *DateRange) ([]DayCount, error) {
	field := dr.Field
	if field == "" {
		field = "created_at"
	}

	var rows []struct {
		Day   string
		Count int64
	}
	err := a.query(ctx, table, filters, dr).
		Select(fmt.Sprintf("DATE(%s) AS day, COUNT(*) AS count", field)).
		Group(fmt.Sprintf("DATE(%s)", field)).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("daily count query failed: %w", err)
	}

	byDay := make(map[string]int64, len(rows))
	for _, r := range rows {
		key := r.Day
		if len(key) > 10 {
			key = key[:10]
		}
		byDay[key] += r.Count
	}

	keys := DayKeys(dr.Start, dr.End)
	out := make([]DayCount, 0, len(keys))
	for _, k := range keys {
		out = append(out, DayCount{Date: k, Count: byDay[k]})
	}
	return out, nil
}

// SumByDay buckets SUM(column) by calendar day of dr.Field, zero-filling
// days with no rows.
func (a *Aggregator) SumByDay(ctx context.Context, table, column string, filters Filters, dr *DateRange) ([]DaySum, error) {
	field := dr.Field
	if field == "" {
		field = "created_at"
	}

	rows, err := a.query(ctx, table, filters, dr).
		Select(fmt.Sprintf("DATE(%s), SUM(%s)", field, column)).
		Group(fmt.Sprintf("DATE(%s)", field)).
		Rows()
	if err != nil {
		return nil, fmt.Errorf("daily sum query failed: %w", err)
	}
	defer rows.Close()

	byDay := map[string]decimal.Decimal{}
	for rows.Next() {
		var day string
		var sum decimal.NullDecimal
		if err := rows.Scan(&day, &sum); err != nil {
			return nil, fmt.Errorf("daily sum scan failed: %w", err)
		}
		if len(day) > 10 {
			day = day[:10]
		}
		byDay[day] = byDay[day].Add(sum.Decimal)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	keys := DayKeys(dr.Start, dr.End)
	out := make([]DaySum, 0, len(keys))
	for _, k := range keys {
		out = append(out, DaySum{Date: k, Value: byDay[k].InexactFloat64()})
	}
	return out, nil
}
