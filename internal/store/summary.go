package store

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
)

// SampleSize is the number of rows shown on the dashboard
const SampleSize = 10

// RegionTotal summed Total for one region
type RegionTotal struct {
	Region string          `json:"region"`
	Total  decimal.Decimal `json:"total"`
}

// Summary dashboard metrics for the dataset
type Summary struct {
	Rows          int64               `json:"rows"`
	Columns       []string            `json:"columns"`
	TotalSales    decimal.NullDecimal `json:"total_sales"`
	SalesByRegion []RegionTotal       `json:"sales_by_region,omitempty"`
	Sample        []Row               `json:"sample"`
}

// HasColumn reports whether the dataset has the named column (case-insensitive, like SQLite)
func (s *Summary) HasColumn(name string) bool {
	for _, c := range s.Columns {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// Summarize computes the dashboard metrics. Totals are only present when the
// dataset carries Total (and Region for the breakdown).
func Summarize(ctx context.Context, s Store) (*Summary, error) {
	summary := &Summary{}

	rows, err := s.Query(ctx, "SELECT COUNT(*) FROM "+TableName)
	if err != nil {
		return nil, err
	}
	if len(rows) == 1 {
		if n, ok := Decimal(rows[0][0]); ok {
			summary.Rows = n.IntPart()
		}
	}

	rows, err = s.Query(ctx, "PRAGMA table_info("+TableName+")")
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		// cid, name, type, notnull, dflt_value, pk
		if len(r) > 1 {
			summary.Columns = append(summary.Columns, Text(r[1]))
		}
	}

	if summary.HasColumn("Total") {
		rows, err = s.Query(ctx, "SELECT SUM(Total) FROM "+TableName)
		if err != nil {
			return nil, err
		}
		if len(rows) == 1 {
			if d, ok := Decimal(rows[0][0]); ok {
				summary.TotalSales = decimal.NullDecimal{Decimal: d, Valid: true}
			}
		}

		if summary.HasColumn("Region") {
			rows, err = s.Query(ctx, "SELECT Region, COALESCE(SUM(Total), 0) FROM "+TableName+" GROUP BY Region ORDER BY Region")
			if err != nil {
				return nil, err
			}
			for _, r := range rows {
				total, _ := Decimal(r[1])
				summary.SalesByRegion = append(summary.SalesByRegion, RegionTotal{
					Region: Text(r[0]),
					Total:  total,
				})
			}
		}
	}

	summary.Sample, err = s.Query(ctx, "SELECT * FROM "+TableName+" ORDER BY rowid LIMIT ?", SampleSize)
	if err != nil {
		return nil, err
	}

	return summary, nil
}
