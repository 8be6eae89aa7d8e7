package store

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Text renders a column value as text; NULL becomes the empty string
func Text(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case []byte:
		return string(val)
	default:
		return fmt.Sprint(val)
	}
}

// Decimal converts a numeric column value. ok is false for NULL or non-numeric values.
func Decimal(v any) (decimal.Decimal, bool) {
	switch val := v.(type) {
	case int64:
		return decimal.NewFromInt(val), true
	case int:
		return decimal.NewFromInt(int64(val)), true
	case float64:
		return decimal.NewFromFloat(val), true
	case decimal.Decimal:
		return val, true
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(val))
		return d, err == nil
	case []byte:
		d, err := decimal.NewFromString(strings.TrimSpace(string(val)))
		return d, err == nil
	default:
		return decimal.Zero, false
	}
}
