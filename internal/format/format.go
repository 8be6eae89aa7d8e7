// Package format turns tool results into reply text.
package format

import (
	"fmt"
	"math/big"
	"reflect"
	"sort"
	"strings"

	"github.com/hession/datamate/internal/tools"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// NotAvailable is shown for null results
const NotAvailable = "N/A"

// Formatter renders one kind of tool result
type Formatter interface {
	Format(result any) string
}

// FormatterFunc adapts a function to Formatter
type FormatterFunc func(result any) string

// Format implements Formatter
func (f FormatterFunc) Format(result any) string { return f(result) }

var byTool = map[tools.ToolID]Formatter{
	tools.CustomerNames: labeledList{label: "Customer names"},
	tools.TopProducts:   labeledList{label: "Top products"},
	tools.SalesByRegion: regionTotal{},
	tools.AveragePrice:  averagePrice{},
	tools.SupportTicket: passThrough{},
}

// For returns the formatter of a tool, or Shape when the tool has none
func For(id tools.ToolID) Formatter {
	if f, ok := byTool[id]; ok {
		return f
	}
	return Shape
}

// Format renders the result of tool id
func Format(id tools.ToolID, result any) string {
	return For(id).Format(result)
}

type labeledList struct {
	label string
}

func (l labeledList) Format(result any) string {
	items, ok := result.([]string)
	if !ok {
		return Shape.Format(result)
	}
	return l.label + ": " + strings.Join(items, ", ")
}

type regionTotal struct{}

func (regionTotal) Format(result any) string {
	m, ok := result.(map[string]decimal.Decimal)
	if !ok || len(m) != 1 {
		return Shape.Format(result)
	}
	for region, total := range m {
		return fmt.Sprintf("Total sales in %s: %s", region, Currency(total))
	}
	return ""
}

type averagePrice struct{}

func (averagePrice) Format(result any) string {
	switch v := result.(type) {
	case decimal.NullDecimal:
		if !v.Valid {
			return "Average sale price: " + NotAvailable
		}
		return "Average sale price: " + Currency(v.Decimal)
	case nil:
		return "Average sale price: " + NotAvailable
	}
	if d, ok := numeric(result); ok {
		return "Average sale price: " + Currency(d)
	}
	return Shape.Format(result)
}

type passThrough struct{}

func (passThrough) Format(result any) string {
	if s, ok := result.(string); ok {
		return s
	}
	return Shape.Format(result)
}

// Shape formats any result by its structure
var Shape Formatter = FormatterFunc(formatShape)

func formatShape(result any) string {
	if result == nil {
		return NotAvailable
	}

	switch v := result.(type) {
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case decimal.NullDecimal:
		if !v.Valid {
			return NotAvailable
		}
		return Currency(v.Decimal)
	}

	if d, ok := numeric(result); ok {
		return Currency(d)
	}

	rv := reflect.ValueOf(result)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
			return string(rv.Bytes())
		}
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = formatShape(rv.Index(i).Interface())
		}
		return strings.Join(parts, ", ")
	case reflect.Map:
		pairs := make([]string, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			pairs = append(pairs, fmt.Sprint(iter.Key().Interface())+": "+formatShape(iter.Value().Interface()))
		}
		sort.Strings(pairs)
		return strings.Join(pairs, ", ")
	case reflect.Pointer:
		if rv.IsNil() {
			return NotAvailable
		}
		return formatShape(rv.Elem().Interface())
	}

	return fmt.Sprint(result)
}

// numeric reports whether v is a number and returns it as a decimal
func numeric(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int32:
		return decimal.NewFromInt32(n), true
	case int64:
		return decimal.NewFromInt(n), true
	case uint32:
		return decimal.NewFromInt(int64(n)), true
	case uint64:
		return decimal.NewFromBigInt(new(big.Int).SetUint64(n), 0), true
	case float32:
		return decimal.NewFromFloat32(n), true
	case float64:
		return decimal.NewFromFloat(n), true
	}
	return decimal.Zero, false
}

// Currency renders d rounded half away from zero to two places with comma
// thousands separators, e.g. 1234.5 -> 1,234.50
func Currency(d decimal.Decimal) string {
	rounded := d.Round(2)
	f, _ := rounded.Float64()
	p := message.NewPrinter(language.English)
	return p.Sprint(number.Decimal(f, number.Scale(2)))
}
