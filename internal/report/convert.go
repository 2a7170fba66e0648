package report

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var numberCleaner = strings.NewReplacer(
	" ", "", "\u00a0", "", "\u202f", "", "€", "", "%", "", "EUR", "", "TTC", "",
)

// text renders a loosely typed scalar as trimmed text.
func text(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// number reads a loosely typed numeric scalar. French formatting
// ("1 234,56 €") is accepted. ok is false when v is absent or unreadable.
func number(v any) (decimal.Decimal, bool) {
	switch t := v.(type) {
	case nil:
		return decimal.Zero, false
	case float64:
		return decimal.NewFromFloat(t), true
	case float32:
		return decimal.NewFromFloat32(t), true
	case int:
		return decimal.NewFromInt(int64(t)), true
	case int64:
		return decimal.NewFromInt(t), true
	case uint64:
		return decimal.NewFromInt(int64(t)), true
	case string:
		cleaned := numberCleaner.Replace(strings.TrimSpace(t))
		if cleaned == "" {
			return decimal.Zero, false
		}
		if strings.Contains(cleaned, ",") {
			cleaned = strings.ReplaceAll(cleaned, ".", "")
			cleaned = strings.ReplaceAll(cleaned, ",", ".")
		}
		d, err := decimal.NewFromString(cleaned)
		if err != nil {
			return decimal.Zero, false
		}
		return d, true
	default:
		return number(fmt.Sprint(t))
	}
}

func float(v any) (float64, bool) {
	d, ok := number(v)
	if !ok {
		return 0, false
	}
	f, _ := d.Float64()
	return f, true
}

// firstText returns the first non-empty textual value.
func firstText(values ...any) string {
	for _, v := range values {
		if s := text(v); s != "" {
			return s
		}
	}
	return ""
}
