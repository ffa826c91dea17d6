package database

import (
	"time"

	"github.com/shopspring/decimal"
)

// Scales used for decimal columns. Values are stored as fixed-scale text so
// that "unchanged" comparisons in the merge statements are exact.
const (
	ScaleQuantity int32 = 3
	ScalePrice    int32 = 4
	ScaleAmount   int32 = 2
)

const DateLayout = "2006-01-02"

// Dec renders a decimal parameter with an explicit scale (half-up rounding).
func Dec(d decimal.Decimal, scale int32) string {
	return d.StringFixed(scale)
}

// NullDec is Dec for optional values.
func NullDec(d decimal.NullDecimal, scale int32) any {
	if !d.Valid {
		return nil
	}
	return d.Decimal.StringFixed(scale)
}

// Date renders a calendar date parameter.
func Date(t time.Time) string {
	return t.Format(DateLayout)
}
