package screener

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var amountUnits = []struct {
	size   int64
	suffix string
}{
	{1_000_000_000, "B"},
	{1_000_000, "M"},
	{1_000, "K"},
}

// HumanizeAmount renders an amount as "5.0B", "12.35M", "1.5K" or the plain integer below 1000.
func HumanizeAmount(v int64) string {
	for _, u := range amountUnits {
		if v >= u.size {
			return scaled(decimal.NewFromInt(v).Div(decimal.NewFromInt(u.size))) + u.suffix
		}
	}
	return strconv.FormatInt(v, 10)
}

func scaled(d decimal.Decimal) string {
	s := d.Round(2).String()
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}

// round2 rounds half away from zero to two decimals.
func round2(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}
