package portfolio

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Percent is a ratio times 100.
type Percent float64

// Change returns the relative change from base to v, in percent.
// It is zero when base is zero.
func Change(v, base decimal.Decimal) Percent {
	if base.IsZero() {
		return 0
	}
	return Percent(v.Sub(base).Div(base).Shift(2).InexactFloat64())
}

func (p Percent) Equal(q Percent) bool {
	// it has to be compared with some precision
	const precision = 0.0001
	diff := p - q
	if diff < 0 {
		diff = -diff
	}
	return diff < precision
}

func (p Percent) String() string {
	return fmt.Sprintf("%.2f%%", p)
}

func (p Percent) SignedString() string {
	res := fmt.Sprintf("%+.2f%%", p)
	if res == "+0.00%" {
		return "-"
	}
	return res
}
