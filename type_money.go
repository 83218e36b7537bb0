package portfolio

import (
	"fmt"
	"regexp"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

var currencyCode = regexp.MustCompile(`^[A-Z]{3}$`)

// ValidateCurrency checks that code is a known ISO 4217 currency code.
func ValidateCurrency(code string) error {
	if !currencyCode.MatchString(code) {
		return fmt.Errorf("%w %q: must be 3 uppercase letters", ErrInvalidCurrency, code)
	}
	if money.GetCurrency(code) == nil {
		return fmt.Errorf("%w %q: unknown code", ErrInvalidCurrency, code)
	}
	return nil
}

// FormatMoney formats an amount of currency with its symbol, rounded to the
// currency's fraction digits.
func FormatMoney(amount decimal.Decimal, currency string) string {
	// to get a never nil currency I need to call the Money constructor
	cur := money.New(0, currency).Currency()
	minor := amount.Shift(int32(cur.Fraction)).Round(0)
	return cur.Formatter().Format(minor.IntPart())
}
