package portfolio

import "errors"

var (
	// ErrNoHoldings is returned when there is nothing to aggregate.
	ErrNoHoldings = errors.New("no holding with transactions")
	// ErrMissingPrices is returned when a holding has no price series at all.
	ErrMissingPrices = errors.New("missing price series")
	// ErrMissingRate is returned when no exchange rate series converts a currency.
	ErrMissingRate = errors.New("missing exchange rate")
	// ErrOversold is returned when a sell exceeds the quantity held.
	ErrOversold = errors.New("sell exceeds position")
	// ErrInvalidTransaction is returned by Transaction.Validate.
	ErrInvalidTransaction = errors.New("invalid transaction")
	// ErrInvalidCurrency is returned by ValidateCurrency.
	ErrInvalidCurrency = errors.New("invalid currency")
)
