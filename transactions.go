package portfolio

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TxType is the kind of a transaction.
type TxType string

// Transaction types.
const (
	Buy  TxType = "BUY"
	Sell TxType = "SELL"
)

// ParseTxType parses "buy" or "sell", in any case.
func ParseTxType(s string) (TxType, error) {
	switch t := TxType(strings.ToUpper(s)); t {
	case Buy, Sell:
		return t, nil
	default:
		return "", fmt.Errorf("unknown transaction type: %q", s)
	}
}

// Transaction is a buy or a sell of a quantity of a holding's symbol at a
// unit price in the holding's currency.
type Transaction struct {
	ID       string          `json:"id"`
	Time     int64           `json:"time"` // Unix seconds
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Type     TxType          `json:"type"`
}

// NewTransaction returns a validated transaction with a fresh ID.
func NewTransaction(typ TxType, t int64, quantity, price decimal.Decimal) (Transaction, error) {
	tx := Transaction{
		ID:       uuid.NewString(),
		Time:     t,
		Quantity: quantity,
		Price:    price,
		Type:     typ,
	}
	if err := tx.Validate(); err != nil {
		return Transaction{}, err
	}
	return tx, nil
}

// Validate checks that the transaction has an ID, a known type, and a
// positive quantity and price. All failures are reported at once.
func (tx Transaction) Validate() error {
	var errs []error
	if tx.ID == "" {
		errs = append(errs, errors.New("id is missing"))
	}
	switch tx.Type {
	case Buy, Sell:
	default:
		errs = append(errs, fmt.Errorf("unknown type %q", tx.Type))
	}
	if !tx.Quantity.IsPositive() {
		errs = append(errs, fmt.Errorf("quantity must be positive, got %s", tx.Quantity))
	}
	if !tx.Price.IsPositive() {
		errs = append(errs, fmt.Errorf("price must be positive, got %s", tx.Price))
	}
	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidTransaction, errors.Join(errs...))
}

// Amount returns quantity times price.
func (tx Transaction) Amount() decimal.Decimal { return tx.Quantity.Mul(tx.Price) }

// signed returns the quantity, negated for sells.
func (tx Transaction) signed() decimal.Decimal {
	if tx.Type == Sell {
		return tx.Quantity.Neg()
	}
	return tx.Quantity
}
