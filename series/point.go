package series

import (
	"slices"

	"github.com/shopspring/decimal"
)

// Fields lists the named numeric fields carried by every point of a series.
type Fields []string

// The two kinds of series the chart needs.
var (
	OHLC  = Fields{"open", "high", "low", "close"}
	Value = Fields{"value"}
)

// Index returns the position of key in f, or -1.
func (f Fields) Index(key string) int { return slices.Index(f, key) }

// Common returns the fields of f also present in g, in f's order.
func (f Fields) Common(g Fields) Fields {
	common := make(Fields, 0, len(f))
	for _, key := range f {
		if g.Index(key) >= 0 {
			common = append(common, key)
		}
	}
	return common
}

// Point is one observation: a timestamp (Unix seconds) and one value per field.
// A value that is not Valid is missing.
type Point struct {
	Time   int64
	Fields Fields
	Values []decimal.NullDecimal
}

// NewPoint returns a point at t where the first len(values) fields are set.
// Remaining fields are missing.
func NewPoint(t int64, fields Fields, values ...decimal.Decimal) Point {
	p := Point{Time: t, Fields: fields, Values: make([]decimal.NullDecimal, len(fields))}
	for i, v := range values {
		if i >= len(fields) {
			break
		}
		p.Values[i] = decimal.NewNullDecimal(v)
	}
	return p
}

// Get returns the value of key and whether it is present.
func (p Point) Get(key string) (decimal.Decimal, bool) {
	i := p.Fields.Index(key)
	if i < 0 || i >= len(p.Values) || !p.Values[i].Valid {
		return decimal.Zero, false
	}
	return p.Values[i].Decimal, true
}

// Complete reports whether every field of p has a value.
func (p Point) Complete() bool {
	if len(p.Values) < len(p.Fields) {
		return false
	}
	for _, v := range p.Values {
		if !v.Valid {
			return false
		}
	}
	return true
}

// At returns a copy of p moved to time t.
func (p Point) At(t int64) Point {
	p.Time = t
	p.Values = slices.Clone(p.Values)
	return p
}

// In projects p onto another field layout. Fields p does not have are missing.
func (p Point) In(fields Fields) Point {
	if slices.Equal(p.Fields, fields) && len(p.Values) == len(fields) {
		return p
	}
	q := Point{Time: p.Time, Fields: fields, Values: make([]decimal.NullDecimal, len(fields))}
	for i, key := range fields {
		if v, ok := p.Get(key); ok {
			q.Values[i] = decimal.NewNullDecimal(v)
		}
	}
	return q
}

// Scale multiplies every present value of p by k.
func (p Point) Scale(k decimal.Decimal) Point {
	q := p.At(p.Time)
	for i, v := range q.Values {
		if v.Valid {
			q.Values[i] = decimal.NewNullDecimal(v.Decimal.Mul(k))
		}
	}
	return q
}

// empty returns a point at t where every field is missing.
func empty(t int64, fields Fields) Point {
	return Point{Time: t, Fields: fields, Values: make([]decimal.NullDecimal, len(fields))}
}
