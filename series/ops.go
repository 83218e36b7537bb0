package series

import (
	"github.com/shopspring/decimal"
)

// Operation combines two points over a list of keys into a new point.
type Operation func(a, b Point, keys Fields) Point

// Add sums, key by key, the values present in both a and b.
// Keys missing on either side are missing in the result.
func Add(a, b Point, keys Fields) Point { return combine(a, b, keys, decimal.Decimal.Add) }

// Multiply multiplies, key by key, the values present in both a and b.
// Keys missing on either side are missing in the result.
func Multiply(a, b Point, keys Fields) Point { return combine(a, b, keys, decimal.Decimal.Mul) }

func combine(a, b Point, keys Fields, op func(x, y decimal.Decimal) decimal.Decimal) Point {
	out := empty(a.Time, keys)
	for i, key := range keys {
		x, ok := a.Get(key)
		if !ok {
			continue
		}
		y, ok := b.Get(key)
		if !ok {
			continue
		}
		out.Values[i] = decimal.NewNullDecimal(op(x, y))
	}
	return out
}

// Intersection returns a series holding only the timestamps present in both
// a and b, each point being op applied to the two operands over their common
// keys. The result has a's fields and granularity; it is not normalized again.
func Intersection(a, b *Series, op Operation) *Series {
	keys := a.Fields().Common(b.Fields())
	out := a.derive(min(a.Len(), b.Len()))

	// both axes are sorted: merge walk.
	i, j := 0, 0
	for i < a.Len() && j < b.Len() {
		ta, tb := a.times[i], b.times[j]
		switch {
		case ta < tb:
			i++
		case ta > tb:
			j++
		default:
			p := op(a.points[i], b.points[j], keys)
			p.Time = ta
			out.append(p)
			i++
			j++
		}
	}

	if out.Len() == 0 && a.Len() > 0 && b.Len() > 0 {
		out.obs().EmptyIntersection(a.Len(), b.Len())
	}
	return out
}

// IntersectSeries folds Intersection from left to right over list.
// A single series is returned unchanged. An empty list has no meaning and
// returns nil: callers must not ask for it.
func IntersectSeries(list []*Series, op Operation) *Series {
	if len(list) == 0 {
		return nil
	}
	acc := list[0]
	for _, s := range list[1:] {
		acc = Intersection(acc, s, op)
	}
	return acc
}
