// Package series implements sparse, time indexed series of numeric tuples.
//
// A Series is built once from raw points and is immutable afterwards. On
// construction, points with a missing field are forward filled from the last
// complete point, and every timestamp is snapped to the start of the series
// granularity so that series fetched over slightly different windows still
// share ticks. Combining series (Intersection, IntersectSeries) keeps only the
// timestamps present in every operand.
//
// Nothing in this package returns an error: malformed input degrades to gaps
// or to empty series. Use an Observer to detect those cases.
package series

import (
	"iter"
	"maps"
	"slices"
)

// Series is an ascending, time indexed sequence of points sharing the same Fields.
// A nil *Series behaves as an empty series.
type Series struct {
	fields      Fields
	granularity Granularity
	times       []int64
	points      []Point
	observer    Observer
}

type options struct {
	observer    Observer
	granularity *Granularity
}

// Option configures New.
type Option func(*options)

// WithObserver reports gap fills and empty intersections to obs.
// Series derived from this one inherit it.
func WithObserver(obs Observer) Option {
	return func(o *options) {
		if obs != nil {
			o.observer = obs
		}
	}
}

// WithGranularity forces the bucket used to normalize ticks instead of inferring it.
func WithGranularity(g Granularity) Option {
	return func(o *options) { o.granularity = &g }
}

// New builds a series from data.
//
// Duplicated timestamps keep the last point. Points missing any field are
// replaced by the last complete point (or by an all missing point if none was
// seen yet). Timestamps are then truncated to the inferred granularity; when
// two of them fall in the same bucket, the later one wins.
func New(data []Point, fields Fields, opts ...Option) *Series {
	o := options{observer: nopObserver{}}
	for _, opt := range opts {
		opt(&o)
	}

	byTime := make(map[int64]Point, len(data))
	for _, p := range data {
		byTime[p.Time] = p.In(fields)
	}
	times := slices.Sorted(maps.Keys(byTime))

	last := empty(0, fields)
	for _, t := range times {
		p := byTime[t]
		if !p.Complete() {
			byTime[t] = last.At(t)
			o.observer.GapFilled(t)
			continue
		}
		last = p
	}

	g := Of(minStep(times))
	if o.granularity != nil {
		g = *o.granularity
	}

	snapped := make(map[int64]Point, len(byTime))
	for _, t := range times {
		st := g.Truncate(t)
		snapped[st] = byTime[t].At(st)
	}

	s := &Series{fields: fields, granularity: g, observer: o.observer}
	s.times = slices.Sorted(maps.Keys(snapped))
	s.points = make([]Point, len(s.times))
	for i, t := range s.times {
		s.points[i] = snapped[t]
	}
	return s
}

// derive returns an empty series with the same layout and hooks as s.
func (s *Series) derive(capacity int) *Series {
	return &Series{
		fields:      s.Fields(),
		granularity: s.Granularity(),
		observer:    s.obs(),
		times:       make([]int64, 0, capacity),
		points:      make([]Point, 0, capacity),
	}
}

// Observe returns a series with the same points as s reporting to obs.
func (s *Series) Observe(obs Observer) *Series {
	if s == nil || obs == nil {
		return s
	}
	c := *s
	c.observer = obs
	return &c
}

func (s *Series) append(p Point) {
	s.times = append(s.times, p.Time)
	s.points = append(s.points, p.In(s.fields))
}

func (s *Series) obs() Observer {
	if s == nil || s.observer == nil {
		return nopObserver{}
	}
	return s.observer
}

// Len returns the number of points.
func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.times)
}

// Fields returns the value keys of the series.
func (s *Series) Fields() Fields {
	if s == nil {
		return nil
	}
	return s.fields
}

// Granularity returns the bucket the timestamps were snapped to.
func (s *Series) Granularity() Granularity {
	if s == nil {
		return Year
	}
	return s.granularity
}

// TimeAxis returns the ascending timestamps of the series.
func (s *Series) TimeAxis() []int64 {
	if s == nil {
		return nil
	}
	return slices.Clone(s.times)
}

// ValueAxis returns the points of the series, in TimeAxis order.
func (s *Series) ValueAxis() []Point {
	if s == nil {
		return nil
	}
	return slices.Clone(s.points)
}

// Points returns an iterator over all time/point pairs, in chronological order.
func (s *Series) Points() iter.Seq2[int64, Point] {
	return func(yield func(int64, Point) bool) {
		if s == nil {
			return
		}
		for i, t := range s.times {
			if !yield(t, s.points[i]) {
				return
			}
		}
	}
}

// Get returns the point at t and true, or a zero point and false.
func (s *Series) Get(t int64) (Point, bool) {
	if s == nil {
		return Point{}, false
	}
	i, found := slices.BinarySearch(s.times, t)
	if !found {
		return Point{}, false
	}
	return s.points[i], true
}

// Latest returns the last point of the series.
func (s *Series) Latest() (Point, bool) {
	if s.Len() == 0 {
		return Point{}, false
	}
	return s.points[len(s.points)-1], true
}

// Last returns a series made of the last n points.
func (s *Series) Last(n int) *Series {
	if n < 0 {
		n = 0
	}
	from := max(s.Len()-n, 0)
	out := s.derive(s.Len() - from)
	for i := from; i < s.Len(); i++ {
		out.append(s.points[i])
	}
	return out
}

// Map returns a series with f applied to every point. The time axis is kept
// as is: f must not move points.
func (s *Series) Map(f func(Point) Point) *Series {
	out := s.derive(s.Len())
	for t, p := range s.Points() {
		p = f(p)
		p.Time = t
		out.append(p)
	}
	return out
}
