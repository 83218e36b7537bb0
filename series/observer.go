package series

import (
	"sync/atomic"

	"go.uber.org/zap"
)

// Observer is notified of the silent degradations a series goes through.
type Observer interface {
	// GapFilled is called for every point replaced by the last complete one.
	GapFilled(t int64)
	// EmptyIntersection is called when two non empty series share no timestamp.
	EmptyIntersection(left, right int)
}

type nopObserver struct{}

func (nopObserver) GapFilled(int64)            {}
func (nopObserver) EmptyIntersection(int, int) {}

// Counter counts degradations. Its zero value is ready to use and safe for
// concurrent use.
type Counter struct {
	gaps    atomic.Int64
	empties atomic.Int64
}

func (c *Counter) GapFilled(int64)            { c.gaps.Add(1) }
func (c *Counter) EmptyIntersection(int, int) { c.empties.Add(1) }

// Gaps returns the number of filled gaps.
func (c *Counter) Gaps() int64 { return c.gaps.Load() }

// Empties returns the number of empty intersections.
func (c *Counter) Empties() int64 { return c.empties.Load() }

// LogObserver logs degradations: gap fills at debug level, empty
// intersections as warnings. A nil Logger logs nothing.
type LogObserver struct {
	Logger *zap.Logger
}

func (o LogObserver) logger() *zap.Logger {
	if o.Logger == nil {
		return zap.NewNop()
	}
	return o.Logger
}

func (o LogObserver) GapFilled(t int64) {
	o.logger().Debug("gap filled from last known point", zap.Int64("time", t))
}

func (o LogObserver) EmptyIntersection(left, right int) {
	o.logger().Warn("series do not overlap", zap.Int("left", left), zap.Int("right", right))
}

// Tee notifies every observer in turn.
func Tee(observers ...Observer) Observer { return tee(observers) }

type tee []Observer

func (t tee) GapFilled(ts int64) {
	for _, o := range t {
		o.GapFilled(ts)
	}
}

func (t tee) EmptyIntersection(left, right int) {
	for _, o := range t {
		o.EmptyIntersection(left, right)
	}
}
