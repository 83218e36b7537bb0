package marketdata

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Batcher coalesces requests to a provider.
//
// Requests are queued for at most window; the queue is flushed earlier once
// maxSize distinct requests are pending. Identical pending requests share a
// single upstream call. Each flush calls the provider concurrently for every
// distinct request.
//
// A Batcher is meant to be constructed once and shared by every fetcher.
type Batcher struct {
	provider Provider
	window   time.Duration
	maxSize  int
	logger   *zap.Logger

	mu      sync.Mutex
	pending map[Request]*call
	timer   *time.Timer
	gen     int // identifies the pending queue the timer was armed for
}

type call struct {
	done chan struct{}
	bars []Bar
	err  error
}

// NewBatcher returns a batcher in front of p. A maxSize lower than 1 means
// no size limit.
func NewBatcher(p Provider, window time.Duration, maxSize int, logger *zap.Logger) *Batcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Batcher{
		provider: p,
		window:   window,
		maxSize:  maxSize,
		logger:   logger,
		pending:  make(map[Request]*call),
	}
}

// Bars queues r and waits for its result or for ctx to be done. Cancelling
// ctx does not cancel the upstream call, which may serve other callers.
func (b *Batcher) Bars(ctx context.Context, r Request) ([]Bar, error) {
	b.mu.Lock()
	c, ok := b.pending[r]
	if !ok {
		c = &call{done: make(chan struct{})}
		b.pending[r] = c
		switch {
		case b.maxSize > 0 && len(b.pending) >= b.maxSize:
			b.flushLocked()
		case b.timer == nil:
			gen := b.gen
			b.timer = time.AfterFunc(b.window, func() { b.flush(gen) })
		}
	}
	b.mu.Unlock()

	select {
	case <-c.done:
		return c.bars, c.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// flush flushes the queue if it is still the one armed at gen.
func (b *Batcher) flush(gen int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if gen == b.gen {
		b.flushLocked()
	}
}

func (b *Batcher) flushLocked() {
	if b.timer != nil {
		b.timer.Stop()
		b.timer = nil
	}
	batch := b.pending
	b.pending = make(map[Request]*call)
	b.gen++
	if len(batch) > 0 {
		go b.run(batch)
	}
}

func (b *Batcher) run(batch map[Request]*call) {
	start := time.Now()
	var g errgroup.Group
	for r, c := range batch {
		g.Go(func() error {
			defer close(c.done)
			c.bars, c.err = b.provider.Bars(context.Background(), r)
			if c.err != nil {
				b.logger.Warn("fetch failed", zap.Stringer("request", r), zap.Error(c.err))
			}
			return nil
		})
	}
	_ = g.Wait()
	b.logger.Debug("batch flushed", zap.Int("requests", len(batch)), zap.Duration("elapsed", time.Since(start)))
}
