package watch

import (
	"context"
	"time"
)

// FlushFunc applies one batch of events.
type FlushFunc func(ctx context.Context, batch []Event)

// Batcher coalesces events until none has arrived for the quiet period, then hands the
// batch to its FlushFunc. Pending events are owned by Run, and flushes happen on Run's
// goroutine one after another.
type Batcher struct {
	quiet  time.Duration
	flush  FlushFunc
	events chan Event
}

// NewBatcher creates a Batcher. A non-positive quiet period uses DefaultDebounce.
func NewBatcher(quiet time.Duration, flush FlushFunc) *Batcher {
	if quiet <= 0 {
		quiet = DefaultDebounce
	}
	return &Batcher{
		quiet:  quiet,
		flush:  flush,
		events: make(chan Event, 256),
	}
}

// Push queues an event. It blocks while the queue is full, which happens only when a
// flush is slower than the incoming events. Returns false if ctx ends first.
func (b *Batcher) Push(ctx context.Context, ev Event) bool {
	select {
	case b.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// Run collects events until ctx is cancelled. Events still pending at that point are
// flushed before Run returns.
func (b *Batcher) Run(ctx context.Context) {
	var (
		pending []Event
		timer   *time.Timer
		fire    <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			if len(pending) > 0 {
				b.flush(context.WithoutCancel(ctx), pending)
			}
			return

		case ev := <-b.events:
			pending = append(pending, ev)
			if timer == nil {
				timer = time.NewTimer(b.quiet)
			} else {
				timer.Reset(b.quiet)
			}
			fire = timer.C

		case <-fire:
			batch := pending
			pending, fire = nil, nil
			b.flush(ctx, batch)
		}
	}
}
