package uplink

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/vitals/internal/groutine"
	"github.com/srg/vitals/internal/ringchan"
)

// Producer is anything that accumulates records between upload rounds.
// Drain returns the number of records gathered since the previous call, or a
// negative value if shipping the batch failed.
type Producer interface {
	Topic() string
	Drain() int
}

// Batcher periodically drains every registered producer and publishes the
// outcome as Events on the hub's event queue. It stands in for the streaming
// sender's cadence: one event per topic per round, no event for idle topics.
type Batcher struct {
	interval  time.Duration
	producers []Producer
	events    *ringchan.Ring[Event]
	tracker   *Tracker // optional, keeps per-topic totals alongside the queue
	logger    *logrus.Logger
}

// NewBatcher creates a Batcher publishing to events every interval.
func NewBatcher(interval time.Duration, events *ringchan.Ring[Event], logger *logrus.Logger) *Batcher {
	if logger == nil {
		logger = logrus.New()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	return &Batcher{
		interval: interval,
		events:   events,
		logger:   logger,
	}
}

// Register adds a producer. Not safe to call after Run has started.
func (b *Batcher) Register(p Producer) {
	b.producers = append(b.producers, p)
}

// WithTracker also folds every published event into t.
func (b *Batcher) WithTracker(t *Tracker) *Batcher {
	b.tracker = t
	return b
}

// Run drains producers on the upload cadence until ctx is done.
// It returns immediately; the work happens on a named goroutine.
func (b *Batcher) Run(ctx context.Context) {
	groutine.Go(ctx, "uplink-batcher", func(ctx context.Context) {
		ticker := time.NewTicker(b.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				b.flush()
			}
		}
	})
}

// flush drains each producer once. An idle producer (zero records) publishes
// nothing this round.
func (b *Batcher) flush() {
	now := time.Now()
	for _, p := range b.producers {
		n := p.Drain()
		if n == 0 {
			continue
		}

		ev := Event{Topic: p.Topic(), Records: n, Time: now}
		if b.tracker != nil {
			b.tracker.Record(ev)
		}
		dropped := b.events.Send(ev)
		if dropped {
			b.logger.WithField("topic", p.Topic()).Warn("Event queue full, dropped oldest upload event")
		}
	}
}
