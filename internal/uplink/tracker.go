package uplink

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/sirupsen/logrus"
	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// TopicStats is a read-only view of one topic's upload counters.
type TopicStats struct {
	Topic      string
	Total      int64
	Failures   int64
	LastUpdate time.Time
}

type topicCounter struct {
	total      atomic.Int64
	failures   atomic.Int64
	lastUpdate atomic.Int64 // unix millis
}

// Tracker accumulates upload events per topic. Counters live in a lock-free
// map so the dispatcher never contends with readers; topic display order is
// first-seen, kept in an ordered map guarded by its own mutex.
type Tracker struct {
	counters *hashmap.Map[string, *topicCounter]

	mu    sync.Mutex
	order *orderedmap.OrderedMap[string, struct{}]

	logger *logrus.Logger
}

// NewTracker creates an empty Tracker.
func NewTracker(logger *logrus.Logger) *Tracker {
	if logger == nil {
		logger = logrus.New()
	}
	return &Tracker{
		counters: hashmap.New[string, *topicCounter](),
		order:    orderedmap.New[string, struct{}](),
		logger:   logger,
	}
}

// Record folds one event into the topic's counters. Failure events bump the
// failure counter and leave the running total untouched, so totals stay
// monotonically non-decreasing.
func (t *Tracker) Record(ev Event) {
	c, loaded := t.counters.Get(ev.Topic)
	if !loaded {
		c, _ = t.counters.GetOrInsert(ev.Topic, &topicCounter{})
		t.mu.Lock()
		t.order.Set(ev.Topic, struct{}{})
		t.mu.Unlock()
	}

	when := ev.Time
	if when.IsZero() {
		when = time.Now()
	}

	if ev.Failed() {
		c.failures.Add(1)
		t.logger.WithField("topic", ev.Topic).Warn("Upload batch failed")
	} else {
		c.total.Add(int64(ev.Records))
	}
	c.lastUpdate.Store(when.UnixMilli())
}

// Stats returns the counters for one topic.
func (t *Tracker) Stats(topic string) (TopicStats, bool) {
	c, ok := t.counters.Get(topic)
	if !ok {
		return TopicStats{}, false
	}
	return t.view(topic, c), true
}

// Topics returns a stats view of all known topics in first-seen order.
func (t *Tracker) Topics() []TopicStats {
	t.mu.Lock()
	topics := make([]string, 0, t.order.Len())
	for pair := t.order.Oldest(); pair != nil; pair = pair.Next() {
		topics = append(topics, pair.Key)
	}
	t.mu.Unlock()

	stats := make([]TopicStats, 0, len(topics))
	for _, topic := range topics {
		if c, ok := t.counters.Get(topic); ok {
			stats = append(stats, t.view(topic, c))
		}
	}
	return stats
}

func (t *Tracker) view(topic string, c *topicCounter) TopicStats {
	return TopicStats{
		Topic:      topic,
		Total:      c.total.Load(),
		Failures:   c.failures.Load(),
		LastUpdate: time.UnixMilli(c.lastUpdate.Load()),
	}
}
