// Package sim provides deterministic in-process sensor sources so the hub
// can run without hardware. Each source generates plausible waveforms and
// accumulates records for the uplink batcher.
package sim

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srg/vitals/internal/groutine"
	"github.com/srg/vitals/internal/sensor"
)

// sampleInterval is the cadence at which simulated sources generate records.
const sampleInterval = 250 * time.Millisecond

// base carries the bind lifecycle shared by all simulated sources.
// Concrete sources provide the snapshot function and a per-tick sample hook.
type base struct {
	name       string
	deviceName string
	logger     *logrus.Logger

	mu        sync.Mutex
	bound     bool
	sessionID string
	cfg       sensor.Config
	boundAt   time.Time
	notify    chan sensor.StatusChange
	cancel    context.CancelFunc

	records int // accumulated since the last drain

	// sample is called each generation tick with the elapsed time; it returns
	// the number of records produced this tick.
	sample func(elapsed time.Duration) int
}

func newBase(name, deviceName string, logger *logrus.Logger) *base {
	if logger == nil {
		logger = logrus.New()
	}
	return &base{
		name:       name,
		deviceName: deviceName,
		logger:     logger,
	}
}

// Name returns the source tag.
func (b *base) Name() string {
	return b.name
}

// Topic returns the upload topic for this source.
func (b *base) Topic() string {
	return b.name
}

// Bind starts sample generation. The connection handshake is simulated:
// Connecting is reported immediately, Connected after the first sample tick.
func (b *base) Bind(ctx context.Context, cfg sensor.Config) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.bound {
		return sensor.ErrAlreadyBound
	}

	b.bound = true
	b.cfg = cfg
	b.sessionID = uuid.NewString()
	b.boundAt = time.Now()
	b.notify = make(chan sensor.StatusChange, 8)

	runCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel

	b.logger.WithFields(logrus.Fields{
		"source":  b.name,
		"session": b.sessionID,
		"device":  b.deviceName,
	}).Info("Source bound")

	b.notify <- sensor.StatusChange{Status: sensor.Connecting, DeviceName: b.deviceName}

	groutine.Go(runCtx, "sim-"+b.name, func(ctx context.Context) {
		ticker := time.NewTicker(sampleInterval)
		defer ticker.Stop()

		connected := false
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if !b.sampleOnce(!connected) {
					return
				}
				connected = true
			}
		}
	})

	return nil
}

// sampleOnce runs one generation tick: it accumulates records and, when
// announce is set, emits the Connected notification. The notification is sent
// under the lock after re-checking bound, so a concurrent Unbind can never
// close the channel between the check and the send. Reports whether the
// source is still bound.
func (b *base) sampleOnce(announce bool) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.bound {
		return false
	}
	if b.sample != nil {
		b.records += b.sample(time.Since(b.boundAt))
	}
	if announce {
		select {
		case b.notify <- sensor.StatusChange{Status: sensor.Connected, DeviceName: b.deviceName}:
		default:
		}
	}
	return true
}

// Unbind stops generation and closes the notification channel.
func (b *base) Unbind() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.bound {
		return sensor.ErrNotBound
	}

	b.bound = false
	b.cancel()
	close(b.notify)
	b.notify = nil

	b.logger.WithFields(logrus.Fields{
		"source":  b.name,
		"session": b.sessionID,
	}).Info("Source unbound")
	return nil
}

// Notifications returns the status change channel for the current bind.
func (b *base) Notifications() <-chan sensor.StatusChange {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.notify
}

// Drain returns the records accumulated since the previous drain.
func (b *base) Drain() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := b.records
	b.records = 0
	return n
}

// snapshotStatus reports the status and elapsed bind time for building a
// snapshot, or an error if the source is not bound.
func (b *base) snapshotStatus() (time.Duration, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.bound {
		return 0, sensor.ErrNotBound
	}
	return time.Since(b.boundAt), nil
}

// status returns Connecting for the first sample interval, Connected after.
func statusFor(elapsed time.Duration) sensor.Status {
	if elapsed < sampleInterval {
		return sensor.Connecting
	}
	return sensor.Connected
}

// wave returns a sine with the given period, centered on mid with the given
// swing. Deterministic in elapsed time, so tests can pin expectations.
func wave(elapsed, period time.Duration, mid, swing float64) float64 {
	phase := 2 * math.Pi * float64(elapsed%period) / float64(period)
	return mid + swing*math.Sin(phase)
}
