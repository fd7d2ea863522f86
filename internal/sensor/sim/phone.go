package sim

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smallnest/ringbuffer"
	"github.com/srg/vitals/internal/sensor"
)

// Phone simulates the host phone's own sensors: accelerometer, battery, and
// an ambient-audio level meter. Audio frames pass through a capture ring
// buffer that stands in for the native extraction routine the hub invokes;
// frames not drained in time are dropped, as a real capture buffer would.
type Phone struct {
	*base

	audio      *ringbuffer.RingBuffer
	frameBytes int
}

const (
	// audioFrameBytes is the size of one synthetic ambient-audio frame.
	audioFrameBytes = 64
	// audioCaptureCap bounds the capture buffer at ~32 undrained frames.
	audioCaptureCap = 32 * audioFrameBytes
)

// NewPhone creates a phone-sensor source.
func NewPhone(deviceName string, logger *logrus.Logger) *Phone {
	p := &Phone{
		base:       newBase("phone", deviceName, logger),
		audio:      ringbuffer.New(audioCaptureCap),
		frameBytes: audioFrameBytes,
	}
	p.sample = p.sampleTick
	return p
}

// sampleTick generates one accelerometer record plus one audio frame.
func (p *Phone) sampleTick(elapsed time.Duration) int {
	frame := make([]byte, p.frameBytes)
	level := wave(elapsed, 13*time.Second, 128, 90)
	for i := range frame {
		frame[i] = byte(level)
	}

	written, err := p.audio.Write(frame)
	if err != nil && !errors.Is(err, ringbuffer.ErrIsFull) {
		p.logger.WithError(err).Warn("Audio capture write failed")
	}

	records := 1 // accelerometer
	if written == len(frame) {
		records++ // complete audio frame captured
	}
	return records
}

// Snapshot returns the phone's current readings. The phone reports no skin
// temperature or heart rate; those render as absent.
func (p *Phone) Snapshot(ctx context.Context) (sensor.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return sensor.EmptySnapshot(), &sensor.TransportError{Source: p.name, Op: "snapshot", Err: err}
	}

	elapsed, err := p.snapshotStatus()
	if err != nil {
		return sensor.EmptySnapshot(), err
	}

	return sensor.Snapshot{
		Status:       statusFor(elapsed),
		DeviceName:   p.deviceName,
		Temperature:  math.NaN(),
		HeartRate:    math.NaN(),
		Acceleration: wave(elapsed, 5*time.Second, 1.0, 0.15),
		BatteryLevel: drain(elapsed, 0.8, 12*time.Hour),
		Taken:        time.Now(),
	}, nil
}

// Drain counts pending sensor records plus fully captured audio frames,
// consuming the capture buffer.
func (p *Phone) Drain() int {
	n := p.base.Drain()

	// Discard the drained audio bytes; the batch content itself is the
	// uplink transport's concern, the hub only counts records.
	buffered := p.audio.Length()
	if buffered > 0 {
		scratch := make([]byte, buffered)
		_, _ = p.audio.Read(scratch)
	}
	return n
}
