package sim

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/vitals/internal/sensor"
)

// Wrist simulates a wrist-worn biosignal band: skin temperature, heart rate,
// acceleration and a slowly draining battery.
type Wrist struct {
	*base
}

// NewWrist creates a wrist source. deviceName is the serial the simulated
// band reports, matched against a slot's device filter.
func NewWrist(deviceName string, logger *logrus.Logger) *Wrist {
	w := &Wrist{base: newBase("wrist", deviceName, logger)}
	// Four channels sampled per tick: temperature, HR, accel, EDA.
	w.sample = func(time.Duration) int { return 4 }
	return w
}

// Snapshot returns the band's current readings.
func (w *Wrist) Snapshot(ctx context.Context) (sensor.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return sensor.EmptySnapshot(), &sensor.TransportError{Source: w.name, Op: "snapshot", Err: err}
	}

	elapsed, err := w.snapshotStatus()
	if err != nil {
		return sensor.EmptySnapshot(), err
	}

	return sensor.Snapshot{
		Status:       statusFor(elapsed),
		DeviceName:   w.deviceName,
		Temperature:  wave(elapsed, 90*time.Second, 31.5, 1.2),
		HeartRate:    wave(elapsed, 20*time.Second, 68, 9),
		Acceleration: wave(elapsed, 7*time.Second, 1.0, 0.08),
		BatteryLevel: drain(elapsed, 1.0, 8*time.Hour),
		Taken:        time.Now(),
	}, nil
}

// drain models a linear battery discharge from full down to empty.
func drain(elapsed time.Duration, full float64, lifetime time.Duration) float64 {
	level := full * (1 - float64(elapsed)/float64(lifetime))
	if level < 0 {
		return 0
	}
	return level
}
