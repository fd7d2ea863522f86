package sim

import (
	"context"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/vitals/internal/sensor"
)

// Chest simulates a chest-strap heart rate monitor, used when no real
// monitor address is configured. It reports heart rate and battery only.
type Chest struct {
	*base
}

// NewChest creates a simulated chest-strap source.
func NewChest(deviceName string, logger *logrus.Logger) *Chest {
	c := &Chest{base: newBase("chest", deviceName, logger)}
	// One measurement per tick, matching a real strap's notification rate.
	c.sample = func(time.Duration) int { return 1 }
	return c
}

// Snapshot returns the strap's current readings. A chest strap reports no
// skin temperature or acceleration; those render as absent.
func (c *Chest) Snapshot(ctx context.Context) (sensor.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return sensor.EmptySnapshot(), &sensor.TransportError{Source: c.name, Op: "snapshot", Err: err}
	}

	elapsed, err := c.snapshotStatus()
	if err != nil {
		return sensor.EmptySnapshot(), err
	}

	return sensor.Snapshot{
		Status:       statusFor(elapsed),
		DeviceName:   c.deviceName,
		Temperature:  math.NaN(),
		HeartRate:    wave(elapsed, 25*time.Second, 72, 12),
		Acceleration: math.NaN(),
		BatteryLevel: drain(elapsed, 0.6, 30*time.Hour),
		Taken:        time.Now(),
	}, nil
}
