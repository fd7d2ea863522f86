// Package hrm implements the chest-strap source on top of a standard BLE
// heart rate monitor: Heart Rate service (180d) notifications for beats per
// minute, Battery service (180f) for the charge level.
package hrm

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/go-ble/ble"
	"github.com/go-ble/ble/darwin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/srg/vitals/internal/groutine"
	"github.com/srg/vitals/internal/sensor"
)

var (
	heartRateServiceUUID = ble.UUID16(0x180D)
	heartRateMeasUUID    = ble.UUID16(0x2A37)
	batteryServiceUUID   = ble.UUID16(0x180F)
	batteryLevelUUID     = ble.UUID16(0x2A19)
	deviceNameUUID       = ble.UUID16(0x2A00)
)

// DeviceFactory creates ble.Device instances (can be overridden in tests)
var DeviceFactory = func() (ble.Device, error) {
	dev, err := darwin.NewDevice()
	if err != nil {
		if strings.Contains(err.Error(), "central manager has invalid state") {
			return nil, fmt.Errorf("Bluetooth is not ready - %w", err)
		}
		return nil, err
	}
	return dev, nil
}

// Chest is the chest-strap sensor source. Bind dials the monitor in the
// background and reports progress on the notification channel; Snapshot
// serves the latest notified measurement without touching the radio.
type Chest struct {
	address string
	logger  *logrus.Logger

	mu         sync.Mutex
	bound      bool
	sessionID  string
	device     ble.Device
	client     ble.Client
	notify     chan sensor.StatusChange
	cancel     context.CancelFunc
	status     sensor.Status
	deviceName string
	heartRate  float64
	battery    float64
	lastSeen   time.Time
	records    int
}

// NewChest creates a chest-strap source for the monitor at address.
func NewChest(address string, logger *logrus.Logger) *Chest {
	if logger == nil {
		logger = logrus.New()
	}
	return &Chest{
		address:   address,
		logger:    logger,
		status:    sensor.Disconnected,
		heartRate: math.NaN(),
		battery:   math.NaN(),
	}
}

// Name returns the source tag.
func (c *Chest) Name() string { return "chest" }

// Topic returns the upload topic for this source.
func (c *Chest) Topic() string { return "chest" }

// Bind starts connecting to the monitor. The dial happens on a background
// goroutine; Bind returns once the attempt is underway.
func (c *Chest) Bind(ctx context.Context, cfg sensor.Config) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.bound {
		return sensor.ErrAlreadyBound
	}

	address := c.address
	if a := cfg.Settings["chest_address"]; a != "" {
		address = a
	}
	if strings.TrimSpace(address) == "" {
		return &sensor.TransportError{Source: c.Name(), Op: "bind",
			Err: fmt.Errorf("no chest strap address configured")}
	}

	connectTimeout := 30 * time.Second
	if s := cfg.Settings["chest_connect_timeout"]; s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			connectTimeout = d
		}
	}

	c.bound = true
	c.sessionID = uuid.NewString()
	c.status = sensor.Connecting
	c.notify = make(chan sensor.StatusChange, 8)

	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.logger.WithFields(logrus.Fields{
		"source":  c.Name(),
		"session": c.sessionID,
		"address": address,
	}).Info("Connecting to heart rate monitor...")

	c.sendLocked(sensor.StatusChange{Status: sensor.Connecting})

	groutine.Go(runCtx, "hrm-"+address, func(ctx context.Context) {
		c.run(ctx, address, connectTimeout)
	})
	return nil
}

// run dials, discovers and subscribes, then waits for disconnect.
func (c *Chest) run(ctx context.Context, address string, connectTimeout time.Duration) {
	client, dev, name, err := c.connect(ctx, address, connectTimeout)
	if err != nil {
		c.logger.WithError(err).WithField("address", address).Error("Heart rate monitor connection failed")
		c.transition(sensor.Disconnected, "")
		return
	}

	c.mu.Lock()
	if !c.bound {
		// Unbound while dialing; drop the fresh connection.
		c.mu.Unlock()
		_ = client.CancelConnection()
		_ = dev.Stop()
		return
	}
	c.client = client
	c.device = dev
	c.deviceName = name
	c.mu.Unlock()

	c.transition(sensor.Connected, name)

	// Block until the platform reports the link is gone or we are unbound.
	select {
	case <-ctx.Done():
	case <-disconnectedChan(client):
		c.logger.WithField("address", address).Warn("Heart rate monitor disconnected")
		c.transition(sensor.Disconnected, name)
	}
}

// connect performs the dial, profile discovery, battery read and HR subscribe.
// The returned device is owned by the caller and must be stopped when the
// connection is released.
func (c *Chest) connect(ctx context.Context, address string, timeout time.Duration) (ble.Client, ble.Device, string, error) {
	dev, err := DeviceFactory()
	if err != nil {
		return nil, nil, "", fmt.Errorf("failed to create BLE device: %w", err)
	}
	ble.SetDefaultDevice(dev)

	connCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := ble.Dial(connCtx, ble.NewAddr(address))
	if err != nil {
		_ = dev.Stop()
		return nil, nil, "", fmt.Errorf("failed to connect to %q: %w", address, err)
	}

	profile, err := client.DiscoverProfile(true)
	if err != nil {
		if cancelErr := client.CancelConnection(); cancelErr != nil {
			c.logger.WithField("cancel_error", cancelErr).Warn("Failed to cancel connection after discovery failure")
		}
		_ = dev.Stop()
		return nil, nil, "", fmt.Errorf("failed to discover profile: %w", err)
	}

	name := address
	if ch := findCharacteristic(profile, deviceNameUUID); ch != nil {
		if data, err := client.ReadCharacteristic(ch); err == nil && len(data) > 0 {
			name = string(data)
		}
	}

	if ch := findCharacteristicIn(profile, batteryServiceUUID, batteryLevelUUID); ch != nil {
		if data, err := client.ReadCharacteristic(ch); err == nil && len(data) > 0 {
			c.setBattery(float64(data[0]) / 100)
		}
	}

	hrChar := findCharacteristicIn(profile, heartRateServiceUUID, heartRateMeasUUID)
	if hrChar == nil {
		if cancelErr := client.CancelConnection(); cancelErr != nil {
			c.logger.WithField("cancel_error", cancelErr).Warn("Failed to cancel connection")
		}
		_ = dev.Stop()
		return nil, nil, "", fmt.Errorf("device %q does not expose the heart rate measurement characteristic", address)
	}

	if err := client.Subscribe(hrChar, false, c.onMeasurement); err != nil {
		if cancelErr := client.CancelConnection(); cancelErr != nil {
			c.logger.WithField("cancel_error", cancelErr).Warn("Failed to cancel connection")
		}
		_ = dev.Stop()
		return nil, nil, "", fmt.Errorf("failed to subscribe to heart rate measurement: %w", err)
	}

	return client, dev, name, nil
}

// onMeasurement handles one Heart Rate Measurement notification.
func (c *Chest) onMeasurement(data []byte) {
	m, err := ParseMeasurement(data)
	if err != nil {
		c.logger.WithError(err).Debug("Discarding malformed heart rate measurement")
		return
	}

	c.mu.Lock()
	c.heartRate = float64(m.BPM)
	c.lastSeen = time.Now()
	c.records++
	c.mu.Unlock()
}

func (c *Chest) setBattery(level float64) {
	c.mu.Lock()
	c.battery = level
	c.mu.Unlock()
}

// transition updates the status and notifies listeners.
func (c *Chest) transition(status sensor.Status, name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.bound {
		return
	}
	c.status = status
	c.sendLocked(sensor.StatusChange{Status: status, DeviceName: name})
}

// sendLocked delivers a status change without blocking. Callers hold c.mu.
func (c *Chest) sendLocked(change sensor.StatusChange) {
	select {
	case c.notify <- change:
	default:
	}
}

// Unbind disconnects from the monitor and closes the notification channel.
func (c *Chest) Unbind() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.bound {
		return sensor.ErrNotBound
	}

	c.bound = false
	c.cancel()
	if c.client != nil {
		if err := c.client.CancelConnection(); err != nil {
			c.logger.WithError(err).Warn("Failed to cancel heart rate monitor connection")
		}
		c.client = nil
	}
	if c.device != nil {
		// Releases the HCI handle; rebinding creates a fresh device.
		if err := c.device.Stop(); err != nil {
			c.logger.WithError(err).Warn("Failed to stop BLE device")
		}
		c.device = nil
	}
	close(c.notify)
	c.notify = nil
	c.status = sensor.Disconnected
	c.heartRate = math.NaN()

	c.logger.WithFields(logrus.Fields{
		"source":  c.Name(),
		"session": c.sessionID,
	}).Info("Source unbound")
	return nil
}

// Notifications returns the status change channel for the current bind.
func (c *Chest) Notifications() <-chan sensor.StatusChange {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.notify
}

// Snapshot serves the latest notified measurement. The chest strap reports
// no skin temperature or acceleration; those render as absent.
func (c *Chest) Snapshot(ctx context.Context) (sensor.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return sensor.EmptySnapshot(), &sensor.TransportError{Source: c.Name(), Op: "snapshot", Err: err}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.bound {
		return sensor.EmptySnapshot(), sensor.ErrNotBound
	}

	return sensor.Snapshot{
		Status:       c.status,
		DeviceName:   c.deviceName,
		Temperature:  math.NaN(),
		HeartRate:    c.heartRate,
		Acceleration: math.NaN(),
		BatteryLevel: c.battery,
		Taken:        time.Now(),
	}, nil
}

// Drain returns the measurements accumulated since the previous drain.
func (c *Chest) Drain() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := c.records
	c.records = 0
	return n
}

// disconnectedChan adapts the Darwin-specific Disconnected() channel; on
// other platforms the link state is only observed through failed operations.
func disconnectedChan(client ble.Client) <-chan struct{} {
	if d, ok := client.(interface{ Disconnected() <-chan struct{} }); ok {
		return d.Disconnected()
	}
	return nil
}

// findCharacteristicIn locates a characteristic inside a specific service.
func findCharacteristicIn(p *ble.Profile, svcUUID, charUUID ble.UUID) *ble.Characteristic {
	for _, svc := range p.Services {
		if !svc.UUID.Equal(svcUUID) {
			continue
		}
		for _, ch := range svc.Characteristics {
			if ch.UUID.Equal(charUUID) {
				return ch
			}
		}
	}
	return nil
}

// findCharacteristic locates a characteristic in any service.
func findCharacteristic(p *ble.Profile, charUUID ble.UUID) *ble.Characteristic {
	for _, svc := range p.Services {
		for _, ch := range svc.Characteristics {
			if ch.UUID.Equal(charUUID) {
				return ch
			}
		}
	}
	return nil
}
