package hrm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cornelk/hashmap"
	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/srg/vitals/internal/ringchan"
)

// Discovery describes one advertising device seen during a scan.
type Discovery struct {
	Address   string
	Name      string
	RSSI      int
	HeartRate bool // advertises the Heart Rate service
	FirstSeen time.Time
	LastSeen  time.Time
}

// ScanOptions configures monitor discovery.
type ScanOptions struct {
	Duration time.Duration
	// HeartRateOnly drops devices that do not advertise the Heart Rate
	// service, so the listing only shows bindable monitors.
	HeartRateOnly bool
}

// DefaultScanOptions returns the discovery defaults.
func DefaultScanOptions() *ScanOptions {
	return &ScanOptions{
		Duration:      10 * time.Second,
		HeartRateOnly: true,
	}
}

// Scanner discovers nearby heart rate monitors.
type Scanner struct {
	devices *hashmap.Map[string, *Discovery]
	events  *ringchan.Ring[Discovery]
	logger  *logrus.Logger
}

// NewScanner creates a Scanner.
func NewScanner(logger *logrus.Logger) *Scanner {
	if logger == nil {
		logger = logrus.New()
	}
	return &Scanner{
		events: ringchan.New[Discovery](100),
		logger: logger,
	}
}

// Events returns a read-only channel of live discoveries, one per
// advertisement. A slow reader loses the oldest events, never blocks the
// radio callback.
func (s *Scanner) Events() <-chan Discovery {
	return s.events.C()
}

// Scan listens for advertisements until the configured duration or ctx ends,
// and returns the devices seen, keyed by address.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions) (map[string]Discovery, error) {
	if opts == nil {
		opts = DefaultScanOptions()
	}
	s.devices = hashmap.New[string, *Discovery]()

	dev, err := DeviceFactory()
	if err != nil {
		return nil, fmt.Errorf("failed to create BLE device: %w", err)
	}

	scanCtx := ctx
	if opts.Duration > 0 {
		var cancel context.CancelFunc
		scanCtx, cancel = context.WithTimeout(ctx, opts.Duration)
		defer cancel()
	}

	s.logger.WithField("duration", opts.Duration).Info("Scanning for heart rate monitors...")

	err = dev.Scan(scanCtx, true, func(adv ble.Advertisement) {
		s.handleAdvertisement(adv, opts)
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return nil, fmt.Errorf("scan failed: %w", err)
	}

	s.logger.WithField("device_count", s.devices.Len()).Info("Scan completed")

	found := make(map[string]Discovery, s.devices.Len())
	s.devices.Range(func(addr string, d *Discovery) bool {
		found[addr] = *d
		return true
	})
	return found, nil
}

func (s *Scanner) handleAdvertisement(adv ble.Advertisement, opts *ScanOptions) {
	hr := advertisesHeartRate(adv)
	if opts.HeartRateOnly && !hr {
		return
	}

	addr := adv.Addr().String()
	now := time.Now()

	d, existing := s.devices.Get(addr)
	if !existing {
		d, existing = s.devices.GetOrInsert(addr, &Discovery{
			Address:   addr,
			HeartRate: hr,
			FirstSeen: now,
		})
	}

	if name := adv.LocalName(); name != "" {
		d.Name = name
	}
	d.RSSI = adv.RSSI()
	d.LastSeen = now

	if !existing {
		s.logger.WithFields(logrus.Fields{
			"device":  d.Name,
			"address": d.Address,
			"rssi":    d.RSSI,
		}).Info("Discovered heart rate monitor")
	}

	s.events.Send(*d)
}

// advertisesHeartRate reports whether the advertisement carries the Heart
// Rate service UUID.
func advertisesHeartRate(adv ble.Advertisement) bool {
	for _, u := range adv.Services() {
		if heartRateServiceUUID.Equal(u) {
			return true
		}
	}
	return false
}
