package hrm

import (
	"testing"

	"github.com/cornelk/hashmap"
	"github.com/go-ble/ble"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

// fakeAdv is a minimal ble.Advertisement for feeding the scanner directly.
type fakeAdv struct {
	addr     string
	name     string
	rssi     int
	services []ble.UUID
}

func (f *fakeAdv) LocalName() string              { return f.name }
func (f *fakeAdv) ManufacturerData() []byte       { return nil }
func (f *fakeAdv) ServiceData() []ble.ServiceData { return nil }
func (f *fakeAdv) Services() []ble.UUID           { return f.services }
func (f *fakeAdv) OverflowService() []ble.UUID    { return nil }
func (f *fakeAdv) TxPowerLevel() int              { return 0 }
func (f *fakeAdv) Connectable() bool              { return true }
func (f *fakeAdv) SolicitedService() []ble.UUID   { return nil }
func (f *fakeAdv) RSSI() int                      { return f.rssi }
func (f *fakeAdv) Addr() ble.Addr                 { return ble.NewAddr(f.addr) }

func newScanReadyScanner() *Scanner {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	s := NewScanner(logger)
	s.devices = hashmap.New[string, *Discovery]()
	return s
}

func TestAdvertisesHeartRate(t *testing.T) {
	hr := &fakeAdv{services: []ble.UUID{ble.UUID16(0x180D)}}
	other := &fakeAdv{services: []ble.UUID{ble.UUID16(0x180F)}}
	none := &fakeAdv{}

	require.True(t, advertisesHeartRate(hr))
	require.False(t, advertisesHeartRate(other))
	require.False(t, advertisesHeartRate(none))
}

func TestHandleAdvertisementFiltersNonMonitors(t *testing.T) {
	s := newScanReadyScanner()
	opts := DefaultScanOptions()

	s.handleAdvertisement(&fakeAdv{addr: "11:22:33:44:55:66", name: "Thermometer"}, opts)
	require.Zero(t, s.devices.Len())

	s.handleAdvertisement(&fakeAdv{
		addr:     "aa:bb:cc:dd:ee:ff",
		name:     "Polar H10 5A2F01",
		rssi:     -52,
		services: []ble.UUID{ble.UUID16(0x180D)},
	}, opts)
	require.Equal(t, 1, s.devices.Len())

	d, ok := s.devices.Get("aa:bb:cc:dd:ee:ff")
	require.True(t, ok)
	require.Equal(t, "Polar H10 5A2F01", d.Name)
	require.Equal(t, -52, d.RSSI)
	require.True(t, d.HeartRate)
}

func TestHandleAdvertisementUpdatesExisting(t *testing.T) {
	s := newScanReadyScanner()
	opts := &ScanOptions{HeartRateOnly: false}

	// First advertisement has no name yet; a later one fills it in.
	s.handleAdvertisement(&fakeAdv{addr: "aa:bb:cc:dd:ee:ff", rssi: -70}, opts)
	s.handleAdvertisement(&fakeAdv{addr: "aa:bb:cc:dd:ee:ff", name: "Polar H10", rssi: -60}, opts)

	require.Equal(t, 1, s.devices.Len())
	d, ok := s.devices.Get("aa:bb:cc:dd:ee:ff")
	require.True(t, ok)
	require.Equal(t, "Polar H10", d.Name)
	require.Equal(t, -60, d.RSSI)
	require.False(t, d.FirstSeen.IsZero())
	require.False(t, d.LastSeen.Before(d.FirstSeen))

	// Each advertisement produced a live event.
	require.Equal(t, 2, s.events.Len())
}

func TestScanEventsChannel(t *testing.T) {
	s := newScanReadyScanner()
	s.handleAdvertisement(&fakeAdv{
		addr:     "aa:bb:cc:dd:ee:ff",
		name:     "Polar H10",
		services: []ble.UUID{ble.UUID16(0x180D)},
	}, DefaultScanOptions())

	select {
	case d := <-s.Events():
		require.Equal(t, "Polar H10", d.Name)
	default:
		t.Fatal("no discovery event published")
	}
}
