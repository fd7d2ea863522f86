package sensor

import (
	"context"
	"math"
	"time"
)

// Status represents the connection state of a sensor source.
type Status int

const (
	Disconnected Status = iota
	Connecting
	Connected
	Ready
)

func (s Status) String() string {
	switch s {
	case Disconnected:
		return "DISCONNECTED"
	case Connecting:
		return "CONNECTING"
	case Connected:
		return "CONNECTED"
	case Ready:
		return "READY"
	default:
		return "UNKNOWN"
	}
}

// Snapshot is an immutable view of a source's latest readings, produced once
// per poll tick and discarded after rendering. Absent numeric readings are
// NaN; an unknown battery level is NaN.
type Snapshot struct {
	Status       Status
	DeviceName   string
	Temperature  float64 // degrees Celsius
	HeartRate    float64 // beats per minute
	Acceleration float64 // magnitude in g
	BatteryLevel float64 // fraction in [0,1]
	Taken        time.Time
}

// EmptySnapshot returns a snapshot with no data, as rendered for a slot that
// failed to answer this tick.
func EmptySnapshot() Snapshot {
	return Snapshot{
		Status:       Disconnected,
		Temperature:  math.NaN(),
		HeartRate:    math.NaN(),
		Acceleration: math.NaN(),
		BatteryLevel: math.NaN(),
	}
}

// StatusChange is delivered asynchronously by a source when its connection
// state changes, e.g. on device disconnect.
type StatusChange struct {
	Status     Status
	DeviceName string
}

// Config is the configuration bundle passed to a source on bind, merged from
// the global configuration keys by the orchestrator.
type Config struct {
	GroupID        string
	DeviceFilter   string // acceptable device key, empty accepts any device
	CallTimeout    time.Duration
	UploadInterval time.Duration
	Settings       map[string]string // per-source settings, e.g. API keys
}

// Source is a bindable background sensor service. Bind is asynchronous: it
// starts the source and returns; connection progress is reported via
// Notifications. Snapshot may be called only between Bind and Unbind.
type Source interface {
	// Name returns the short source tag, also used as the upload topic prefix.
	Name() string

	// Bind starts the source with the given configuration.
	// Returns ErrAlreadyBound if the source is already bound.
	Bind(ctx context.Context, cfg Config) error

	// Unbind stops the source and releases its device, if any.
	Unbind() error

	// Snapshot returns the current readings. It blocks at most until ctx is
	// done and fails with a TransportError if the source cannot answer.
	Snapshot(ctx context.Context) (Snapshot, error)

	// Notifications returns the channel of asynchronous status changes.
	// The channel is closed on Unbind.
	Notifications() <-chan StatusChange
}
