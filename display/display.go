// Package display turns orchestrator frames into dashboard rows. Everything
// in this file is a pure function of the frame, so the formatting rules are
// testable without a terminal.
package display

import (
	"fmt"
	"math"
	"time"

	"github.com/srg/vitals/internal/sensor"
	"github.com/srg/vitals/internal/uplink"
	"github.com/srg/vitals/orchestrator"
)

// MaxDeviceNameLength is the display width budget for device names.
const MaxDeviceNameLength = 25

// emDash renders absent values.
const emDash = "—"

// timeFormat matches the upload status line timestamps.
const timeFormat = "15:04:05.000"

// Status icon names, mapped onto colored glyphs by the table writer.
const (
	IconConnected    = "connected"
	IconDisconnected = "disconnected"
	IconSearching    = "searching"
)

// Battery icon names.
const (
	BatteryUnknown = "unknown"
	BatteryFull    = "full"
	BatteryFifty   = "fifty"
	BatteryLow     = "low"
	BatteryEmpty   = "empty"
)

// Row is the rendered view of one dashboard slot.
type Row struct {
	Name         string
	StatusIcon   string
	Temperature  string
	HeartRate    string
	Acceleration string
	BatteryIcon  string
	Records      string
}

// StatusIcon maps a connection status to its icon. Anything that is not
// firmly connected or disconnected shows as searching.
func StatusIcon(s sensor.Status) string {
	switch s {
	case sensor.Connected:
		return IconConnected
	case sensor.Disconnected:
		return IconDisconnected
	case sensor.Connecting, sensor.Ready:
		return IconSearching
	default:
		return IconSearching
	}
}

// BatteryIcon maps a battery fraction to its icon.
// Thresholds: >0.5 full, >0.2 fifty, >0.1 low, else empty; NaN unknown.
func BatteryIcon(level float64) string {
	switch {
	case math.IsNaN(level):
		return BatteryUnknown
	case level > 0.5:
		return BatteryFull
	case level > 0.2:
		return BatteryFifty
	case level > 0.1:
		return BatteryLow
	default:
		return BatteryEmpty
	}
}

// DeviceName truncates a name to the display width, with an ellipsis if it
// exceeds it. An absent name renders as an em-dash.
func DeviceName(name string) string {
	if name == "" {
		return emDash
	}
	if len(name) > MaxDeviceNameLength-3 {
		if len(name) > MaxDeviceNameLength {
			name = name[:MaxDeviceNameLength]
		}
		name += "..."
	}
	return name
}

// Temperature formats degrees Celsius with one decimal.
func Temperature(v float64) string {
	return formatValue(v, "%.1f ℃")
}

// HeartRate formats beats per minute with no decimals.
func HeartRate(v float64) string {
	return formatValue(v, "%.0f bpm")
}

// Acceleration formats the acceleration magnitude with two decimals.
func Acceleration(v float64) string {
	return formatValue(v, "%.2f g")
}

func formatValue(v float64, format string) string {
	if math.IsNaN(v) {
		return emDash
	}
	return fmt.Sprintf(format, v)
}

// RecordsLine formats a slot's upload counter. Empty until the first event;
// a pending failure shows failure text instead of the count.
func RecordsLine(r orchestrator.SlotRecords, condensed bool, now time.Time) string {
	if r.LastUpdate.IsZero() {
		return ""
	}
	if r.Failed {
		return "upload FAILED"
	}

	since := int64(now.Sub(r.LastUpdate) / time.Second)
	if condensed {
		return fmt.Sprintf("%4dk (%d)", r.Total/1000, since)
	}
	return fmt.Sprintf("%4d (updated %d sec. ago)", r.Total, since)
}

// ServerMessage formats the streaming endpoint status line from the last
// upload event. Empty until the first event.
func ServerMessage(line orchestrator.ServerLine) string {
	if line.LastTopic == "" {
		return ""
	}
	ts := line.LastEvent.Time.Format(timeFormat)
	if line.LastEvent.Failed() {
		return fmt.Sprintf("%25s has FAILED uploading (%s)", line.LastTopic, ts)
	}
	return fmt.Sprintf("%25s uploaded %4d records (%s)", line.LastTopic, line.LastEvent.Records, ts)
}

// ServerIcon maps the server status to a status icon.
func ServerIcon(s uplink.ServerStatus) string {
	switch s {
	case uplink.ServerConnected, uplink.ServerUploading:
		return IconConnected
	case uplink.ServerDisconnected, uplink.ServerDisabled, uplink.ServerUploadingFailed:
		return IconDisconnected
	default:
		return IconSearching
	}
}

// Rows renders all slots of a frame.
func Rows(f orchestrator.Frame, now time.Time) [orchestrator.NumSlots]Row {
	var rows [orchestrator.NumSlots]Row
	for i := range rows {
		snap := f.Snapshots[i]

		// Only connected or connecting devices show their name.
		name := ""
		if snap.Status == sensor.Connected || snap.Status == sensor.Connecting {
			name = snap.DeviceName
		}

		rows[i] = Row{
			Name:         DeviceName(name),
			StatusIcon:   StatusIcon(snap.Status),
			Temperature:  Temperature(snap.Temperature),
			HeartRate:    HeartRate(snap.HeartRate),
			Acceleration: Acceleration(snap.Acceleration),
			BatteryIcon:  BatteryIcon(snap.BatteryLevel),
			Records:      RecordsLine(f.Records[i], f.Condensed, now),
		}
	}
	return rows
}
