package display

import (
	"math"
	"testing"
	"time"

	"github.com/srg/vitals/internal/sensor"
	"github.com/srg/vitals/internal/uplink"
	"github.com/srg/vitals/orchestrator"
	"github.com/stretchr/testify/require"
)

func TestStatusIcon(t *testing.T) {
	tests := []struct {
		status sensor.Status
		want   string
	}{
		{sensor.Connected, IconConnected},
		{sensor.Disconnected, IconDisconnected},
		{sensor.Connecting, IconSearching},
		{sensor.Ready, IconSearching},
	}

	for _, tt := range tests {
		t.Run(tt.status.String(), func(t *testing.T) {
			require.Equal(t, tt.want, StatusIcon(tt.status))
		})
	}
}

func TestBatteryIcon(t *testing.T) {
	tests := []struct {
		name  string
		level float64
		want  string
	}{
		{"unknown", math.NaN(), BatteryUnknown},
		{"full", 0.6, BatteryFull},
		{"boundary half", 0.5, BatteryFifty},
		{"fifty", 0.3, BatteryFifty},
		{"low", 0.15, BatteryLow},
		{"boundary tenth", 0.1, BatteryEmpty},
		{"empty", 0.05, BatteryEmpty},
		{"zero", 0, BatteryEmpty},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, BatteryIcon(tt.level))
		})
	}
}

func TestDeviceName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"absent", "", "—"},
		{"short", "Empatica A01B2C", "Empatica A01B2C"},
		{"at width budget", "1234567890123456789012", "1234567890123456789012"},
		{"just over budget", "12345678901234567890123", "12345678901234567890123..."},
		{"long", "123456789012345678901234567890", "1234567890123456789012345..."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, DeviceName(tt.in))
		})
	}
}

func TestValueFormatting(t *testing.T) {
	require.Equal(t, "36.5 ℃", Temperature(36.53))
	require.Equal(t, "72 bpm", HeartRate(71.8))
	require.Equal(t, "1.02 g", Acceleration(1.016))

	require.Equal(t, "—", Temperature(math.NaN()))
	require.Equal(t, "—", HeartRate(math.NaN()))
	require.Equal(t, "—", Acceleration(math.NaN()))
}

func TestRecordsLine(t *testing.T) {
	now := time.Date(2026, 3, 14, 10, 0, 30, 0, time.UTC)
	updated := now.Add(-12 * time.Second)

	t.Run("empty until first event", func(t *testing.T) {
		require.Equal(t, "", RecordsLine(orchestrator.SlotRecords{}, true, now))
	})

	t.Run("failed", func(t *testing.T) {
		r := orchestrator.SlotRecords{Total: 100, LastUpdate: updated, Failed: true}
		require.Equal(t, "upload FAILED", RecordsLine(r, true, now))
	})

	t.Run("condensed", func(t *testing.T) {
		r := orchestrator.SlotRecords{Total: 4200, LastUpdate: updated}
		require.Equal(t, "   4k (12)", RecordsLine(r, true, now))
	})

	t.Run("full", func(t *testing.T) {
		r := orchestrator.SlotRecords{Total: 4200, LastUpdate: updated}
		require.Equal(t, "4200 (updated 12 sec. ago)", RecordsLine(r, false, now))
	})
}

func TestServerMessage(t *testing.T) {
	when := time.Date(2026, 3, 14, 9, 26, 53, 512_000_000, time.UTC)

	t.Run("empty until first event", func(t *testing.T) {
		require.Equal(t, "", ServerMessage(orchestrator.ServerLine{}))
	})

	t.Run("uploaded", func(t *testing.T) {
		line := orchestrator.ServerLine{
			LastTopic: "phone_acceleration",
			LastEvent: uplink.Event{Topic: "android_phone_acceleration", Records: 42, Time: when},
		}
		require.Equal(t,
			"       phone_acceleration uploaded   42 records (09:26:53.512)",
			ServerMessage(line))
	})

	t.Run("failed", func(t *testing.T) {
		line := orchestrator.ServerLine{
			LastTopic: "wrist_battery",
			LastEvent: uplink.Event{Topic: "android_wrist_battery", Records: -1, Time: when},
		}
		require.Equal(t,
			"            wrist_battery has FAILED uploading (09:26:53.512)",
			ServerMessage(line))
	})
}

func TestServerIcon(t *testing.T) {
	require.Equal(t, IconConnected, ServerIcon(uplink.ServerConnected))
	require.Equal(t, IconConnected, ServerIcon(uplink.ServerUploading))
	require.Equal(t, IconDisconnected, ServerIcon(uplink.ServerUploadingFailed))
	require.Equal(t, IconDisconnected, ServerIcon(uplink.ServerDisabled))
	require.Equal(t, IconSearching, ServerIcon(uplink.ServerReady))
	require.Equal(t, IconSearching, ServerIcon(uplink.ServerConnecting))
}

func TestRowsHideNamesUnlessConnecting(t *testing.T) {
	now := time.Now()

	var f orchestrator.Frame
	f.Snapshots[orchestrator.SlotWrist] = sensor.Snapshot{
		Status:     sensor.Connected,
		DeviceName: "Empatica A01B2C",
	}
	f.Snapshots[orchestrator.SlotChest] = sensor.Snapshot{
		Status:     sensor.Ready,
		DeviceName: "Polar H10 5A2F01",
	}
	f.Snapshots[orchestrator.SlotPhone] = sensor.EmptySnapshot()
	f.Snapshots[orchestrator.SlotReserved] = sensor.EmptySnapshot()

	rows := Rows(f, now)
	require.Equal(t, "Empatica A01B2C", rows[orchestrator.SlotWrist].Name)
	// A ready-but-not-connected device keeps its name hidden.
	require.Equal(t, "—", rows[orchestrator.SlotChest].Name)
	require.Equal(t, "—", rows[orchestrator.SlotPhone].Name)
}
