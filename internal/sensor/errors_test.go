package sensor

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBindErrorIs(t *testing.T) {
	err := &BindError{State: AlreadyBound, Msg: "wrist"}

	require.ErrorIs(t, err, ErrAlreadyBound)
	require.NotErrorIs(t, err, ErrNotBound)

	wrapped := fmt.Errorf("bind slot 0: %w", err)
	require.ErrorIs(t, wrapped, ErrAlreadyBound)
}

func TestBindErrorMessage(t *testing.T) {
	require.Equal(t, "not_bound", ErrNotBound.Error())
	require.Equal(t, "already_bound: wrist", (&BindError{State: AlreadyBound, Msg: "wrist"}).Error())
}

func TestTransportError(t *testing.T) {
	cause := errors.New("connection reset")
	err := &TransportError{Source: "chest", Op: "snapshot", Err: cause}

	require.Equal(t, "chest: snapshot failed: connection reset", err.Error())
	require.ErrorIs(t, err, cause)
	require.True(t, IsTransport(err))
	require.True(t, IsTransport(fmt.Errorf("poll: %w", err)))
	require.False(t, IsTransport(cause))

	bare := &TransportError{Source: "chest", Op: "bind"}
	require.Equal(t, "chest: bind failed", bare.Error())
}

func TestEmptySnapshot(t *testing.T) {
	snap := EmptySnapshot()
	require.Equal(t, Disconnected, snap.Status)
	require.Empty(t, snap.DeviceName)
	require.True(t, snap.Temperature != snap.Temperature, "absent temperature must be NaN")
	require.True(t, snap.HeartRate != snap.HeartRate, "absent heart rate must be NaN")
	require.True(t, snap.BatteryLevel != snap.BatteryLevel, "absent battery must be NaN")
}

func TestStatusString(t *testing.T) {
	require.Equal(t, "DISCONNECTED", Disconnected.String())
	require.Equal(t, "CONNECTING", Connecting.String())
	require.Equal(t, "CONNECTED", Connected.String())
	require.Equal(t, "READY", Ready.String())
}
