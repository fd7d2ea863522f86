package ringchan

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewPanicsOnZeroCapacity(t *testing.T) {
	require.Panics(t, func() { New[int](0) })
}

func TestSendReceive(t *testing.T) {
	r := New[int](4)

	require.False(t, r.Send(1))
	require.False(t, r.Send(2))
	require.Equal(t, 2, r.Len())
	require.Equal(t, 4, r.Cap())

	v, ok := r.Receive()
	require.True(t, ok)
	require.Equal(t, 1, v)

	v, ok = r.TryReceive()
	require.True(t, ok)
	require.Equal(t, 2, v)

	_, ok = r.TryReceive()
	require.False(t, ok)
}

func TestSendOverwritesOldest(t *testing.T) {
	r := New[int](2)

	require.False(t, r.Send(1))
	require.False(t, r.Send(2))
	require.True(t, r.Send(3), "a full ring must report the drop")

	v, ok := r.Receive()
	require.True(t, ok)
	require.Equal(t, 2, v, "the oldest element is the one discarded")
	v, ok = r.Receive()
	require.True(t, ok)
	require.Equal(t, 3, v)
}

func TestTrySendFullRing(t *testing.T) {
	r := New[string](1)

	require.True(t, r.TrySend("a"))
	require.False(t, r.TrySend("b"))

	v, ok := r.TryReceive()
	require.True(t, ok)
	require.Equal(t, "a", v)
}

func TestCloseEndsRange(t *testing.T) {
	r := New[int](2)
	r.Send(1)
	r.Send(2)
	r.Close()

	var got []int
	for v := range r.C() {
		got = append(got, v)
	}
	require.Equal(t, []int{1, 2}, got)

	_, ok := r.Receive()
	require.False(t, ok)
}

func TestMetrics(t *testing.T) {
	r := New[int](2)

	r.Send(1)
	r.Send(2)
	r.Send(3) // overwrites 1
	r.Receive()
	r.TryReceive()

	m := r.GetMetrics()
	require.Equal(t, int64(3), m.Written)
	require.Equal(t, int64(1), m.Overwritten)
	require.Equal(t, int64(2), m.Processed)
}
