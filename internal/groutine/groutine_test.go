package groutine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGoPropagatesName(t *testing.T) {
	got := make(chan string, 1)

	Go(context.Background(), "test-worker", func(ctx context.Context) {
		got <- GetName(ctx)
	})

	select {
	case name := <-got:
		require.Equal(t, "test-worker", name)
	case <-time.After(time.Second):
		t.Fatal("goroutine did not run")
	}
}

func TestGoNilParentContext(t *testing.T) {
	done := make(chan struct{})

	Go(nil, "orphan", func(ctx context.Context) {
		require.NotNil(t, ctx)
		close(done)
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("goroutine did not run")
	}
}

func TestGetNameWithoutLabel(t *testing.T) {
	require.Empty(t, GetName(context.Background()))
	require.Empty(t, GetName(nil))
}
