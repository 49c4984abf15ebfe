package watch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"lyxs/internal/errors"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingTarget struct {
	calls atomic.Int32
	err   error
}

func (c *countingTarget) Reload() error {
	c.calls.Add(1)
	return c.err
}

func TestReloaderDebouncesBursts(t *testing.T) {
	changes := make(chan Change, 8)
	target := &countingTarget{}
	r := NewReloader(changes, target, 50*time.Millisecond)

	done := make(chan error, 4)
	r.OnReload(func(err error) { done <- err })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	now := time.Now()
	for i := 0; i < 5; i++ {
		changes <- Change{Path: "/bind/user.bind", Op: fsnotify.Write, Timestamp: now}
	}

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for reload")
	}

	// Nothing else is pending.
	time.Sleep(150 * time.Millisecond)
	assert.Equal(t, int32(1), target.calls.Load())

	status := r.Status()
	assert.Equal(t, 1, status.Reloads)
	assert.Equal(t, now, status.LastActivity)
	assert.NoError(t, status.LastError)
}

func TestReloaderReportsFailures(t *testing.T) {
	changes := make(chan Change, 1)
	target := &countingTarget{err: errors.New("cache not writable")}
	r := NewReloader(changes, target, time.Millisecond)

	done := make(chan error, 1)
	r.OnReload(func(err error) { done <- err })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go r.Run(ctx)

	changes <- Change{Path: "/bind/cua.bind", Op: fsnotify.Create, Timestamp: time.Now()}
	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Timeout waiting for reload")
	}
	assert.Error(t, r.Status().LastError)
}

func TestReloaderStops(t *testing.T) {
	t.Run("context cancelled", func(t *testing.T) {
		changes := make(chan Change, 1)
		target := &countingTarget{}
		r := NewReloader(changes, target, time.Hour)

		ctx, cancel := context.WithCancel(context.Background())
		finished := make(chan struct{})
		go func() {
			r.Run(ctx)
			close(finished)
		}()

		changes <- Change{Path: "/bind/cua.bind", Op: fsnotify.Write}
		cancel()

		select {
		case <-finished:
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after cancel")
		}
		assert.Equal(t, int32(0), target.calls.Load())
	})

	t.Run("channel closed", func(t *testing.T) {
		changes := make(chan Change)
		r := NewReloader(changes, &countingTarget{}, time.Millisecond)

		finished := make(chan struct{})
		go func() {
			r.Run(context.Background())
			close(finished)
		}()
		close(changes)

		select {
		case <-finished:
		case <-time.After(2 * time.Second):
			t.Fatal("Run did not return after the channel closed")
		}
	})
}
