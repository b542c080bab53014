package inflight

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGuard_Lifecycle(t *testing.T) {
	g := New("submit")
	assert.Equal(t, Idle, g.State())

	tk, err := g.Begin()
	require.NoError(t, err)
	assert.Equal(t, "submit", tk.Op)
	assert.NotEmpty(t, tk.ID)
	assert.True(t, g.Busy())

	_, err = g.Begin()
	assert.ErrorIs(t, err, ErrBusy)

	assert.True(t, g.Finish(tk, true))
	assert.Equal(t, Done, g.State())

	// A finished ticket cannot be finished twice.
	assert.False(t, g.Finish(tk, false))
	assert.Equal(t, Done, g.State())
}

func TestGuard_FailureReturnsToIdle(t *testing.T) {
	g := New("mood")
	tk, err := g.Begin()
	require.NoError(t, err)
	assert.True(t, g.Finish(tk, false))
	assert.Equal(t, Idle, g.State())

	retry, err := g.Begin()
	require.NoError(t, err)
	assert.NotEqual(t, tk.ID, retry.ID)
}

func TestGuard_ResetDropsStaleResponses(t *testing.T) {
	g := New("catalog")
	stale, err := g.Begin()
	require.NoError(t, err)

	g.Reset()
	assert.Equal(t, Idle, g.State())
	assert.False(t, g.Current(stale))

	fresh, err := g.Begin()
	require.NoError(t, err)

	assert.False(t, g.Finish(stale, true), "superseded response must be ignored")
	assert.Equal(t, InFlight, g.State())
	assert.True(t, g.Current(fresh))
	assert.True(t, g.Finish(fresh, true))
}

func TestGuard_ConcurrentBeginAdmitsOne(t *testing.T) {
	g := New("submit")
	var wg sync.WaitGroup
	var admitted atomic.Int32

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := g.Begin(); err == nil {
				admitted.Add(1)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, int32(1), admitted.Load())
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "in-flight", InFlight.String())
	assert.Equal(t, "done", Done.String())
}
