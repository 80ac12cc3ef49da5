package auditclient

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDebouncerCoalescesBursts(t *testing.T) {
	d := NewDebouncer(50 * time.Millisecond)

	var runs atomic.Int32
	for i := 0; i < 10; i++ {
		d.Trigger(func() { runs.Add(1) })
	}

	require.Eventually(t, func() bool {
		return runs.Load() == 1
	}, 2*time.Second, 10*time.Millisecond)

	// No further run sneaks in after the quiet period.
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(1), runs.Load())
}

func TestDebouncerRunsAgainAfterQuietPeriod(t *testing.T) {
	d := NewDebouncer(20 * time.Millisecond)

	var runs atomic.Int32
	d.Trigger(func() { runs.Add(1) })

	require.Eventually(t, func() bool {
		return runs.Load() == 1
	}, 2*time.Second, 5*time.Millisecond)

	d.Trigger(func() { runs.Add(1) })

	require.Eventually(t, func() bool {
		return runs.Load() == 2
	}, 2*time.Second, 5*time.Millisecond)
}

func TestDebouncerStopCancelsPendingRun(t *testing.T) {
	d := NewDebouncer(30 * time.Millisecond)

	var runs atomic.Int32
	d.Trigger(func() { runs.Add(1) })
	d.Stop()

	time.Sleep(100 * time.Millisecond)
	require.Equal(t, int32(0), runs.Load())
}

func TestDebouncerDefaultsDelay(t *testing.T) {
	d := NewDebouncer(0)
	require.Equal(t, DefaultDebounceDelay, d.delay)

	d = NewDebouncer(-time.Second)
	require.Equal(t, DefaultDebounceDelay, d.delay)
}

func TestDebouncerIgnoresNilFunc(t *testing.T) {
	d := NewDebouncer(10 * time.Millisecond)
	d.Trigger(nil)
	d.Stop()
}
