package eventcore

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimerWheel_AddCyclicRejectsNonPositiveInterval(t *testing.T) {
	w := newTimerWheel()
	_, err := w.addCyclic(time.Now(), func(TimerID, any, any) {}, nil, nil, 0, time.Time{}, PolicyCurrentTime)
	require.Error(t, err)
	assert.Equal(t, StatusBadInvalidArgument, AsStatus(err))
}

func TestTimerWheel_FireDue_OrdersByDeadlineThenInsertion(t *testing.T) {
	w := newTimerWheel()
	now := time.Unix(0, 0)

	var order []string
	cb := func(name string) TimerCallback {
		return func(TimerID, any, any) { order = append(order, name) }
	}

	// both fire at the same deadline; first registered must fire first.
	_, err := w.addCyclic(now, cb("first"), nil, nil, 10, now, PolicyCurrentTime)
	require.NoError(t, err)
	_, err = w.addCyclic(now, cb("second"), nil, nil, 10, now, PolicyCurrentTime)
	require.NoError(t, err)

	w.fireDue(now.Add(10 * time.Millisecond))
	assert.Equal(t, []string{"first", "second"}, order)
}

// TestTimerWheel_BaseTimePreservesPhase verifies spec.md scenario 4: a
// 10ms-interval BaseTime timer, 45ms after its base, re-arms to exactly
// base+50ms (skipping the missed 10/20/30/40ms slots) rather than firing
// once per missed slot.
func TestTimerWheel_BaseTimePreservesPhase(t *testing.T) {
	w := newTimerWheel()
	base := time.Unix(0, 0)

	var fireCount int
	var lastID TimerID
	id, err := w.addCyclic(base, func(tid TimerID, _, _ any) {
		fireCount++
		lastID = tid
	}, nil, nil, 10, base, PolicyBaseTime)
	require.NoError(t, err)

	now := base.Add(45 * time.Millisecond)
	w.fireDue(now)

	require.Equal(t, 1, fireCount, "only one fire for the whole missed backlog")
	assert.Equal(t, id, lastID)

	next, ok := w.nextDeadline()
	require.True(t, ok)
	assert.Equal(t, base.Add(50*time.Millisecond), next)
}

func TestTimerWheel_RemoveDuringOwnCallback(t *testing.T) {
	w := newTimerWheel()
	base := time.Unix(0, 0)

	var fireCount int
	var id TimerID
	id, err := w.addCyclic(base, func(tid TimerID, _, _ any) {
		fireCount++
		w.remove(tid)
	}, nil, nil, 5, base, PolicyCurrentTime)
	require.NoError(t, err)

	w.fireDue(base.Add(5 * time.Millisecond))
	w.fireDue(base.Add(50 * time.Millisecond))

	assert.Equal(t, 1, fireCount)
	_, ok := w.nextDeadline()
	assert.False(t, ok)
	_ = id
}

func TestTimerWheel_ModifyCyclicUnknownID(t *testing.T) {
	w := newTimerWheel()
	err := w.modifyCyclic(time.Now(), 999, 10, time.Time{}, PolicyCurrentTime)
	require.Error(t, err)
	assert.Equal(t, StatusBadNotFound, AsStatus(err))
}

func TestTimerWheel_AddTimedOneShot(t *testing.T) {
	w := newTimerWheel()
	base := time.Unix(0, 0)

	var fired int
	w.addTimed(func(TimerID, any, any) { fired++ }, nil, nil, base.Add(time.Millisecond))

	w.fireDue(base)
	assert.Equal(t, 0, fired)

	w.fireDue(base.Add(time.Millisecond))
	assert.Equal(t, 1, fired)

	w.fireDue(base.Add(time.Hour))
	assert.Equal(t, 1, fired, "one-shot does not re-arm")
}
