package eventcore

import (
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLoop(t *testing.T) *Loop {
	t.Helper()
	l, err := New()
	require.NoError(t, err)
	t.Cleanup(func() {
		if l.state != StateStopped && l.state != StateFresh {
			l.Stop()
			for i := 0; i < 1000 && l.state != StateStopped; i++ {
				_ = l.Run(1)
			}
		}
		_ = l.Free()
	})
	return l
}

func TestLoop_StartRequiresFreshOrStopped(t *testing.T) {
	l := newTestLoop(t)
	require.NoError(t, l.Start())
	err := l.Start()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrLoopNotFresh))
}

func TestLoop_ListenerLifecycle(t *testing.T) {
	l := newTestLoop(t)

	tcp := NewTCP("tcp", func(ConnID, *any, Status, Params, []byte) {}, nil,
		WithListenPort(14840))
	require.NoError(t, l.RegisterSource(tcp))
	require.NoError(t, l.Start())

	for i := 0; i < 10; i++ {
		require.NoError(t, l.Run(1))
	}

	l.Stop()

	stopped := false
	for i := 0; i < 1000 && !stopped; i++ {
		require.NoError(t, l.Run(1))
		stopped = l.state == StateStopped
	}
	require.True(t, stopped, "loop did not reach StateStopped")
	require.NoError(t, l.Free())
}

func TestLoop_ReentrantRunRejected(t *testing.T) {
	l := newTestLoop(t)
	require.NoError(t, l.Start())

	w, err := newWakeSource()
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.close() })

	var innerErr error
	require.NoError(t, l.RegisterFD(w.readFd, ioEventRead, func(ioEvents) {
		_ = w.drain()
		innerErr = l.Run(1)
	}))

	require.NoError(t, w.signal())
	require.NoError(t, l.Run(100))

	require.Error(t, innerErr)
	assert.True(t, errors.Is(innerErr, ErrReentrantRun))
}

func TestLoop_ComputeTimeout_BoundedByNextTimer(t *testing.T) {
	l := newTestLoop(t)
	now := l.cfg.clock.Now()
	_, err := l.AddCyclic(func(TimerID, any, any) {}, nil, nil, 5, now, PolicyCurrentTime)
	require.NoError(t, err)

	timeout := l.computeTimeout(1000)
	assert.LessOrEqual(t, timeout, 5)
}

func TestLoop_ComputeTimeout_ZeroWhenDelayedPending(t *testing.T) {
	l := newTestLoop(t)
	l.AddDelayed(func(any, any) {}, nil, nil)
	assert.Equal(t, 0, l.computeTimeout(1000))
}

func TestLoop_DateTimeNow_UsesConfiguredClock(t *testing.T) {
	mock := clock.NewMock()
	l, err := New(WithClock(mock))
	require.NoError(t, err)
	t.Cleanup(func() { _ = l.Free() })

	assert.Equal(t, mock.Now(), l.DateTimeNow())
	mock.Add(time.Second)
	assert.Equal(t, mock.Now(), l.DateTimeNow())
}
