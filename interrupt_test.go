package eventcore

import (
	"os"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInterruptManager_RegisterAndDispatch(t *testing.T) {
	l := newTestLoop(t)
	m := NewInterrupts("sig")
	require.NoError(t, l.RegisterSource(m))
	require.NoError(t, l.Start())

	var got os.Signal
	m.RegisterInterrupt(syscall.SIGUSR1, func(sig os.Signal) { got = sig })

	// Simulate the OS-signal-watcher goroutine handing off a signal,
	// without actually raising one at the process level.
	m.pendingMu.Lock()
	m.pending = append(m.pending, syscall.SIGUSR1)
	m.pendingMu.Unlock()
	m.onWakeReadable(ioEventRead)

	assert.Equal(t, syscall.SIGUSR1, got)
}

func TestInterruptManager_Deregister(t *testing.T) {
	l := newTestLoop(t)
	m := NewInterrupts("sig2")
	require.NoError(t, l.RegisterSource(m))
	require.NoError(t, l.Start())

	called := false
	m.RegisterInterrupt(syscall.SIGUSR2, func(os.Signal) { called = true })
	m.DeregisterInterrupt(syscall.SIGUSR2)

	m.pendingMu.Lock()
	m.pending = append(m.pending, syscall.SIGUSR2)
	m.pendingMu.Unlock()
	m.onWakeReadable(ioEventRead)

	assert.False(t, called)
}
