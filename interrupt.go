package eventcore

// OS interrupt delivery.
//
// Grounded on the signal.Notify pattern from this module's sibling
// prompt package (prompt/signal_common.go): a buffered os.Signal channel
// fed by signal.Notify, drained by a small goroutine. The difference
// here is the destination — instead of forwarding onto an application
// channel, the forwarding goroutine appends to a mutex-protected pending
// queue and signals a self-pipe, so the registered callback actually
// runs on the loop goroutine during the next [Loop.Run] cycle's I/O
// dispatch phase, preserving the single-threaded callback guarantee
// every other event source gets.

import (
	"os"
	"os/signal"
	"sync"

	"github.com/google/uuid"
)

// InterruptCallback is invoked on the loop goroutine when a registered
// signal arrives.
type InterruptCallback func(sig os.Signal)

type interruptRegistration struct {
	sig os.Signal
	cb  InterruptCallback
}

// InterruptManager is an event [Source] that delivers OS signals as
// in-loop callbacks, per spec.md's "operating-system interrupts" source.
type InterruptManager struct {
	name string

	// diagID is a process-unique logging-correlation identifier for this
	// manager instance.
	diagID string

	loop  *Loop
	state SourceState

	mu   sync.Mutex
	regs []interruptRegistration

	osSigCh chan os.Signal
	stopCh  chan struct{}
	wake    *wakeSource

	pendingMu sync.Mutex
	pending   []os.Signal
}

// NewInterrupts constructs an interrupt manager. Call RegisterInterrupt
// before or after Start; registrations made after Start take effect
// immediately.
func NewInterrupts(name string) *InterruptManager {
	return &InterruptManager{
		name:    name,
		diagID:  uuid.NewString(),
		osSigCh: make(chan os.Signal, 128),
	}
}

func (m *InterruptManager) Name() string       { return m.name }
func (m *InterruptManager) Type() SourceType   { return SourceTypeInterruptManager }
func (m *InterruptManager) State() SourceState { return m.state }

// RegisterInterrupt arms delivery of sig to cb.
func (m *InterruptManager) RegisterInterrupt(sig os.Signal, cb InterruptCallback) {
	m.mu.Lock()
	m.regs = append(m.regs, interruptRegistration{sig: sig, cb: cb})
	signals := m.signalsLocked()
	m.mu.Unlock()

	if m.state == SourceStateStarted || m.state == SourceStateStarting {
		signal.Notify(m.osSigCh, signals...)
	}
}

// DeregisterInterrupt disarms every registration for sig.
func (m *InterruptManager) DeregisterInterrupt(sig os.Signal) {
	m.mu.Lock()
	kept := m.regs[:0]
	for _, r := range m.regs {
		if r.sig != sig {
			kept = append(kept, r)
		}
	}
	m.regs = kept
	signals := m.signalsLocked()
	m.mu.Unlock()

	signal.Stop(m.osSigCh)
	if len(signals) > 0 {
		signal.Notify(m.osSigCh, signals...)
	}
}

func (m *InterruptManager) signalsLocked() []os.Signal {
	out := make([]os.Signal, 0, len(m.regs))
	for _, r := range m.regs {
		out = append(out, r.sig)
	}
	return out
}

func (m *InterruptManager) start(loop *Loop) error {
	m.loop = loop

	w, err := newWakeSource()
	if err != nil {
		return wrapf(StatusBadInternalError, "eventcore: interrupt wake source: %w", err)
	}
	m.wake = w
	if err := loop.RegisterFD(w.readFd, ioEventRead, m.onWakeReadable); err != nil {
		_ = w.close()
		return err
	}

	m.stopCh = make(chan struct{})

	m.mu.Lock()
	signals := m.signalsLocked()
	m.mu.Unlock()
	if len(signals) > 0 {
		signal.Notify(m.osSigCh, signals...)
	}

	go m.watch()

	m.state = SourceStateStarted
	loop.Logger().Debug().Str("manager_diag_id", m.diagID).Str("source", m.name).Log("eventcore: interrupt manager started")
	return nil
}

func (m *InterruptManager) watch() {
	for {
		select {
		case sig := <-m.osSigCh:
			m.pendingMu.Lock()
			m.pending = append(m.pending, sig)
			m.pendingMu.Unlock()
			_ = m.wake.signal()
		case <-m.stopCh:
			return
		}
	}
}

// onWakeReadable drains both the self-pipe and the pending-signal queue,
// dispatching each signal's registered callbacks in arrival order.
func (m *InterruptManager) onWakeReadable(ioEvents) {
	_ = m.wake.drain()

	m.pendingMu.Lock()
	sigs := m.pending
	m.pending = nil
	m.pendingMu.Unlock()

	for _, sig := range sigs {
		m.mu.Lock()
		var cbs []InterruptCallback
		for _, r := range m.regs {
			if r.sig == sig {
				cbs = append(cbs, r.cb)
			}
		}
		m.mu.Unlock()
		m.loop.Logger().Debug().Str("manager_diag_id", m.diagID).Stringer("signal", sig).Int("callbacks", len(cbs)).Log("eventcore: dispatching interrupt")
		for _, cb := range cbs {
			cb(sig)
		}
	}
}

func (m *InterruptManager) stop() {
	if m.state == SourceStateStopped || m.state == SourceStateStopping {
		return
	}
	signal.Stop(m.osSigCh)
	if m.stopCh != nil {
		close(m.stopCh)
	}
	if m.wake != nil {
		_ = m.loop.UnregisterFD(m.wake.readFd)
		_ = m.wake.close()
	}
	m.state = SourceStateStopped
}
