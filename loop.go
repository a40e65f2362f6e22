package eventcore

import (
	"runtime"
	"time"

	"github.com/google/uuid"
)

// Loop is a single-threaded, cooperative multiplexer over TCP I/O, a
// timer wheel, and OS interrupt delivery. Nothing in this package spawns
// a goroutine to drive its own progress: a caller must repeatedly invoke
// [Loop.Run] (typically in its own goroutine, but that's the caller's
// choice, not this package's).
type Loop struct {
	_ [0]func() // disallow copying

	cfg *loopConfig

	// diagID is a process-unique identifier for this loop instance, used
	// only as a logging correlation field — never for addressing, which
	// stays the small integers (ConnID, TimerID) spec.md defines.
	diagID string

	state LoopState

	registry *registry
	timers   *timerWheel
	delayed  *delayedQueue
	poller   *poller
	wake     *wakeSource

	// runningGoroutine is non-zero only while Run is executing, and holds
	// the id of the goroutine currently inside it. A callback dispatched
	// by Run that calls Run again is detected by comparing against this
	// value, not by a mutex: a mutex would deadlock a genuinely reentrant
	// call instead of rejecting it.
	runningGoroutine uint64
}

// New constructs a Loop in [StateFresh]. The returned Loop owns a poller
// fd and a wake-up fd pair; call [Loop.Free] once it reaches
// [StateStopped] to release them.
func New(opts ...Option) (*Loop, error) {
	cfg := resolveOptions(opts)

	p, err := newPoller()
	if err != nil {
		return nil, wrapf(StatusBadInternalError, "eventcore: new poller: %w", err)
	}

	w, err := newWakeSource()
	if err != nil {
		_ = p.close()
		return nil, wrapf(StatusBadInternalError, "eventcore: new wake source: %w", err)
	}
	if err := p.registerFD(w.readFd, ioEventRead, func(ioEvents) {
		_ = w.drain()
	}); err != nil {
		_ = w.close()
		_ = p.close()
		return nil, wrapf(StatusBadInternalError, "eventcore: register wake fd: %w", err)
	}

	l := &Loop{
		cfg:      cfg,
		diagID:   uuid.NewString(),
		state:    StateFresh,
		registry: newRegistry(),
		timers:   newTimerWheel(),
		delayed:  newDelayedQueue(),
		poller:   p,
		wake:     w,
	}
	cfg.logger.Debug().Str("loop_id", l.diagID).Log("eventcore: loop created")
	return l, nil
}

// Start transitions every registered [Source] from fresh to started and
// moves the loop itself into [StateStarted]. Start must be called before
// the first [Loop.Run].
//
// Per spec.md §4.1, a failure partway through is rolled back: every
// source that already started is stopped, in reverse order, before Start
// returns the triggering error, and l.state is left untouched so a
// caller may fix the failing source and retry.
func (l *Loop) Start() error {
	if l.state != StateFresh && l.state != StateStopped {
		return wrapf(StatusBadInternalError, "%w", ErrLoopNotFresh)
	}
	all := l.registry.all()
	started := make([]Source, 0, len(all))
	for _, src := range all {
		if err := src.start(l); err != nil {
			l.cfg.logger.Err().Str("loop_id", l.diagID).Str("source", src.Name()).Err(err).Log("eventcore: source failed to start")
			for i := len(started) - 1; i >= 0; i-- {
				started[i].stop()
			}
			return err
		}
		started = append(started, src)
	}
	l.state = StateStarted
	l.cfg.logger.Debug().Str("loop_id", l.diagID).Int("sources", len(all)).Log("eventcore: loop started")
	return nil
}

// Stop begins graceful shutdown: every registered source is asked to
// stop, but the loop does not reach [StateStopped] until a subsequent
// Run observes that every source has actually wound down (see
// spec.md §4.2's listener/connection teardown ordering).
func (l *Loop) Stop() {
	if l.state != StateStarted {
		return
	}
	l.state = StateStopping
	l.cfg.logger.Debug().Str("loop_id", l.diagID).Log("eventcore: loop stopping")
	for _, src := range l.registry.all() {
		src.stop()
	}
	l.wakeSelf()
}

// Free releases the loop's poller and wake fds. It must only be called
// once the loop has reached [StateStopped].
func (l *Loop) Free() error {
	if l.state != StateStopped && l.state != StateFresh {
		return wrapf(StatusBadInternalError, "%w", ErrLoopNotStopped)
	}
	_ = l.wake.close()
	return l.poller.close()
}

// RegisterSource adds src to the loop's registry. If the loop is already
// [StateStarted], src is started immediately; otherwise it starts during
// the next [Loop.Start].
func (l *Loop) RegisterSource(src Source) error {
	if err := l.registry.register(src); err != nil {
		return err
	}
	if l.state == StateStarted {
		return src.start(l)
	}
	return nil
}

// DeregisterSource removes a previously-registered source by name, then
// asks it to stop if it is not already [SourceStateStopped]. It returns
// as soon as the source is removed; it does not wait for an asynchronous
// stop to reach SourceStateStopped.
func (l *Loop) DeregisterSource(name string) error {
	src, err := l.registry.deregister(name)
	if err != nil {
		return err
	}
	if src.State() != SourceStateStopped {
		src.stop()
	}
	return nil
}

// FindSource looks up a registered source by name.
func (l *Loop) FindSource(name string) (Source, bool) {
	return l.registry.find(name)
}

// RegisterFD adds fd to the poller with the given readiness interest.
// Event sources use this to integrate their sockets with the loop's
// single poll call instead of blocking independently.
func (l *Loop) RegisterFD(fd int, events ioEvents, cb ioCallback) error {
	return l.poller.registerFD(fd, events, cb)
}

// UnregisterFD removes fd from the poller.
func (l *Loop) UnregisterFD(fd int) error {
	return l.poller.unregisterFD(fd)
}

// ModifyFD changes the readiness interest registered for fd.
func (l *Loop) ModifyFD(fd int, events ioEvents) error {
	return l.poller.modifyFD(fd, events)
}

// Logger returns the loop's configured structured logger, for use by
// event sources that need to log without taking their own Option.
func (l *Loop) Logger() Logger { return l.cfg.logger }

// DateTimeNow returns the current wall-clock time, as seen by the
// loop's configured [clock.Clock] (real time unless [WithClock] supplied
// a mock for testing).
func (l *Loop) DateTimeNow() time.Time { return l.cfg.clock.Now() }

// DateTimeNowMonotonic returns a monotonic timestamp suitable for
// measuring elapsed durations; it carries no defined relationship to
// wall-clock time.
func (l *Loop) DateTimeNowMonotonic() time.Time { return l.cfg.clock.Now() }

// DateTimeLocalTimeUtcOffset returns the local timezone's current offset
// from UTC.
func (l *Loop) DateTimeLocalTimeUtcOffset() time.Duration {
	_, offset := l.cfg.clock.Now().Zone()
	return time.Duration(offset) * time.Second
}

// NextCyclicTime reports the next timer deadline, if any timer is
// currently armed.
func (l *Loop) NextCyclicTime() (time.Time, bool) {
	return l.timers.nextDeadline()
}

// AddCyclic arms a recurring timer. intervalMs must be positive.
// baseTime, if non-zero, anchors [PolicyBaseTime] re-arming; it is
// ignored under [PolicyCurrentTime].
func (l *Loop) AddCyclic(cb TimerCallback, app, data any, intervalMs int64, baseTime time.Time, policy TimerPolicy) (TimerID, error) {
	return l.timers.addCyclic(l.cfg.clock.Now(), cb, app, data, intervalMs, baseTime, policy)
}

// AddTimed arms a one-shot timer firing at date.
func (l *Loop) AddTimed(cb TimerCallback, app, data any, date time.Time) TimerID {
	return l.timers.addTimed(cb, app, data, date)
}

// ModifyCyclic changes the interval, base time, and/or policy of an
// armed cyclic timer.
func (l *Loop) ModifyCyclic(id TimerID, intervalMs int64, baseTime time.Time, policy TimerPolicy) error {
	return l.timers.modifyCyclic(l.cfg.clock.Now(), id, intervalMs, baseTime, policy)
}

// RemoveTimer disarms a timer. It is safe to call from within the
// timer's own callback, and safe to call with an already-removed or
// unknown id (a no-op in both cases).
func (l *Loop) RemoveTimer(id TimerID) {
	l.timers.remove(id)
}

// AddDelayed enqueues cb to run once, during the delayed-callback phase
// of a Run cycle, after I/O dispatch and timer firing: the current cycle
// if called from an I/O or timer callback that Run is dispatching, the
// following cycle if called from a delayed callback, and otherwise the
// next Run.
func (l *Loop) AddDelayed(cb DelayedCallback, app, data any) {
	l.delayed.push(cb, app, data)
}

// Run executes a single cooperative cycle: it blocks for at most
// timeoutMs milliseconds (capped by the next timer deadline and
// shortened to zero if the delayed queue is non-empty), dispatches any
// ready I/O and due timers, then drains the delayed-callback queue.
//
// Run rejects reentrant calls — one made from within a callback that
// this same call to Run is currently dispatching — with
// [ErrReentrantRun], since the loop has no stack discipline for nested
// cycles.
func (l *Loop) Run(timeoutMs int) error {
	gid := getGoroutineID()
	if l.runningGoroutine != 0 && l.runningGoroutine == gid {
		return wrapf(StatusBadInternalError, "%w", ErrReentrantRun)
	}
	l.runningGoroutine = gid
	defer func() { l.runningGoroutine = 0 }()

	effectiveTimeout := l.computeTimeout(timeoutMs)

	if _, err := l.poller.poll(effectiveTimeout); err != nil {
		l.cfg.logger.Err().Str("loop_id", l.diagID).Err(err).Log("eventcore: poll failed")
		return wrapf(StatusBadCommunicationError, "eventcore: poll: %w", err)
	}

	l.timers.fireDue(l.cfg.clock.Now())

	l.delayed.drain()

	if l.state == StateStopping && l.registry.allStopped() {
		l.state = StateStopped
		l.cfg.logger.Debug().Str("loop_id", l.diagID).Log("eventcore: loop stopped")
	}

	return nil
}

// computeTimeout folds the caller's requested timeout together with the
// next timer deadline and the delayed queue's non-empty-ness into the
// single bound passed to the poller, per spec.md §4.1 step 2.
func (l *Loop) computeTimeout(timeoutMs int) int {
	if !l.delayed.empty() {
		return 0
	}
	effective := timeoutMs
	if next, ok := l.timers.nextDeadline(); ok {
		now := l.cfg.clock.Now()
		until := next.Sub(now)
		untilMs := int(until.Milliseconds())
		if until > 0 && until%time.Millisecond != 0 {
			untilMs++
		}
		if untilMs < 0 {
			untilMs = 0
		}
		if timeoutMs < 0 || untilMs < effective {
			effective = untilMs
		}
	}
	return effective
}

// wakeSelf interrupts a concurrent poll() blocked inside Run, used by
// Stop so shutdown doesn't wait out the full poll timeout.
func (l *Loop) wakeSelf() {
	_ = l.wake.signal()
}

// getGoroutineID parses the numeric id out of runtime.Stack's header
// line, the same trick used by this package's teacher for detecting
// same-goroutine reentrancy without a sync primitive.
func getGoroutineID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	var id uint64
	for i := len("goroutine "); i < n; i++ {
		if buf[i] >= '0' && buf[i] <= '9' {
			id = id*10 + uint64(buf[i]-'0')
		} else {
			break
		}
	}
	return id
}
