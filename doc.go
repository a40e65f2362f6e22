// Package eventcore implements the single-threaded cooperative event loop
// at the heart of a multi-protocol industrial communications stack. It
// unifies three asynchronous sources under one poll-based execution model:
//
//   - network I/O on connection-oriented transports (the TCP connection
//     manager, see [NewTCP]),
//   - timer-driven cyclic, one-shot, and delayed callbacks (see
//     [Loop.AddCyclic], [Loop.AddTimed], [Loop.AddDelayed]),
//   - operating-system interrupts such as POSIX signals, deferred to the
//     loop thread (the interrupt manager, see [NewInterrupts]).
//
// # Architecture
//
// An application constructs a [Loop], constructs event sources ([NewTCP],
// [NewInterrupts], or a custom [Source]), registers them with
// [Loop.RegisterSource], calls [Loop.Start], and then repeatedly calls
// [Loop.Run] until [Loop.Stop] drains the loop to [StateStopped].
//
// [Loop.Run] computes a bounded sleep from the caller's timeout, the next
// cyclic timer deadline, and whether delayed work is outstanding, invokes
// the platform poller for at most that long, dispatches I/O readiness to
// the owning source, fires due timers in ascending deadline order, and
// finally drains the delayed queue in FIFO order.
//
// # Platform support
//
// I/O polling uses platform-native readiness primitives:
//   - Linux: epoll
//   - Darwin: kqueue
//   - Windows: select (via golang.org/x/sys/windows)
//
// # Concurrency
//
// The loop is single-threaded and cooperative: exactly one goroutine may
// call [Loop.Run] at a time, and [Loop.Run] must never be called
// re-entrantly from a callback it dispatched — doing so returns
// [StatusBadInternalError] and performs no work. All other loop, timer,
// connection, and interrupt operations are safe to call from within a
// callback running on the loop goroutine. Cross-goroutine interaction
// (signal delivery, for example) is funneled through a self-pipe that
// wakes a blocked poll; the loop's internal state is not otherwise
// synchronized for concurrent access.
//
// # Ownership
//
// The loop owns its registered sources. The TCP connection manager owns
// its listeners and connections; applications address connections only by
// the opaque [ConnID], never by pointer. Timer and delayed-callback
// storage is owned by the loop; callers provide only a callback and
// opaque data.
package eventcore
