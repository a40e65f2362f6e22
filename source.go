package eventcore

// SourceType tags the kind of an [Source] for downcasting without a deep
// type hierarchy — callers that need the concrete type assert on the
// interface (e.g. `src.(*TCPManager)`) after checking Type.
type SourceType int

const (
	// SourceTypeOther is a source with no special loop-level meaning.
	SourceTypeOther SourceType = iota
	// SourceTypeConnectionManager tags a TCP connection manager.
	SourceTypeConnectionManager
	// SourceTypeInterruptManager tags an interrupt manager.
	SourceTypeInterruptManager
)

func (t SourceType) String() string {
	switch t {
	case SourceTypeConnectionManager:
		return "ConnectionManager"
	case SourceTypeInterruptManager:
		return "InterruptManager"
	default:
		return "Other"
	}
}

// Source is a participant registered with a [Loop]: a small capability
// set (start, stop, state) plus identity (name, type). Once registered,
// a source's owning loop is fixed until it is deregistered.
//
// Start must return promptly; long-running setup (e.g. binding listener
// sockets) happens synchronously inside Start, but reaching
// [SourceStateStarted] does not require I/O to have completed — a source
// may report [SourceStateStarting] and transition to
// [SourceStateStarted] on a later loop cycle.
//
// Stop is non-blocking: it requests teardown and returns immediately. The
// source reports [SourceStateStopped] once all of its owned resources
// (connections, OS handles) are released, which may span several Run
// cycles.
type Source interface {
	// Name is the source's unique identity within a loop's registry.
	Name() string
	// Type tags the source for loop-level special handling.
	Type() SourceType
	// State reports the source's current lifecycle state.
	State() SourceState
	// start is called by the loop, either immediately (if the loop is
	// already Started) or during Loop.Start. A later Loop.Start (a restart
	// from StateStopped, or a retry after a rolled-back Start) calls it
	// again on the same registration.
	start(loop *Loop) error
	// stop requests asynchronous teardown.
	stop()
}
