package eventcore

// LoopState is the lifecycle state of a [Loop]. Valid transitions:
//
//	StateFresh -> StateStarted        [Start]
//	StateStarted -> StateStopping     [Stop]
//	StateStopping -> StateStopped     [Run, once every source is Stopped]
//	StateStopped -> StateStarted      [Start again]
type LoopState int32

const (
	// StateFresh is the initial state, before Start has ever been called.
	StateFresh LoopState = iota
	// StateStarted indicates the loop is accepting Run calls and
	// dispatching readiness, timers, and delayed work.
	StateStarted
	// StateStopping indicates Stop has been called; sources are being
	// drained asynchronously, one or more Run cycles may still be needed.
	StateStopping
	// StateStopped indicates every registered source has reached
	// SourceStateStopped; Free may now be called.
	StateStopped
)

func (s LoopState) String() string {
	switch s {
	case StateFresh:
		return "Fresh"
	case StateStarted:
		return "Started"
	case StateStopping:
		return "Stopping"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// SourceState is the lifecycle state of an [Source] as tracked by the
// loop's registry.
type SourceState int32

const (
	// SourceStateFresh is the initial state, before the source has been
	// asked to start.
	SourceStateFresh SourceState = iota
	// SourceStateStarting indicates Start has been called but the source
	// has not yet confirmed readiness.
	SourceStateStarting
	// SourceStateStarted indicates the source is active.
	SourceStateStarted
	// SourceStateStopping indicates Stop has been called but the source
	// has outstanding work (e.g. live connections) to drain.
	SourceStateStopping
	// SourceStateStopped is terminal; the source holds no resources.
	SourceStateStopped
)

func (s SourceState) String() string {
	switch s {
	case SourceStateFresh:
		return "Fresh"
	case SourceStateStarting:
		return "Starting"
	case SourceStateStarted:
		return "Started"
	case SourceStateStopping:
		return "Stopping"
	case SourceStateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}
