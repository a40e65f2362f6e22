package eventcore

// registry tracks a [Loop]'s registered sources in registration order,
// the order in which spec.md requires Start/Stop to fan out. It is only
// ever touched from the loop goroutine, so it needs no locking of its
// own — unlike the teacher package's weak-pointer promise registry, which
// had to support concurrent producers.
type registry struct {
	order []Source
	byName map[string]Source
}

func newRegistry() *registry {
	return &registry{
		byName: make(map[string]Source),
	}
}

// register adds src in registration order, rejecting a duplicate name.
func (r *registry) register(src Source) error {
	name := src.Name()
	if name == "" {
		return newStatusError(StatusBadInvalidArgument, ErrSourceNameEmpty)
	}
	if _, exists := r.byName[name]; exists {
		return wrapf(StatusBadAlreadyExists, "eventcore: source %q already registered", name)
	}
	r.byName[name] = src
	r.order = append(r.order, src)
	return nil
}

// deregister removes src by name. It does not itself stop the source;
// Loop.DeregisterSource calls stop after the removal, and the source may
// still be tearing down when it leaves the registry.
func (r *registry) deregister(name string) (Source, error) {
	src, ok := r.byName[name]
	if !ok {
		return nil, wrapf(StatusBadNotFound, "eventcore: source %q not registered", name)
	}
	delete(r.byName, name)
	for i, s := range r.order {
		if s == src {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return src, nil
}

// find returns the first (only, by invariant) source with the given name.
func (r *registry) find(name string) (Source, bool) {
	src, ok := r.byName[name]
	return src, ok
}

// all returns sources in registration order. The returned slice is a
// snapshot — callers must not mutate it, and it is safe against registry
// mutation made from within a callback running over it.
func (r *registry) all() []Source {
	out := make([]Source, len(r.order))
	copy(out, r.order)
	return out
}

// allStopped reports whether every registered source is
// SourceStateStopped.
func (r *registry) allStopped() bool {
	for _, s := range r.order {
		if s.State() != SourceStateStopped {
			return false
		}
	}
	return true
}
