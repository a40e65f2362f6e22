package eventcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	name    string
	typ     SourceType
	state   SourceState
	started bool
	stopped bool
}

func (s *stubSource) Name() string      { return s.name }
func (s *stubSource) Type() SourceType  { return s.typ }
func (s *stubSource) State() SourceState { return s.state }
func (s *stubSource) start(*Loop) error {
	s.started = true
	s.state = SourceStateStarted
	return nil
}
func (s *stubSource) stop() {
	s.stopped = true
	s.state = SourceStateStopped
}

func TestRegistry_RegisterOrderAndLookup(t *testing.T) {
	r := newRegistry()
	a := &stubSource{name: "a"}
	b := &stubSource{name: "b"}

	require.NoError(t, r.register(a))
	require.NoError(t, r.register(b))

	all := r.all()
	require.Len(t, all, 2)
	assert.Equal(t, "a", all[0].Name())
	assert.Equal(t, "b", all[1].Name())

	found, ok := r.find("a")
	require.True(t, ok)
	assert.Same(t, a, found)
}

func TestRegistry_DuplicateNameRejected(t *testing.T) {
	r := newRegistry()
	require.NoError(t, r.register(&stubSource{name: "dup"}))
	err := r.register(&stubSource{name: "dup"})
	require.Error(t, err)
	assert.Equal(t, StatusBadAlreadyExists, AsStatus(err))
}

func TestRegistry_EmptyNameRejected(t *testing.T) {
	r := newRegistry()
	err := r.register(&stubSource{name: ""})
	require.Error(t, err)
	assert.Equal(t, StatusBadInvalidArgument, AsStatus(err))
}

func TestRegistry_DeregisterAndAllStopped(t *testing.T) {
	r := newRegistry()
	a := &stubSource{name: "a", state: SourceStateStarted}
	require.NoError(t, r.register(a))
	assert.False(t, r.allStopped())

	a.state = SourceStateStopped
	assert.True(t, r.allStopped())

	src, err := r.deregister("a")
	require.NoError(t, err)
	assert.Same(t, a, src)
	assert.Empty(t, r.all())

	_, err = r.deregister("a")
	require.Error(t, err)
	assert.Equal(t, StatusBadNotFound, AsStatus(err))
}
