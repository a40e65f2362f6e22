package eventcore

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusError_Is(t *testing.T) {
	err := newStatusError(StatusBadNotFound, errTimerNotFound)
	require.True(t, errors.Is(err, &StatusError{Status: StatusBadNotFound}))
	assert.False(t, errors.Is(err, &StatusError{Status: StatusBadAlreadyExists}))
}

func TestAsStatus(t *testing.T) {
	assert.Equal(t, StatusGood, AsStatus(nil))
	assert.Equal(t, StatusBadNotFound, AsStatus(newStatusError(StatusBadNotFound, nil)))
	assert.Equal(t, StatusBadInternalError, AsStatus(errors.New("boom")))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "Good", StatusGood.String())
	assert.Equal(t, "BadCommunicationError", StatusBadCommunicationError.String())
}
