package eventcore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDelayedQueue_FIFOOrder(t *testing.T) {
	q := newDelayedQueue()
	var order []int
	q.push(func(app, _ any) { order = append(order, app.(int)) }, 1, nil)
	q.push(func(app, _ any) { order = append(order, app.(int)) }, 2, nil)
	q.push(func(app, _ any) { order = append(order, app.(int)) }, 3, nil)

	assert.False(t, q.empty())
	q.drain()
	assert.Equal(t, []int{1, 2, 3}, order)
	assert.True(t, q.empty())
}

func TestDelayedQueue_PushDuringDrainLandsNextCycle(t *testing.T) {
	q := newDelayedQueue()
	var order []string

	q.push(func(any, any) {
		order = append(order, "first")
		q.push(func(any, any) { order = append(order, "reentrant") }, nil, nil)
	}, nil, nil)

	q.drain()
	assert.Equal(t, []string{"first"}, order)
	assert.False(t, q.empty())

	q.drain()
	assert.Equal(t, []string{"first", "reentrant"}, order)
}
