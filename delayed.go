package eventcore

// DelayedCallback is work scheduled to run exactly once, in the
// delayed-callback phase of a loop cycle (see [Loop.AddDelayed] for which
// cycle).
type DelayedCallback func(app, data any)

// delayedNode is a link in the loop-owned FIFO. Unlike the reference
// implementation this spec was distilled from — which had the caller
// allocate and the loop free the link node — the loop owns this storage
// end to end; callers supply only a callback and opaque data (see the
// REDESIGN note in spec.md §9).
type delayedNode struct {
	cb   DelayedCallback
	app  any
	data any
	next *delayedNode
}

// delayedQueue is a singly-linked FIFO of pending delayed callbacks.
type delayedQueue struct {
	head, tail *delayedNode
}

func newDelayedQueue() *delayedQueue {
	return &delayedQueue{}
}

func (q *delayedQueue) push(cb DelayedCallback, app, data any) {
	n := &delayedNode{cb: cb, app: app, data: data}
	if q.tail == nil {
		q.head, q.tail = n, n
		return
	}
	q.tail.next = n
	q.tail = n
}

func (q *delayedQueue) empty() bool { return q.head == nil }

// drain atomically swaps out the current queue contents (with respect to
// the single loop goroutine) and runs each callback in FIFO order.
// Callbacks pushed by a running callback land in the (now-empty) queue
// and are left for the next cycle's drain, per spec.md §4.1 step 6.
func (q *delayedQueue) drain() {
	head := q.head
	q.head, q.tail = nil, nil
	for n := head; n != nil; n = n.next {
		n.cb(n.app, n.data)
	}
}
