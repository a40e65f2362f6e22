package eventcore

import (
	"container/heap"
	"time"
)

// TimerID addresses a registered cyclic or one-shot timer. Zero is never
// issued, so it doubles as a "no timer" sentinel for callers that store
// an optional id.
type TimerID uint64

// TimerPolicy controls how a cyclic timer's next deadline is computed
// after it fires.
type TimerPolicy int

const (
	// PolicyCurrentTime re-arms interval after the fire time: next = t +
	// interval. Simple, but drift accumulates under sustained overload.
	PolicyCurrentTime TimerPolicy = iota
	// PolicyBaseTime re-arms relative to a fixed base time, skipping any
	// slots missed under overload to preserve phase: next = base +
	// ceil((now-base)/interval) * interval.
	PolicyBaseTime
)

// TimerCallback is invoked when a timer fires. app and data are the
// opaque values supplied at registration, round-tripped unmodified.
type TimerCallback func(id TimerID, app, data any)

// timerEntry is one entry in the loop's timer heap.
type timerEntry struct {
	id       TimerID
	nextFire time.Time
	interval time.Duration // zero for one-shot
	baseTime time.Time
	policy   TimerPolicy
	cb       TimerCallback
	app      any
	data     any
	heapIdx  int
	removed  bool
}

// timerHeap implements container/heap.Interface, keyed by (nextFire, id)
// so that timers sharing a deadline fire in insertion order, per the
// ordering invariant in spec.md §5.
type timerHeap []*timerEntry

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if !h[i].nextFire.Equal(h[j].nextFire) {
		return h[i].nextFire.Before(h[j].nextFire)
	}
	return h[i].id < h[j].id
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIdx = i
	h[j].heapIdx = j
}

func (h *timerHeap) Push(x any) {
	e := x.(*timerEntry)
	e.heapIdx = len(*h)
	*h = append(*h, e)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.heapIdx = -1
	*h = old[:n-1]
	return e
}

// timerWheel owns the timer heap and id counter for one Loop.
type timerWheel struct {
	heap   timerHeap
	byID   map[TimerID]*timerEntry
	nextID TimerID
}

func newTimerWheel() *timerWheel {
	return &timerWheel{
		byID:   make(map[TimerID]*timerEntry),
		nextID: 1,
	}
}

func (w *timerWheel) allocID() TimerID {
	id := w.nextID
	w.nextID++
	if w.nextID == 0 {
		w.nextID = 1 // skip zero on wraparound
	}
	return id
}

// addCyclic registers a repeating timer. intervalMs must be > 0.
func (w *timerWheel) addCyclic(now time.Time, cb TimerCallback, app, data any, intervalMs int64, baseTime time.Time, policy TimerPolicy) (TimerID, error) {
	if intervalMs <= 0 {
		return 0, newStatusError(StatusBadInvalidArgument, errIntervalNotPositive)
	}
	interval := time.Duration(intervalMs) * time.Millisecond
	if baseTime.IsZero() {
		baseTime = now
	}
	id := w.allocID()
	e := &timerEntry{
		id:       id,
		interval: interval,
		baseTime: baseTime,
		policy:   policy,
		cb:       cb,
		app:      app,
		data:     data,
	}
	e.nextFire = firstFire(now, baseTime, interval, policy)
	w.byID[id] = e
	heap.Push(&w.heap, e)
	return id, nil
}

// addTimed registers a one-shot timer firing at date (in the loop's
// monotonic domain).
func (w *timerWheel) addTimed(cb TimerCallback, app, data any, date time.Time) TimerID {
	id := w.allocID()
	e := &timerEntry{
		id:       id,
		nextFire: date,
		cb:       cb,
		app:      app,
		data:     data,
	}
	w.byID[id] = e
	heap.Push(&w.heap, e)
	return id
}

// modifyCyclic changes a cyclic timer's interval, base time, and policy.
func (w *timerWheel) modifyCyclic(now time.Time, id TimerID, intervalMs int64, baseTime time.Time, policy TimerPolicy) error {
	e, ok := w.byID[id]
	if !ok || e.removed {
		return newStatusError(StatusBadNotFound, errTimerNotFound)
	}
	if intervalMs <= 0 {
		return newStatusError(StatusBadInvalidArgument, errIntervalNotPositive)
	}
	e.interval = time.Duration(intervalMs) * time.Millisecond
	if baseTime.IsZero() {
		baseTime = now
	}
	e.baseTime = baseTime
	e.policy = policy
	e.nextFire = firstFire(now, baseTime, e.interval, policy)
	heap.Fix(&w.heap, e.heapIdx)
	return nil
}

// remove cancels a timer. It is idempotent and safe to call from within
// the timer's own callback — removal during dispatch is deferred by
// marking the entry removed; fireDue skips and then evicts marked
// entries after running callbacks, rather than mutating the heap mid-walk.
func (w *timerWheel) remove(id TimerID) {
	e, ok := w.byID[id]
	if !ok {
		return
	}
	delete(w.byID, id)
	e.removed = true
}

// nextDeadline returns the next timer's fire time and true. When no timer
// is pending it returns the zero time.Time and false; it does not return a
// far-future time, so callers check ok.
func (w *timerWheel) nextDeadline() (time.Time, bool) {
	for len(w.heap) > 0 && w.heap[0].removed {
		e := heap.Pop(&w.heap).(*timerEntry)
		delete(w.byID, e.id)
	}
	if len(w.heap) == 0 {
		return time.Time{}, false
	}
	return w.heap[0].nextFire, true
}

// fireDue pops and invokes every timer whose nextFire <= now, in
// ascending (nextFire, id) order, re-arming cyclic entries before
// invoking their callback so that a callback which calls remove() on its
// own id is honored (spec.md §4.1 step 5).
func (w *timerWheel) fireDue(now time.Time) {
	for len(w.heap) > 0 {
		top := w.heap[0]
		if top.removed {
			heap.Pop(&w.heap)
			delete(w.byID, top.id)
			continue
		}
		if top.nextFire.After(now) {
			break
		}
		heap.Pop(&w.heap)

		if top.interval > 0 {
			top.nextFire = firstFire(now, top.baseTime, top.interval, top.policy)
			if !top.removed {
				heap.Push(&w.heap, top)
			}
		} else {
			delete(w.byID, top.id)
		}

		if !top.removed {
			top.cb(top.id, top.app, top.data)
		}
	}
}

func firstFire(now, base time.Time, interval time.Duration, policy TimerPolicy) time.Time {
	switch policy {
	case PolicyBaseTime:
		if interval <= 0 {
			return base
		}
		elapsed := now.Sub(base)
		if elapsed <= 0 {
			return base.Add(interval)
		}
		k := elapsed / interval
		if elapsed%interval != 0 {
			k++
		}
		return base.Add(k * interval)
	default: // PolicyCurrentTime
		return now.Add(interval)
	}
}
