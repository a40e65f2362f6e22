//go:build windows

package eventcore

import (
	"golang.org/x/sys/windows"
)

// poller manages I/O event registration using select.
//
// Windows' native readiness-polling primitive is IOCP, which is
// completion-based rather than readiness-based and does not fit this
// loop's "register an fd, learn when it's ready" model without a second
// goroutine pumping overlapped reads — which would break the
// single-threaded cooperative model spec.md §5 requires. select() is the
// closest BSD-socket-compatible readiness primitive Winsock exposes, so
// this poller uses golang.org/x/sys/windows's Select wrapper instead.
type poller struct {
	fds    map[int]*fdInfo
	closed bool
}

type fdInfo struct {
	cb     ioCallback
	events ioEvents
}

func newPoller() (*poller, error) {
	return &poller{fds: make(map[int]*fdInfo)}, nil
}

func (p *poller) close() error {
	p.closed = true
	return nil
}

func (p *poller) registerFD(fd int, events ioEvents, cb ioCallback) error {
	if p.closed {
		return errPollerClosed
	}
	if _, exists := p.fds[fd]; exists {
		return errFDAlreadyRegistered
	}
	p.fds[fd] = &fdInfo{cb: cb, events: events}
	return nil
}

func (p *poller) unregisterFD(fd int) error {
	if _, exists := p.fds[fd]; !exists {
		return errFDNotRegistered
	}
	delete(p.fds, fd)
	return nil
}

func (p *poller) modifyFD(fd int, events ioEvents) error {
	info, exists := p.fds[fd]
	if !exists {
		return errFDNotRegistered
	}
	info.events = events
	return nil
}

// poll blocks for at most timeoutMs milliseconds and dispatches readiness
// callbacks for every fd that became ready.
func (p *poller) poll(timeoutMs int) (int, error) {
	if p.closed {
		return 0, errPollerClosed
	}
	if len(p.fds) == 0 {
		return 0, nil
	}

	var readSet, writeSet windows.FdSet
	for fd, info := range p.fds {
		if info.events&ioEventRead != 0 {
			fdSetAdd(&readSet, fd)
		}
		if info.events&ioEventWrite != 0 {
			fdSetAdd(&writeSet, fd)
		}
	}

	tv := windows.NsecToTimeval(int64(timeoutMs) * 1e6)
	n, err := windows.Select(0, &readSet, &writeSet, nil, &tv)
	if err != nil {
		return 0, err
	}

	dispatched := 0
	for fd, info := range p.fds {
		var events ioEvents
		if fdSetIsSet(&readSet, fd) {
			events |= ioEventRead
		}
		if fdSetIsSet(&writeSet, fd) {
			events |= ioEventWrite
		}
		if events != 0 && info.cb != nil {
			info.cb(events)
			dispatched++
		}
	}
	_ = n
	return dispatched, nil
}

func fdSetAdd(set *windows.FdSet, fd int) {
	set.fd_array[set.fd_count] = uintptr(fd)
	set.fd_count++
}

func fdSetIsSet(set *windows.FdSet, fd int) bool {
	for i := int32(0); i < set.fd_count; i++ {
		if int(set.fd_array[i]) == fd {
			return true
		}
	}
	return false
}
