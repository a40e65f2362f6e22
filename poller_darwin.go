//go:build darwin

package eventcore

import (
	"golang.org/x/sys/unix"
)

// poller manages I/O event registration using kqueue.
type poller struct {
	kq       int
	eventBuf [256]unix.Kevent_t
	fds      map[int]*fdInfo
	closed   bool
}

type fdInfo struct {
	cb     ioCallback
	events ioEvents
}

func newPoller() (*poller, error) {
	kq, err := unix.Kqueue()
	if err != nil {
		return nil, err
	}
	unix.CloseOnExec(kq)
	return &poller{kq: kq, fds: make(map[int]*fdInfo)}, nil
}

func (p *poller) close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return unix.Close(p.kq)
}

func (p *poller) registerFD(fd int, events ioEvents, cb ioCallback) error {
	if p.closed {
		return errPollerClosed
	}
	if _, exists := p.fds[fd]; exists {
		return errFDAlreadyRegistered
	}
	if err := p.applyFilters(fd, 0, events); err != nil {
		return err
	}
	p.fds[fd] = &fdInfo{cb: cb, events: events}
	return nil
}

func (p *poller) unregisterFD(fd int) error {
	info, exists := p.fds[fd]
	if !exists {
		return errFDNotRegistered
	}
	delete(p.fds, fd)
	return p.applyFilters(fd, info.events, 0)
}

func (p *poller) modifyFD(fd int, events ioEvents) error {
	info, exists := p.fds[fd]
	if !exists {
		return errFDNotRegistered
	}
	if err := p.applyFilters(fd, info.events, events); err != nil {
		return err
	}
	info.events = events
	return nil
}

// applyFilters reconciles the read/write kevent filters registered for
// fd from the old event set to the new one.
func (p *poller) applyFilters(fd int, old, new ioEvents) error {
	var changes []unix.Kevent_t
	toggle := func(filter int16, wasOn, isOn bool) {
		if wasOn == isOn {
			return
		}
		flags := uint16(unix.EV_ADD | unix.EV_ENABLE)
		if !isOn {
			flags = unix.EV_DELETE
		}
		changes = append(changes, unix.Kevent_t{
			Ident:  uint64(fd),
			Filter: filter,
			Flags:  flags,
		})
	}
	toggle(unix.EVFILT_READ, old&ioEventRead != 0, new&ioEventRead != 0)
	toggle(unix.EVFILT_WRITE, old&ioEventWrite != 0, new&ioEventWrite != 0)
	if len(changes) == 0 {
		return nil
	}
	_, err := unix.Kevent(p.kq, changes, nil, nil)
	return err
}

// poll blocks for at most timeoutMs milliseconds and dispatches readiness
// callbacks for every fd that became ready.
func (p *poller) poll(timeoutMs int) (int, error) {
	if p.closed {
		return 0, errPollerClosed
	}
	var ts *unix.Timespec
	if timeoutMs >= 0 {
		t := unix.NsecToTimespec(int64(timeoutMs) * 1e6)
		ts = &t
	}
	n, err := unix.Kevent(p.kq, nil, p.eventBuf[:], ts)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	for i := 0; i < n; i++ {
		ev := &p.eventBuf[i]
		fd := int(ev.Ident)
		info, ok := p.fds[fd]
		if !ok || info.cb == nil {
			continue
		}
		var events ioEvents
		switch ev.Filter {
		case unix.EVFILT_READ:
			events |= ioEventRead
		case unix.EVFILT_WRITE:
			events |= ioEventWrite
		}
		if ev.Flags&unix.EV_EOF != 0 {
			events |= ioEventHangup
		}
		if ev.Flags&unix.EV_ERROR != 0 {
			events |= ioEventError
		}
		info.cb(events)
	}
	return n, nil
}
