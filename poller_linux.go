//go:build linux

package eventcore

import (
	"golang.org/x/sys/unix"
)

// poller manages I/O event registration using epoll.
type poller struct {
	epfd     int
	eventBuf [256]unix.EpollEvent
	fds      map[int]*fdInfo
	closed   bool
}

type fdInfo struct {
	cb     ioCallback
	events ioEvents
}

func newPoller() (*poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, err
	}
	return &poller{epfd: epfd, fds: make(map[int]*fdInfo)}, nil
}

func (p *poller) close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return unix.Close(p.epfd)
}

func (p *poller) registerFD(fd int, events ioEvents, cb ioCallback) error {
	if p.closed {
		return errPollerClosed
	}
	if _, exists := p.fds[fd]; exists {
		return errFDAlreadyRegistered
	}
	ev := &unix.EpollEvent{Events: eventsToEpoll(events), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev); err != nil {
		return err
	}
	p.fds[fd] = &fdInfo{cb: cb, events: events}
	return nil
}

func (p *poller) unregisterFD(fd int) error {
	if _, exists := p.fds[fd]; !exists {
		return errFDNotRegistered
	}
	delete(p.fds, fd)
	return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
}

func (p *poller) modifyFD(fd int, events ioEvents) error {
	info, exists := p.fds[fd]
	if !exists {
		return errFDNotRegistered
	}
	ev := &unix.EpollEvent{Events: eventsToEpoll(events), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, ev); err != nil {
		return err
	}
	info.events = events
	return nil
}

// poll blocks for at most timeoutMs milliseconds and dispatches readiness
// callbacks for every fd that became ready. Returns the number of events
// epoll reported, including any for fds no longer registered.
func (p *poller) poll(timeoutMs int) (int, error) {
	if p.closed {
		return 0, errPollerClosed
	}
	n, err := unix.EpollWait(p.epfd, p.eventBuf[:], timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return 0, nil
		}
		return 0, err
	}
	for i := 0; i < n; i++ {
		fd := int(p.eventBuf[i].Fd)
		if info, ok := p.fds[fd]; ok && info.cb != nil {
			info.cb(epollToEvents(p.eventBuf[i].Events))
		}
	}
	return n, nil
}

func eventsToEpoll(events ioEvents) uint32 {
	var e uint32
	if events&ioEventRead != 0 {
		e |= unix.EPOLLIN
	}
	if events&ioEventWrite != 0 {
		e |= unix.EPOLLOUT
	}
	return e
}

func epollToEvents(e uint32) ioEvents {
	var events ioEvents
	if e&unix.EPOLLIN != 0 {
		events |= ioEventRead
	}
	if e&unix.EPOLLOUT != 0 {
		events |= ioEventWrite
	}
	if e&unix.EPOLLERR != 0 {
		events |= ioEventError
	}
	if e&unix.EPOLLHUP != 0 || e&unix.EPOLLRDHUP != 0 {
		events |= ioEventHangup
	}
	return events
}
