//go:build darwin

package eventcore

import "golang.org/x/sys/unix"

// createWakeFD creates a self-pipe for wake-up notifications: kqueue has
// no eventfd equivalent, so a non-blocking pipe is the portable substitute.
func createWakeFD() (readFd, writeFd int, err error) {
	var fds [2]int
	if err := unix.Pipe(fds[:]); err != nil {
		return -1, -1, err
	}
	cleanup := func() {
		_ = closeFD(fds[0])
		_ = closeFD(fds[1])
	}
	unix.CloseOnExec(fds[0])
	unix.CloseOnExec(fds[1])
	if err := setNonblock(fds[0]); err != nil {
		cleanup()
		return -1, -1, err
	}
	if err := setNonblock(fds[1]); err != nil {
		cleanup()
		return -1, -1, err
	}
	return fds[0], fds[1], nil
}

// closeWakeFD closes both ends of the self-pipe.
func closeWakeFD(readFd, writeFd int) error {
	if readFd >= 0 {
		_ = closeFD(readFd)
	}
	if writeFd >= 0 && writeFd != readFd {
		_ = closeFD(writeFd)
	}
	return nil
}

// signalWakeFD writes a single byte to the pipe, unblocking a concurrent
// poll call.
func signalWakeFD(writeFd int) error {
	_, err := writeFD(writeFd, []byte{1})
	if err == unix.EAGAIN {
		// the pipe buffer already holds an unread wake byte.
		return nil
	}
	return err
}

// drainWakeFD empties the pipe so a future signalWakeFD reliably wakes a
// future poll call.
func drainWakeFD(readFd int) error {
	var buf [64]byte
	for {
		_, err := readFD(readFd, buf[:])
		if err != nil {
			if err == unix.EAGAIN {
				return nil
			}
			return err
		}
	}
}
