//go:build linux

package eventcore

import "golang.org/x/sys/unix"

// createWakeFD creates an eventfd for wake-up notifications. The same fd
// serves as both the read and write end.
func createWakeFD() (readFd, writeFd int, err error) {
	fd, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		return -1, -1, err
	}
	return fd, fd, nil
}

// closeWakeFD closes the wake eventfd.
func closeWakeFD(readFd, writeFd int) error {
	if readFd < 0 {
		return nil
	}
	return closeFD(readFd)
}

// signalWakeFD writes to the eventfd, unblocking a concurrent poll call.
func signalWakeFD(writeFd int) error {
	var buf [8]byte
	buf[7] = 1
	_, err := writeFD(writeFd, buf[:])
	if err == unix.EAGAIN {
		// counter is already non-zero; the poller will still wake.
		return nil
	}
	return err
}

// drainWakeFD consumes all pending eventfd notifications so the next
// signalWakeFD reliably wakes a future poll call.
func drainWakeFD(readFd int) error {
	var buf [8]byte
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
