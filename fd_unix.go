//go:build linux || darwin

package eventcore

import "golang.org/x/sys/unix"

// closeFD closes a file descriptor on Unix systems.
func closeFD(fd int) error {
	return unix.Close(fd)
}

// readFD reads from a file descriptor on Unix systems.
func readFD(fd int, buf []byte) (int, error) {
	return unix.Read(fd, buf)
}

// writeFD writes to a file descriptor on Unix systems.
func writeFD(fd int, buf []byte) (int, error) {
	return unix.Write(fd, buf)
}

// setNonblock puts fd into non-blocking mode, required before handing it
// to the poller: a blocking read/write on the loop goroutine would stall
// the whole single-threaded cycle.
func setNonblock(fd int) error {
	return unix.SetNonblock(fd, true)
}
