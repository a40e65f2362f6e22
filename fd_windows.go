//go:build windows

package eventcore

import "golang.org/x/sys/windows"

// closeFD closes a socket handle on Windows. Sockets are the only kind of
// fd this package ever registers with the poller on Windows, since
// select() only operates on SOCKETs.
func closeFD(fd int) error {
	return windows.Closesocket(windows.Handle(fd))
}

// readFD reads from a socket handle on Windows.
func readFD(fd int, buf []byte) (int, error) {
	return windows.Recv(windows.Handle(fd), buf, 0)
}

// writeFD writes to a socket handle on Windows.
func writeFD(fd int, buf []byte) (int, error) {
	return windows.Send(windows.Handle(fd), buf, 0)
}

// setNonblock puts the socket handle fd into non-blocking mode.
func setNonblock(fd int) error {
	var mode uint32 = 1
	return windows.IoctlSocket(windows.Handle(fd), windows.FIONBIO, &mode)
}
