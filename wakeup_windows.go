//go:build windows

package eventcore

import (
	"golang.org/x/sys/windows"
)

// createWakeFD creates a connected loopback TCP socket pair for wake-up
// notifications. Windows has no pipe()/eventfd equivalent that select()
// can watch directly — select() only operates on SOCKET handles — so a
// loopback listener accepting a single local connection is the standard
// substitute.
func createWakeFD() (readFd, writeFd int, err error) {
	lfd, err := windows.Socket(windows.AF_INET, windows.SOCK_STREAM, 0)
	if err != nil {
		return -1, -1, err
	}
	defer windows.Closesocket(lfd)

	addr := &windows.SockaddrInet4{Port: 0, Addr: [4]byte{127, 0, 0, 1}}
	if err := windows.Bind(lfd, addr); err != nil {
		return -1, -1, err
	}
	if err := windows.Listen(lfd, 1); err != nil {
		return -1, -1, err
	}
	local, err := windows.Getsockname(lfd)
	if err != nil {
		return -1, -1, err
	}
	laddr, ok := local.(*windows.SockaddrInet4)
	if !ok {
		return -1, -1, errWakeSocketAddr
	}

	wfd, err := windows.Socket(windows.AF_INET, windows.SOCK_STREAM, 0)
	if err != nil {
		return -1, -1, err
	}
	connAddr := &windows.SockaddrInet4{Port: laddr.Port, Addr: [4]byte{127, 0, 0, 1}}
	if err := windows.Connect(wfd, connAddr); err != nil {
		windows.Closesocket(wfd)
		return -1, -1, err
	}

	rfd, _, err := windows.Accept(lfd)
	if err != nil {
		windows.Closesocket(wfd)
		return -1, -1, err
	}

	rfdInt, wfdInt := int(rfd), int(wfd)
	_ = setNonblock(rfdInt)
	_ = setNonblock(wfdInt)

	return rfdInt, wfdInt, nil
}

// closeWakeFD closes both sockets making up the wake pair.
func closeWakeFD(readFd, writeFd int) error {
	if readFd >= 0 {
		_ = closeFD(readFd)
	}
	if writeFd >= 0 && writeFd != readFd {
		_ = closeFD(writeFd)
	}
	return nil
}

// signalWakeFD sends a single byte over the wake socket, unblocking a
// concurrent select() call.
func signalWakeFD(writeFd int) error {
	_, err := writeFD(writeFd, []byte{1})
	return err
}

// drainWakeFD empties the wake socket's receive buffer.
func drainWakeFD(readFd int) error {
	var buf [64]byte
	for {
		n, err := readFD(readFd, buf[:])
		if err != nil || n <= 0 {
			return nil
		}
	}
}
