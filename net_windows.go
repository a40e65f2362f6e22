//go:build windows

package eventcore

import (
	"net"
	"strconv"

	"golang.org/x/sys/windows"
)

func resolveTCPAddr4(hostname string, port uint16) ([4]byte, error) {
	addr, err := net.ResolveIPAddr("ip4", hostname)
	if err != nil {
		return [4]byte{}, err
	}
	var out [4]byte
	copy(out[:], addr.IP.To4())
	return out, nil
}

func listenTCP(hostname string, port uint16, backlog int) (int, error) {
	ip, err := resolveTCPAddr4(hostname, port)
	if err != nil {
		return -1, err
	}
	fd, err := windows.Socket(windows.AF_INET, windows.SOCK_STREAM, windows.IPPROTO_TCP)
	if err != nil {
		return -1, err
	}
	if err := windows.SetsockoptInt(fd, windows.SOL_SOCKET, windows.SO_REUSEADDR, 1); err != nil {
		_ = windows.Closesocket(fd)
		return -1, err
	}
	sa := &windows.SockaddrInet4{Port: int(port), Addr: ip}
	if err := windows.Bind(fd, sa); err != nil {
		_ = windows.Closesocket(fd)
		return -1, err
	}
	if err := windows.Listen(fd, backlog); err != nil {
		_ = windows.Closesocket(fd)
		return -1, err
	}
	var nonblock uint32 = 1
	if err := windows.IoctlSocket(fd, windows.FIONBIO, &nonblock); err != nil {
		_ = windows.Closesocket(fd)
		return -1, err
	}
	return int(fd), nil
}

func acceptTCP(listenFd int) (int, string, error) {
	fd, sa, err := windows.Accept(windows.Handle(listenFd))
	if err != nil {
		return -1, "", err
	}
	var nonblock uint32 = 1
	_ = windows.IoctlSocket(fd, windows.FIONBIO, &nonblock)
	remote := ""
	if in4, ok := sa.(*windows.SockaddrInet4); ok {
		remote = net.IP(in4.Addr[:]).String() + ":" + strconv.Itoa(in4.Port)
	}
	return int(fd), remote, nil
}

func connectTCP(hostname string, port uint16) (int, error) {
	ip, err := resolveTCPAddr4(hostname, port)
	if err != nil {
		return -1, err
	}
	fd, err := windows.Socket(windows.AF_INET, windows.SOCK_STREAM, windows.IPPROTO_TCP)
	if err != nil {
		return -1, err
	}
	var nonblock uint32 = 1
	if err := windows.IoctlSocket(fd, windows.FIONBIO, &nonblock); err != nil {
		_ = windows.Closesocket(fd)
		return -1, err
	}
	sa := &windows.SockaddrInet4{Port: int(port), Addr: ip}
	err = windows.Connect(fd, sa)
	if err != nil && err != windows.WSAEWOULDBLOCK {
		_ = windows.Closesocket(fd)
		return -1, err
	}
	return int(fd), nil
}

// socketConnectError reports the pending error (if any) on fd via
// SO_ERROR, mirroring the Unix getsockopt idiom since Winsock exposes
// the same option.
func socketConnectError(fd int) error {
	errno, err := windows.GetsockoptInt(windows.Handle(fd), windows.SOL_SOCKET, windows.SO_ERROR)
	if err != nil {
		return err
	}
	if errno != 0 {
		return windows.Errno(errno)
	}
	return nil
}

func netRead(fd int, buf []byte) (int, error) {
	return windows.Recv(windows.Handle(fd), buf, 0)
}

func netWrite(fd int, buf []byte) (int, error) {
	return windows.Send(windows.Handle(fd), buf, 0)
}

func netClose(fd int) error {
	return windows.Closesocket(windows.Handle(fd))
}

func isWouldBlock(err error) bool {
	return err == windows.WSAEWOULDBLOCK
}
