//go:build linux || darwin

package eventcore

import (
	"net"
	"strconv"

	"golang.org/x/sys/unix"
)

// resolveTCPAddr4 resolves hostname:port to a 4-byte IPv4 address. DNS
// resolution is not on the hot path — it runs once per openConnection or
// listener bind — so the stdlib resolver is used rather than hand-rolled
// DNS, per SPEC_FULL.md's ambient-stack rationale.
func resolveTCPAddr4(hostname string, port uint16) ([4]byte, error) {
	addr, err := net.ResolveIPAddr("ip4", hostname)
	if err != nil {
		return [4]byte{}, err
	}
	var out [4]byte
	copy(out[:], addr.IP.To4())
	return out, nil
}

// listenTCP binds and listens on hostname:port, returning a non-blocking
// listening socket fd.
func listenTCP(hostname string, port uint16, backlog int) (int, error) {
	ip, err := resolveTCPAddr4(hostname, port)
	if err != nil {
		return -1, err
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return -1, err
	}
	if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	sa := &unix.SockaddrInet4{Port: int(port), Addr: ip}
	if err := unix.Bind(fd, sa); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	if err := unix.Listen(fd, backlog); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// acceptTCP accepts a pending connection on a listening socket, returning
// the new non-blocking connection fd and the remote address as
// "host:port". unix.EAGAIN is surfaced unwrapped so callers can treat it
// as "no more pending accepts this cycle".
func acceptTCP(listenFd int) (int, string, error) {
	fd, sa, err := unix.Accept(listenFd)
	if err != nil {
		return -1, "", err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return -1, "", err
	}
	remote := ""
	if in4, ok := sa.(*unix.SockaddrInet4); ok {
		remote = net.IP(in4.Addr[:]).String() + ":" + strconv.Itoa(in4.Port)
	}
	return fd, remote, nil
}

// connectTCP begins a non-blocking connect to hostname:port, returning the
// new socket fd immediately. unix.EINPROGRESS is not an error here — it
// signals the caller to watch the fd for write-readiness to learn when
// the connect completes.
func connectTCP(hostname string, port uint16) (int, error) {
	ip, err := resolveTCPAddr4(hostname, port)
	if err != nil {
		return -1, err
	}
	fd, err := unix.Socket(unix.AF_INET, unix.SOCK_STREAM, unix.IPPROTO_TCP)
	if err != nil {
		return -1, err
	}
	if err := unix.SetNonblock(fd, true); err != nil {
		_ = unix.Close(fd)
		return -1, err
	}
	sa := &unix.SockaddrInet4{Port: int(port), Addr: ip}
	err = unix.Connect(fd, sa)
	if err != nil && err != unix.EINPROGRESS {
		_ = unix.Close(fd)
		return -1, err
	}
	return fd, nil
}

// socketConnectError returns the pending error (if any) recorded against
// fd via SO_ERROR, the standard way to learn whether a non-blocking
// connect succeeded once the fd reports write-ready.
func socketConnectError(fd int) error {
	errno, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_ERROR)
	if err != nil {
		return err
	}
	if errno != 0 {
		return unix.Errno(errno)
	}
	return nil
}

func netRead(fd int, buf []byte) (int, error)  { return unix.Read(fd, buf) }
func netWrite(fd int, buf []byte) (int, error) { return unix.Write(fd, buf) }
func netClose(fd int) error                    { return unix.Close(fd) }

func isWouldBlock(err error) bool {
	return err == unix.EAGAIN || err == unix.EWOULDBLOCK
}
