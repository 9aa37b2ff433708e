package network

import (
	"net"

	"golang.org/x/sys/unix"
)

// DefaultRecvBuffer is the receive buffer requested on the measurement
// socket. At tens of thousands of packets per second the kernel default
// overflows during the drain window.
const DefaultRecvBuffer = 4 * 1024 * 1024

// SetRecvBuffer requests a receive buffer of size bytes and returns the size
// the kernel actually granted (which may be clamped below the request, or
// doubled for bookkeeping on Linux).
func SetRecvBuffer(conn *net.UDPConn, size int) (int, error) {
	if err := conn.SetReadBuffer(size); err != nil {
		return 0, err
	}
	return RecvBufferSize(conn)
}

// RecvBufferSize reads back the effective SO_RCVBUF of the socket.
func RecvBufferSize(conn *net.UDPConn) (int, error) {
	raw, err := conn.SyscallConn()
	if err != nil {
		return 0, err
	}
	var size int
	var sockErr error
	controlErr := raw.Control(func(fd uintptr) {
		size, sockErr = unix.GetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_RCVBUF)
	})
	if controlErr != nil {
		return 0, controlErr
	}
	return size, sockErr
}
