// Package probe provides one-shot connectivity checks used before a
// measurement run: a UDP echo round trip, and an ICMP echo for telling a
// dead host apart from a dead echo service.
package probe

import (
	"bytes"
	"errors"
	"net"
	"time"

	"github.com/NodePath81/udpbench/internal/util"
)

// DefaultCheckTimeout bounds a single connectivity check.
const DefaultCheckTimeout = 5 * time.Second

// CheckUDP sends one datagram to target:port and waits for the echo. It
// returns the observed round-trip time.
func CheckUDP(target string, port int, timeout time.Duration) (time.Duration, error) {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	addr, err := net.ResolveUDPAddr("udp", util.NetJoin(target, port))
	if err != nil {
		return 0, err
	}
	conn, err := net.DialUDP("udp", nil, addr)
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	payload := []byte("udpbench check")
	_ = conn.SetDeadline(time.Now().Add(timeout))
	start := time.Now()
	if _, err := conn.Write(payload); err != nil {
		return 0, err
	}

	buf := make([]byte, 4096)
	n, err := conn.Read(buf)
	if err != nil {
		return 0, err
	}
	if !bytes.Equal(buf[:n], payload) {
		return 0, errors.New("unexpected echo payload")
	}
	return time.Since(start), nil
}
