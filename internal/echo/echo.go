// Package echo implements the reflector side of a measurement: every UDP
// datagram is sent back to its source unchanged.
package echo

import (
	"context"
	"log/slog"
	"net"
	"sync/atomic"
	"time"

	"github.com/NodePath81/udpbench/internal/network"
	"github.com/NodePath81/udpbench/internal/protocol"
)

const readTimeout = 500 * time.Millisecond

// Stats counts reflected traffic.
type Stats struct {
	Packets uint64
	Bytes   uint64
}

// Server reflects UDP datagrams back to their sender.
type Server struct {
	bind   string
	logger *slog.Logger

	packets atomic.Uint64
	bytes   atomic.Uint64

	conn *net.UDPConn
}

// NewServer creates a reflector bound to the given address (host:port).
func NewServer(bind string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{bind: bind, logger: logger}
}

// Addr returns the bound address once Run has started, or nil.
func (s *Server) Addr() net.Addr {
	if s.conn == nil {
		return nil
	}
	return s.conn.LocalAddr()
}

// Stats returns a snapshot of the reflected traffic counters.
func (s *Server) Stats() Stats {
	return Stats{
		Packets: s.packets.Load(),
		Bytes:   s.bytes.Load(),
	}
}

// Start binds the socket. It is separated from Run so callers can learn the
// effective address before traffic starts (tests bind port 0).
func (s *Server) Start() error {
	addr, err := net.ResolveUDPAddr("udp", s.bind)
	if err != nil {
		return &network.NetworkError{Op: "resolve", Err: err}
	}
	conn, err := net.ListenUDP("udp", addr)
	if err != nil {
		return &network.NetworkError{Op: "bind", Err: err}
	}
	s.conn = conn
	s.logger.Info("echo server listening", "addr", conn.LocalAddr().String())
	return nil
}

// Run reflects packets until ctx is canceled. Start must have been called.
func (s *Server) Run(ctx context.Context) error {
	defer s.conn.Close()
	buf := make([]byte, protocol.MaxPayloadSize)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("echo server stopping",
				"packets", s.packets.Load(), "bytes", s.bytes.Load())
			return ctx.Err()
		default:
		}

		if err := s.conn.SetReadDeadline(time.Now().Add(readTimeout)); err != nil {
			return &network.NetworkError{Op: "receive", Err: err}
		}
		n, raddr, err := s.conn.ReadFromUDP(buf)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return &network.NetworkError{Op: "receive", Err: err}
		}

		if _, err := s.conn.WriteToUDP(buf[:n], raddr); err != nil {
			// A transient send failure should not take the reflector down.
			s.logger.Warn("echo reply failed", "peer", raddr.String(), "error", err)
			continue
		}
		s.packets.Add(1)
		s.bytes.Add(uint64(n))
	}
}
