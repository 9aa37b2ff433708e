package network

import (
	"context"
	"net"
	"time"

	"github.com/NodePath81/udpbench/internal/protocol"
)

// Sender emits sequence-numbered packets toward a destination at a target
// rate. One Sender drives exactly one round; it is not restartable.
type Sender struct {
	conn    *net.UDPConn
	dest    *net.UDPAddr
	codec   protocol.Codec
	table   *Table
	limiter *Limiter
	count   int

	lastDeadline time.Time
}

// NewSender creates a sender for one round. rate <= 0 sends unthrottled.
func NewSender(conn *net.UDPConn, dest *net.UDPAddr, codec protocol.Codec, table *Table, rate, count int) *Sender {
	return &Sender{
		conn:    conn,
		dest:    dest,
		codec:   codec,
		table:   table,
		limiter: NewLimiter(rate),
		count:   count,
	}
}

// SendOutcome reports what the send phase actually did. Elapsed is measured
// from the first send attempt, so callers derive the achieved rate from it
// rather than trusting the configured rate.
type SendOutcome struct {
	Sent    int
	Elapsed time.Duration
}

// Run sends the configured number of packets. The send record is inserted
// into the shared table before each write, so a reply can never arrive ahead
// of its record. Cancellation stops sending early and returns ctx.Err() with
// the partial outcome; socket failures return a *NetworkError.
func (s *Sender) Run(ctx context.Context) (SendOutcome, error) {
	start := time.Now()
	out := SendOutcome{}
	for seq := uint64(0); seq < uint64(s.count); seq++ {
		select {
		case <-ctx.Done():
			out.Elapsed = time.Since(start)
			return out, ctx.Err()
		default:
		}

		s.limiter.Wait()

		if err := s.table.Add(seq, time.Now()); err != nil {
			out.Elapsed = time.Since(start)
			return out, err
		}

		if time.Since(s.lastDeadline) > time.Second {
			_ = s.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
			s.lastDeadline = time.Now()
		}

		if _, err := s.conn.WriteToUDP(s.codec.Encode(seq), s.dest); err != nil {
			out.Elapsed = time.Since(start)
			return out, &NetworkError{Op: "send", Err: err}
		}
		out.Sent++
	}
	out.Elapsed = time.Since(start)
	return out, nil
}
