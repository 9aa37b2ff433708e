package network

import (
	"context"
	"net"
	"time"

	"github.com/NodePath81/udpbench/internal/protocol"
)

const (
	// DefaultReadTimeout bounds each blocking receive so the correlator can
	// re-check its stop conditions even when the far end is silent.
	DefaultReadTimeout = 500 * time.Millisecond
	// DefaultDrainWindow is how long the correlator keeps accepting late
	// replies after sending completes.
	DefaultDrainWindow = 3 * time.Second
)

// RecvCounters accumulates what the correlator observed during one round.
// Received counts every datagram read, including ones that failed to decode.
type RecvCounters struct {
	Received      uint64
	Duplicates    uint64
	Unexpected    uint64
	OutOfOrder    uint64
	PayloadErrors uint64
}

// Correlator receives replies on the round's socket and matches them against
// the shared send-record table.
type Correlator struct {
	conn        *net.UDPConn
	codec       protocol.Codec
	table       *Table
	readTimeout time.Duration
	drain       time.Duration
	deadline    time.Time
}

// NewCorrelator creates a correlator for one round. deadline is the absolute
// time after which the round terminates regardless of outstanding replies;
// pass the zero time for no bound.
func NewCorrelator(conn *net.UDPConn, codec protocol.Codec, table *Table, readTimeout, drain time.Duration, deadline time.Time) *Correlator {
	if readTimeout <= 0 {
		readTimeout = DefaultReadTimeout
	}
	if drain <= 0 {
		drain = DefaultDrainWindow
	}
	return &Correlator{
		conn:        conn,
		codec:       codec,
		table:       table,
		readTimeout: readTimeout,
		drain:       drain,
		deadline:    deadline,
	}
}

// Run receives until sending has completed and the drain window has elapsed,
// the absolute deadline fires, or ctx is canceled. It returns whatever was
// counted so far in every case; a silent far end terminates at the deadline
// with zero matches. sendDone must be closed by the caller once the send
// phase is over; expected carries the number of packets actually sent so the
// correlator can stop as soon as every reply is in.
func (c *Correlator) Run(ctx context.Context, sendDone <-chan struct{}, expected func() int) (RecvCounters, error) {
	var counters RecvCounters
	buf := make([]byte, protocol.MaxPayloadSize)

	var drainDeadline time.Time
	var highest uint64
	haveMatch := false

	for {
		select {
		case <-ctx.Done():
			return counters, ctx.Err()
		default:
		}

		if drainDeadline.IsZero() {
			select {
			case <-sendDone:
				drainDeadline = time.Now().Add(c.drain)
			default:
			}
		}
		if !drainDeadline.IsZero() {
			if time.Now().After(drainDeadline) {
				return counters, nil
			}
			if expected != nil && c.table.MatchedCount() >= expected() {
				return counters, nil
			}
		}
		if !c.deadline.IsZero() && time.Now().After(c.deadline) {
			return counters, nil
		}

		readDeadline := time.Now().Add(c.readTimeout)
		if !drainDeadline.IsZero() && drainDeadline.Before(readDeadline) {
			readDeadline = drainDeadline
		}
		if !c.deadline.IsZero() && c.deadline.Before(readDeadline) {
			readDeadline = c.deadline
		}
		if err := c.conn.SetReadDeadline(readDeadline); err != nil {
			return counters, &NetworkError{Op: "receive", Err: err}
		}

		n, _, err := c.conn.ReadFromUDP(buf)
		arrival := time.Now()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			return counters, &NetworkError{Op: "receive", Err: err}
		}

		counters.Received++
		seq, err := c.codec.Decode(buf[:n])
		if err != nil {
			counters.PayloadErrors++
			continue
		}

		switch c.table.Match(seq, arrival) {
		case MatchOK:
			// Out-of-order means arrival order regressed below the highest
			// matched id, not that a gap exists.
			if haveMatch && seq < highest {
				counters.OutOfOrder++
			} else {
				highest = seq
			}
			haveMatch = true
		case MatchDuplicate:
			counters.Duplicates++
		case MatchUnknown:
			counters.Unexpected++
		}
	}
}
