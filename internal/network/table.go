package network

import (
	"errors"
	"sort"
	"sync"
	"time"
)

// ErrTableFull indicates the configured tracking capacity was exhausted.
// This is a configuration error: tracking must never be silently truncated.
var ErrTableFull = errors.New("send record table full")

// Record tracks one sent packet within a single round. RecvTime is zero for
// packets whose reply never arrived before the drain deadline.
type Record struct {
	Seq      uint64
	SendTime time.Time
	RecvTime time.Time
	Matched  bool
}

// RTT returns the sample's round-trip time, or false if no reply was matched.
func (r Record) RTT() (time.Duration, bool) {
	if !r.Matched {
		return 0, false
	}
	return r.RecvTime.Sub(r.SendTime), true
}

// MatchOutcome classifies an inbound sequence id against the table.
type MatchOutcome int

const (
	// MatchOK is the first reply for a tracked sequence id.
	MatchOK MatchOutcome = iota
	// MatchDuplicate is a repeat reply for an already matched id.
	MatchDuplicate
	// MatchUnknown is a reply for an id the table never tracked.
	MatchUnknown
)

// Table is the shared send-record mapping for one round. The sender inserts,
// the correlator matches; both run concurrently. No lock is ever held across
// a blocking socket call.
type Table struct {
	mu       sync.Mutex
	capacity int
	matched  int
	records  map[uint64]*Record
}

// NewTable creates a table bounded at capacity records. capacity <= 0 means
// unbounded.
func NewTable(capacity int) *Table {
	return &Table{
		capacity: capacity,
		records:  make(map[uint64]*Record),
	}
}

// Add inserts a send record. The caller must insert before writing the packet
// to the socket so that a reply can never race its own record.
func (t *Table) Add(seq uint64, sendTime time.Time) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.capacity > 0 && len(t.records) >= t.capacity {
		return ErrTableFull
	}
	t.records[seq] = &Record{Seq: seq, SendTime: sendTime}
	return nil
}

// Match records the arrival of a reply. The first reply for a tracked id
// stores recvTime; later replies for the same id report MatchDuplicate and do
// not overwrite the first timestamp.
func (t *Table) Match(seq uint64, recvTime time.Time) MatchOutcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	rec, ok := t.records[seq]
	if !ok {
		return MatchUnknown
	}
	if rec.Matched {
		return MatchDuplicate
	}
	rec.Matched = true
	rec.RecvTime = recvTime
	t.matched++
	return MatchOK
}

// Len returns the number of tracked records.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.records)
}

// MatchedCount returns how many records have been matched so far.
func (t *Table) MatchedCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.matched
}

// Records returns a snapshot of all records sorted by sequence id. Called once
// per round, after both tasks have stopped, to hand ownership of the round's
// samples to the aggregator.
func (t *Table) Records() []Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Record, 0, len(t.records))
	for _, rec := range t.records {
		out = append(out, *rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}
