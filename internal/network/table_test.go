package network

import (
	"testing"
	"time"
)

func TestTableMatchSemantics(t *testing.T) {
	table := NewTable(0)
	base := time.Now()

	for seq := uint64(0); seq < 3; seq++ {
		if err := table.Add(seq, base); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if table.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", table.Len())
	}

	first := base.Add(10 * time.Millisecond)
	if got := table.Match(1, first); got != MatchOK {
		t.Fatalf("expected MatchOK, got %v", got)
	}
	if got := table.Match(1, base.Add(50*time.Millisecond)); got != MatchDuplicate {
		t.Fatalf("expected MatchDuplicate, got %v", got)
	}
	if got := table.Match(99, first); got != MatchUnknown {
		t.Fatalf("expected MatchUnknown, got %v", got)
	}
	if table.MatchedCount() != 1 {
		t.Fatalf("expected 1 matched, got %d", table.MatchedCount())
	}

	// The duplicate must not have overwritten the first arrival time.
	for _, rec := range table.Records() {
		if rec.Seq != 1 {
			continue
		}
		rtt, ok := rec.RTT()
		if !ok {
			t.Fatalf("expected matched record")
		}
		if rtt != 10*time.Millisecond {
			t.Fatalf("expected rtt 10ms, got %v", rtt)
		}
	}
}

func TestTableCapacity(t *testing.T) {
	table := NewTable(2)
	now := time.Now()
	if err := table.Add(0, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := table.Add(1, now); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := table.Add(2, now); err != ErrTableFull {
		t.Fatalf("expected ErrTableFull, got %v", err)
	}
}

func TestTableRecordsSorted(t *testing.T) {
	table := NewTable(0)
	now := time.Now()
	for _, seq := range []uint64{5, 1, 3, 0, 4, 2} {
		if err := table.Add(seq, now); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	records := table.Records()
	if len(records) != 6 {
		t.Fatalf("expected 6 records, got %d", len(records))
	}
	for i, rec := range records {
		if rec.Seq != uint64(i) {
			t.Fatalf("expected seq %d at index %d, got %d", i, i, rec.Seq)
		}
	}
}

func TestRecordRTTUnmatched(t *testing.T) {
	rec := Record{Seq: 7, SendTime: time.Now()}
	if _, ok := rec.RTT(); ok {
		t.Fatalf("expected no rtt for unmatched record")
	}
}
