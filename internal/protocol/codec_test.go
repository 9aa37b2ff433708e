package protocol

import (
	"errors"
	"testing"
)

func TestBinaryRoundTrip(t *testing.T) {
	c := NewCodec(ModeBinary, "")
	for _, seq := range []uint64{0, 1, 41, 999, 1<<32 - 1, 1<<64 - 1} {
		payload := c.Encode(seq)
		if len(payload) != BinarySeqSize {
			t.Fatalf("expected %d-byte payload, got %d", BinarySeqSize, len(payload))
		}
		got, err := c.Decode(payload)
		if err != nil {
			t.Fatalf("decode failed for seq %d: %v", seq, err)
		}
		if got != seq {
			t.Fatalf("round trip mismatch: sent %d, got %d", seq, got)
		}
	}
}

func TestLabelRoundTrip(t *testing.T) {
	c := NewCodec(ModeLabel, "throughput")
	for _, seq := range []uint64{0, 9, 42, 1000, 1<<63 - 1} {
		payload := c.Encode(seq)
		got, err := c.Decode(payload)
		if err != nil {
			t.Fatalf("decode failed for seq %d: %v", seq, err)
		}
		if got != seq {
			t.Fatalf("round trip mismatch: sent %d, got %d", seq, got)
		}
	}
	if string(c.Encode(7)) != "throughput 7" {
		t.Fatalf("unexpected label encoding %q", c.Encode(7))
	}
}

func TestBinaryDecodeErrors(t *testing.T) {
	c := NewCodec(ModeBinary, "")
	if _, err := c.Decode([]byte{1, 2, 3}); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	if _, err := c.Decode(make([]byte, 9)); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for oversized payload, got %v", err)
	}
}

func TestLabelDecodeErrors(t *testing.T) {
	c := NewCodec(ModeLabel, "throughput")
	if _, err := c.Decode([]byte("thr")); !errors.Is(err, ErrTruncated) {
		t.Fatalf("expected ErrTruncated, got %v", err)
	}
	if _, err := c.Decode([]byte("bandwidth 12")); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for wrong label, got %v", err)
	}
	if _, err := c.Decode([]byte("throughput abc")); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for non-numeric seq, got %v", err)
	}
	if _, err := c.Decode([]byte("throughput -1")); !errors.Is(err, ErrMalformed) {
		t.Fatalf("expected ErrMalformed for negative seq, got %v", err)
	}
}

func TestParseMode(t *testing.T) {
	if m, err := ParseMode("binary"); err != nil || m != ModeBinary {
		t.Fatalf("binary: got %v, %v", m, err)
	}
	if m, err := ParseMode("label"); err != nil || m != ModeLabel {
		t.Fatalf("label: got %v, %v", m, err)
	}
	if m, err := ParseMode(""); err != nil || m != ModeBinary {
		t.Fatalf("default: got %v, %v", m, err)
	}
	if _, err := ParseMode("hex"); err == nil {
		t.Fatalf("expected error for unknown mode")
	}
}
