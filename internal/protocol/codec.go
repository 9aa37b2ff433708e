package protocol

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

const (
	// BinarySeqSize is the payload size in binary mode: one big-endian uint64.
	BinarySeqSize = 8
	// DefaultLabel is the payload prefix used in label mode.
	DefaultLabel = "throughput"
	// MaxPayloadSize bounds a received datagram we are willing to decode.
	MaxPayloadSize = 4096
)

var (
	// ErrTruncated indicates the payload is too short to carry a sequence id.
	ErrTruncated = errors.New("payload truncated")
	// ErrMalformed indicates the payload does not match the expected encoding.
	ErrMalformed = errors.New("payload malformed")
)

// Mode selects the wire encoding for sequence ids.
type Mode int

const (
	// ModeBinary encodes the sequence id as a fixed 8-byte big-endian integer.
	ModeBinary Mode = iota
	// ModeLabel encodes the sequence id as ASCII "<label> <seq>".
	ModeLabel
)

func (m Mode) String() string {
	switch m {
	case ModeLabel:
		return "label"
	default:
		return "binary"
	}
}

// ParseMode parses a mode name from the CLI or a config file.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "binary":
		return ModeBinary, nil
	case "label", "ascii":
		return ModeLabel, nil
	default:
		return ModeBinary, fmt.Errorf("unknown payload mode %q (must be binary or label)", s)
	}
}

// Codec encodes and decodes sequence-number payloads.
// Encode and Decode round-trip for every id representable in the mode's width.
type Codec struct {
	Mode  Mode
	Label string
}

// NewCodec returns a codec for the given mode. An empty label in label mode
// falls back to DefaultLabel.
func NewCodec(mode Mode, label string) Codec {
	if label == "" {
		label = DefaultLabel
	}
	return Codec{Mode: mode, Label: label}
}

// Encode produces the wire payload for seq. The returned slice is freshly
// allocated; callers may retain it.
func (c Codec) Encode(seq uint64) []byte {
	if c.Mode == ModeLabel {
		label := c.Label
		if label == "" {
			label = DefaultLabel
		}
		return []byte(label + " " + strconv.FormatUint(seq, 10))
	}
	buf := make([]byte, BinarySeqSize)
	binary.BigEndian.PutUint64(buf, seq)
	return buf
}

// Decode extracts the sequence id from a received payload. Failures are
// reported as ErrTruncated or ErrMalformed (possibly wrapped) and must be
// counted by the caller, never treated as fatal.
func (c Codec) Decode(b []byte) (uint64, error) {
	if c.Mode == ModeLabel {
		return c.decodeLabel(b)
	}
	if len(b) < BinarySeqSize {
		return 0, fmt.Errorf("%w: got %d bytes, want %d", ErrTruncated, len(b), BinarySeqSize)
	}
	if len(b) > BinarySeqSize {
		return 0, fmt.Errorf("%w: got %d bytes, want %d", ErrMalformed, len(b), BinarySeqSize)
	}
	return binary.BigEndian.Uint64(b), nil
}

func (c Codec) decodeLabel(b []byte) (uint64, error) {
	label := c.Label
	if label == "" {
		label = DefaultLabel
	}
	min := len(label) + 2 // label, space, at least one digit
	if len(b) < min {
		return 0, fmt.Errorf("%w: got %d bytes, want at least %d", ErrTruncated, len(b), min)
	}
	s := string(b)
	prefix := label + " "
	if !strings.HasPrefix(s, prefix) {
		return 0, fmt.Errorf("%w: missing %q prefix", ErrMalformed, label)
	}
	seq, err := strconv.ParseUint(s[len(prefix):], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad sequence field: %v", ErrMalformed, err)
	}
	return seq, nil
}
