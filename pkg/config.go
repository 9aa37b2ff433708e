package bench

import (
	"time"

	"github.com/NodePath81/udpbench/internal/engine"
	"github.com/NodePath81/udpbench/internal/protocol"
)

const (
	// DefaultPort is the default UDP port of the echo endpoint.
	DefaultPort = 9801
	// DefaultCount is the default number of packets per round.
	DefaultCount = engine.DefaultCount
	// DefaultDrain is the default grace window for late replies.
	DefaultDrain = 3 * time.Second
	// DefaultSearchLow and DefaultSearchHigh bound the default capacity
	// search range in packets/sec.
	DefaultSearchLow  = engine.DefaultSearchLow
	DefaultSearchHigh = engine.DefaultSearchHigh
)

// PayloadMode selects the wire encoding of sequence ids.
type PayloadMode = protocol.Mode

const (
	// PayloadBinary is a fixed 8-byte big-endian sequence id.
	PayloadBinary = protocol.ModeBinary
	// PayloadLabel is an ASCII "<label> <seq>" payload.
	PayloadLabel = protocol.ModeLabel
)

// ParsePayloadMode parses a payload mode name ("binary" or "label").
func ParsePayloadMode(s string) (PayloadMode, error) {
	return protocol.ParseMode(s)
}

// Config defines parameters for a measurement round.
type Config struct {
	// Target is the host or IP of the echo endpoint.
	Target string
	// Port is the endpoint's UDP port.
	Port int
	// Bind is the local receive address ("" = any port).
	Bind string
	// Rate is the send rate in packets/sec; <= 0 sends unthrottled.
	Rate int
	// Count is the number of packets per round.
	Count int
	// Payload selects the wire encoding.
	Payload PayloadMode
	// Label is the payload prefix in label mode.
	Label string
	// Drain is the grace window for late replies after sending stops.
	Drain time.Duration
	// ReadTimeout bounds each blocking receive.
	ReadTimeout time.Duration
	// MaxDuration caps the whole round (0 = derived).
	MaxDuration time.Duration
}

// SearchConfig defines parameters for a capacity search.
type SearchConfig struct {
	// Round configures the per-iteration measurement; Rate is ignored.
	Round Config
	// Low and High bound the candidate rate interval in packets/sec.
	Low  int
	High int
	// Iterations is the iteration budget.
	Iterations int
	// Threshold is the minimum delivery ratio for a rate to succeed.
	Threshold float64
	// Pause is the wait between iterations.
	Pause time.Duration
}

// SweepConfig defines parameters for a latency sweep.
type SweepConfig struct {
	// Round configures the per-rate measurement; Rate is ignored.
	Round Config
	// Rates are the target rates to measure.
	Rates []int
	// Cooldown is the wait between rounds.
	Cooldown time.Duration
	// KeepOrder disables rate-order shuffling.
	KeepOrder bool
}

func (c Config) engineConfig() engine.Config {
	cfg := engine.Config{
		Target:      c.Target,
		Port:        c.Port,
		Bind:        c.Bind,
		Rate:        c.Rate,
		Count:       c.Count,
		Mode:        c.Payload,
		Label:       c.Label,
		Drain:       c.Drain,
		ReadTimeout: c.ReadTimeout,
		MaxDuration: c.MaxDuration,
	}
	if cfg.Port == 0 {
		cfg.Port = DefaultPort
	}
	if cfg.Count == 0 {
		cfg.Count = DefaultCount
	}
	if cfg.Drain == 0 {
		cfg.Drain = DefaultDrain
	}
	return cfg
}
