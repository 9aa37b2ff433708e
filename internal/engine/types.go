package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/NodePath81/udpbench/internal/network"
	"github.com/NodePath81/udpbench/internal/protocol"
)

const (
	// DefaultCount is the number of packets sent per round.
	DefaultCount = 1000
	// DefaultMaxTracked bounds the send-record table. Exceeding it is a
	// configuration error, never a silent truncation.
	DefaultMaxTracked = 1 << 20
)

// Config defines one measurement round against a UDP echo endpoint.
type Config struct {
	// Target is the destination host or IP.
	Target string
	// Port is the destination UDP port.
	Port int
	// Bind is the local address to receive echoes on ("" = any port).
	Bind string
	// Rate is the target send rate in packets/sec; <= 0 sends unthrottled.
	Rate int
	// Count is the number of packets per round.
	Count int
	// Mode selects the payload encoding.
	Mode protocol.Mode
	// Label is the payload prefix in label mode.
	Label string
	// ReadTimeout bounds each blocking receive.
	ReadTimeout time.Duration
	// Drain is the grace window for late replies after sending stops.
	Drain time.Duration
	// MaxDuration caps the whole round (0 = derived from rate and drain).
	MaxDuration time.Duration
	// MaxTracked caps the send-record table (0 = DefaultMaxTracked).
	MaxTracked int
	// RecvBuffer is the requested socket receive buffer (0 = default).
	RecvBuffer int
}

func (c *Config) withDefaults() Config {
	cfg := *c
	if cfg.Count == 0 {
		cfg.Count = DefaultCount
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = network.DefaultReadTimeout
	}
	if cfg.Drain <= 0 {
		cfg.Drain = network.DefaultDrainWindow
	}
	if cfg.MaxTracked <= 0 {
		cfg.MaxTracked = DefaultMaxTracked
	}
	if cfg.RecvBuffer <= 0 {
		cfg.RecvBuffer = network.DefaultRecvBuffer
	}
	return cfg
}

func (c Config) validate() error {
	if c.Target == "" {
		return errors.New("target is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.Count <= 0 {
		return errors.New("count must be > 0")
	}
	if c.Count > c.MaxTracked {
		return fmt.Errorf("count %d exceeds tracking capacity %d", c.Count, c.MaxTracked)
	}
	if c.Mode != protocol.ModeBinary && c.Mode != protocol.ModeLabel {
		return fmt.Errorf("invalid payload mode %d", c.Mode)
	}
	return nil
}

// maxDuration derives the absolute round deadline: the expected send time at
// the configured rate, the drain window, and headroom for scheduler jitter.
func (c Config) maxDuration() time.Duration {
	if c.MaxDuration > 0 {
		return c.MaxDuration
	}
	sendEstimate := time.Duration(0)
	if c.Rate > 0 {
		sendEstimate = time.Duration(float64(c.Count) / float64(c.Rate) * float64(time.Second))
	}
	return sendEstimate + c.Drain + 30*time.Second
}
