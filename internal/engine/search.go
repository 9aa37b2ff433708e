package engine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/NodePath81/udpbench/internal/metrics"
	"github.com/NodePath81/udpbench/internal/network"
)

const (
	// DefaultSearchLow and DefaultSearchHigh bound the candidate rate range.
	DefaultSearchLow  = 1000
	DefaultSearchHigh = 50000
	// DefaultSearchIterations caps the number of probe rounds.
	DefaultSearchIterations = 10
	// DefaultThreshold is the delivery ratio a rate must reach to count as
	// sustainable.
	DefaultThreshold = 0.99
	// DefaultPause separates probe rounds so residual queued traffic in the
	// endpoint drains before the next measurement.
	DefaultPause = time.Second
)

// RoundFunc executes one measurement round. The search uses Run by default;
// tests inject simulated endpoints here.
type RoundFunc func(ctx context.Context, cfg Config) (metrics.RunResult, error)

// SearchConfig drives the binary search for the maximum sustainable rate.
type SearchConfig struct {
	// Round is the per-iteration configuration; Rate is overwritten with the
	// probed midpoint each iteration.
	Round Config
	// Low and High bound the closed candidate interval in packets/sec.
	Low  int
	High int
	// Iterations is the iteration budget.
	Iterations int
	// Threshold is the minimum delivery ratio for a rate to succeed.
	Threshold float64
	// Pause is the wait between iterations.
	Pause time.Duration
	// Runner overrides the round executor (nil = Run).
	Runner RoundFunc
	// Progress, when set, is invoked after every completed iteration.
	Progress func(iteration int, result metrics.RunResult)
}

func (c *SearchConfig) withDefaults() SearchConfig {
	cfg := *c
	if cfg.Low <= 0 {
		cfg.Low = DefaultSearchLow
	}
	if cfg.High <= 0 {
		cfg.High = DefaultSearchHigh
	}
	if cfg.Iterations <= 0 {
		cfg.Iterations = DefaultSearchIterations
	}
	if cfg.Threshold <= 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Pause <= 0 {
		cfg.Pause = DefaultPause
	}
	if cfg.Runner == nil {
		cfg.Runner = Run
	}
	return cfg
}

// ProbeResult is the outcome of a capacity search. BestRate is 0 when no
// probed rate met the threshold.
type ProbeResult struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Elapsed   time.Duration `json:"elapsed"`

	SearchLow  int `json:"search_low_pps"`
	SearchHigh int `json:"search_high_pps"`

	BestRate       int     `json:"best_rate_pps"`
	BestThroughput float64 `json:"best_throughput_pps"`

	Iterations []metrics.RunResult `json:"iterations"`
}

// FindMax binary-searches [Low, High] for the highest rate whose delivery
// ratio meets the threshold. Iterations run strictly sequentially; a socket
// failure in one iteration is recorded as a failed probe and the search
// continues downward. Cancellation returns the partial result gathered so
// far together with ctx.Err().
func FindMax(ctx context.Context, cfg SearchConfig) (ProbeResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg = cfg.withDefaults()

	result := ProbeResult{
		RunID:      uuid.NewString(),
		StartedAt:  time.Now(),
		SearchLow:  cfg.Low,
		SearchHigh: cfg.High,
	}

	low, high := cfg.Low, cfg.High
	for iteration := 0; low <= high && iteration < cfg.Iterations; iteration++ {
		if err := ctx.Err(); err != nil {
			result.Elapsed = time.Since(result.StartedAt)
			return result, err
		}

		mid := (low + high) / 2
		roundCfg := cfg.Round
		roundCfg.Rate = mid

		round, err := cfg.Runner(ctx, roundCfg)
		round.Rate = mid
		result.Iterations = append(result.Iterations, round)
		if cfg.Progress != nil {
			cfg.Progress(iteration+1, round)
		}
		if err != nil {
			var netErr *network.NetworkError
			if errors.As(err, &netErr) {
				// Failed probe, not a failed search: back off and keep going.
				high = mid - 1
				continue
			}
			result.Elapsed = time.Since(result.StartedAt)
			return result, err
		}

		if round.DeliveryRatio() >= cfg.Threshold {
			result.BestRate = mid
			result.BestThroughput = round.EffectiveThroughput
			low = mid + 1
		} else {
			high = mid - 1
		}

		if low <= high {
			select {
			case <-ctx.Done():
				result.Elapsed = time.Since(result.StartedAt)
				return result, ctx.Err()
			case <-time.After(cfg.Pause):
			}
		}
	}

	result.Elapsed = time.Since(result.StartedAt)
	return result, nil
}
