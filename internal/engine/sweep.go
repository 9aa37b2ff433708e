package engine

import (
	"context"
	"errors"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/NodePath81/udpbench/internal/metrics"
	"github.com/NodePath81/udpbench/internal/network"
)

// DefaultCooldown separates sweep rounds so one rate's queueing does not
// bleed into the next measurement.
const DefaultCooldown = 3 * time.Second

// SweepConfig measures latency at a fixed list of rates.
type SweepConfig struct {
	// Round is the per-rate configuration; Rate is overwritten per round.
	Round Config
	// Rates are the target rates to measure, in packets/sec.
	Rates []int
	// Cooldown is the wait between rounds.
	Cooldown time.Duration
	// KeepOrder disables the default shuffling of the rate order. Shuffling
	// exposes warm-up effects that a fixed ascending order would hide.
	KeepOrder bool
	// Runner overrides the round executor (nil = Run).
	Runner RoundFunc
	// Progress, when set, is invoked after every completed round.
	Progress func(rate int, result metrics.RunResult)
}

// SweepResult holds one RunResult per rate, sorted by ascending rate.
type SweepResult struct {
	RunID     string              `json:"run_id"`
	StartedAt time.Time           `json:"started_at"`
	Elapsed   time.Duration       `json:"elapsed"`
	Results   []metrics.RunResult `json:"results"`
}

// Sweep runs one round per configured rate. Round order is shuffled unless
// KeepOrder is set; results come back sorted by rate regardless. Socket
// failures mark the affected round incomplete and the sweep continues.
func Sweep(ctx context.Context, cfg SweepConfig) (SweepResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if len(cfg.Rates) == 0 {
		return SweepResult{}, errors.New("sweep needs at least one rate")
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = DefaultCooldown
	}
	runner := cfg.Runner
	if runner == nil {
		runner = Run
	}

	order := make([]int, len(cfg.Rates))
	copy(order, cfg.Rates)
	if !cfg.KeepOrder {
		rand.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}

	result := SweepResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}

	for i, rate := range order {
		if err := ctx.Err(); err != nil {
			result.Elapsed = time.Since(result.StartedAt)
			return result, err
		}

		roundCfg := cfg.Round
		roundCfg.Rate = rate
		round, err := runner(ctx, roundCfg)
		round.Rate = rate
		result.Results = append(result.Results, round)
		if cfg.Progress != nil {
			cfg.Progress(rate, round)
		}
		if err != nil {
			var netErr *network.NetworkError
			if !errors.As(err, &netErr) {
				sortByRate(result.Results)
				result.Elapsed = time.Since(result.StartedAt)
				return result, err
			}
		}

		if i < len(order)-1 {
			select {
			case <-ctx.Done():
				sortByRate(result.Results)
				result.Elapsed = time.Since(result.StartedAt)
				return result, ctx.Err()
			case <-time.After(cfg.Cooldown):
			}
		}
	}

	sortByRate(result.Results)
	result.Elapsed = time.Since(result.StartedAt)
	return result, nil
}

func sortByRate(results []metrics.RunResult) {
	sort.Slice(results, func(i, j int) bool { return results[i].Rate < results[j].Rate })
}
