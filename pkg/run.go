package bench

import (
	"context"
	"time"

	"github.com/NodePath81/udpbench/internal/engine"
	"github.com/NodePath81/udpbench/internal/metrics"
	"github.com/NodePath81/udpbench/internal/probe"
)

// RunResult is the outcome of one measurement round. It is plain data; see
// the report package for rendering.
type RunResult = metrics.RunResult

// LatencyStats summarizes round-trip latencies within a RunResult.
type LatencyStats = metrics.LatencyStats

// ProbeResult is the outcome of a capacity search.
type ProbeResult = engine.ProbeResult

// SweepResult is the outcome of a latency sweep.
type SweepResult = engine.SweepResult

// IterationFunc is called after every completed search iteration or sweep
// round.
type IterationFunc func(step int, result RunResult)

// Run executes one measurement round at a fixed rate. The returned RunResult
// is valid even on error: cancellation and mid-round socket failures yield
// partial results with Incomplete set.
func Run(ctx context.Context, cfg Config) (RunResult, error) {
	return engine.Run(ctx, cfg.engineConfig())
}

// FindMax binary-searches for the highest rate the endpoint sustains with a
// delivery ratio at or above the threshold.
func FindMax(ctx context.Context, cfg SearchConfig) (ProbeResult, error) {
	return FindMaxWithProgress(ctx, cfg, nil)
}

// FindMaxWithProgress is FindMax with a per-iteration callback.
func FindMaxWithProgress(ctx context.Context, cfg SearchConfig, progress IterationFunc) (ProbeResult, error) {
	searchCfg := engine.SearchConfig{
		Round:      cfg.Round.engineConfig(),
		Low:        cfg.Low,
		High:       cfg.High,
		Iterations: cfg.Iterations,
		Threshold:  cfg.Threshold,
		Pause:      cfg.Pause,
	}
	if progress != nil {
		searchCfg.Progress = func(iteration int, result metrics.RunResult) {
			progress(iteration, result)
		}
	}
	return engine.FindMax(ctx, searchCfg)
}

// Sweep measures latency at each configured rate, shuffling the order unless
// KeepOrder is set.
func Sweep(ctx context.Context, cfg SweepConfig) (SweepResult, error) {
	return SweepWithProgress(ctx, cfg, nil)
}

// SweepWithProgress is Sweep with a per-round callback receiving the rate.
func SweepWithProgress(ctx context.Context, cfg SweepConfig, progress IterationFunc) (SweepResult, error) {
	sweepCfg := engine.SweepConfig{
		Round:     cfg.Round.engineConfig(),
		Rates:     cfg.Rates,
		Cooldown:  cfg.Cooldown,
		KeepOrder: cfg.KeepOrder,
	}
	if progress != nil {
		sweepCfg.Progress = func(rate int, result metrics.RunResult) {
			progress(rate, result)
		}
	}
	return engine.Sweep(ctx, sweepCfg)
}

// CheckUDP sends one datagram to the endpoint and waits for the echo,
// returning the observed round-trip time.
func CheckUDP(target string, port int, timeout time.Duration) (time.Duration, error) {
	if port == 0 {
		port = DefaultPort
	}
	return probe.CheckUDP(target, port, timeout)
}

// CheckICMP sends one ICMP echo request to the endpoint host. Needs raw
// socket privileges.
func CheckICMP(target string, timeout time.Duration) (time.Duration, error) {
	return probe.CheckICMP(target, timeout)
}
