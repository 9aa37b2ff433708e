// Package report renders measurement outcomes as text and JSON. The engine
// produces plain data; all formatting lives here.
package report

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/NodePath81/udpbench/internal/engine"
	"github.com/NodePath81/udpbench/internal/metrics"
)

const maxMissingListed = 10

// WriteRun renders one round as human-readable text.
func WriteRun(w io.Writer, r metrics.RunResult) {
	fmt.Fprintln(w, "Round Results:")
	if r.Rate > 0 {
		fmt.Fprintf(w, "  Target rate:          %d pkt/s\n", r.Rate)
	} else {
		fmt.Fprintf(w, "  Target rate:          unthrottled\n")
	}
	fmt.Fprintf(w, "  Actual send rate:     %.1f pkt/s\n", r.ActualSendRate)
	fmt.Fprintf(w, "  Packets sent:         %d\n", r.Sent)
	fmt.Fprintf(w, "  Packets received:     %d\n", r.Received)
	fmt.Fprintf(w, "  Unique sequences:     %d/%d\n", r.UniqueReceived, r.Sent)
	fmt.Fprintf(w, "  Missing sequences:    %d\n", len(r.MissingSequences))
	if n := len(r.MissingSequences); n > 0 && n <= maxMissingListed {
		fmt.Fprintf(w, "    Missing: %v\n", r.MissingSequences)
	}
	fmt.Fprintf(w, "  Duplicates:           %d\n", r.Duplicates)
	fmt.Fprintf(w, "  Out of order:         %d\n", r.OutOfOrder)
	fmt.Fprintf(w, "  Unexpected:           %d\n", r.Unexpected)
	fmt.Fprintf(w, "  Payload errors:       %d\n", r.PayloadErrors)
	fmt.Fprintf(w, "  Loss rate:            %.1f%%\n", r.LossRate*100)
	fmt.Fprintf(w, "  Total time:           %.3fs\n", r.Elapsed.Seconds())
	fmt.Fprintf(w, "  Effective throughput: %.1f pkt/s\n", r.EffectiveThroughput)
	if r.Latency.Samples > 0 {
		fmt.Fprintln(w, "  Latency:")
		fmt.Fprintf(w, "    Average: %.3f ms\n", ms(r.Latency.Avg))
		fmt.Fprintf(w, "    Median:  %.3f ms (P50)\n", ms(r.Latency.P50))
		fmt.Fprintf(w, "    P95:     %.3f ms\n", ms(r.Latency.P95))
		fmt.Fprintf(w, "    P99:     %.3f ms\n", ms(r.Latency.P99))
		fmt.Fprintf(w, "    Min:     %.3f ms\n", ms(r.Latency.Min))
		fmt.Fprintf(w, "    Max:     %.3f ms\n", ms(r.Latency.Max))
		fmt.Fprintf(w, "    Samples: %d\n", r.Latency.Samples)
	}
	if r.Incomplete {
		fmt.Fprintf(w, "  INCOMPLETE: %s\n", r.Error)
	}
}

// WriteProbe renders a capacity search outcome, including the per-iteration
// table sorted by rate.
func WriteProbe(w io.Writer, p engine.ProbeResult) {
	fmt.Fprintln(w, "Capacity Search Results:")
	fmt.Fprintf(w, "  Run ID:       %s\n", p.RunID)
	fmt.Fprintf(w, "  Search range: %d - %d pkt/s\n", p.SearchLow, p.SearchHigh)
	fmt.Fprintf(w, "  Iterations:   %d\n", len(p.Iterations))
	fmt.Fprintf(w, "  Elapsed:      %.1fs\n", p.Elapsed.Seconds())
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-14s %-14s %-10s %s\n", "Rate (pkt/s)", "Received", "Loss %", "Status")
	for _, r := range sortedByRate(p.Iterations) {
		status := "FAIL"
		if r.DeliveryRatio() >= engine.DefaultThreshold {
			status = "GOOD"
		}
		if r.Incomplete {
			status = "ERROR"
		}
		fmt.Fprintf(w, "  %-14d %d/%-12d %-10.1f %s\n",
			r.Rate, r.UniqueReceived, r.Sent, r.LossRate*100, status)
	}
	fmt.Fprintln(w)
	if p.BestRate > 0 {
		fmt.Fprintf(w, "  Maximum sustainable rate: %d pkt/s\n", p.BestRate)
		fmt.Fprintf(w, "  Effective throughput:     %.1f pkt/s\n", p.BestThroughput)
	} else {
		fmt.Fprintln(w, "  No sustainable rate found in the search range")
	}
}

// WriteSweep renders a latency sweep, one block per rate in ascending order.
func WriteSweep(w io.Writer, s engine.SweepResult) {
	fmt.Fprintln(w, "Latency Sweep Results:")
	fmt.Fprintf(w, "  Run ID:  %s\n", s.RunID)
	fmt.Fprintf(w, "  Elapsed: %.1fs\n", s.Elapsed.Seconds())
	for _, r := range s.Results {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  Rate %d pkt/s: %d/%d delivered, loss %.1f%%\n",
			r.Rate, r.UniqueReceived, r.Sent, r.LossRate*100)
		if r.Latency.Samples > 0 {
			fmt.Fprintf(w, "    avg %.3f ms | p50 %.3f ms | p95 %.3f ms | p99 %.3f ms | min %.3f ms | max %.3f ms\n",
				ms(r.Latency.Avg), ms(r.Latency.P50), ms(r.Latency.P95),
				ms(r.Latency.P99), ms(r.Latency.Min), ms(r.Latency.Max))
		}
		if r.Incomplete {
			fmt.Fprintf(w, "    INCOMPLETE: %s\n", r.Error)
		}
	}
}

func ms(d time.Duration) float64 {
	return float64(d.Microseconds()) / 1000.0
}

func sortedByRate(results []metrics.RunResult) []metrics.RunResult {
	out := make([]metrics.RunResult, len(results))
	copy(out, results)
	sort.Slice(out, func(i, j int) bool { return out[i].Rate < out[j].Rate })
	return out
}
