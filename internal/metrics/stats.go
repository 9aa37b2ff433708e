package metrics

import (
	"sort"
	"time"

	"github.com/NodePath81/udpbench/internal/network"
)

// LatencyStats summarizes round-trip latencies for one round. Percentiles
// are computed only over samples that completed a round trip.
type LatencyStats struct {
	Min     time.Duration `json:"min"`
	Max     time.Duration `json:"max"`
	Avg     time.Duration `json:"avg"`
	P50     time.Duration `json:"p50"`
	P95     time.Duration `json:"p95"`
	P99     time.Duration `json:"p99"`
	Samples int           `json:"samples"`
}

// RunResult is the immutable outcome of one round at a fixed target rate.
type RunResult struct {
	Rate           int     `json:"rate_pps"`
	ActualSendRate float64 `json:"actual_send_rate_pps"`

	Sent           int `json:"sent"`
	Received       int `json:"received"`
	UniqueReceived int `json:"unique_received"`
	Duplicates     int `json:"duplicates"`
	OutOfOrder     int `json:"out_of_order"`
	Unexpected     int `json:"unexpected"`
	PayloadErrors  int `json:"payload_errors"`

	MissingSequences []uint64 `json:"missing_sequences,omitempty"`

	LossRate            float64 `json:"loss_rate"`
	EffectiveThroughput float64 `json:"effective_throughput_pps"`

	Latency LatencyStats `json:"latency"`

	SendElapsed time.Duration `json:"send_elapsed"`
	Elapsed     time.Duration `json:"elapsed"`

	Incomplete bool   `json:"incomplete"`
	Error      string `json:"error,omitempty"`
}

// DeliveryRatio is the fraction of sent packets whose reply arrived exactly
// once. This is the quantity the capacity search thresholds on.
func (r RunResult) DeliveryRatio() float64 {
	if r.Sent == 0 {
		return 0
	}
	return float64(r.UniqueReceived) / float64(r.Sent)
}

// Summarize derives a RunResult from the round's send records and receive
// counters. sent is the number of packets actually written to the socket;
// sendElapsed covers the send phase and elapsed the full round including the
// drain window.
func Summarize(records []network.Record, counters network.RecvCounters, targetRate, sent int, sendElapsed, elapsed time.Duration) RunResult {
	result := RunResult{
		Rate:          targetRate,
		Sent:          sent,
		Received:      int(counters.Received),
		Duplicates:    int(counters.Duplicates),
		OutOfOrder:    int(counters.OutOfOrder),
		Unexpected:    int(counters.Unexpected),
		PayloadErrors: int(counters.PayloadErrors),
		SendElapsed:   sendElapsed,
		Elapsed:       elapsed,
	}

	latencies := make([]time.Duration, 0, len(records))
	for _, rec := range records {
		if rtt, ok := rec.RTT(); ok {
			result.UniqueReceived++
			latencies = append(latencies, rtt)
		} else {
			result.MissingSequences = append(result.MissingSequences, rec.Seq)
		}
	}

	if sent > 0 {
		result.LossRate = float64(sent-result.UniqueReceived) / float64(sent)
	}
	if sendElapsed > 0 {
		result.ActualSendRate = float64(sent) / sendElapsed.Seconds()
	}
	if elapsed > 0 {
		result.EffectiveThroughput = float64(result.UniqueReceived) / elapsed.Seconds()
	}
	result.Latency = summarizeLatencies(latencies)
	return result
}

func summarizeLatencies(latencies []time.Duration) LatencyStats {
	n := len(latencies)
	if n == 0 {
		return LatencyStats{}
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })

	var sum time.Duration
	for _, l := range latencies {
		sum += l
	}

	stats := LatencyStats{
		Min:     latencies[0],
		Max:     latencies[n-1],
		Avg:     sum / time.Duration(n),
		P50:     percentile(latencies, 0.50),
		P95:     percentile(latencies, 0.95),
		Samples: n,
	}
	// With fewer than 100 samples the p99 index collapses onto smaller
	// percentiles; report the maximum instead.
	if n >= 100 {
		stats.P99 = percentile(latencies, 0.99)
	} else {
		stats.P99 = stats.Max
	}
	return stats
}

// percentile returns sorted[floor(q*n)], biased toward the lower neighbor for
// small sample counts.
func percentile(sorted []time.Duration, q float64) time.Duration {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	idx := int(float64(n) * q)
	if idx >= n {
		idx = n - 1
	}
	return sorted[idx]
}
