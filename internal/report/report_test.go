package report

import (
	"strings"
	"testing"
	"time"

	"github.com/NodePath81/udpbench/internal/engine"
	"github.com/NodePath81/udpbench/internal/metrics"
)

func TestWriteRunText(t *testing.T) {
	r := metrics.RunResult{
		Rate:                8000,
		ActualSendRate:      7990.2,
		Sent:                1000,
		Received:            995,
		UniqueReceived:      993,
		Duplicates:          2,
		MissingSequences:    []uint64{3, 77, 500, 501, 502, 503, 900},
		LossRate:            0.007,
		EffectiveThroughput: 7800.1,
		Latency: metrics.LatencyStats{
			Min: time.Millisecond, Max: 9 * time.Millisecond,
			Avg: 3 * time.Millisecond, P50: 2 * time.Millisecond,
			P95: 8 * time.Millisecond, P99: 9 * time.Millisecond,
			Samples: 993,
		},
		Elapsed: 4 * time.Second,
	}

	var sb strings.Builder
	WriteRun(&sb, r)
	out := sb.String()

	if !strings.Contains(out, "Unique sequences:     993/1000") {
		t.Fatalf("missing unique sequence line:\n%s", out)
	}
	if !strings.Contains(out, "Missing: [3 77 500 501 502 503 900]") {
		t.Fatalf("short missing list should be spelled out:\n%s", out)
	}
	if !strings.Contains(out, "Median:  2.000 ms (P50)") {
		t.Fatalf("missing median line:\n%s", out)
	}
}

func TestWriteRunLongMissingListElided(t *testing.T) {
	missing := make([]uint64, 50)
	for i := range missing {
		missing[i] = uint64(i)
	}
	r := metrics.RunResult{Sent: 100, UniqueReceived: 50, MissingSequences: missing}

	var sb strings.Builder
	WriteRun(&sb, r)
	out := sb.String()

	if !strings.Contains(out, "Missing sequences:    50") {
		t.Fatalf("missing count line:\n%s", out)
	}
	if strings.Contains(out, "Missing: [") {
		t.Fatalf("long missing list must not be spelled out:\n%s", out)
	}
}

func TestWriteProbeStatusColumn(t *testing.T) {
	p := engine.ProbeResult{
		RunID:      "abc",
		SearchLow:  1000,
		SearchHigh: 50000,
		BestRate:   7984,
		Iterations: []metrics.RunResult{
			{Rate: 25500, Sent: 1000, UniqueReceived: 500, LossRate: 0.5},
			{Rate: 7984, Sent: 1000, UniqueReceived: 1000},
			{Rate: 13249, Incomplete: true, Error: "send: host unreachable"},
		},
	}

	var sb strings.Builder
	WriteProbe(&sb, p)
	out := sb.String()

	if !strings.Contains(out, "GOOD") {
		t.Fatalf("expected a GOOD row:\n%s", out)
	}
	if !strings.Contains(out, "FAIL") {
		t.Fatalf("expected a FAIL row:\n%s", out)
	}
	if !strings.Contains(out, "ERROR") {
		t.Fatalf("expected an ERROR row:\n%s", out)
	}
	if !strings.Contains(out, "Maximum sustainable rate: 7984 pkt/s") {
		t.Fatalf("expected best rate line:\n%s", out)
	}
}

func TestWriteProbeNoSustainableRate(t *testing.T) {
	var sb strings.Builder
	WriteProbe(&sb, engine.ProbeResult{RunID: "abc", SearchLow: 1000, SearchHigh: 50000})
	if !strings.Contains(sb.String(), "No sustainable rate found") {
		t.Fatalf("expected no-rate message:\n%s", sb.String())
	}
}
