package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/NodePath81/udpbench/internal/engine"
	"github.com/NodePath81/udpbench/internal/metrics"
)

// Metadata describes the run that produced a JSON report.
type Metadata struct {
	Timestamp      string `json:"timestamp"`
	RunID          string `json:"run_id"`
	TestType       string `json:"test_type"`
	PacketsPerTest int    `json:"packets_per_test,omitempty"`
}

// ProbeDocument is the JSON shape for a capacity search report.
type ProbeDocument struct {
	Metadata Metadata            `json:"metadata"`
	Summary  ProbeSummary        `json:"summary"`
	Results  []metrics.RunResult `json:"test_results"`
}

// ProbeSummary condenses the search outcome.
type ProbeSummary struct {
	BestRate            int     `json:"best_rate_pps"`
	EffectiveThroughput float64 `json:"effective_throughput_pps"`
	Iterations          int     `json:"iterations"`
	SearchRange         [2]int  `json:"search_range"`
}

// RunDocument is the JSON shape for a single round report.
type RunDocument struct {
	Metadata Metadata          `json:"metadata"`
	Result   metrics.RunResult `json:"result"`
}

// SweepDocument is the JSON shape for a latency sweep report.
type SweepDocument struct {
	Metadata Metadata            `json:"metadata"`
	Results  []metrics.RunResult `json:"results"`
}

// NextPath finds the next unused report path in dir: base.json, base1.json,
// base2.json and so on.
func NextPath(dir, base string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, base+".json")
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return path, nil
	}
	for counter := 1; ; counter++ {
		path = filepath.Join(dir, fmt.Sprintf("%s%d.json", base, counter))
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		}
	}
}

// WriteProbeJSON writes a capacity search report into dir and returns the
// path used.
func WriteProbeJSON(dir string, p engine.ProbeResult, packetsPerTest int) (string, error) {
	doc := ProbeDocument{
		Metadata: Metadata{
			Timestamp:      time.Now().Format(time.RFC3339),
			RunID:          p.RunID,
			TestType:       "binary_search_throughput",
			PacketsPerTest: packetsPerTest,
		},
		Summary: ProbeSummary{
			BestRate:            p.BestRate,
			EffectiveThroughput: p.BestThroughput,
			Iterations:          len(p.Iterations),
			SearchRange:         [2]int{p.SearchLow, p.SearchHigh},
		},
		Results: p.Iterations,
	}
	return writeJSON(dir, "throughput", doc)
}

// WriteRunJSON writes a single-round report into dir.
func WriteRunJSON(dir, runID string, r metrics.RunResult) (string, error) {
	doc := RunDocument{
		Metadata: Metadata{
			Timestamp:      time.Now().Format(time.RFC3339),
			RunID:          runID,
			TestType:       "fixed_rate",
			PacketsPerTest: r.Sent,
		},
		Result: r,
	}
	return writeJSON(dir, "run", doc)
}

// WriteSweepJSON writes a latency sweep report into dir.
func WriteSweepJSON(dir string, s engine.SweepResult) (string, error) {
	doc := SweepDocument{
		Metadata: Metadata{
			Timestamp: time.Now().Format(time.RFC3339),
			RunID:     s.RunID,
			TestType:  "latency_sweep",
		},
		Results: s.Results,
	}
	return writeJSON(dir, "latency", doc)
}

func writeJSON(dir, base string, doc any) (string, error) {
	path, err := NextPath(dir, base)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}
