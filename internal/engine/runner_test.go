package engine

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/NodePath81/udpbench/internal/echo"
	"github.com/NodePath81/udpbench/internal/protocol"
	"github.com/NodePath81/udpbench/internal/util"
)

func startEcho(t *testing.T) int {
	t.Helper()
	server := echo.NewServer("127.0.0.1:0", util.NewLogger(false))
	if err := server.Start(); err != nil {
		t.Fatalf("echo start: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go server.Run(ctx)
	return server.Addr().(*net.UDPAddr).Port
}

func TestRunAgainstLoopbackEcho(t *testing.T) {
	port := startEcho(t)

	cfg := Config{
		Target:      "127.0.0.1",
		Port:        port,
		Rate:        2000,
		Count:       200,
		Mode:        protocol.ModeBinary,
		Drain:       time.Second,
		ReadTimeout: 50 * time.Millisecond,
	}

	result, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Incomplete {
		t.Fatalf("round marked incomplete: %s", result.Error)
	}
	if result.Sent != 200 {
		t.Fatalf("expected 200 sent, got %d", result.Sent)
	}
	if result.UniqueReceived != 200 {
		t.Fatalf("expected 200 unique on loopback, got %d (missing %v)", result.UniqueReceived, result.MissingSequences)
	}
	if result.LossRate != 0 {
		t.Fatalf("expected zero loss on loopback, got %v", result.LossRate)
	}
	if result.Latency.Samples != 200 {
		t.Fatalf("expected 200 latency samples, got %d", result.Latency.Samples)
	}
	if result.Latency.Min <= 0 {
		t.Fatalf("expected positive min latency, got %v", result.Latency.Min)
	}
	if result.EffectiveThroughput <= 0 {
		t.Fatalf("expected positive effective throughput")
	}
}

func TestRunLabelMode(t *testing.T) {
	port := startEcho(t)

	cfg := Config{
		Target:      "127.0.0.1",
		Port:        port,
		Rate:        0,
		Count:       50,
		Mode:        protocol.ModeLabel,
		Label:       "throughput",
		Drain:       time.Second,
		ReadTimeout: 50 * time.Millisecond,
	}

	result, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.UniqueReceived != 50 {
		t.Fatalf("expected 50 unique, got %d", result.UniqueReceived)
	}
	if result.PayloadErrors != 0 {
		t.Fatalf("expected 0 payload errors, got %d", result.PayloadErrors)
	}
}

func TestRunSilentEndpoint(t *testing.T) {
	// A bound but never-reading socket swallows the packets.
	sink, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer sink.Close()

	cfg := Config{
		Target:      "127.0.0.1",
		Port:        sink.LocalAddr().(*net.UDPAddr).Port,
		Rate:        0,
		Count:       20,
		Mode:        protocol.ModeBinary,
		Drain:       200 * time.Millisecond,
		ReadTimeout: 50 * time.Millisecond,
	}

	result, err := Run(context.Background(), cfg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Sent != 20 {
		t.Fatalf("expected 20 sent, got %d", result.Sent)
	}
	if result.UniqueReceived != 0 {
		t.Fatalf("expected 0 unique, got %d", result.UniqueReceived)
	}
	if result.LossRate != 1.0 {
		t.Fatalf("expected full loss, got %v", result.LossRate)
	}
	if len(result.MissingSequences) != 20 {
		t.Fatalf("expected 20 missing sequences, got %d", len(result.MissingSequences))
	}
}

func TestRunValidation(t *testing.T) {
	if _, err := Run(context.Background(), Config{Port: 9801}); err == nil {
		t.Fatalf("expected error for missing target")
	}
	if _, err := Run(context.Background(), Config{Target: "127.0.0.1"}); err == nil {
		t.Fatalf("expected error for missing port")
	}
	if _, err := Run(context.Background(), Config{Target: "127.0.0.1", Port: 9801, Count: 100, MaxTracked: 10}); err == nil {
		t.Fatalf("expected error when count exceeds tracking capacity")
	}
}

func TestRunCancelReturnsPartial(t *testing.T) {
	port := startEcho(t)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	cfg := Config{
		Target:      "127.0.0.1",
		Port:        port,
		Rate:        10, // slow enough that cancellation lands mid-send
		Count:       1000,
		Mode:        protocol.ModeBinary,
		Drain:       time.Second,
		ReadTimeout: 50 * time.Millisecond,
	}

	result, err := Run(ctx, cfg)
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !result.Incomplete {
		t.Fatalf("expected incomplete result")
	}
	if result.Sent >= 1000 {
		t.Fatalf("expected partial send, got %d", result.Sent)
	}
}
