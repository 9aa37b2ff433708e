package engine

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/NodePath81/udpbench/internal/metrics"
	"github.com/NodePath81/udpbench/internal/network"
	"github.com/NodePath81/udpbench/internal/protocol"
	"github.com/NodePath81/udpbench/internal/util"
)

// Run executes one measurement round: a paced send phase and a concurrent
// receive phase over the same socket, followed by aggregation. The returned
// RunResult is valid even when err is non-nil (cancellation or a mid-round
// socket failure); Incomplete is set in that case and whatever samples were
// matched are summarized rather than discarded.
func Run(ctx context.Context, cfg Config) (metrics.RunResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg = cfg.withDefaults()
	if err := cfg.validate(); err != nil {
		return metrics.RunResult{}, err
	}

	dest, err := net.ResolveUDPAddr("udp", util.NetJoin(cfg.Target, cfg.Port))
	if err != nil {
		return metrics.RunResult{}, &network.NetworkError{Op: "resolve", Err: err}
	}
	bind := cfg.Bind
	if bind == "" {
		bind = ":0"
	}
	laddr, err := net.ResolveUDPAddr("udp", bind)
	if err != nil {
		return metrics.RunResult{}, &network.NetworkError{Op: "resolve", Err: err}
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return metrics.RunResult{}, &network.NetworkError{Op: "bind", Err: err}
	}
	defer conn.Close()
	_, _ = network.SetRecvBuffer(conn, cfg.RecvBuffer)

	codec := protocol.NewCodec(cfg.Mode, cfg.Label)
	table := network.NewTable(cfg.MaxTracked)
	start := time.Now()
	deadline := start.Add(cfg.maxDuration())

	sender := network.NewSender(conn, dest, codec, table, cfg.Rate, cfg.Count)
	correlator := network.NewCorrelator(conn, codec, table, cfg.ReadTimeout, cfg.Drain, deadline)

	// The sender publishes its final count here so the correlator can stop
	// as soon as every reply is accounted for.
	var sentCount atomic.Int64
	sentCount.Store(int64(cfg.Count))
	sendDone := make(chan struct{})

	type recvOut struct {
		counters network.RecvCounters
		err      error
	}
	recvCh := make(chan recvOut, 1)
	go func() {
		counters, err := correlator.Run(ctx, sendDone, func() int {
			return int(sentCount.Load())
		})
		recvCh <- recvOut{counters: counters, err: err}
	}()

	outcome, sendErr := sender.Run(ctx)
	sentCount.Store(int64(outcome.Sent))
	close(sendDone)

	recv := <-recvCh
	elapsed := time.Since(start)

	result := metrics.Summarize(table.Records(), recv.counters, cfg.Rate, outcome.Sent, outcome.Elapsed, elapsed)

	runErr := sendErr
	if runErr == nil {
		runErr = recv.err
	}
	if runErr != nil {
		result.Incomplete = true
		result.Error = runErr.Error()
	}
	return result, runErr
}
