package network

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/NodePath81/udpbench/internal/protocol"
)

// newSendPair returns an unconnected client socket and the address of a sink
// socket on loopback. The sender needs an unconnected socket for WriteToUDP.
func newSendPair(t *testing.T) (*net.UDPConn, *net.UDPAddr) {
	t.Helper()
	sink, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { sink.Close() })
	client, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client, sink.LocalAddr().(*net.UDPAddr)
}

func TestSenderRecordsBeforeSend(t *testing.T) {
	client, dest := newSendPair(t)

	codec := protocol.NewCodec(protocol.ModeLabel, "throughput")
	table := NewTable(0)
	sender := NewSender(client, dest, codec, table, 0, 50)

	out, err := sender.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Sent != 50 {
		t.Fatalf("expected 50 sent, got %d", out.Sent)
	}
	if table.Len() != 50 {
		t.Fatalf("expected 50 records, got %d", table.Len())
	}
	records := table.Records()
	for i, rec := range records {
		if rec.Seq != uint64(i) {
			t.Fatalf("expected seq %d, got %d", i, rec.Seq)
		}
		if rec.Matched {
			t.Fatalf("sender must not mark records matched")
		}
	}
}

func TestSenderPacedRate(t *testing.T) {
	client, dest := newSendPair(t)

	codec := protocol.NewCodec(protocol.ModeBinary, "")
	table := NewTable(0)
	sender := NewSender(client, dest, codec, table, 1000, 100)

	out, err := sender.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 100 packets at 1000 pps occupy at least 99 intervals.
	if out.Elapsed < 99*time.Millisecond {
		t.Fatalf("send finished too fast for the configured rate: %v", out.Elapsed)
	}
}

func TestSenderCancel(t *testing.T) {
	client, dest := newSendPair(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	codec := protocol.NewCodec(protocol.ModeBinary, "")
	table := NewTable(0)
	sender := NewSender(client, dest, codec, table, 10, 1000)

	out, err := sender.Run(ctx)
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if out.Sent != 0 {
		t.Fatalf("expected 0 sent after immediate cancel, got %d", out.Sent)
	}
}

func TestSenderTableFull(t *testing.T) {
	client, dest := newSendPair(t)

	codec := protocol.NewCodec(protocol.ModeBinary, "")
	table := NewTable(10)
	sender := NewSender(client, dest, codec, table, 0, 20)

	out, err := sender.Run(context.Background())
	if err != ErrTableFull {
		t.Fatalf("expected ErrTableFull, got %v", err)
	}
	if out.Sent != 10 {
		t.Fatalf("expected 10 sent before the table filled, got %d", out.Sent)
	}
}
