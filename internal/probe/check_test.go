package probe

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/NodePath81/udpbench/internal/echo"
	"github.com/NodePath81/udpbench/internal/util"
)

func TestCheckUDPAgainstEcho(t *testing.T) {
	server := echo.NewServer("127.0.0.1:0", util.NewLogger(false))
	if err := server.Start(); err != nil {
		t.Fatalf("echo start: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go server.Run(ctx)

	port := server.Addr().(*net.UDPAddr).Port
	rtt, err := CheckUDP("127.0.0.1", port, 2*time.Second)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rtt <= 0 {
		t.Fatalf("expected positive rtt, got %v", rtt)
	}
}

func TestCheckUDPTimeout(t *testing.T) {
	// Bound but never read: the check must time out, not hang.
	sink, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer sink.Close()

	_, err = CheckUDP("127.0.0.1", sink.LocalAddr().(*net.UDPAddr).Port, 200*time.Millisecond)
	if err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestCheckUDPPayloadMismatch(t *testing.T) {
	mangler, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer mangler.Close()
	go func() {
		buf := make([]byte, 1500)
		_, raddr, err := mangler.ReadFromUDP(buf)
		if err != nil {
			return
		}
		mangler.WriteToUDP([]byte("garbage"), raddr)
	}()

	_, err = CheckUDP("127.0.0.1", mangler.LocalAddr().(*net.UDPAddr).Port, 2*time.Second)
	if err == nil {
		t.Fatalf("expected payload mismatch error")
	}
}
