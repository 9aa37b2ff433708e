package probe

import (
	"fmt"
	"math/rand"
	"net"
	"time"

	"golang.org/x/net/icmp"
	"golang.org/x/net/ipv4"
	"golang.org/x/net/ipv6"
)

// CheckICMP sends one ICMP echo request to target and waits for the reply.
// Needs raw socket privileges. Useful for distinguishing an unreachable host
// from a reachable host whose echo service is down.
func CheckICMP(target string, timeout time.Duration) (time.Duration, error) {
	if timeout <= 0 {
		timeout = DefaultCheckTimeout
	}
	ips, err := net.LookupIP(target)
	if err != nil {
		return 0, err
	}
	if len(ips) == 0 {
		return 0, fmt.Errorf("no addresses for %q", target)
	}
	ip := ips[0]

	isV4 := ip.To4() != nil
	networkName := "ip4:icmp"
	proto := 1
	echoType := icmp.Type(ipv4.ICMPTypeEcho)
	replyType := icmp.Type(ipv4.ICMPTypeEchoReply)
	if !isV4 {
		networkName = "ip6:ipv6-icmp"
		proto = 58
		echoType = icmp.Type(ipv6.ICMPTypeEchoRequest)
		replyType = icmp.Type(ipv6.ICMPTypeEchoReply)
	}

	conn, err := icmp.ListenPacket(networkName, "")
	if err != nil {
		return 0, err
	}
	defer conn.Close()

	id := rand.Intn(0xffff)
	msg := icmp.Message{
		Type: echoType,
		Code: 0,
		Body: &icmp.Echo{
			ID:   id,
			Seq:  1,
			Data: []byte("udpbench"),
		},
	}
	payload, err := msg.Marshal(nil)
	if err != nil {
		return 0, err
	}

	dst := &net.IPAddr{IP: ip}
	start := time.Now()
	if _, err := conn.WriteTo(payload, dst); err != nil {
		return 0, err
	}
	if err := conn.SetReadDeadline(time.Now().Add(timeout)); err != nil {
		return 0, err
	}

	buf := make([]byte, 1500)
	for {
		n, peer, err := conn.ReadFrom(buf)
		if err != nil {
			return 0, err
		}
		if ipAddr, ok := peer.(*net.IPAddr); ok && ipAddr.IP != nil && !ipAddr.IP.Equal(ip) {
			continue
		}
		parsed, err := icmp.ParseMessage(proto, buf[:n])
		if err != nil {
			continue
		}
		if parsed.Type != replyType {
			continue
		}
		echoBody, ok := parsed.Body.(*icmp.Echo)
		if !ok || echoBody.ID != id {
			continue
		}
		return time.Since(start), nil
	}
}
