package httphello

import (
	"strconv"
	"strings"
	"testing"

	"github.com/stan-kondrat/yasouos/apps/netdev"
	netpkg "github.com/stan-kondrat/yasouos/kernel/net"
)

// captureDevice records every Transmit call, standing in for a real NIC.
type captureDevice struct {
	sent [][]byte
}

func (c *captureDevice) MAC() [6]byte { return [6]byte{0x52, 0x54, 0, 0, 0, 1} }
func (c *captureDevice) Transmit(payload []byte) error {
	cp := append([]byte(nil), payload...)
	c.sent = append(c.sent, cp)
	return nil
}
func (c *captureDevice) Receive([]byte) (int, error) { return 0, nil }

func TestBuildHTTPResponseHasMatchingContentLength(t *testing.T) {
	resp := buildHTTPResponse(0x0a000205)

	s := string(resp)
	if !strings.Contains(s, "Hello, 10.0.2.5\n") {
		t.Fatalf("missing greeting body: %q", s)
	}

	headerEnd := strings.Index(s, "\r\n\r\n")
	if headerEnd < 0 {
		t.Fatal("missing header/body separator")
	}
	body := s[headerEnd+4:]

	idx := strings.Index(s, "Content-Length: ")
	if idx < 0 {
		t.Fatal("missing Content-Length header")
	}
	rest := s[idx+len("Content-Length: "):]
	n, err := strconv.Atoi(rest[:strings.Index(rest, "\r\n")])
	if err != nil {
		t.Fatal(err)
	}
	if n != len(body) {
		t.Errorf("Content-Length=%d, actual body=%d bytes", n, len(body))
	}
}

func TestHandleARPRepliesOnlyToRequests(t *testing.T) {
	capt := &captureDevice{}
	entry := netdev.Entry{Device: capt}
	ourMAC := netpkg.MAC{0x52, 0x54, 0, 0, 0, 1}
	theirMAC := netpkg.MAC{0x52, 0x54, 0, 0, 0, 2}

	var req [netpkg.ARPPacketLen]byte
	netpkg.BuildARPRequest(req[:], theirMAC, 0x0a000201, 0x0a000205)

	handleARP(entry, ourMAC, req[:])
	if len(capt.sent) != 1 {
		t.Fatalf("got %d transmits, want 1 reply", len(capt.sent))
	}

	reply, ok := netpkg.DecodeARP(capt.sent[0])
	if !ok || reply.Operation != netpkg.ARPReply {
		t.Fatalf("got %+v ok=%v, want a reply", reply, ok)
	}
	if reply.SenderIP != 0x0a000205 || reply.TargetIP != 0x0a000201 {
		t.Errorf("got %+v", reply)
	}
}

func TestHandleARPIgnoresReplies(t *testing.T) {
	capt := &captureDevice{}
	entry := netdev.Entry{Device: capt}
	ourMAC := netpkg.MAC{0x52, 0x54, 0, 0, 0, 1}
	theirMAC := netpkg.MAC{0x52, 0x54, 0, 0, 0, 2}

	var reply [netpkg.ARPPacketLen]byte
	netpkg.BuildARPReply(reply[:], theirMAC, 0x0a000201, ourMAC, 0x0a000205)

	handleARP(entry, ourMAC, reply[:])
	if len(capt.sent) != 0 {
		t.Errorf("a reply frame should not itself be answered, got %d transmits", len(capt.sent))
	}
}

func TestSendTCPProducesDecodableSegment(t *testing.T) {
	capt := &captureDevice{}
	entry := netdev.Entry{Device: capt}
	ourMAC := netpkg.MAC{0x52, 0x54, 0, 0, 0, 1}
	theirMAC := netpkg.MAC{0x52, 0x54, 0, 0, 0, 2}
	payload := []byte("hi")

	sendTCP(entry, ourMAC, theirMAC, 0x0a000205, 0x0a000201, port, 4000, 1000, 1, netpkg.TCPFlagPSH|netpkg.TCPFlagACK, 65535, payload)

	if len(capt.sent) != 1 {
		t.Fatalf("got %d transmits, want 1", len(capt.sent))
	}
	frame := capt.sent[0]

	eth, ok := netpkg.DecodeEthernet(frame)
	if !ok || eth.Type != netpkg.EtherTypeIPv4 {
		t.Fatalf("bad ethernet header: %+v ok=%v", eth, ok)
	}

	ip, ok := netpkg.DecodeIPv4(frame[netpkg.EthernetHeaderLen:])
	if !ok {
		t.Fatal("bad IPv4 header")
	}
	tcp, ok := netpkg.DecodeTCP(frame[netpkg.EthernetHeaderLen+int(ip.IHL):])
	if !ok || tcp.SrcPort != port || tcp.DstPort != 4000 {
		t.Fatalf("bad TCP header: %+v ok=%v", tcp, ok)
	}
}
