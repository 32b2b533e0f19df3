// Package httphello implements `app=http-hello`: a stateless TCP/HTTP
// responder on port 80 with a monotonic ISN counter, spec.md §6's
// "HTTP responder" wire behavior.
//
// Grounded on original_source/apps/http-hello/http_hello.c.
package httphello

import (
	"strconv"

	"github.com/stan-kondrat/yasouos/apps/netdev"
	"github.com/stan-kondrat/yasouos/kernel"
	netpkg "github.com/stan-kondrat/yasouos/kernel/net"
)

const (
	port       = 80
	bufferSize = 2048
	maxBody    = 192
)

// isnCounter is the monotonic initial-sequence-number source, spec.md
// §6: "stateless TCP with a monotonic ISN counter starting at 1000."
var isnCounter uint32 = 1000

// Run acquires one network device and serves HTTP forever.
func Run(k *kernel.State) {
	devices := netdev.AcquireAll(k.Resources, k.Registry, k.Port, 1)
	if len(devices) < 1 {
		k.Port.Puts("No network devices found\n")
		return
	}
	d := devices[0]
	mac := netpkg.MAC(d.Device.MAC())

	k.Port.Puts("MAC: " + mac.String() + "\n")
	k.Port.Puts("Listening on port " + strconv.Itoa(port) + "...\n")

	var buf [bufferSize]byte

	for {
		n, err := d.Device.Receive(buf[:])
		if err != nil || n == 0 {
			continue
		}
		frame := buf[:n]
		if len(frame) < netpkg.EthernetHeaderLen {
			continue
		}

		eth, ok := netpkg.DecodeEthernet(frame)
		if !ok {
			continue
		}

		if eth.Type == netpkg.EtherTypeARP {
			handleARP(d, mac, frame)
			continue
		}

		if eth.Type != netpkg.EtherTypeIPv4 {
			continue
		}

		if len(frame) < netpkg.EthernetHeaderLen+netpkg.IPv4HeaderLen+netpkg.TCPHeaderLen {
			continue
		}

		packet := frame[netpkg.EthernetHeaderLen:]
		ip, ok := netpkg.DecodeIPv4(packet)
		if !ok || ip.Protocol != netpkg.ProtoTCP {
			continue
		}

		segment := packet[ip.IHL:]
		tcp, ok := netpkg.DecodeTCP(segment)
		if !ok || tcp.DstPort != port {
			continue
		}

		payloadLen := int(ip.TotalLength) - int(ip.IHL) - int(tcp.DataOffset)
		if payloadLen < 0 || int(tcp.DataOffset)+payloadLen > len(segment) {
			continue
		}

		// SYN -> reply SYN+ACK with a fresh ISN.
		if tcp.Flags&netpkg.TCPFlagSYN != 0 {
			ourISN := isnCounter
			isnCounter++
			sendTCP(d, mac, eth.Src, ip.DstIP, ip.SrcIP, tcp.DstPort, tcp.SrcPort,
				ourISN, tcp.Seq+1, netpkg.TCPFlagSYN|netpkg.TCPFlagACK, 65535, nil)
		}

		// Data arrived -> reply with the HTTP response (keep-alive, no
		// FIN). our seq is their_ack: the client already told us what
		// it expects.
		if payloadLen > 0 {
			body := buildHTTPResponse(ip.SrcIP)
			sendTCP(d, mac, eth.Src, ip.DstIP, ip.SrcIP, tcp.DstPort, tcp.SrcPort,
				tcp.Ack, tcp.Seq+uint32(payloadLen), netpkg.TCPFlagPSH|netpkg.TCPFlagACK, 65535, body)
		}

		// FIN without SYN -> bare ACK.
		if tcp.Flags&netpkg.TCPFlagFIN != 0 && tcp.Flags&netpkg.TCPFlagSYN == 0 {
			sendTCP(d, mac, eth.Src, ip.DstIP, ip.SrcIP, tcp.DstPort, tcp.SrcPort,
				tcp.Ack, tcp.Seq+1, netpkg.TCPFlagACK, 65535, nil)
		}
	}
}

// handleARP answers a request for any IP by reflecting target_ip back
// as the reply's sender_ip, spec.md §6.
func handleARP(d netdev.Entry, mac netpkg.MAC, frame []byte) {
	arp, ok := netpkg.DecodeARP(frame)
	if !ok || arp.Operation != netpkg.ARPRequest {
		return
	}

	var reply [netpkg.ARPPacketLen]byte
	netpkg.BuildARPReply(reply[:], mac, arp.TargetIP, arp.SenderMAC, arp.SenderIP)
	d.Device.Transmit(reply[:])
}

func sendTCP(d netdev.Entry, ourMAC, theirMAC netpkg.MAC, srcIP, dstIP uint32, srcPort, dstPort uint16, seq, ack uint32, flags uint8, window uint16, payload []byte) {
	var buf [netpkg.EthernetHeaderLen + netpkg.IPv4HeaderLen + netpkg.TCPHeaderLen + maxBody]byte

	netpkg.EncodeEthernet(buf[:], theirMAC, ourMAC, netpkg.EtherTypeIPv4)
	netpkg.BuildIPv4Header(buf[netpkg.EthernetHeaderLen:], srcIP, dstIP, netpkg.ProtoTCP, uint16(netpkg.TCPHeaderLen+len(payload)), 64)

	segStart := netpkg.EthernetHeaderLen + netpkg.IPv4HeaderLen
	segEnd := segStart + netpkg.TCPHeaderLen + len(payload)
	copy(buf[segStart+netpkg.TCPHeaderLen:segEnd], payload)
	netpkg.BuildTCPHeader(buf[segStart:segEnd], srcPort, dstPort, seq, ack, flags, window, srcIP, dstIP)

	d.Device.Transmit(buf[:segEnd])
}

// buildHTTPResponse renders the fixed "Hello, <dotted-ip>" response
// body with its Content-Length computed up front, spec.md §6.
func buildHTTPResponse(clientIP uint32) []byte {
	body := "Hello, " + netpkg.FormatIP(clientIP) + "\n"
	header := "HTTP/1.1 200 OK\r\nConnection: keep-alive\r\nContent-Type: text/plain\r\nContent-Length: " + strconv.Itoa(len(body)) + "\r\n\r\n"
	return []byte(header + body)
}
