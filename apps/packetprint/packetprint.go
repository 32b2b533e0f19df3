// Package packetprint implements `app=packet-print`: acquires one
// network device, prints every received frame, replies to ARP
// requests for its fixed address, and answers one UDP "ping-<N>" probe
// with "pong-<N+1>" before returning.
//
// Grounded on original_source/apps/packet-print/packet_print.c,
// including its fixed IP/port constants.
package packetprint

import (
	"strconv"

	"github.com/stan-kondrat/yasouos/apps/netdev"
	"github.com/stan-kondrat/yasouos/kernel"
	netpkg "github.com/stan-kondrat/yasouos/kernel/net"
)

const (
	ipAddr  = 0x0A00020F // 10.0.2.15
	udpPort = 5000

	bufferSize = 2048
)

// Run acquires a device and serves until one "ping-" probe has been
// answered.
func Run(k *kernel.State) {
	devices := netdev.AcquireAll(k.Resources, k.Registry, k.Port, 1)
	if len(devices) < 1 {
		k.Port.Puts("No network devices found\n")
		return
	}
	d := devices[0]
	tag := d.Tag()

	k.Port.Puts(tag + " Initializing network device...\n")
	mac := netpkg.MAC(d.Device.MAC())
	k.Port.Puts(tag + " MAC: " + mac.String() + "\n")
	k.Port.Puts(tag + " Listening for UDP packets on port " + strconv.Itoa(udpPort) + "...\n")

	var buf [bufferSize]byte

	for {
		n, err := d.Device.Receive(buf[:])
		if err != nil || n == 0 {
			continue
		}
		frame := buf[:n]

		netpkg.PrintEthernet(frame, func(s string) { k.Port.Puts(s + "\n") })

		eth, ok := netpkg.DecodeEthernet(frame)
		if !ok {
			continue
		}

		switch eth.Type {
		case netpkg.EtherTypeARP:
			handleARP(k, d, tag, mac, frame)

		case netpkg.EtherTypeIPv4:
			if handleIPv4(k, d, tag, mac, frame) {
				return
			}
		}
	}
}

func handleARP(k *kernel.State, d netdev.Entry, tag string, mac netpkg.MAC, frame []byte) {
	arp, ok := netpkg.DecodeARP(frame)
	if !ok || arp.Operation != netpkg.ARPRequest || arp.TargetIP != ipAddr {
		return
	}

	var reply [netpkg.ARPPacketLen]byte
	netpkg.BuildARPReply(reply[:], mac, ipAddr, arp.SenderMAC, arp.SenderIP)

	if d.Device.Transmit(reply[:]) == nil {
		k.Port.Puts(tag + " Sent ARP reply\n")
	}
}

// handleIPv4 reports whether the "ping-"/"pong-" exchange completed,
// signalling Run to stop serving.
func handleIPv4(k *kernel.State, d netdev.Entry, tag string, mac netpkg.MAC, frame []byte) bool {
	minLen := netpkg.EthernetHeaderLen + netpkg.IPv4HeaderLen + netpkg.UDPHeaderLen
	if len(frame) < minLen {
		return false
	}

	packet := frame[netpkg.EthernetHeaderLen:]
	ip, ok := netpkg.DecodeIPv4(packet)
	if !ok || ip.Protocol != netpkg.ProtoUDP || ip.DstIP != ipAddr {
		return false
	}

	datagram := packet[ip.IHL:]
	udp, ok := netpkg.DecodeUDP(datagram)
	if !ok || udp.DstPort != udpPort {
		return false
	}

	payload := datagram[netpkg.UDPHeaderLen:]
	payloadLen := int(udp.Length) - netpkg.UDPHeaderLen
	if payloadLen < 0 || payloadLen > len(payload) {
		return false
	}
	payload = payload[:payloadLen]

	display := payload
	if len(display) > 64 {
		display = display[:64]
	}
	k.Port.Puts(tag + " Received UDP payload: " + printable(display) + "\n")

	if len(payload) < 6 || string(payload[:5]) != "ping-" {
		return false
	}

	num := 0
	for i := 5; i < len(payload) && payload[i] >= '0' && payload[i] <= '9'; i++ {
		num = num*10 + int(payload[i]-'0')
	}
	response := "pong-" + strconv.Itoa(num+1)

	eth, _ := netpkg.DecodeEthernet(frame)

	var reply [netpkg.EthernetHeaderLen + netpkg.IPv4HeaderLen + netpkg.UDPHeaderLen + 32]byte
	netpkg.EncodeEthernet(reply[:], eth.Src, mac, netpkg.EtherTypeIPv4)
	netpkg.BuildIPv4Header(reply[netpkg.EthernetHeaderLen:], ip.DstIP, ip.SrcIP, netpkg.ProtoUDP, uint16(netpkg.UDPHeaderLen+len(response)), 64)
	netpkg.BuildUDPHeader(reply[netpkg.EthernetHeaderLen+netpkg.IPv4HeaderLen:], udp.DstPort, udp.SrcPort, uint16(len(response)))
	copy(reply[netpkg.EthernetHeaderLen+netpkg.IPv4HeaderLen+netpkg.UDPHeaderLen:], response)

	total := netpkg.EthernetHeaderLen + netpkg.IPv4HeaderLen + netpkg.UDPHeaderLen + len(response)

	if d.Device.Transmit(reply[:total]) == nil {
		k.Port.Puts(tag + " Sent UDP echo reply\n")
		return true
	}
	return false
}

func printable(b []byte) string {
	out := make([]byte, len(b))
	for i, c := range b {
		if c >= 32 && c <= 126 {
			out[i] = c
		} else {
			out[i] = '.'
		}
	}
	return string(out)
}
