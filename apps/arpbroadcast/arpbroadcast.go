// Package arpbroadcast implements `app=arp-broadcast`: acquires at
// least three network devices, broadcasts one ARP request from the
// first, then polls each remaining device once for the reply.
//
// Grounded on original_source/apps/arp-broadcast/arp_broadcast.c,
// including its fixed sender/target IPs and its MAX_DEVICES=3 floor.
package arpbroadcast

import (
	"strconv"

	"github.com/stan-kondrat/yasouos/apps/netdev"
	"github.com/stan-kondrat/yasouos/kernel"
	netpkg "github.com/stan-kondrat/yasouos/kernel/net"
)

const (
	maxDevices = 3
	senderIP   = 0x0A000201
	targetIP   = 0x0A00020F
)

// Run implements the ARP-broadcast demo described above.
func Run(k *kernel.State) {
	devices := netdev.AcquireAll(k.Resources, k.Registry, k.Port, maxDevices)

	if len(devices) < 3 {
		k.Port.Puts("Error: Need at least 3 network devices for ARP broadcast test\n")
		return
	}

	macs := make([]netpkg.MAC, len(devices))
	for i, d := range devices {
		tag := d.Tag()
		k.Port.Puts(tag + " Initializing...\n")

		macs[i] = netpkg.MAC(d.Device.MAC())

		k.Port.Puts(tag + " MAC: " + macs[i].String() + "\n\n")
	}

	var packet [netpkg.ARPPacketLen]byte
	netpkg.BuildARPRequest(packet[:], macs[0], senderIP, targetIP)

	tag0 := devices[0].Tag()
	k.Port.Puts(tag0 + " TX: Building ARP broadcast\n")
	netpkg.PrintARP(packet[:], func(s string) { k.Port.Puts(s + "\n") })

	k.Port.Puts(tag0 + " TX: Length=" + strconv.Itoa(len(packet)) + " bytes\n")

	if err := devices[0].Device.Transmit(packet[:]); err != nil {
		k.Port.Puts(tag0 + " TX: Failed to send packet\n\n")
		return
	}
	k.Port.Puts(tag0 + " TX: Packet sent successfully\n\n")

	for i := 1; i < len(devices); i++ {
		tag := devices[i].Tag()
		k.Port.Puts(tag + " RX: Waiting for packet...\n")

		var buf [64]byte
		n, err := devices[i].Device.Receive(buf[:])

		if err == nil {
			k.Port.Puts(tag + " RX: Packet received (" + strconv.Itoa(n) + " bytes)\n")
			netpkg.PrintARP(buf[:n], func(s string) { k.Port.Puts(s + "\n") })
		} else {
			k.Port.Puts(tag + " RX: No packet received\n")
		}

		k.Port.Puts("\n")
	}
}
