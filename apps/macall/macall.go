// Package macall implements `app=mac-all`: acquires every available
// network device (RTL8139, then VirtIO-net, then E1000, in that
// priority order) and prints each one's MAC address in turn.
//
// Grounded on original_source/apps/netdev-mac/mac_all.c, whose
// MAX_DEVICES=12 cap is carried as-is.
package macall

import (
	"github.com/stan-kondrat/yasouos/apps/netdev"
	"github.com/stan-kondrat/yasouos/kernel"
	netpkg "github.com/stan-kondrat/yasouos/kernel/net"
)

const maxDevices = 12

// Run acquires and dumps the MAC address of every available network
// device.
func Run(k *kernel.State) {
	devices := netdev.AcquireAll(k.Resources, k.Registry, k.Port, maxDevices)

	for _, d := range devices {
		tag := d.Tag()
		k.Port.Puts(tag + " Initializing...\n")
		k.Port.Puts(tag + " MAC: " + netpkg.MAC(d.Device.MAC()).String() + "\n")
	}
}
