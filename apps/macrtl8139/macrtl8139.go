// Package macrtl8139 implements `app=mac-rtl8139`: acquires the next
// available Realtek RTL8139 device and prints its MAC address.
//
// Grounded on original_source/kernel/init_apps.c's "mac-rtl8139"
// branch, including its MAX_NET_DEVICES=4 static context pool.
package macrtl8139

import (
	"github.com/stan-kondrat/yasouos/kernel"
	netpkg "github.com/stan-kondrat/yasouos/kernel/net"
	"github.com/stan-kondrat/yasouos/kernel/net/rtl8139"
	"github.com/stan-kondrat/yasouos/kernel/resource"
)

// MaxDevices bounds the static context pool, mirroring
// original_source/kernel/init_apps.c's MAX_NET_DEVICES.
const MaxDevices = 4

var (
	contexts [MaxDevices]rtl8139.Context
	count    int
)

// Run acquires the next device, if any, and prints its tag and MAC.
func Run(k *kernel.State) {
	if count >= MaxDevices {
		k.Port.Puts("rtl8139: Maximum number of devices reached\n")
		return
	}

	ctx := &contexts[count]
	ctx.Port = k.Port

	h, err := k.Resources.Acquire(k.Registry, rtl8139.GetDriver(), ctx)
	if err != nil {
		k.Port.Puts("rtl8139: No available device\n")
		return
	}
	count++

	tag := resource.Tag(h.Device(), "rtl8139", "1")
	k.Port.Puts(tag + " Initializing...\n")
	k.Port.Puts(tag + " MAC: " + netpkg.MAC(ctx.NIC.MAC()).String() + "\n")
}
