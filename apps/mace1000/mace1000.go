// Package mace1000 implements `app=mac-e1000`: acquires the next
// available Intel 82540EM device and prints its MAC address.
//
// Grounded on original_source/kernel/init_apps.c's "mac-e1000" branch,
// including its MAX_NET_DEVICES=4 static context pool.
package mace1000

import (
	"github.com/stan-kondrat/yasouos/kernel"
	"github.com/stan-kondrat/yasouos/kernel/net/e1000"
	netpkg "github.com/stan-kondrat/yasouos/kernel/net"
	"github.com/stan-kondrat/yasouos/kernel/resource"
)

// MaxDevices bounds the static context pool, mirroring
// original_source/kernel/init_apps.c's MAX_NET_DEVICES.
const MaxDevices = 4

var (
	contexts [MaxDevices]e1000.Context
	count    int
)

// Run acquires the next device, if any, and prints its tag and MAC.
func Run(k *kernel.State) {
	if count >= MaxDevices {
		k.Port.Puts("e1000: Maximum number of devices reached\n")
		return
	}

	ctx := &contexts[count]
	ctx.Port = k.Port

	h, err := k.Resources.Acquire(k.Registry, e1000.GetDriver(), ctx)
	if err != nil {
		k.Port.Puts("e1000: No available device\n")
		return
	}
	count++

	tag := resource.Tag(h.Device(), "e1000", "1")
	k.Port.Puts(tag + " Initializing...\n")
	k.Port.Puts(tag + " MAC: " + netpkg.MAC(ctx.NIC.MAC()).String() + "\n")
}
