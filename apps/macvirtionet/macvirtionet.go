// Package macvirtionet implements `app=mac-virtio-net`: acquires the
// next available VirtIO-net device and prints its MAC address.
//
// Grounded on original_source/kernel/init_apps.c's "mac-virtio-net"
// branch, including its MAX_NET_DEVICES=4 static context pool.
package macvirtionet

import (
	"github.com/stan-kondrat/yasouos/kernel"
	netpkg "github.com/stan-kondrat/yasouos/kernel/net"
	"github.com/stan-kondrat/yasouos/kernel/resource"
	virtionet "github.com/stan-kondrat/yasouos/kernel/virtio/net"
)

// MaxDevices bounds the static context pool, mirroring
// original_source/kernel/init_apps.c's MAX_NET_DEVICES.
const MaxDevices = 4

var (
	contexts [MaxDevices]virtionet.Context
	count    int
)

// Run acquires the next device, if any, and prints its tag and MAC.
func Run(k *kernel.State) {
	if count >= MaxDevices {
		k.Port.Puts("virtio-net: Maximum number of devices reached\n")
		return
	}

	ctx := &contexts[count]
	ctx.Port = k.Port

	h, err := k.Resources.Acquire(k.Registry, virtionet.GetDriver(), ctx)
	if err != nil {
		k.Port.Puts("virtio-net: No available device\n")
		return
	}
	count++

	tag := resource.Tag(h.Device(), "virtio-net", "1")
	k.Port.Puts(tag + " Initializing...\n")
	k.Port.Puts(tag + " MAC: " + netpkg.MAC(ctx.NIC.MAC()).String() + "\n")
}
