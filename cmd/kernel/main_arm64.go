package main

import (
	"github.com/stan-kondrat/yasouos/kernel/bus/virtiommio"
	"github.com/stan-kondrat/yasouos/kernel/device"
	"github.com/stan-kondrat/yasouos/kernel/fdt"
	"github.com/stan-kondrat/yasouos/kernel/platform"
	"github.com/stan-kondrat/yasouos/kernel/platform/arm64"
)

// fdtAddr is the physical address of the flattened device tree the VMM
// leaves in x0 and the boot stub leaves here before the Go entry point
// runs; 0 means none was supplied. As with multibootInfo on amd64,
// capturing that register is the boot stub's job (spec.md §1).
var fdtAddr uint64

// virtioMMIO is QEMU virt's VirtIO-MMIO transport window: up to 32 slots
// of 0x200 bytes starting at 0x0a000000, per
// original_source/drivers/devicetree/devicetree_arm64.c.
var virtioMMIO = virtiommio.Config{Base: 0x0a000000, Stride: 0x200, Count: 32}

func newPort() platform.Port {
	return arm64.New(fdtAddr)
}

// enumerate implements spec.md §4.4's memory-mapped VirtIO scan, plus a
// supplementary device-tree walk for any other node carrying both `reg`
// and `compatible` (e.g. the PL011 UART node), wiring kernel/fdt's
// Enumerate into the composition root alongside its already-used
// Bootargs.
func enumerate(port platform.Port, reg *device.Registry) {
	virtiommio.Enumerate(port, virtioMMIO, reg)

	if fdtAddr == 0 {
		return
	}

	fdt.Enumerate(fdtAddr, func(d fdt.Device) {
		reg.Add(device.Device{
			Name:       "fdt",
			Compatible: d.Compatible,
			RegBase:    d.RegAddr,
			RegSize:    d.RegSize,
		})
	})
}
