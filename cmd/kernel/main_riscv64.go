package main

import (
	"github.com/stan-kondrat/yasouos/kernel/bus/virtiommio"
	"github.com/stan-kondrat/yasouos/kernel/device"
	"github.com/stan-kondrat/yasouos/kernel/fdt"
	"github.com/stan-kondrat/yasouos/kernel/platform"
	"github.com/stan-kondrat/yasouos/kernel/platform/riscv64"
)

// fdtAddr is the physical address of the flattened device tree the
// supervisor boot protocol leaves in a1 and the boot stub leaves here
// before the Go entry point runs; 0 means none was supplied. As with
// fdtAddr on arm64, capturing that register is the boot stub's job
// (spec.md §1).
var fdtAddr uint64

// virtioMMIO is QEMU's riscv64 virt machine's VirtIO-MMIO transport
// window: 8 slots of 0x1000 bytes starting at 0x10001000. Not present in
// original_source (its device-tree scan only ever targeted arm64 and
// amd64); grounded on the same (base, stride, count) scan
// kernel/bus/virtiommio already implements for arm64, applied to this
// profile's actual QEMU virt layout.
var virtioMMIO = virtiommio.Config{Base: 0x10001000, Stride: 0x1000, Count: 8}

func newPort() platform.Port {
	return riscv64.New(fdtAddr)
}

// enumerate mirrors the arm64 profile: a fixed VirtIO-MMIO slot scan plus
// a supplementary device-tree walk for any other compatible+reg node.
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
