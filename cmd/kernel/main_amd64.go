package main

import (
	"github.com/stan-kondrat/yasouos/kernel/bus/pci"
	"github.com/stan-kondrat/yasouos/kernel/device"
	"github.com/stan-kondrat/yasouos/kernel/platform"
	"github.com/stan-kondrat/yasouos/kernel/platform/amd64"
)

// multibootInfo is the physical address of the Multiboot2 info structure
// the boot stub captures from EBX and leaves here before the Go entry
// point runs; 0 means none was supplied. Capturing that register ahead of
// runtime initialization is the boot stub's job, an external collaborator
// to this kernel (spec.md §1) — this variable is its handoff point.
var multibootInfo uint32

// mmioWindowBase/mmioWindowSize bound the MMIO window this kernel assigns
// unassigned PCI BARs from (spec.md §4.4 step 4); ecamBase is the address
// this CISC profile's VMM maps the PCI ECAM window at, if present.
const (
	mmioWindowBase = 0xe0000000
	mmioWindowSize = 0x10000000
	ecamBase       = 0xb0000000
)

func newPort() platform.Port {
	return amd64.New(multibootInfo)
}

// enumerate implements spec.md §4.4's PCI scan: ECAM if the VMM maps one,
// the legacy CONFIG_ADDRESS/CONFIG_DATA port pair otherwise.
func enumerate(port platform.Port, reg *device.Registry) {
	p := port.(*amd64.Port)

	var bus *pci.Enumerator
	if pci.Probe(p, ecamBase) {
		bus = pci.NewECAM(p, ecamBase, mmioWindowBase, mmioWindowSize)
	} else {
		bus = pci.NewLegacy(p, mmioWindowBase, mmioWindowSize)
	}

	bus.Enumerate(reg)
}
