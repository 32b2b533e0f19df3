// Package pci implements the PCI bus enumerator: configuration-space
// scan, BAR sizing and selection, and MMIO window allocation for
// unassigned BARs (spec.md §4.4).
//
// https://github.com/usbarmory/tamago (kvm/pci.go, deleted after
// grounding notes were recorded in DESIGN.md) for the
// CONFIG_ADDRESS/CONFIG_DATA legacy access pattern and BAR-sizing probe.
package pci

import "github.com/stan-kondrat/yasouos/kernel/device"

const (
	configAddressPort = 0xcf8
	configDataPort    = 0xcfc
	enableBit         = 1 << 31

	vendorOffset = 0x00
	deviceOffset = 0x02
	commandOffset = 0x04
	bar0Offset    = 0x10

	virtioVendorID = 0x1af4

	commandMemory    = 1 << 1
	commandBusMaster = 1 << 2
)

// configAccess abstracts the two ways to reach configuration space:
// legacy CONFIG_ADDRESS/CONFIG_DATA ports, or a memory-mapped ECAM
// window. Selected once at enumerator construction (spec.md §4.4:
// "prefer the memory-mapped ECAM window ... fall back to the legacy
// 0xCF8/0xCFC address/data port pair").
type configAccess interface {
	read32(bus, device, function uint8, offset uint8) uint32
}

// Enumerator walks PCI configuration space and emits device records.
type Enumerator struct {
	access configAccess

	// mmioAllocBase/mmioAllocSize bound the kernel-owned MMIO window
	// unassigned BARs are allocated from (spec.md §4.4 step 4).
	mmioAllocBase uint64
	mmioAllocSize uint64
	mmioCursor    uint64
}

// portAccess implements configAccess over the legacy I/O ports.
type portAccess struct {
	io PortIO
}

// PortIO is the subset of platform.PortIO the legacy access method
// needs; declared locally so this package does not import kernel/platform
// just for a type name.
type PortIO interface {
	InL(port uint16) uint32
	OutL(port uint16, val uint32)
}

func pciAddress(bus, dev, fn uint8, offset uint8) uint32 {
	return enableBit |
		uint32(bus)<<16 |
		uint32(dev)<<11 |
		uint32(fn)<<8 |
		uint32(offset&0xfc)
}

func (a portAccess) read32(bus, dev, fn uint8, offset uint8) uint32 {
	a.io.OutL(configAddressPort, pciAddress(bus, dev, fn, offset))
	return a.io.InL(configDataPort)
}

func (a portAccess) write32(bus, dev, fn uint8, offset uint8, val uint32) {
	a.io.OutL(configAddressPort, pciAddress(bus, dev, fn, offset))
	a.io.OutL(configDataPort, val)
}

// MMIOReader is the subset of platform.Port the ECAM access method
// needs.
type MMIOReader interface {
	MMIORead32(addr uint64) uint32
	MMIOWrite32(addr uint64, val uint32)
}

// ecamAccess implements configAccess over a memory-mapped ECAM window.
type ecamAccess struct {
	mmio MMIOReader
	base uint64
}

func (a ecamAccess) addr(bus, dev, fn uint8, offset uint8) uint64 {
	return a.base | uint64(bus)<<20 | uint64(dev)<<15 | uint64(fn)<<12 | uint64(offset)
}

func (a ecamAccess) read32(bus, dev, fn uint8, offset uint8) uint32 {
	return a.mmio.MMIORead32(a.addr(bus, dev, fn, offset))
}

func (a ecamAccess) write32(bus, dev, fn uint8, offset uint8, val uint32) {
	a.mmio.MMIOWrite32(a.addr(bus, dev, fn, offset), val)
}

// writer is implemented by both access methods so BAR-sizing (which
// must write candidate values) can use either without a type switch at
// every call site.
type writer interface {
	write32(bus, dev, fn uint8, offset uint8, val uint32)
}

// NewLegacy returns an Enumerator using the CONFIG_ADDRESS/CONFIG_DATA
// port pair (the amd64 profile's only access method per
// original_source/drivers/devicetree/devicetree_amd64.c).
func NewLegacy(io PortIO, mmioAllocBase, mmioAllocSize uint64) *Enumerator {
	return &Enumerator{access: portAccess{io: io}, mmioAllocBase: mmioAllocBase, mmioAllocSize: mmioAllocSize, mmioCursor: mmioAllocBase}
}

// NewECAM returns an Enumerator using a memory-mapped ECAM window,
// preferred when present (spec.md §4.4).
func NewECAM(mmio MMIOReader, ecamBase, mmioAllocBase, mmioAllocSize uint64) *Enumerator {
	return &Enumerator{access: ecamAccess{mmio: mmio, base: ecamBase}, mmioAllocBase: mmioAllocBase, mmioAllocSize: mmioAllocSize, mmioCursor: mmioAllocBase}
}

// Probe reports whether an ECAM window at base actually answers (a
// non-0xFFFF vendor at bus 0 device 0), used to decide between NewECAM
// and NewLegacy at composition-root time.
func Probe(mmio MMIOReader, ecamBase uint64) bool {
	a := ecamAccess{mmio: mmio, base: ecamBase}
	word := a.read32(0, 0, 0, vendorOffset&0xfc)
	return uint16(word>>(uint(vendorOffset&2)*8)) != 0xffff
}

// readU16 reads the 16-bit field at offset, going through a
// word-aligned 32-bit access and shifting out the half the caller
// wants — the same trick original_source/drivers/devicetree/devicetree_amd64.c's
// pci_config_read16 uses, needed because configuration space is only
// word-addressable at the access-method level.
func (e *Enumerator) readU16(bus, dev uint8, offset uint8) uint16 {
	word := e.access.read32(bus, dev, 0, offset&0xfc)
	shift := uint(offset&2) * 8
	return uint16(word >> shift)
}

// Enumerate implements spec.md §4.4's PCI scan: buses [0,2), devices
// [0,32), function 0 only. Matching devices are added to reg.
func (e *Enumerator) Enumerate(reg *device.Registry) int {
	count := 0

	for bus := uint8(0); bus < 2; bus++ {
		for dev := uint8(0); dev < 32; dev++ {
			vendor := e.readU16(bus, dev, vendorOffset)
			if vendor == 0x0000 || vendor == 0xffff {
				continue
			}

			deviceID := e.readU16(bus, dev, deviceOffset)

			bar, barSize := e.selectBAR(bus, dev, vendor)

			cmd := e.access.read32(bus, dev, 0, commandOffset)
			cmd |= commandMemory | commandBusMaster
			if w, ok := e.access.(writer); ok {
				w.write32(bus, dev, 0, commandOffset, cmd)
			}

			_, _ = reg.Add(device.Device{
				Name:     "pci",
				VendorID: vendor,
				DeviceID: deviceID,
				Bus:      bus,
				Slot:     dev,
				RegBase:  bar,
				RegSize:  uint64(barSize),
			})
			count++
		}
	}

	return count
}

// barInfo is one sized, classified BAR.
type barInfo struct {
	offset  uint8
	addr    uint64
	size    uint32
	isIO    bool
	present bool
}

// sizeBAR implements spec.md §4.4 step 3: save, probe with all-ones,
// restore, derive size from the mask.
func (e *Enumerator) sizeBAR(bus, dev uint8, offset uint8) barInfo {
	w, ok := e.access.(writer)
	if !ok {
		return barInfo{}
	}

	saved := e.access.read32(bus, dev, 0, offset)
	w.write32(bus, dev, 0, offset, 0xffffffff)
	probe := e.access.read32(bus, dev, 0, offset)
	w.write32(bus, dev, 0, offset, saved)

	isIO := saved&1 == 1
	var mask uint32
	var addr uint64

	if isIO {
		mask = probe &^ 0x3
		addr = uint64(saved &^ 0x3)
	} else {
		mask = probe &^ 0xf
		addr = uint64(saved &^ 0xf)
	}

	if mask == 0 {
		return barInfo{offset: offset, present: false}
	}

	size := ^mask + 1
	return barInfo{offset: offset, addr: addr, size: size, isIO: isIO, present: true}
}

// selectBAR implements spec.md §4.4 steps 3-5: size every candidate BAR
// (0x10, 0x14, ..., 0x24), then apply the selection policy, allocating
// from the kernel-owned MMIO window if the BAR carries no address.
func (e *Enumerator) selectBAR(bus, dev uint8, vendor uint16) (uint64, uint32) {
	var bars [6]barInfo
	for i := range bars {
		bars[i] = e.sizeBAR(bus, dev, bar0Offset+uint8(i*4))
	}

	chosen := selectionPolicy(bars, vendor)
	if !chosen.present {
		return 0, 0
	}

	addr := chosen.addr
	if addr == 0 && !chosen.isIO {
		addr = e.allocate(chosen.size)
	}

	return addr, chosen.size
}

// selectionPolicy implements spec.md §4.4 step 5 exactly: prefer the
// first non-I/O BAR; for vendor 0x1AF4 with BAR0 flagged I/O, use BAR4
// instead; otherwise BAR0 if memory, else BAR1 if memory and BAR0 is
// I/O.
func selectionPolicy(bars [6]barInfo, vendor uint16) barInfo {
	if vendor == virtioVendorID && bars[0].present && bars[0].isIO {
		return bars[4]
	}

	if bars[0].present && !bars[0].isIO {
		return bars[0]
	}
	if bars[0].present && bars[0].isIO && bars[1].present && !bars[1].isIO {
		return bars[1]
	}

	for _, b := range bars {
		if b.present && !b.isIO {
			return b
		}
	}

	return barInfo{}
}

func (e *Enumerator) allocate(size uint32) uint64 {
	align := uint64(size)
	if rem := e.mmioCursor % align; rem != 0 {
		e.mmioCursor += align - rem
	}
	if e.mmioCursor+uint64(size) > e.mmioAllocBase+e.mmioAllocSize {
		return 0
	}
	addr := e.mmioCursor
	e.mmioCursor += uint64(size)
	return addr
}
