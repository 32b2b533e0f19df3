// Package virtio implements the legacy (1.0-legacy / 0.9.5) VirtIO split
// virtqueue: transport-agnostic bring-up state machine and queue
// structures, shared by the network and entropy drivers (spec.md §4.7).
//
// https://github.com/usbarmory/tamago (kvm/virtio/{virtio.go,legacy.go,
// mmio.go,descriptor.go}) — transport selection, status byte state
// machine, and descriptor/ring layout are all grounded on this tree; see
// DESIGN.md for the exact files.
package virtio

import "github.com/stan-kondrat/yasouos/kernel/platform"

// Status bits, spec.md §4.7.2.
const (
	StatusACK       = 1
	StatusDriver    = 2
	StatusDriverOK  = 4
	StatusFeaturesOK = 8
	StatusFailed    = 128
)

// Transport is implemented once for memory-mapped and once for
// port-I/O-backed VirtIO devices. Access width is transport-specific per
// spec.md §4.7.1: MMIO always performs 32-bit accesses; port-I/O uses
// each register's natural width.
type Transport interface {
	ReadDeviceFeatures() uint32
	WriteDriverFeatures(uint32)

	WriteQueueSelect(uint16)
	ReadQueueSizeMax() uint16
	WriteQueueSize(uint16) // no-op on port-I/O transports (not settable)
	WriteQueueAlign(uint32) // no-op on port-I/O transports (absent)
	WriteGuestPageSize(uint32) // no-op on port-I/O transports (absent)
	WriteQueuePFN(uint32)
	WriteQueueNotify(uint16)

	ReadStatus() uint8
	WriteStatus(uint8)

	ReadConfig8(offset int) uint8

	// MaxQueueSize is the driver's fixed negotiated N for this
	// transport, or 0 to mean "use whatever maximum the device
	// reports" — spec.md §3's "two queue layouts": MMIO uses a fixed,
	// driver-configured size; port-I/O takes the device's (larger)
	// reported maximum instead, chosen once at attach.
	MaxQueueSize() int
}

// mmioOffsets are the virtio-mmio legacy register offsets, spec.md
// §4.7.1's MMIO column.
const (
	mmioDeviceFeatures = 0x010
	mmioDriverFeatures = 0x020
	mmioQueueSelect    = 0x030
	mmioQueueSizeMax   = 0x034
	mmioQueueSize      = 0x038
	mmioQueueAlign     = 0x03c
	mmioQueuePFN       = 0x040
	mmioQueueNotify    = 0x050
	mmioStatus         = 0x070
	mmioGuestPageSize  = 0x028
	mmioConfigBase     = 0x100
)

// MMIOTransport drives a memory-mapped VirtIO device (arm64 platform
// profile, spec.md §4.4's "memory-mapped VirtIO enumerator").
type MMIOTransport struct {
	port    platform.Port
	base    uint64
	queueN  int
}

// NewMMIOTransport returns a Transport for the device mapped at base,
// fixed to queueN descriptors per queue (spec.md §3's smaller
// MMIO-configured layout).
func NewMMIOTransport(port platform.Port, base uint64, queueN int) *MMIOTransport {
	return &MMIOTransport{port: port, base: base, queueN: queueN}
}

func (t *MMIOTransport) MaxQueueSize() int { return t.queueN }

func (t *MMIOTransport) ReadDeviceFeatures() uint32 {
	return t.port.MMIORead32(t.base + mmioDeviceFeatures)
}
func (t *MMIOTransport) WriteDriverFeatures(v uint32) {
	t.port.MMIOWrite32(t.base+mmioDriverFeatures, v)
}
func (t *MMIOTransport) WriteQueueSelect(v uint16) {
	t.port.MMIOWrite32(t.base+mmioQueueSelect, uint32(v))
}
func (t *MMIOTransport) ReadQueueSizeMax() uint16 {
	return uint16(t.port.MMIORead32(t.base + mmioQueueSizeMax))
}
func (t *MMIOTransport) WriteQueueSize(v uint16) {
	t.port.MMIOWrite32(t.base+mmioQueueSize, uint32(v))
}
func (t *MMIOTransport) WriteQueueAlign(v uint32) {
	t.port.MMIOWrite32(t.base+mmioQueueAlign, v)
}
func (t *MMIOTransport) WriteGuestPageSize(v uint32) {
	t.port.MMIOWrite32(t.base+mmioGuestPageSize, v)
}
func (t *MMIOTransport) WriteQueuePFN(v uint32) {
	t.port.MMIOWrite32(t.base+mmioQueuePFN, v)
}
func (t *MMIOTransport) WriteQueueNotify(v uint16) {
	t.port.MMIOWrite32(t.base+mmioQueueNotify, uint32(v))
}
func (t *MMIOTransport) ReadStatus() uint8 {
	return uint8(t.port.MMIORead32(t.base + mmioStatus))
}
func (t *MMIOTransport) WriteStatus(v uint8) {
	t.port.MMIOWrite32(t.base+mmioStatus, uint32(v))
}
func (t *MMIOTransport) ReadConfig8(offset int) uint8 {
	word := t.port.MMIORead32(t.base + mmioConfigBase + uint64(offset&^3))
	shift := uint(offset&3) * 8
	return uint8(word >> shift)
}

// portOffsets are the legacy virtio-pci port-I/O register offsets,
// spec.md §4.7.1's Port-I/O column.
const (
	portDeviceFeatures = 0x00
	portDriverFeatures = 0x04
	portQueuePFN       = 0x08
	portQueueSize      = 0x0C // also doubles as "read max queue size"
	portQueueSelect    = 0x0E
	portQueueNotify    = 0x10
	portStatus         = 0x12
	portConfigBase     = 0x14
)

// PortTransport drives a legacy port-I/O VirtIO-over-PCI device (amd64
// platform profile).
type PortTransport struct {
	io   platform.PortIO
	base uint16
}

// NewPortTransport returns a Transport for the device at I/O base. It
// has no fixed queue size of its own; per spec.md §3 the port-I/O
// variant takes whatever (larger) maximum the device reports.
func NewPortTransport(io platform.PortIO, base uint16) *PortTransport {
	return &PortTransport{io: io, base: base}
}

// MaxQueueSize returns 0: "use the device-reported maximum" (spec.md §3).
func (t *PortTransport) MaxQueueSize() int { return 0 }

func (t *PortTransport) ReadDeviceFeatures() uint32 {
	return t.io.InL(t.base + portDeviceFeatures)
}
func (t *PortTransport) WriteDriverFeatures(v uint32) {
	t.io.OutL(t.base+portDriverFeatures, v)
}
func (t *PortTransport) WriteQueueSelect(v uint16) {
	t.io.OutW(t.base+portQueueSelect, v)
}
func (t *PortTransport) ReadQueueSizeMax() uint16 {
	return t.io.InW(t.base + portQueueSize)
}
func (t *PortTransport) WriteQueueSize(uint16)      {} // absent on legacy port-I/O
func (t *PortTransport) WriteQueueAlign(uint32)     {} // absent on legacy port-I/O
func (t *PortTransport) WriteGuestPageSize(uint32)  {} // absent on legacy port-I/O
func (t *PortTransport) WriteQueuePFN(v uint32) {
	t.io.OutL(t.base+portQueuePFN, v)
}
func (t *PortTransport) WriteQueueNotify(v uint16) {
	t.io.OutW(t.base+portQueueNotify, v)
}
func (t *PortTransport) ReadStatus() uint8 {
	return t.io.InB(t.base + portStatus)
}
func (t *PortTransport) WriteStatus(v uint8) {
	t.io.OutB(t.base+portStatus, v)
}
func (t *PortTransport) ReadConfig8(offset int) uint8 {
	return t.io.InB(t.base + portConfigBase + uint16(offset))
}

// SelectTransport implements spec.md §4.7.1's "the driver selects
// transport at attach by inspecting whether reg_base < 0x10000": below
// that, regBase is a port-I/O base (amd64); at or above, it is a
// physical MMIO address (arm64/riscv64). mmioQueueN is the fixed size
// the MMIO variant configures; the port-I/O variant always takes the
// device's reported maximum instead.
func SelectTransport(port platform.Port, regBase uint64, mmioQueueN int) Transport {
	if regBase < 0x10000 {
		io, _ := port.(platform.PortIO)
		return NewPortTransport(io, uint16(regBase))
	}
	return NewMMIOTransport(port, regBase, mmioQueueN)
}
