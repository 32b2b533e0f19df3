// Package rtl8139 implements the secondary NIC driver for the Realtek
// RTL8139 Fast Ethernet controller: a ring-buffer receiver (CAPR/CBR
// offset walk, no descriptors) and a 4-slot round-robin transmitter,
// reachable over either the memory-mapped BAR or the legacy I/O BAR
// depending on which one PCI enumeration assigned (spec.md §4.7.8's
// "secondary NIC drivers" paragraph).
//
// Grounded on original_source/drivers/rtl8139/rtl8139.c: register
// offsets, the reset/MAC-rewrite/multicast-accept-all/RE+TE sequencing,
// and the receive-buffer offset/CRC-trailer accounting are all carried
// over unchanged. The MMIO-vs-port dispatch follows the same
// "reg_base >= 0x10000 selects MMIO" heuristic kernel/virtio's
// transport.SelectTransport uses, rather than the original's
// compile-time architecture `#ifdef`.
package rtl8139

import (
	"github.com/stan-kondrat/yasouos/kernel/device"
	"github.com/stan-kondrat/yasouos/kernel/dma"
	"github.com/stan-kondrat/yasouos/kernel/driver"
	"github.com/stan-kondrat/yasouos/kernel/kerr"
	"github.com/stan-kondrat/yasouos/kernel/platform"
)

const (
	vendorRealtek  = 0x10ec
	deviceID8139   = 0x8139

	regMAC0      = 0x00
	regMAR0      = 0x08
	regTxStatus0 = 0x10
	regTxAddr0   = 0x20
	regRxBuf     = 0x30
	regCmd       = 0x37
	regCAPR      = 0x38
	regIMR       = 0x3c
	regISR       = 0x3e
	regTCR       = 0x40
	regRCR       = 0x44
	regConfig1   = 0x52
	regMulti     = 0x4c

	cmdRST  = 1 << 4
	cmdRE   = 1 << 3
	cmdTE   = 1 << 2
	cmdBUFE = 1 << 0

	intRXOK  = 1 << 0
	intRXERR = 1 << 1

	rcrAAP      = 1 << 0
	rcrAPM      = 1 << 1
	rcrAM       = 1 << 2
	rcrAB       = 1 << 3
	rcrWRAP     = 1 << 7
	rcrRBLEN8K  = 0 << 11

	tcrIFGStd = 3 << 24

	rxBufferSize = 8192 + 16
	txBufferSize = 2048
	numTXSlots   = 4

	mmioThreshold = 0x10000
)

// regAccess abstracts the memory-mapped and port-I/O BAR access methods;
// selected once at bring-up per spec.md §4.7.1's "reg_base < 0x10000
// selects port I/O" convention.
type regAccess interface {
	read8(off uint32) uint8
	read16(off uint32) uint16
	read32(off uint32) uint32
	write8(off uint32, v uint8)
	write16(off uint32, v uint16)
	write32(off uint32, v uint32)
}

type mmioAccess struct {
	port platform.Port
	base uint64
}

func (a mmioAccess) read8(off uint32) uint8 {
	word := a.port.MMIORead32(a.base + uint64(off&^3))
	return uint8(word >> ((off & 3) * 8))
}

func (a mmioAccess) read16(off uint32) uint16 {
	word := a.port.MMIORead32(a.base + uint64(off&^3))
	return uint16(word >> ((off & 2) * 8))
}

func (a mmioAccess) read32(off uint32) uint32 {
	return a.port.MMIORead32(a.base + uint64(off))
}

func (a mmioAccess) write8(off uint32, v uint8) {
	shift := (off & 3) * 8
	word := a.port.MMIORead32(a.base + uint64(off&^3))
	word = (word &^ (0xff << shift)) | (uint32(v) << shift)
	a.port.MMIOWrite32(a.base+uint64(off&^3), word)
}

func (a mmioAccess) write16(off uint32, v uint16) {
	shift := (off & 2) * 8
	word := a.port.MMIORead32(a.base + uint64(off&^3))
	word = (word &^ (0xffff << shift)) | (uint32(v) << shift)
	a.port.MMIOWrite32(a.base+uint64(off&^3), word)
}

func (a mmioAccess) write32(off uint32, v uint32) {
	a.port.MMIOWrite32(a.base+uint64(off), v)
}

type portAccess struct {
	io   platform.PortIO
	base uint16
}

func (a portAccess) read8(off uint32) uint8    { return a.io.InB(a.base + uint16(off)) }
func (a portAccess) read16(off uint32) uint16  { return a.io.InW(a.base + uint16(off)) }
func (a portAccess) read32(off uint32) uint32  { return a.io.InL(a.base + uint16(off)) }
func (a portAccess) write8(off uint32, v uint8)  { a.io.OutB(a.base+uint16(off), v) }
func (a portAccess) write16(off uint32, v uint16) { a.io.OutW(a.base+uint16(off), v) }
func (a portAccess) write32(off uint32, v uint32) { a.io.OutL(a.base+uint16(off), v) }

// Context is the caller-owned context kernel/resource.Acquire threads
// through.
type Context struct {
	Port platform.Port
	NIC  *NIC
}

// NIC is the live driver state for one attached RTL8139.
type NIC struct {
	access regAccess

	region  *dma.Region
	rxBuf   []byte
	txBufs  [][]byte
	txSlot  int

	capr uint16

	mac [6]byte
}

func (n *NIC) MAC() [6]byte { return n.mac }

var ids = []driver.ID{
	{VendorID: vendorRealtek, DeviceID: deviceID8139},
}

// GetDriver returns the constant driver descriptor.
func GetDriver() *driver.Driver {
	return driver.New("rtl8139", ids, initContext, deinitContext)
}

func initContext(rawCtx interface{}, d *device.Device) error {
	ctx, ok := rawCtx.(*Context)
	if !ok {
		return kerr.ErrConfiguration
	}

	var access regAccess
	if d.RegBase >= mmioThreshold {
		access = mmioAccess{port: ctx.Port, base: d.RegBase}
	} else {
		io, ok := ctx.Port.(platform.PortIO)
		if !ok {
			return kerr.ErrConfiguration
		}
		access = portAccess{io: io, base: uint16(d.RegBase)}
	}

	n := &NIC{access: access}

	region, err := dma.NewRegion(rxBufferSize + numTXSlots*txBufferSize)
	if err != nil {
		return err
	}
	n.region = region

	n.readMACAddress()

	n.access.write8(regConfig1, 0x00)

	n.access.write8(regCmd, cmdRST)
	for n.access.read8(regCmd)&cmdRST != 0 {
	}

	for i := 0; i < 6; i++ {
		n.access.write8(regMAC0+uint32(i), n.mac[i])
	}

	n.access.write32(regMAR0, 0xffffffff)
	n.access.write32(regMAR0+4, 0xffffffff)

	n.access.write8(regCmd, cmdRE|cmdTE)

	rcr := uint32(rcrAAP | rcrAPM | rcrAM | rcrAB | rcrWRAP | rcrRBLEN8K | (4 << 13) | (4 << 8))
	n.access.write32(regRCR, rcr)

	tcr := uint32(tcrIFGStd | (4 << 8) | 0x03000000)
	n.access.write32(regTCR, tcr)

	_, rxBuf, err := region.Reserve(rxBufferSize, 4)
	if err != nil {
		return err
	}
	n.rxBuf = rxBuf
	n.access.write32(regRxBuf, uint32(region.AddrOf(rxBuf)))
	n.capr = 0xfff0
	n.access.write16(regCAPR, n.capr)
	n.access.write32(regMulti, 0)

	n.access.write8(regCmd, cmdRE|cmdTE)
	n.access.write16(regISR, 0xffff)
	n.access.write16(regIMR, intRXOK|intRXERR)

	n.txBufs = make([][]byte, numTXSlots)
	for i := 0; i < numTXSlots; i++ {
		_, buf, err := region.Reserve(txBufferSize, 4)
		if err != nil {
			return err
		}
		n.txBufs[i] = buf
	}

	ctx.NIC = n
	return nil
}

func deinitContext(rawCtx interface{}, _ *device.Device) {
	if ctx, ok := rawCtx.(*Context); ok {
		ctx.NIC = nil
	}
}

func (n *NIC) readMACAddress() {
	for i := 0; i < 6; i++ {
		n.mac[i] = n.access.read8(regMAC0 + uint32(i))
	}
}

// Receive implements the ring-buffer walk: CAPR+16 gives the next
// packet's status/length header, the payload follows immediately, and
// the trailing 4-byte CRC is stripped from the reported length.
func (n *NIC) Receive(out []byte) (int, error) {
	if n.access.read8(regCmd)&cmdBUFE != 0 {
		return 0, kerr.ErrWouldBlock
	}

	offset := (n.capr + 16) % rxBufferSize

	status := uint16(n.rxBuf[offset]) | uint16(n.rxBuf[offset+1])<<8
	length := uint16(n.rxBuf[offset+2]) | uint16(n.rxBuf[offset+3])<<8

	if status&0x01 == 0 || length < 4 {
		return 0, kerr.ErrRingProtocol
	}

	isr := n.access.read16(regISR)
	if isr != 0 {
		n.access.write16(regISR, isr)
	}

	length -= 4
	if int(length) > len(out) {
		return 0, kerr.ErrRingProtocol
	}

	for i := uint16(0); i < length; i++ {
		out[i] = n.rxBuf[(offset+4+i)%rxBufferSize]
	}

	newOffset := ((offset + length + 4 + 3) &^ 3) % rxBufferSize
	n.capr = newOffset - 16
	n.access.write16(regCAPR, n.capr)

	return int(length), nil
}

// Transmit implements the 4-slot round-robin transmitter; each slot's
// descriptor pair (TXADDR/TXSTATUS) is self-contained, so no completion
// polling is required before reuse at this driver's send rate.
func (n *NIC) Transmit(payload []byte) error {
	if len(payload) < 1 || len(payload) > txBufferSize {
		return kerr.ErrConfiguration
	}

	slot := n.txSlot
	copy(n.txBufs[slot], payload)

	n.access.write32(regTxAddr0+uint32(slot*4), uint32(n.region.AddrOf(n.txBufs[slot])))
	n.access.write32(regTxStatus0+uint32(slot*4), uint32(len(payload)))

	n.txSlot = (n.txSlot + 1) % numTXSlots
	return nil
}
