// Package e1000 implements the secondary NIC driver for the Intel
// 82540EM Gigabit Ethernet controller: a fixed-size linear descriptor
// ring (no split-queue negotiation), MAC read from the receive-address
// registers, polling-only operation (spec.md §4.7.8's "secondary NIC
// drivers" paragraph).
//
// Grounded on original_source/drivers/e1000/e1000.c: register offsets,
// link-up/descriptor-ring sequencing, and the "enable transmitter
// before receiver" ordering are carried over. initContext does not reset
// the controller (CTRL.RST is never written); it only sets CTRL.SLU
// before reading the MAC and installing the rings. The
// descriptor rings themselves move from the original's embedded packed
// structs into kernel/dma-backed byte buffers encoded with
// encoding/binary, matching the teacher's MMIO descriptor-encoding idiom
// (kernel/virtio's queue.go).
package e1000

import (
	"encoding/binary"

	"github.com/stan-kondrat/yasouos/kernel/device"
	"github.com/stan-kondrat/yasouos/kernel/dma"
	"github.com/stan-kondrat/yasouos/kernel/driver"
	"github.com/stan-kondrat/yasouos/kernel/kerr"
	"github.com/stan-kondrat/yasouos/kernel/platform"
)

const (
	vendorIntel    = 0x8086
	deviceID82540EM = 0x100e

	regCTRL   = 0x00000
	regSTATUS = 0x00008
	regICR    = 0x000c0
	regIMS    = 0x000d0
	regRCTL   = 0x00100
	regTCTL   = 0x00400
	regRDBAL  = 0x02800
	regRDBAH  = 0x02804
	regRDLEN  = 0x02808
	regRDH    = 0x02810
	regRDT    = 0x02818
	regTDBAL  = 0x03800
	regTDBAH  = 0x03804
	regTDLEN  = 0x03808
	regTDH    = 0x03810
	regTDT    = 0x03818
	regRAL    = 0x05400
	regRAH    = 0x05404

	ctrlSLU = 1 << 6

	rctlEN      = 1 << 1
	rctlUPE     = 1 << 3
	rctlMPE     = 1 << 4
	rctlBAM     = 1 << 15
	rctlBSIZE2K = 0 << 16

	tctlEN  = 1 << 1
	tctlPSP = 1 << 3

	rxdStatDD  = 1 << 0
	rxdStatEOP = 1 << 1

	txdCmdEOP = 1 << 0
	txdCmdRS  = 1 << 3
	txdStatDD = 1 << 0

	numRXDesc  = 8
	numTXDesc  = 8
	rxBufSize  = 2048
	txBufSize  = 2048

	// descSize is the on-the-wire size of both RX and TX descriptors:
	// 8-byte buffer address + 8 bytes of per-descriptor fields.
	descSize = 16

	linkSettleIterations = 100_000
)

// rxDesc/txDesc field offsets within one descSize-byte descriptor.
const (
	rxAddrOff   = 0
	rxLengthOff = 8
	rxStatusOff = 12

	txAddrOff   = 0
	txLengthOff = 8
	txCSOOff    = 10
	txCmdOff    = 11
	txStatusOff = 12
)

// Context is the caller-owned context kernel/resource.Acquire threads
// through.
type Context struct {
	Port platform.Port
	NIC  *NIC
}

// NIC is the live driver state for one attached 82540EM.
type NIC struct {
	port platform.Port
	base uint64

	region *dma.Region

	rxDescs []byte // numRXDesc * descSize, 16-byte aligned
	txDescs []byte
	rxBufs  [][]byte
	txBufs  [][]byte

	rxCurrent int
	txCurrent int

	mac [6]byte
}

func (n *NIC) MAC() [6]byte { return n.mac }

var ids = []driver.ID{
	{VendorID: vendorIntel, DeviceID: deviceID82540EM},
}

// GetDriver returns the constant driver descriptor.
func GetDriver() *driver.Driver {
	return driver.New("e1000", ids, initContext, deinitContext)
}

func (n *NIC) read32(off uint32) uint32  { return n.port.MMIORead32(n.base + uint64(off)) }
func (n *NIC) write32(off uint32, v uint32) { n.port.MMIOWrite32(n.base+uint64(off), v) }

func initContext(rawCtx interface{}, d *device.Device) error {
	ctx, ok := rawCtx.(*Context)
	if !ok {
		return kerr.ErrConfiguration
	}

	n := &NIC{port: ctx.Port, base: d.RegBase}

	region, err := dma.NewRegion(numRXDesc*rxBufSize + numTXDesc*txBufSize + 4096)
	if err != nil {
		return err
	}
	n.region = region

	ctrl := n.read32(regCTRL)
	n.write32(regCTRL, ctrl|ctrlSLU)

	for i := 0; i < linkSettleIterations; i++ {
	}

	n.readMACAddress()

	if err := n.setupRings(); err != nil {
		return err
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
	ral := n.read32(regRAL)
	rah := n.read32(regRAH)

	n.mac[0] = byte(ral)
	n.mac[1] = byte(ral >> 8)
	n.mac[2] = byte(ral >> 16)
	n.mac[3] = byte(ral >> 24)
	n.mac[4] = byte(rah)
	n.mac[5] = byte(rah >> 8)
}

func (n *NIC) setupRings() error {
	_, rxDescs, err := n.region.Reserve(numRXDesc*descSize, 16)
	if err != nil {
		return err
	}
	n.rxDescs = rxDescs

	n.rxBufs = make([][]byte, numRXDesc)
	for i := 0; i < numRXDesc; i++ {
		_, buf, err := n.region.Reserve(rxBufSize, 0)
		if err != nil {
			return err
		}
		n.rxBufs[i] = buf

		e := n.rxDescs[i*descSize : (i+1)*descSize]
		binary.LittleEndian.PutUint64(e[rxAddrOff:], n.region.AddrOf(buf))
		e[rxStatusOff] = 0
	}

	rxDescAddr := n.region.AddrOf(n.rxDescs)
	n.write32(regRDBAL, uint32(rxDescAddr))
	n.write32(regRDBAH, uint32(rxDescAddr>>32))
	n.write32(regRDLEN, numRXDesc*descSize)
	n.write32(regRDH, 0)
	n.write32(regRDT, numRXDesc-1)

	n.read32(regICR)
	n.write32(regIMS, 0)

	_, txDescs, err := n.region.Reserve(numTXDesc*descSize, 16)
	if err != nil {
		return err
	}
	n.txDescs = txDescs

	n.txBufs = make([][]byte, numTXDesc)
	for i := 0; i < numTXDesc; i++ {
		_, buf, err := n.region.Reserve(txBufSize, 0)
		if err != nil {
			return err
		}
		n.txBufs[i] = buf

		e := n.txDescs[i*descSize : (i+1)*descSize]
		binary.LittleEndian.PutUint64(e[txAddrOff:], n.region.AddrOf(buf))
		e[txStatusOff] = txdStatDD
		e[txCmdOff] = 0
	}

	txDescAddr := n.region.AddrOf(n.txDescs)
	n.write32(regTDBAL, uint32(txDescAddr))
	n.write32(regTDBAH, uint32(txDescAddr>>32))
	n.write32(regTDLEN, numTXDesc*descSize)
	n.write32(regTDH, 0)
	n.write32(regTDT, 0)

	// Transmitter must be enabled before the receiver.
	n.write32(regTCTL, tctlEN|tctlPSP)

	rctl := uint32(rctlEN | rctlUPE | rctlMPE | rctlBAM | rctlBSIZE2K)
	n.write32(regRCTL, rctl)

	return nil
}

// Receive implements a single-descriptor poll: no packet available
// returns kerr.ErrWouldBlock, a multi-descriptor packet (unsupported)
// is dropped and retried on the next call.
func (n *NIC) Receive(out []byte) (int, error) {
	e := n.rxDescs[n.rxCurrent*descSize : (n.rxCurrent+1)*descSize]
	status := e[rxStatusOff]

	if status&rxdStatDD == 0 {
		return 0, kerr.ErrWouldBlock
	}

	if status&rxdStatEOP == 0 {
		e[rxStatusOff] = 0
		n.advanceRX()
		return 0, kerr.ErrRingProtocol
	}

	length := binary.LittleEndian.Uint16(e[rxLengthOff:])
	if int(length) > len(out) {
		e[rxStatusOff] = 0
		n.advanceRX()
		return 0, kerr.ErrRingProtocol
	}

	n2 := copy(out, n.rxBufs[n.rxCurrent][:length])
	e[rxStatusOff] = 0

	n.write32(regRDT, uint32(n.rxCurrent))
	n.advanceRX()

	return n2, nil
}

func (n *NIC) advanceRX() { n.rxCurrent = (n.rxCurrent + 1) % numRXDesc }

// Transmit implements a single-descriptor poll: the next descriptor in
// the ring must already carry its DD (descriptor-done) completion bit
// from a prior transmit before it can be reused.
func (n *NIC) Transmit(payload []byte) error {
	if len(payload) > txBufSize {
		return kerr.ErrConfiguration
	}

	e := n.txDescs[n.txCurrent*descSize : (n.txCurrent+1)*descSize]
	if e[txStatusOff]&txdStatDD == 0 {
		return kerr.ErrWouldBlock
	}

	copy(n.txBufs[n.txCurrent], payload)

	binary.LittleEndian.PutUint16(e[txLengthOff:], uint16(len(payload)))
	e[txCmdOff] = txdCmdEOP | txdCmdRS
	e[txStatusOff] = 0

	next := (n.txCurrent + 1) % numTXDesc
	n.txCurrent = next
	n.write32(regTDT, uint32(next))

	return nil
}
