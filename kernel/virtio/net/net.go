// Package net implements the paravirtualized NIC driver: VirtIO
// split-ring transmit/receive over the bring-up state machine in
// kernel/virtio, spec.md §4.7.
//
// https://github.com/usbarmory/tamago (virtio/net.go, kvm/virtio/pci.go)
package net

import (
	"github.com/stan-kondrat/yasouos/kernel/device"
	"github.com/stan-kondrat/yasouos/kernel/dma"
	"github.com/stan-kondrat/yasouos/kernel/driver"
	"github.com/stan-kondrat/yasouos/kernel/kerr"
	"github.com/stan-kondrat/yasouos/kernel/platform"
	"github.com/stan-kondrat/yasouos/kernel/poll"
	"github.com/stan-kondrat/yasouos/kernel/virtio"
)

const (
	queueRX = 0
	queueTX = 1

	// mmioQueueSize is the fixed configured size the MMIO transport
	// uses; spec.md §3's "16 for NIC" baseline.
	mmioQueueSize = 16

	// MaxPacket bounds a single Ethernet frame (header + MTU-sized
	// payload), spec.md §4.7.5 step 3.
	MaxPacket = 1514

	// legacyHeaderLen is the all-zero virtio-net legacy header
	// prepended to TX and stripped from RX, spec.md §6.
	legacyHeaderLen = 10

	bufSize = 2048

	// alignOffset is the 2-byte pad spec.md §4.7.7 requires on the
	// load/store architecture so the IP header (at Ethernet offset 14)
	// lands 4-byte aligned.
	alignOffset = 2

	txPollIterations = 100_000
)

// Context is the caller-owned context kernel/resource.Acquire threads
// through to Init/Deinit. Port must be set before Acquire is called;
// AlignQuirk should be true only on the load/store architecture profile
// (spec.md §4.7.7). NIC is filled in by Init on success.
type Context struct {
	Port       platform.Port
	AlignQuirk bool
	NIC        *NIC
}

// NIC is the live driver state for one attached paravirtualized NIC.
type NIC struct {
	dev    *virtio.Device
	region *dma.Region

	rxBufs [][]byte
	txBufs [][]byte

	// align is the per-buffer byte offset resolved from Context.AlignQuirk
	// at init, applied uniformly to every RX post (initial and refill)
	// and to TX (spec.md §4.7.7: "TX uses the same offset for symmetry").
	align uint64

	mac [6]byte

	txLimiter *poll.Limiter
}

// MAC returns the six MAC bytes read from the device config region at
// bring-up (spec.md §4.7.2 step 11).
func (n *NIC) MAC() [6]byte { return n.mac }

// ids is the driver's ID table: "virtio,mmio" compatible devices whose
// FDT-synthesized device-id is 0x1000 (network card, spec.md §4.4), and
// the equivalent PCI vendor:device pair.
var ids = []driver.ID{
	{Compatible: "virtio,mmio", VendorID: 0x1af4, DeviceID: 0x1000},
	{VendorID: 0x1af4, DeviceID: 0x1000},
}

// GetDriver returns the constant driver descriptor bundled applications
// pass to kernel/resource.Acquire.
func GetDriver() *driver.Driver {
	return driver.New("virtio-net", ids, initContext, deinitContext)
}

func initContext(rawCtx interface{}, d *device.Device) error {
	ctx, ok := rawCtx.(*Context)
	if !ok {
		return kerr.ErrConfiguration
	}

	transport := virtio.SelectTransport(ctx.Port, d.RegBase, mmioQueueSize)

	region, err := dma.NewRegion(1 << 18)
	if err != nil {
		return err
	}

	dev, err := virtio.Bringup(transport, region, 2)
	if err != nil {
		return err
	}

	n := dev.Queues[queueRX].N()
	txN := dev.Queues[queueTX].N()

	nic := &NIC{
		dev:       dev,
		region:    region,
		rxBufs:    make([][]byte, n),
		txBufs:    make([][]byte, txN),
		align:     alignOffsetFor(ctx),
		txLimiter: poll.NewLimiter(txPollIterations, 1_000_000, 64),
	}

	for i := 0; i < n; i++ {
		addr, buf, err := region.Reserve(bufSize, 0)
		if err != nil {
			return err
		}
		nic.rxBufs[i] = buf

		rxQ := dev.Queues[queueRX]
		rxQ.SetDescriptor(i, addr+nic.align, MaxPacket, virtio.DescFlagWrite, 0)
		rxQ.PushAvail(uint16(i))
	}

	for i := 0; i < txN; i++ {
		_, buf, err := region.Reserve(bufSize, 0)
		if err != nil {
			return err
		}
		nic.txBufs[i] = buf
	}

	if err := dev.Finish(); err != nil {
		return err
	}

	for i := 0; i < 6; i++ {
		nic.mac[i] = transport.ReadConfig8(i)
	}

	ctx.NIC = nic
	return nil
}

func deinitContext(rawCtx interface{}, _ *device.Device) {
	if ctx, ok := rawCtx.(*Context); ok {
		ctx.NIC = nil
	}
}

func alignOffsetFor(ctx *Context) uint64 {
	if ctx.AlignQuirk {
		return alignOffset
	}
	return 0
}

// Transmit implements spec.md §4.7.4. payload must be at most
// MaxPacket-legacyHeaderLen bytes.
func (n *NIC) Transmit(payload []byte) error {
	q := n.dev.Queues[queueTX]

	i, err := q.AllocDescriptor()
	if err != nil {
		return err
	}

	buf := n.txBufs[i][n.align:]
	for j := 0; j < legacyHeaderLen; j++ {
		buf[j] = 0
	}
	copy(buf[legacyHeaderLen:], payload)
	frameLen := legacyHeaderLen + len(payload)

	q.SetDescriptor(i, n.txBufAddr(i)+n.align, uint32(frameLen), 0, 0)
	q.PushAvail(uint16(i))
	n.dev.Transport.WriteQueueNotify(queueTX)

	savedLastUsed := q.LastUsedIdx()
	ok := n.txLimiter.Until(func() bool { return q.UsedIdx() != savedLastUsed })

	if !ok {
		q.FreeDescriptor(i)
		return kerr.ErrTimeout
	}

	q.AdvanceUsed()
	q.FreeDescriptor(i)
	return nil
}

// Receive implements spec.md §4.7.5. On success it copies the packet's
// payload (legacy header stripped) into out and returns its length.
func (n *NIC) Receive(out []byte) (int, error) {
	q := n.dev.Queues[queueRX]

	if q.UsedIdx() == q.LastUsedIdx() {
		return 0, kerr.ErrWouldBlock
	}

	id, length := q.UsedEntry(q.LastUsedIdx())
	q.AdvanceUsed()

	if !q.ValidDescriptor(id) || length == 0 || length > MaxPacket || length < legacyHeaderLen {
		return 0, kerr.ErrRingProtocol
	}

	buf := n.rxBufs[id]
	payloadLen := int(length) - legacyHeaderLen
	off := int(n.align) + legacyHeaderLen
	n2 := copy(out, buf[off:off+payloadLen])

	q.SetDescriptor(int(id), n.rxBufAddr(int(id))+n.align, MaxPacket, virtio.DescFlagWrite, 0)
	q.PushAvail(uint16(id))
	n.dev.Transport.WriteQueueNotify(queueRX)

	return n2, nil
}

func (n *NIC) rxBufAddr(i int) uint64 { return n.region.AddrOf(n.rxBufs[i]) }
func (n *NIC) txBufAddr(i int) uint64 { return n.region.AddrOf(n.txBufs[i]) }
