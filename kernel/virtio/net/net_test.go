package net

import (
	"testing"

	"github.com/stan-kondrat/yasouos/kernel/dma"
	"github.com/stan-kondrat/yasouos/kernel/poll"
	"github.com/stan-kondrat/yasouos/kernel/virtio"
)

// fakeTransport never advances the used ring, so any poll against it times
// out deterministically -- exactly what exercises Transmit's timeout path
// without a simulated device.
type fakeTransport struct {
	notified []uint16
	config   [6]uint8
}

func (f *fakeTransport) ReadDeviceFeatures() uint32 { return 0 }
func (f *fakeTransport) WriteDriverFeatures(uint32) {}
func (f *fakeTransport) WriteQueueSelect(uint16)    {}
func (f *fakeTransport) ReadQueueSizeMax() uint16   { return 16 }
func (f *fakeTransport) WriteQueueSize(uint16)      {}
func (f *fakeTransport) WriteQueueAlign(uint32)     {}
func (f *fakeTransport) WriteGuestPageSize(uint32)  {}
func (f *fakeTransport) WriteQueuePFN(uint32)       {}
func (f *fakeTransport) WriteQueueNotify(v uint16)  { f.notified = append(f.notified, v) }
func (f *fakeTransport) ReadStatus() uint8          { return 0xff }
func (f *fakeTransport) WriteStatus(uint8)          {}
func (f *fakeTransport) ReadConfig8(offset int) uint8 {
	return f.config[offset]
}
func (f *fakeTransport) MaxQueueSize() int { return mmioQueueSize }

func newTestNIC(t *testing.T) (*NIC, *fakeTransport) {
	t.Helper()

	region, err := dma.NewRegion(1 << 18)
	if err != nil {
		t.Fatal(err)
	}
	ft := &fakeTransport{}
	dev, err := virtio.Bringup(ft, region, 2)
	if err != nil {
		t.Fatal(err)
	}

	txN := dev.Queues[queueTX].N()
	nic := &NIC{
		dev:       dev,
		region:    region,
		txBufs:    make([][]byte, txN),
		txLimiter: poll.NewLimiter(2, 1_000_000, 64),
	}
	for i := 0; i < txN; i++ {
		_, buf, err := region.Reserve(bufSize, 0)
		if err != nil {
			t.Fatal(err)
		}
		nic.txBufs[i] = buf
	}

	return nic, ft
}

func TestTransmitTimesOutAndFreesDescriptor(t *testing.T) {
	nic, ft := newTestNIC(t)

	err := nic.Transmit([]byte("hello"))
	if err == nil {
		t.Fatal("expected a timeout error since the fake transport never completes")
	}
	if len(ft.notified) != 1 || ft.notified[0] != queueTX {
		t.Errorf("expected exactly one notify on queue %d, got %v", queueTX, ft.notified)
	}

	// The freed descriptor must be reusable on a second attempt.
	if err := nic.Transmit([]byte("again")); err == nil {
		t.Fatal("expected a second timeout (the fake transport still never completes)")
	}
	if idx, err := nic.dev.Queues[queueTX].AllocDescriptor(); err != nil || idx != 0 {
		t.Errorf("descriptor 0 should be free again after both timeouts, got idx=%d err=%v", idx, err)
	}
}

func TestAlignOffsetForHonorsQuirk(t *testing.T) {
	if got := alignOffsetFor(&Context{AlignQuirk: false}); got != 0 {
		t.Errorf("got %d, want 0 without the quirk", got)
	}
	if got := alignOffsetFor(&Context{AlignQuirk: true}); got != alignOffset {
		t.Errorf("got %d, want %d with the quirk", got, alignOffset)
	}
}

func TestMACReadFromConfigSpace(t *testing.T) {
	nic, ft := newTestNIC(t)
	ft.config = [6]uint8{0x52, 0x54, 0x00, 0x12, 0x34, 0x56}

	for i := range nic.mac {
		nic.mac[i] = ft.ReadConfig8(i)
	}

	if nic.MAC() != ft.config {
		t.Errorf("got %v, want %v", nic.MAC(), ft.config)
	}
}
