package virtio

import (
	"testing"

	"github.com/stan-kondrat/yasouos/kernel/dma"
	"github.com/stan-kondrat/yasouos/kernel/kerr"
)

// fakeTransport is an in-memory Transport double recording every register
// write, letting tests assert on the exact bring-up sequence without real
// hardware.
type fakeTransport struct {
	status        uint8
	queueSizeMax  uint16
	maxQueueSize  int
	isMMIOLike    bool
	selectedQueue uint16
	pfns          []uint32
	notified      []uint16
}

func (f *fakeTransport) ReadDeviceFeatures() uint32    { return 0 }
func (f *fakeTransport) WriteDriverFeatures(uint32)    {}
func (f *fakeTransport) WriteQueueSelect(v uint16)     { f.selectedQueue = v }
func (f *fakeTransport) ReadQueueSizeMax() uint16      { return f.queueSizeMax }
func (f *fakeTransport) WriteQueueSize(uint16)         {}
func (f *fakeTransport) WriteQueueAlign(uint32)        {}
func (f *fakeTransport) WriteGuestPageSize(uint32)     {}
func (f *fakeTransport) WriteQueuePFN(v uint32)        { f.pfns = append(f.pfns, v) }
func (f *fakeTransport) WriteQueueNotify(v uint16)     { f.notified = append(f.notified, v) }
func (f *fakeTransport) ReadStatus() uint8             { return f.status }
func (f *fakeTransport) WriteStatus(v uint8)           { f.status = v }
func (f *fakeTransport) ReadConfig8(offset int) uint8  { return 0 }
func (f *fakeTransport) MaxQueueSize() int             { return f.maxQueueSize }

func TestBringupNegotiatesQueuesMMIOLike(t *testing.T) {
	region, err := dma.NewRegion(1 << 16)
	if err != nil {
		t.Fatal(err)
	}

	ft := &fakeTransport{queueSizeMax: 256, maxQueueSize: 8}
	dev, err := Bringup(ft, region, 2)
	if err != nil {
		t.Fatal(err)
	}

	if len(dev.Queues) != 2 {
		t.Fatalf("got %d queues, want 2", len(dev.Queues))
	}
	if len(ft.pfns) != 2 {
		t.Errorf("expected a PFN write per queue, got %d", len(ft.pfns))
	}
	if ft.status&StatusACK == 0 || ft.status&StatusDriver == 0 {
		t.Errorf("status should carry ACK|DRIVER after bringup, got %#x", ft.status)
	}
}

func TestBringupFailsWhenDeviceMaxTooSmall(t *testing.T) {
	region, err := dma.NewRegion(1 << 16)
	if err != nil {
		t.Fatal(err)
	}

	ft := &fakeTransport{queueSizeMax: 4, maxQueueSize: 8} // driver wants more than the device offers
	if _, err := Bringup(ft, region, 1); err != kerr.ErrConfiguration {
		t.Fatalf("got %v, want ErrConfiguration", err)
	}
	if ft.status != StatusFailed {
		t.Errorf("status should be StatusFailed, got %#x", ft.status)
	}
}

func TestFinishSetsDriverOKAndKicksQueueZero(t *testing.T) {
	region, err := dma.NewRegion(1 << 16)
	if err != nil {
		t.Fatal(err)
	}

	ft := &fakeTransport{queueSizeMax: 16, maxQueueSize: 4}
	dev, err := Bringup(ft, region, 1)
	if err != nil {
		t.Fatal(err)
	}

	if err := dev.Finish(); err != nil {
		t.Fatal(err)
	}

	if ft.status&StatusDriverOK == 0 {
		t.Errorf("expected DRIVER_OK set, got %#x", ft.status)
	}
}

func TestPortIOTransportTakesDeviceMaximum(t *testing.T) {
	region, err := dma.NewRegion(1 << 16)
	if err != nil {
		t.Fatal(err)
	}

	// maxQueueSize()==0 signals the port-I/O convention: take whatever
	// the device reports.
	ft := &fakeTransport{queueSizeMax: 32, maxQueueSize: 0}
	dev, err := Bringup(ft, region, 1)
	if err != nil {
		t.Fatal(err)
	}
	if dev.Queues[0].N() != 32 {
		t.Errorf("got N=%d, want the device-reported max of 32", dev.Queues[0].N())
	}
}

func TestSelectTransportPicksByRegBase(t *testing.T) {
	if _, ok := SelectTransport(nil, 0x0a000000, 8).(*MMIOTransport); !ok {
		t.Error("a high regBase should select MMIOTransport")
	}
}
