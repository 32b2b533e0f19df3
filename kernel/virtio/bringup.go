package virtio

import (
	"github.com/stan-kondrat/yasouos/kernel/dma"
	"github.com/stan-kondrat/yasouos/kernel/kerr"
	"github.com/stan-kondrat/yasouos/kernel/reg"
)

const guestPageSize = 4096

// Device is a brought-up VirtIO device: its transport and its queues,
// indexed as the caller's driver expects (queue 0 = RX, queue 1 = TX by
// convention for the NIC; queue 0 only for the entropy driver).
type Device struct {
	Transport Transport
	Queues    []*Queue
	isMMIO    bool
}

// Bringup runs spec.md §4.7.2's steps 1-6: reset, ACK|DRIVER, feature
// negotiation (accept nothing), the MMIO-only FEATURES_OK handshake, and
// per-queue init for each of numQueues. It stops short of DRIVER_OK
// (steps 7-9) because those require the caller to pre-populate the RX
// available ring first; call Device.Finish once that is done. Any step
// failing writes StatusFailed and returns kerr.ErrConfiguration, except a
// failed DMA reservation for a queue, whose error is returned as is.
func Bringup(t Transport, region *dma.Region, numQueues int) (*Device, error) {
	t.WriteStatus(0)
	t.WriteStatus(StatusACK)
	t.WriteStatus(StatusACK | StatusDriver)

	t.ReadDeviceFeatures()
	t.WriteDriverFeatures(0) // accept nothing beyond base spec

	_, isMMIO := t.(*MMIOTransport)

	if isMMIO {
		t.WriteStatus(StatusACK | StatusDriver | StatusFeaturesOK)
		if t.ReadStatus()&StatusFeaturesOK == 0 {
			t.WriteStatus(StatusFailed)
			return nil, kerr.ErrConfiguration
		}
		t.WriteGuestPageSize(guestPageSize)
	}

	queues := make([]*Queue, numQueues)
	for q := 0; q < numQueues; q++ {
		queue, err := initQueue(t, region, q)
		if err != nil {
			t.WriteStatus(StatusFailed)
			return nil, err
		}
		queues[q] = queue
	}

	return &Device{Transport: t, Queues: queues, isMMIO: isMMIO}, nil
}

// Finish implements spec.md §4.7.2 steps 8-10: a full fence after the
// caller has pre-populated the RX available ring, the transition to
// DRIVER_OK (with FEATURES_OK re-asserted for MMIO), and the MMIO-only
// kick of queue 0.
func (d *Device) Finish() error {
	reg.Fence()

	status := StatusACK | StatusDriver | StatusDriverOK
	if d.isMMIO {
		status |= StatusFeaturesOK
	}
	d.Transport.WriteStatus(uint8(status))

	if d.Transport.ReadStatus()&StatusDriverOK == 0 {
		d.Transport.WriteStatus(StatusFailed)
		return kerr.ErrConfiguration
	}

	if d.isMMIO {
		d.Transport.WriteQueueNotify(0)
	}

	return nil
}

// initQueue implements spec.md §4.7.3 for queue index q: select, verify
// the device-reported max size is at least the driver's fixed N, write
// size/align (MMIO only), and install the PFN.
func initQueue(t Transport, region *dma.Region, q int) (*Queue, error) {
	t.WriteQueueSelect(uint16(q))

	reportedMax := int(t.ReadQueueSizeMax())
	n := t.MaxQueueSize()
	switch {
	case n == 0:
		n = reportedMax // port-I/O: take the device's maximum
	case reportedMax < n:
		return nil, kerr.ErrConfiguration
	}
	if n == 0 {
		return nil, kerr.ErrConfiguration
	}

	queue, err := NewQueue(region, n)
	if err != nil {
		return nil, err
	}

	t.WriteQueueSize(uint16(n))
	t.WriteQueueAlign(guestPageSize)
	t.WriteQueuePFN(queue.PFN())

	return queue, nil
}
