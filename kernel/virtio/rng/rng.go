// Package rng implements the entropy driver: the VirtIO bring-up
// sequence with a single queue of size 8 and a single request pattern —
// post one device-writable descriptor, poll, read back the written
// length (spec.md §4.7.8).
package rng

import (
	"github.com/stan-kondrat/yasouos/kernel/device"
	"github.com/stan-kondrat/yasouos/kernel/dma"
	"github.com/stan-kondrat/yasouos/kernel/driver"
	"github.com/stan-kondrat/yasouos/kernel/kerr"
	"github.com/stan-kondrat/yasouos/kernel/platform"
	"github.com/stan-kondrat/yasouos/kernel/poll"
	"github.com/stan-kondrat/yasouos/kernel/prng"
	"github.com/stan-kondrat/yasouos/kernel/virtio"
)

const (
	queueSize      = 8
	bufSize        = 256
	pollIterations = 100_000
)

// Context is the caller-owned context kernel/resource.Acquire threads
// through. RNG is filled in by Init on success.
type Context struct {
	Port platform.Port
	RNG  *RNG
}

// RNG is the live driver state for one attached entropy device.
type RNG struct {
	dev     *virtio.Device
	region  *dma.Region
	buf     []byte
	limiter *poll.Limiter

	// gen is the seeded xorshift64 PRNG fallback for a hardware-RNG
	// read failure, spec.md §7, seeded from the device's own
	// MMIO/port base address.
	gen *prng.Xorshift64
}

var ids = []driver.ID{
	{Compatible: "virtio,mmio", VendorID: 0x1af4, DeviceID: 0x1005},
	{VendorID: 0x1af4, DeviceID: 0x1005},
}

// GetDriver returns the constant driver descriptor.
func GetDriver() *driver.Driver {
	return driver.New("virtio-rng", ids, initContext, deinitContext)
}

func initContext(rawCtx interface{}, d *device.Device) error {
	ctx, ok := rawCtx.(*Context)
	if !ok {
		return kerr.ErrConfiguration
	}

	transport := virtio.SelectTransport(ctx.Port, d.RegBase, queueSize)

	region, err := dma.NewRegion(1 << 14)
	if err != nil {
		return err
	}

	dev, err := virtio.Bringup(transport, region, 1)
	if err != nil {
		return err
	}

	_, buf, err := region.Reserve(bufSize, 0)
	if err != nil {
		return err
	}

	if err := dev.Finish(); err != nil {
		return err
	}

	ctx.RNG = &RNG{
		dev:     dev,
		region:  region,
		buf:     buf,
		limiter: poll.NewLimiter(pollIterations, 1_000_000, 64),
		gen:     prng.New(d.RegBase ^ 0x9e3779b97f4a7c15),
	}
	return nil
}

func deinitContext(rawCtx interface{}, _ *device.Device) {
	if ctx, ok := rawCtx.(*Context); ok {
		ctx.RNG = nil
	}
}

// Read posts one device-writable descriptor sized to len(out), polls for
// completion, and copies back the bytes the device wrote. On timeout it
// falls back to the seeded xorshift64 PRNG, spec.md §7.
func (r *RNG) Read(out []byte) {
	q := r.dev.Queues[0]

	n := len(out)
	if n > bufSize {
		n = bufSize
	}

	i, err := q.AllocDescriptor()
	if err != nil {
		r.fallback(out)
		return
	}

	q.SetDescriptor(i, r.region.AddrOf(r.buf), uint32(n), virtio.DescFlagWrite, 0)
	q.PushAvail(uint16(i))
	r.dev.Transport.WriteQueueNotify(0)

	savedLastUsed := q.LastUsedIdx()
	ok := r.limiter.Until(func() bool { return q.UsedIdx() != savedLastUsed })

	if !ok {
		q.FreeDescriptor(i)
		r.fallback(out)
		return
	}

	_, writtenLen := q.UsedEntry(q.LastUsedIdx())
	q.AdvanceUsed()
	q.FreeDescriptor(i)

	got := copy(out, r.buf[:writtenLen])
	if got < len(out) {
		r.fallback(out[got:])
	}
}

func (r *RNG) fallback(out []byte) {
	r.gen.FillBytes(out)
}
