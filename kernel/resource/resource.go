// Package resource implements the resource manager: a fixed 16-slot pool
// binding (device, driver, context) triples, with an exclusive-hold
// contract enforced by scanning the allocations list rather than mutating
// the device itself (spec.md §4.6).
//
// https://github.com/usbarmory/tamago has no equivalent (boards
// construct drivers directly); the acquire/release/exactly-once-init
// shape is grounded on
// other_examples/ef3c44c7_SeleniaProject-Orizon__internal-stdlib-drivers-device.go.go's
// Probe-then-bind pattern, generalized to a pool with a release path.
package resource

import (
	"github.com/stan-kondrat/yasouos/kernel/device"
	"github.com/stan-kondrat/yasouos/kernel/driver"
	"github.com/stan-kondrat/yasouos/kernel/kerr"
)

// MaxAllocations bounds the pool; a pragmatic fixed size (spec.md §9).
const MaxAllocations = 16

type slot struct {
	used   bool
	device *device.Device
	driver *driver.Driver
	ctx    interface{}
}

// Handle is an opaque reference to a successful acquisition.
type Handle struct {
	mgr *Manager
	idx int
}

// Manager owns the fixed allocation pool.
type Manager struct {
	slots [MaxAllocations]slot
}

// NewManager returns an empty resource manager.
func NewManager() *Manager {
	return &Manager{}
}

func (m *Manager) isHeld(d *device.Device) bool {
	for i := 0; i < MaxAllocations; i++ {
		if m.slots[i].used && m.slots[i].device == d {
			return true
		}
	}
	return false
}

func (m *Manager) freeSlot() int {
	for i := 0; i < MaxAllocations; i++ {
		if !m.slots[i].used {
			return i
		}
	}
	return -1
}

// Acquire walks the device registry from its first device, looking for
// one that matches drv's ID table and is not already held. On a match it
// reserves a pool slot, calls drv.Init(ctx, device), and on success
// returns a Handle. On Init failure it releases the slot and tries the
// next matching device. Returns kerr.ErrResourceExhausted if the pool is
// full or no device matches.
func (m *Manager) Acquire(reg *device.Registry, drv *driver.Driver, ctx interface{}) (*Handle, error) {
	for d := reg.First(); d != nil; d = reg.Next(d) {
		if !drv.Matches(d) || m.isHeld(d) {
			continue
		}

		i := m.freeSlot()
		if i < 0 {
			return nil, kerr.ErrResourceExhausted
		}

		m.slots[i] = slot{used: true, device: d, driver: drv, ctx: ctx}

		if drv.Init != nil {
			if err := drv.Init(ctx, d); err != nil {
				m.slots[i] = slot{}
				continue
			}
		}

		d.SetDriver(drv)
		return &Handle{mgr: m, idx: i}, nil
	}

	return nil, kerr.ErrResourceExhausted
}

// Release calls the bound driver's Deinit (if any) and returns the slot
// to the pool.
func (m *Manager) Release(h *Handle) {
	s := &m.slots[h.idx]
	if !s.used {
		return
	}
	if s.driver.Deinit != nil {
		s.driver.Deinit(s.ctx, s.device)
	}
	*s = slot{}
}

// Device returns the device a handle is bound to.
func (h *Handle) Device() *device.Device { return h.mgr.slots[h.idx].device }

// Context returns the caller-owned context a handle is bound to.
func (h *Handle) Context() interface{} { return h.mgr.slots[h.idx].ctx }

// Tag renders the "[bus:dev|driver@version]" pretty-print used by
// logging throughout the core (spec.md §4.6). version is caller-supplied
// since the resource manager itself has no notion of driver versioning.
func Tag(d *device.Device, driverName string, version string) string {
	return "[" + hexByte(d.Bus) + ":" + hexByte(d.Slot) + "|" + driverName + "@" + version + "]"
}

func hexByte(v uint8) string {
	const alphabet = "0123456789abcdef"
	return string([]byte{alphabet[v>>4], alphabet[v&0xf]})
}
