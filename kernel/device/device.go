// Package device implements the fixed-capacity device registry: a flat
// array of records, a flat iteration list built at enumeration time, and
// a shallow two-level tree built afterward (spec.md §4.3).
//
// https://github.com/usbarmory/tamago (internal/reg register-map idiom
// informs the MMIO map/unmap trivia below; the registry/tree shape itself
// has no direct teacher analogue since tamago enumerates real silicon
// through per-board Go code rather than a generic device list).
package device

import "github.com/stan-kondrat/yasouos/kernel/kerr"

// MaxDevices bounds the registry; a pragmatic fixed pool size (spec.md §9),
// not derived from any protocol invariant.
const MaxDevices = 128

// Driver is the minimal interface the device registry needs from a bound
// driver: just enough to print it. The actual Driver type (with its ID
// table and init/deinit hooks) lives in kernel/driver, which imports this
// package — not the other way around.
type Driver interface {
	Name() string
}

// Device is one enumerated device record.
type Device struct {
	Name       string
	Compatible string
	VendorID   uint16
	DeviceID   uint16
	Bus        uint8
	Slot       uint8
	Func       uint8
	RegBase    uint64
	RegSize    uint64
	Depth      int

	driver Driver

	next        *Device // flat iteration order
	parent      *Device
	firstChild  *Device
	nextSibling *Device
}

func (d *Device) SetDriver(drv Driver)  { d.driver = drv }
func (d *Device) GetDriver() Driver     { return d.driver }
func (d *Device) Parent() *Device       { return d.parent }
func (d *Device) FirstChild() *Device   { return d.firstChild }
func (d *Device) NextSibling() *Device  { return d.nextSibling }

// MapMMIO returns reg_base identity-mapped: this kernel runs with no
// paging, so "mapping" a physical address is a no-op cast (spec.md §4.3).
func (d *Device) MapMMIO() uint64 { return d.RegBase }

// UnmapMMIO is a no-op for the same reason; kept as a named operation so
// callers can be written as if unmapping mattered, per spec.md §4.3.
func (d *Device) UnmapMMIO(uint64) {}

// Registry is the fixed-capacity device store.
type Registry struct {
	devices [MaxDevices]Device
	count   int
	head    *Device
	tail    *Device
}

// Add appends a newly enumerated device to the registry's flat list.
// Returns kerr.ErrResourceExhausted once the pool is full.
func (r *Registry) Add(d Device) (*Device, error) {
	if r.count >= MaxDevices {
		return nil, kerr.ErrResourceExhausted
	}

	slot := &r.devices[r.count]
	*slot = d
	r.count++

	if r.head == nil {
		r.head = slot
	} else {
		r.tail.next = slot
	}
	r.tail = slot

	return slot, nil
}

// First returns the first device in flat iteration order, or nil.
func (r *Registry) First() *Device { return r.head }

// Next returns the device following d in flat iteration order, or nil.
func (r *Registry) Next(d *Device) *Device { return d.next }

// FindByName returns the first device whose Name matches, or nil.
func (r *Registry) FindByName(name string) *Device {
	for d := r.head; d != nil; d = d.next {
		if d.Name == name {
			return d
		}
	}
	return nil
}

// BuildTree links depth-0 devices as roots and depth-1 devices as their
// nearest preceding root's children, via first-child/next-sibling.
// Deeper hierarchies are left flat, a deliberate simplification (spec.md
// §4.3, §9).
func (r *Registry) BuildTree() {
	var lastRoot *Device
	var lastChild *Device

	for d := r.head; d != nil; d = d.next {
		switch d.Depth {
		case 0:
			lastRoot = d
			lastChild = nil
		case 1:
			if lastRoot == nil {
				continue
			}
			d.parent = lastRoot
			if lastChild == nil {
				lastRoot.firstChild = d
			} else {
				lastChild.nextSibling = d
			}
			lastChild = d
		}
	}
}

// Print writes a recursive, depth-indented tree via emit, tagging each
// node with its reg_base, optional (vendor:device), and bound-driver
// name (spec.md §4.3).
func (r *Registry) Print(emit func(string)) {
	for d := r.head; d != nil; d = d.next {
		if d.Depth != 0 {
			continue
		}
		printNode(d, emit)
	}
}

func printNode(d *Device, emit func(string)) {
	indent := ""
	for i := 0; i < d.Depth; i++ {
		indent += "  "
	}

	line := indent + d.Name + " @0x" + hex64(d.RegBase)
	if d.VendorID != 0 || d.DeviceID != 0 {
		line += " (" + hex16(d.VendorID) + ":" + hex16(d.DeviceID) + ")"
	}
	if d.driver != nil {
		line += " driver=" + d.driver.Name()
	}
	emit(line)

	for c := d.firstChild; c != nil; c = c.nextSibling {
		printNode(c, emit)
	}
}

func hex64(v uint64) string { return hexN(uint64(v), 16) }
func hex16(v uint16) string { return hexN(uint64(v), 4) }

func hexN(v uint64, digits int) string {
	const alphabet = "0123456789abcdef"
	buf := make([]byte, digits)
	for i := digits - 1; i >= 0; i-- {
		buf[i] = alphabet[v&0xf]
		v >>= 4
	}
	return string(buf)
}
