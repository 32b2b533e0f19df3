// Package driver defines the driver descriptor: a pure data value with
// an ID table, matched against enumerated devices without any global
// mutable driver list (spec.md §4.5). Each application publishes its
// driver's descriptor via a getter and hands it directly to
// kernel/resource.Acquire; there is no "register all drivers, probe
// everything" step.
//
// https://github.com/usbarmory/tamago has no equivalent registry (boards
// wire drivers by direct Go construction); grounded instead on
// other_examples/ef3c44c7_SeleniaProject-Orizon__internal-stdlib-drivers-device.go.go's
// Device/DeviceDriver probe-by-ID-table shape, adapted to a constant
// descriptor rather than a mutable registered driver list.
package driver

import "github.com/stan-kondrat/yasouos/kernel/device"

// ID matches a device either by its compatible string (FDT-enumerated
// devices) or by vendor:device id pair (PCI/virtio-mmio-enumerated
// devices). A zero Compatible means "match by ID only"; a zero
// VendorID/DeviceID pair means "match by Compatible only."
type ID struct {
	Compatible string
	VendorID   uint16
	DeviceID   uint16
}

func (id ID) matches(d *device.Device) bool {
	if id.Compatible != "" && id.Compatible == d.Compatible {
		return true
	}
	if id.VendorID != 0 && id.VendorID == d.VendorID && id.DeviceID == d.DeviceID {
		return true
	}
	return false
}

// Driver is a constant, read-only descriptor: an ID table plus the two
// lifecycle hooks the resource manager invokes. Context is an opaque
// caller-owned value whose concrete type only the driver and its caller
// agree on (spec.md §4.6).
type Driver struct {
	name  string
	ids   []ID
	Init  func(ctx interface{}, d *device.Device) error
	Deinit func(ctx interface{}, d *device.Device)
}

// New builds a constant driver descriptor. Drivers are expected to be
// built once, at package init or as a package-level var, and never
// mutated afterward.
func New(name string, ids []ID, init func(interface{}, *device.Device) error, deinit func(interface{}, *device.Device)) *Driver {
	return &Driver{name: name, ids: ids, Init: init, Deinit: deinit}
}

func (drv *Driver) Name() string { return drv.name }

// Matches reports whether d's compatible string or vendor:device pair is
// present in the driver's ID table.
func (drv *Driver) Matches(d *device.Device) bool {
	for _, id := range drv.ids {
		if id.matches(d) {
			return true
		}
	}
	return false
}
