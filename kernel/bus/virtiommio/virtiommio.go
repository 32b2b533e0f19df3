// Package virtiommio implements the memory-mapped VirtIO enumerator:
// probes a (base, stride, count) configuration window for the VirtIO
// MMIO magic and emits device records (spec.md §4.4).
//
// https://github.com/usbarmory/tamago has no direct analogue (its MMIO
// VirtIO transport in kvm/virtio/mmio.go assumes a single
// already-known device address rather than scanning a slot range);
// grounded instead on original_source/kernel/devices/virtio_mmio.c's
// slot-scan loop and original_source/drivers/devicetree/devicetree_arm64.c's
// QEMU virt (base=0x0a000000, stride=0x200, count=32) configuration.
package virtiommio

import (
	"github.com/stan-kondrat/yasouos/kernel/device"
	"github.com/stan-kondrat/yasouos/kernel/platform"
)

const (
	magic = 0x74726976 // little-endian "virt"

	offMagic      = 0x000
	offVersion    = 0x004
	offDeviceType = 0x008

	syntheticVendorID = 0x1af4
)

// Config is a (base, stride, count) VirtIO-MMIO scan window, spec.md
// §4.4. QEMU's virt machine places up to 32 such slots starting at
// 0x0a000000 with a 0x200 stride.
type Config struct {
	Base   uint64
	Stride uint64
	Count  int
}

// deviceTypeToID maps a VirtIO device type to its synthetic device-id,
// spec.md §4.4: network=1→0x1000, block=2→0x1001, entropy=4→0x1005.
func deviceTypeToID(t uint32) (uint16, bool) {
	switch t {
	case 1:
		return 0x1000, true
	case 2:
		return 0x1001, true
	case 4:
		return 0x1005, true
	default:
		return 0, false
	}
}

// Enumerate scans cfg's slot range, validating the magic at each slot
// and the version (1 or 2) and non-zero device type, and adds a matching
// device record to reg for each. Returns the count added.
func Enumerate(port platform.Port, cfg Config, reg *device.Registry) int {
	count := 0

	for slot := 0; slot < cfg.Count; slot++ {
		base := cfg.Base + uint64(slot)*cfg.Stride

		if port.MMIORead32(base+offMagic) != magic {
			continue
		}

		version := port.MMIORead32(base + offVersion)
		if version != 1 && version != 2 {
			continue
		}

		devType := port.MMIORead32(base + offDeviceType)
		if devType == 0 {
			continue
		}

		devID, ok := deviceTypeToID(devType)
		if !ok {
			continue
		}

		_, err := reg.Add(device.Device{
			Name:       "virtio-mmio",
			Compatible: "virtio,mmio",
			VendorID:   syntheticVendorID,
			DeviceID:   devID,
			RegBase:    base,
			RegSize:    cfg.Stride,
		})
		if err == nil {
			count++
		}
	}

	return count
}
