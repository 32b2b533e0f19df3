// Package arm64 is the platform port for the load/store profile: a
// PL011 UART console, PSCI SYSTEM_OFF for halt, a VBAR-relative
// exception vector table with a populated synchronous-exception entry,
// and device-tree-sourced command line extraction.
//
// Platform bringup is an external collaborator to the core (spec.md §1);
// this package exists to satisfy platform.Port, not to be a
// general-purpose ARM hardware abstraction layer.
//
// https://github.com/usbarmory/tamago (arm64/arm64.go, arm64/exception.go)
package arm64

import (
	"github.com/stan-kondrat/yasouos/kernel/fdt"
	"github.com/stan-kondrat/yasouos/kernel/platform"
	"github.com/stan-kondrat/yasouos/kernel/reg"
)

// Port implements platform.Port for the arm64 target.
type Port struct {
	cmdline string
	haveCmd bool
}

var _ platform.Port = (*Port)(nil)

// New installs the exception vector table and returns a ready Port.
// fdtAddr is the physical address of the flattened device tree the VMM
// passes in x0 at entry (0 if unavailable); per
// original_source/kernel/platform/arm64/platform.c the PL011 UART needs
// no explicit bring-up under QEMU virt.
func New(fdtAddr uint64) *Port {
	installVectors()

	p := &Port{}
	if fdtAddr != 0 {
		if bootargs, ok := fdt.Bootargs(fdtAddr); ok {
			p.cmdline, p.haveCmd = bootargs, true
		}
	}
	return p
}

func (p *Port) Putchar(b byte) { reg.Write32(uart0Base, uint32(b)) }

func (p *Port) Puts(s string) {
	for i := 0; i < len(s); i++ {
		p.Putchar(s[i])
	}
}

func (p *Port) PutHex8(v uint8)   { putHex(p, uint64(v), 2) }
func (p *Port) PutHex16(v uint16) { putHex(p, uint64(v), 4) }
func (p *Port) PutHex32(v uint32) { putHex(p, uint64(v), 8) }
func (p *Port) PutHex64(v uint64) { putHex(p, v, 16) }

func putHex(p *Port, v uint64, digits int) {
	const alphabet = "0123456789abcdef"
	for i := digits - 1; i >= 0; i-- {
		nibble := (v >> uint(i*4)) & 0xf
		p.Putchar(alphabet[nibble])
	}
}

func (p *Port) Cmdline() (string, bool) { return p.cmdline, p.haveCmd }

// psciSystemOff is the PSCI 1.0 SYSTEM_OFF function id, invoked via HVC
// per original_source/arch/arm64/platform.c.
const psciSystemOff = 0x84000008

// Halt invokes PSCI SYSTEM_OFF via HVC; falls back to a WFE spin loop
// if the VMM does not implement PSCI.
func (p *Port) Halt() {
	hvc(psciSystemOff)
	for {
		wfe()
	}
}

func (p *Port) MMIORead32(addr uint64) uint32      { return reg.Read32(addr) }
func (p *Port) MMIOWrite32(addr uint64, val uint32) { reg.Write32(addr, val) }

// hvc issues HVC #0 with fn in x0; defined in arm64.s.
func hvc(fn uint64)

// wfe issues WFE; defined in arm64.s.
func wfe()
