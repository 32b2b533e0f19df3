// Package riscv64 is the platform port for the supervisor-trap profile:
// SBI-based console and shutdown, an stvec-installed trap handler, and
// device-tree-sourced command line extraction.
//
// Platform bringup is an external collaborator to the core (spec.md §1);
// this package exists to satisfy platform.Port, not to be a
// general-purpose RISC-V hardware abstraction layer.
//
// https://github.com/usbarmory/tamago (riscv64/riscv64.go, riscv/asm.s)
package riscv64

import (
	"github.com/stan-kondrat/yasouos/kernel/fdt"
	"github.com/stan-kondrat/yasouos/kernel/platform"
	"github.com/stan-kondrat/yasouos/kernel/reg"
)

// Port implements platform.Port for the riscv64 target.
type Port struct {
	cmdline string
	haveCmd bool
}

var _ platform.Port = (*Port)(nil)

// New installs the trap vector and returns a ready Port. fdtAddr is the
// physical address of the flattened device tree passed in a1 at entry
// per the RISC-V supervisor boot protocol (0 if unavailable).
func New(fdtAddr uint64) *Port {
	installTrap()

	p := &Port{}
	if fdtAddr != 0 {
		if bootargs, ok := fdt.Bootargs(fdtAddr); ok {
			p.cmdline, p.haveCmd = bootargs, true
		}
	}
	return p
}

// sbiLegacyPutchar is the legacy SBI Console Putchar extension id,
// grounded on original_source/arch/riscv/platform.c's sbi_call(..., 0x01).
const sbiLegacyPutchar = 0x01

func (p *Port) Putchar(b byte) { sbiCall(uint64(b), 0, 0, 0, 0, 0, sbiLegacyPutchar, 0) }

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

// SBI System Reset Extension ("SRST"), function SYSTEM_RESET, used for
// halt. Grounded on original_source/arch/riscv/platform.c.
const (
	sbiSRSTExtension = 0x53525354
	sbiSRSTReset     = 0x00000000
	resetTypeShutdown = 0
	resetReasonNone   = 0
)

// Halt invokes the SBI System Reset Extension; falls back to a WFI spin
// loop if the SBI implementation does not support it.
func (p *Port) Halt() {
	sbiCall(resetTypeShutdown, resetReasonNone, 0, 0, 0, 0, sbiSRSTReset, sbiSRSTExtension)
	for {
		wfi()
	}
}

func (p *Port) MMIORead32(addr uint64) uint32      { return reg.Read32(addr) }
func (p *Port) MMIOWrite32(addr uint64, val uint32) { reg.Write32(addr, val) }

// sbiCall issues an ecall to M-mode/SBI with arguments in a0-a5 and the
// function/extension ids in a6/a7; defined in riscv64.s.
func sbiCall(a0, a1, a2, a3, a4, a5, fid, eid uint64) uint64

// wfi issues WFI; defined in riscv64.s.
func wfi()
