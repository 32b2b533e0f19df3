// Package amd64 is the platform port for the CISC profile: a COM1 UART
// console, the QEMU ISA debug-exit device for halt, an IDT whose every
// vector points at the illegal-instruction (#UD) handler, and Multiboot2-sourced
// command line extraction.
//
// Platform bringup is an external collaborator to the core (spec.md §1);
// this package exists to satisfy platform.Port and platform.PortIO, not to
// be a general-purpose x86 hardware abstraction layer.
//
// https://github.com/usbarmory/tamago (amd64/amd64.go, amd64/exception.go)
package amd64

import (
	"github.com/stan-kondrat/yasouos/kernel/platform"
	"github.com/stan-kondrat/yasouos/kernel/reg"
)

// Port implements platform.Port and platform.PortIO for the amd64 target.
type Port struct {
	cmdline string
	haveCmd bool
}

var _ platform.Port = (*Port)(nil)
var _ platform.PortIO = (*Port)(nil)

// New brings up COM1 and the illegal-instruction trap and returns a ready
// Port. multibootInfo is the physical address QEMU/the bootloader leaves
// in EBX at entry (0 if unavailable).
func New(multibootInfo uint32) *Port {
	initSerial()
	installTraps()

	p := &Port{}
	p.cmdline, p.haveCmd = parseCmdline(multibootInfo)
	return p
}

func (p *Port) Putchar(b byte) { serialPutc(b) }

func (p *Port) Puts(s string) {
	for i := 0; i < len(s); i++ {
		serialPutc(s[i])
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

// Halt triggers QEMU's isa-debug-exit device at port 0xf4. Writing value v
// yields host exit status (v<<1)|1, per spec.md §6.
func (p *Port) Halt() {
	reg.Out32(debugExitPort, 0x10)
	for {
		halt()
	}
}

func (p *Port) MMIORead32(addr uint64) uint32          { return reg.Read32(addr) }
func (p *Port) MMIOWrite32(addr uint64, val uint32)     { reg.Write32(addr, val) }

func (p *Port) InB(port uint16) uint8         { return reg.In8(port) }
func (p *Port) OutB(port uint16, val uint8)   { reg.Out8(port, val) }
func (p *Port) InW(port uint16) uint16        { return reg.In16(port) }
func (p *Port) OutW(port uint16, val uint16)  { reg.Out16(port, val) }
func (p *Port) InL(port uint16) uint32        { return reg.In32(port) }
func (p *Port) OutL(port uint16, val uint32)  { reg.Out32(port, val) }
