package amd64

import "unsafe"

// IDT with 256 gate descriptors, every one pointing at the same
// illegal-instruction (#UD) stub, per spec.md §4.1's "installation of a
// single synchronous-trap handler."
//
// https://github.com/usbarmory/tamago (amd64/exception.go)

const numVectors = 256

type idtGate struct {
	offsetLow  uint16
	selector   uint16
	ist        uint8
	typeAttr   uint8
	offsetMid  uint16
	offsetHigh uint32
	reserved   uint32
}

var idt [numVectors]idtGate

type idtr struct {
	limit uint16
	base  uint64
}

var idtDescriptor idtr

const (
	codeSelector  = 0x08 // flat 64-bit code segment, set up by the boot stub
	gateInterrupt = 0x8e // present, DPL=0, 64-bit interrupt gate
)

func setGate(vector int, handler uintptr) {
	addr := uint64(handler)
	idt[vector] = idtGate{
		offsetLow:  uint16(addr),
		selector:   codeSelector,
		ist:        0,
		typeAttr:   gateInterrupt,
		offsetMid:  uint16(addr >> 16),
		offsetHigh: uint32(addr >> 32),
	}
}

// faultAddr is filled in by the assembly trap stub with the faulting
// instruction's address before calling trapHandler.
var faultAddr uint64

// funcAddr recovers a top-level asm function's entry address from its Go
// func value, since the Plan 9 assembler gives us no other way to take
// its address from Go code. Works because a non-closure func value's
// first word is its code pointer.
func funcAddr(f func()) uintptr {
	return **(**uintptr)(unsafe.Pointer(&f))
}

func installTraps() {
	ud := funcAddr(illegalInstructionStub)
	for v := 0; v < numVectors; v++ {
		setGate(v, ud)
	}

	idtDescriptor.limit = uint16(unsafe.Sizeof(idt) - 1)
	idtDescriptor.base = uint64(uintptr(unsafe.Pointer(&idt[0])))
	lidt(&idtDescriptor)
}

// illegalInstructionStub is the raw interrupt entry point, defined in
// trap_amd64.s. It saves the faulting RIP into faultAddr and calls
// trapHandler, which never returns.
func illegalInstructionStub()

// lidt loads the IDTR; defined in trap_amd64.s.
func lidt(d *idtr)

// trapHandler is called from assembly once faultAddr has been recorded.
// It has no access to a *Port (traps are asynchronous to the Go call
// stack), so it writes directly to COM1 and uses the debug-exit halt.
//
//go:nosplit
func trapHandler() {
	msg := "FATAL: illegal instruction at 0x"
	for i := 0; i < len(msg); i++ {
		serialPutc(msg[i])
	}
	const alphabet = "0123456789abcdef"
	for i := 15; i >= 0; i-- {
		serialPutc(alphabet[(faultAddr>>uint(i*4))&0xf])
	}
	serialPutc('\n')

	(&Port{}).Halt()
}
