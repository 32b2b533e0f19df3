package arm64

import (
	"unsafe"

	"github.com/stan-kondrat/yasouos/kernel/reg"
)

// installVectors points VBAR_EL1 at the exception vector table defined in
// vector_arm64.s. Every one of the table's 16 entries branches to the
// same handler: this kernel installs "a single synchronous-trap handler"
// (spec.md §4.1), it does not distinguish IRQ/FIQ/SError from
// synchronous exceptions or current-EL from lower-EL sources.
func installVectors() {
	setVBAR(funcAddr(vectorTable))
}

// funcAddr recovers a top-level asm function's entry address from its Go
// func value; works because a non-closure func value's first word is its
// code pointer.
func funcAddr(f func()) uintptr {
	return **(**uintptr)(unsafe.Pointer(&f))
}

// faultELR and faultESR are filled in by the assembly trap entry before
// calling trapHandler.
var faultELR uint64
var faultESR uint64

// vectorTable is the 2KB-aligned, 16*0x80-byte table; defined in
// vector_arm64.s.
func vectorTable()

// setVBAR writes VBAR_EL1; defined in vector_arm64.s.
func setVBAR(addr uintptr)

//go:nosplit
func trapHandler() {
	msg := "FATAL: illegal instruction, ELR=0x"
	for i := 0; i < len(msg); i++ {
		reg32Putc(msg[i])
	}
	putHexRaw(faultELR, 16)
	reg32Putc(' ')
	msg2 := "ESR=0x"
	for i := 0; i < len(msg2); i++ {
		reg32Putc(msg2[i])
	}
	putHexRaw(faultESR, 8)
	reg32Putc('\n')

	(&Port{}).Halt()
}

func reg32Putc(b byte) {
	reg.Write32(uart0Base, uint32(b))
}

func putHexRaw(v uint64, digits int) {
	const alphabet = "0123456789abcdef"
	for i := digits - 1; i >= 0; i-- {
		reg32Putc(alphabet[(v>>uint(i*4))&0xf])
	}
}
