package riscv64

import "unsafe"

// installTrap points stvec at the trap entry defined in trap_riscv64.s.
// spec.md §4.1 calls for "a single synchronous-trap handler"; this
// kernel does not distinguish trap causes beyond printing whatever
// scause held.
func installTrap() {
	setSTVEC(funcAddr(trapEntry))
}

// funcAddr recovers a top-level asm function's entry address from its Go
// func value; works because a non-closure func value's first word is its
// code pointer.
func funcAddr(f func()) uintptr {
	return **(**uintptr)(unsafe.Pointer(&f))
}

// faultEPC and faultCause are filled in by the assembly trap entry
// before calling trapHandler.
var faultEPC uint64
var faultCause uint64

// setSTVEC writes stvec; defined in trap_riscv64.s.
func setSTVEC(handler uintptr)

// trapEntry is the raw trap vector, defined in trap_riscv64.s. It saves
// sepc/scause into the Go globals above and calls trapHandler, which
// never returns.
func trapEntry()

//go:nosplit
func trapHandler() {
	msg := "FATAL: trap, sepc=0x"
	for i := 0; i < len(msg); i++ {
		(&Port{}).Putchar(msg[i])
	}
	p := &Port{}
	putHex(p, faultEPC, 16)
	p.Putchar(' ')
	msg2 := "scause=0x"
	for i := 0; i < len(msg2); i++ {
		p.Putchar(msg2[i])
	}
	putHex(p, faultCause, 16)
	p.Putchar('\n')

	p.Halt()
}
