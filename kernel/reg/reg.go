// Package reg provides primitives for retrieving and modifying
// memory-mapped hardware registers, identity mapped (physical address ==
// virtual address, per this kernel's no-paging design).
//
// https://github.com/usbarmory/tamago (internal/reg/reg32.go)
package reg

import (
	"sync/atomic"
	"unsafe"
)

// Read32 performs a volatile 32-bit load from the given physical address.
func Read32(addr uint64) uint32 {
	return atomic.LoadUint32((*uint32)(unsafe.Pointer(uintptr(addr))))
}

// Write32 performs a volatile 32-bit store to the given physical address.
func Write32(addr uint64, val uint32) {
	atomic.StoreUint32((*uint32)(unsafe.Pointer(uintptr(addr))), val)
}

// Set32 sets a single bit of a 32-bit register.
func Set32(addr uint64, pos int) {
	Write32(addr, Read32(addr)|(1<<uint(pos)))
}

// Clear32 clears a single bit of a 32-bit register.
func Clear32(addr uint64, pos int) {
	Write32(addr, Read32(addr)&^(1<<uint(pos)))
}

// IsSet32 reports whether a single bit of a 32-bit register is set.
func IsSet32(addr uint64, pos int) bool {
	return (Read32(addr)>>uint(pos))&1 != 0
}

// Wait busy-loops until a register bit field matches val. Used only by
// bring-up sequences that are bounded by the caller (this kernel has no
// interrupts and must never block indefinitely on a broken device).
func Wait(addr uint64, pos int, mask uint32, val uint32) {
	for (Read32(addr)>>uint(pos))&mask != val {
	}
}
