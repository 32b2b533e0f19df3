// Package dma provides static-pool buffer reservation for device drivers
// that must hand the device a stable physical address without triggering
// Go's garbage collector or any dynamic allocation.
//
// Unlike the teacher's first-fit heap allocator (dma/dma.go, dma/region.go,
// which call into container/list and reflect to back arbitrary-sized
// regions), this kernel has no dynamic memory allocation (spec.md §1
// Non-goals): the pool backing store is a single fixed-size array declared
// at package scope, and Reserve/Release only ever hand out slices into it.
// The block-list bookkeeping (first-fit search, used/free split) is kept
// because it is still the right algorithm for a fixed pool with
// variable-sized reservations; only the backing allocator is static.
//
// https://github.com/usbarmory/tamago (dma/dma.go, dma/block.go)
package dma

import (
	"unsafe"

	"github.com/stan-kondrat/yasouos/kernel/kerr"
)

// PoolSize is the total size of the static DMA arena. It must comfortably
// hold the largest VirtIO split-queue (descriptor table + available ring +
// used ring, 4096-aligned) plus all packet buffer arrays the bundled NIC
// drivers reserve.
const PoolSize = 1 << 20 // 1 MiB

var pool [PoolSize]byte

type block struct {
	offset int
	size   int
	used   bool
}

// Region tracks reservations carved out of a sub-range of the static pool.
// Each driver instance owns its own Region so that one device's layout
// bugs cannot corrupt another's.
type Region struct {
	base   int
	size   int
	blocks []block
}

// cursor is the next free offset in the package-wide static pool; Regions
// are handed out from it and never overlap.
var cursor int

// NewRegion reserves a sub-range of the static pool for exclusive use by
// one caller (typically one driver instance) and returns a Region that can
// carve further fixed-size buffers out of it.
func NewRegion(size int) (*Region, error) {
	if cursor+size > PoolSize {
		return nil, kerr.ErrResourceExhausted
	}

	r := &Region{base: cursor, size: size}
	r.blocks = []block{{offset: 0, size: size, used: false}}
	cursor += size

	return r, nil
}

// Reserve carves a buffer of the given length out of the region, aligned
// to align bytes (0 means no alignment requirement beyond natural byte
// alignment). It returns the buffer's physical address (identity-mapped,
// so numerically equal to its address in the static pool) and the backing
// slice.
func (r *Region) Reserve(length int, align int) (addr uint64, buf []byte, err error) {
	for i, b := range r.blocks {
		if b.used {
			continue
		}

		start := b.offset
		if align > 1 {
			rem := start % align
			if rem != 0 {
				start += align - rem
			}
		}

		padding := start - b.offset
		if b.size-padding < length {
			continue
		}

		if padding > 0 {
			r.blocks[i].size = padding
			r.blocks = append(r.blocks, block{})
			copy(r.blocks[i+2:], r.blocks[i+1:])
			r.blocks[i+1] = block{offset: start, size: b.size - padding, used: false}
			i++
		}

		used := block{offset: start, size: length, used: true}
		leftover := r.blocks[i].size - length

		if leftover > 0 {
			r.blocks[i] = used
			r.blocks = append(r.blocks, block{})
			copy(r.blocks[i+2:], r.blocks[i+1:])
			r.blocks[i+1] = block{offset: start + length, size: leftover, used: false}
		} else {
			r.blocks[i] = used
		}

		addr = uint64(r.base + start)
		buf = pool[r.base+start : r.base+start+length]

		return addr, buf, nil
	}

	return 0, nil, kerr.ErrResourceExhausted
}

// Release returns a previously reserved buffer to the region's free list,
// identified by its physical address.
func (r *Region) Release(addr uint64) {
	off := int(addr) - r.base

	for i := range r.blocks {
		if r.blocks[i].offset == off && r.blocks[i].used {
			r.blocks[i].used = false
			return
		}
	}
}

// AddrOf returns the physical address of a slice previously returned by
// Reserve, recovered from its position within the static pool. Callers
// that keep the buffer around (e.g. one slot per descriptor index) use
// this instead of threading the Reserve-time address alongside it.
func AddrOf(buf []byte) uint64 {
	return uint64(uintptr(unsafe.Pointer(&buf[0])) - uintptr(unsafe.Pointer(&pool[0])))
}

// AddrOf is also exposed as a Region method for call-site symmetry with
// Reserve/Release.
func (r *Region) AddrOf(buf []byte) uint64 { return AddrOf(buf) }
