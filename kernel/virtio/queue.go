package virtio

import (
	"encoding/binary"

	"github.com/stan-kondrat/yasouos/kernel/dma"
	"github.com/stan-kondrat/yasouos/kernel/kerr"
	"github.com/stan-kondrat/yasouos/kernel/reg"
)

// Descriptor flags, spec.md §3.
const (
	DescFlagNext  = 1 << 0 // chained
	DescFlagWrite = 1 << 1 // device-writable
)

const descSize = 16 // addr(8) + len(4) + flags(2) + next(2)

// Queue is one split virtqueue: a descriptor table, an available ring,
// and a used ring carved out of a single 4096-aligned DMA reservation,
// with the used ring page-aligned relative to the descriptor table per
// spec.md §3 invariant (ii).
type Queue struct {
	n int

	base     uint64
	buf      []byte
	availOff int
	usedOff  int

	lastUsedIdx uint16
	inUse       []bool
}

func availSize(n int) int { return 2 + 2 + 2*n + 2 } // flags, idx, ring[n], used_event
func usedSize(n int) int  { return 2 + 2 + 8*n + 2 } // flags, idx, ring[n]{id,len}, avail_event

func roundUp(v, align int) int {
	if rem := v % align; rem != 0 {
		return v + (align - rem)
	}
	return v
}

// NewQueue reserves the queue's DMA storage out of region and zeroes it.
func NewQueue(region *dma.Region, n int) (*Queue, error) {
	descBytes := n * descSize
	availOff := descBytes
	usedOff := roundUp(availOff+availSize(n), 4096)
	total := usedOff + usedSize(n)

	base, buf, err := region.Reserve(total, 4096)
	if err != nil {
		return nil, err
	}
	for i := range buf {
		buf[i] = 0
	}

	return &Queue{
		n: n, base: base, buf: buf,
		availOff: availOff, usedOff: usedOff,
		inUse: make([]bool, n),
	}, nil
}

// N is the queue's fixed descriptor count.
func (q *Queue) N() int { return q.n }

// PFN is the descriptor table's physical frame number, written to the
// queue-PFN register at per-queue init (spec.md §4.7.3 step 5).
func (q *Queue) PFN() uint32 { return uint32(q.base >> 12) }

// SetDescriptor writes descriptor i: addr, len, flags, next.
func (q *Queue) SetDescriptor(i int, addr uint64, length uint32, flags uint16, next uint16) {
	off := i * descSize
	binary.LittleEndian.PutUint64(q.buf[off:], addr)
	binary.LittleEndian.PutUint32(q.buf[off+8:], length)
	binary.LittleEndian.PutUint16(q.buf[off+12:], flags)
	binary.LittleEndian.PutUint16(q.buf[off+14:], next)
}

func (q *Queue) availFlagsOff() int { return q.availOff }
func (q *Queue) availIdxOff() int   { return q.availOff + 2 }
func (q *Queue) availRingOff(i int) int {
	return q.availOff + 4 + 2*(i%q.n)
}

// AvailIdx reads the available ring's idx field.
func (q *Queue) AvailIdx() uint16 {
	return binary.LittleEndian.Uint16(q.buf[q.availIdxOff():])
}

// PushAvail appends descHead to the available ring at the current idx,
// fencing before and after the idx update per spec.md §4.7.6: "every
// store to avail.idx is preceded by a full memory fence ... and followed
// by one."
func (q *Queue) PushAvail(descHead uint16) {
	idx := q.AvailIdx()
	binary.LittleEndian.PutUint16(q.buf[q.availRingOff(int(idx)):], descHead)

	reg.Fence()
	binary.LittleEndian.PutUint16(q.buf[q.availIdxOff():], idx+1)
	reg.Fence()
}

func (q *Queue) usedIdxOff() int { return q.usedOff + 2 }
func (q *Queue) usedRingOff(i int) int {
	return q.usedOff + 4 + 8*(i%q.n)
}

// UsedIdx reads the used ring's idx field, with a load fence first per
// spec.md §4.7.6: "every load of used.idx is followed by a full fence
// before reading used.ring[i]" (applied here as a fence prior to any
// dependent ring read, which is the stronger and simpler discipline to
// maintain uniformly).
func (q *Queue) UsedIdx() uint16 {
	idx := binary.LittleEndian.Uint16(q.buf[q.usedIdxOff():])
	reg.Fence()
	return idx
}

// UsedEntry reads used.ring[i] = {id, len}.
func (q *Queue) UsedEntry(i uint16) (id uint32, length uint32) {
	off := q.usedRingOff(int(i))
	return binary.LittleEndian.Uint32(q.buf[off:]), binary.LittleEndian.Uint32(q.buf[off+4:])
}

// LastUsedIdx / AdvanceUsed track the driver's per-queue consumption
// cursor into the used ring.
func (q *Queue) LastUsedIdx() uint16 { return q.lastUsedIdx }
func (q *Queue) AdvanceUsed()        { q.lastUsedIdx++ }

// AllocDescriptor scans the in-use bitmap for a free descriptor index,
// marking it used. Returns kerr.ErrResourceExhausted if all are
// occupied (spec.md §4.7.4 step 1).
func (q *Queue) AllocDescriptor() (int, error) {
	for i, used := range q.inUse {
		if !used {
			q.inUse[i] = true
			return i, nil
		}
	}
	return 0, kerr.ErrResourceExhausted
}

// FreeDescriptor clears the in-use bit for i.
func (q *Queue) FreeDescriptor(i int) { q.inUse[i] = false }

// ValidDescriptor reports whether id is a plausible descriptor index
// returned by the device (spec.md §4.7.9: "id ≥ N ... never panics").
func (q *Queue) ValidDescriptor(id uint32) bool { return id < uint32(q.n) }
