// Package fdt reads a flattened device-tree blob (spec.md §4.2): binary
// walk of the structure block, no allocation beyond per-call scratch,
// never panics on malformed input.
//
// https://github.com/usbarmory/tamago (kvm/virtio/mmio.go style register
// reads) — the unaligned-read and token-walk idiom here is otherwise
// original to this package, as tamago targets real silicon that is
// enumerated by board-specific Go code rather than a parsed FDT blob.
package fdt

import "unsafe"

const (
	magic = 0xd00dfeed

	tokenBeginNode = 1
	tokenEndNode   = 2
	tokenProp      = 3
	tokenNop       = 4
	tokenEnd       = 9
)

// header mirrors the FDT boot header, all fields big-endian u32.
type header struct {
	magic       uint32
	totalSize   uint32
	offDtStruct uint32
	offDtStrings uint32
	offMemRsvmap uint32
	version     uint32
	lastCompVer uint32
	bootCpuidPhys uint32
	sizeDtStrings uint32
	sizeDtStruct uint32
}

// Device is one node's {reg, compatible} pair, handed to the Enumerate
// callback at END_NODE if both properties were present.
type Device struct {
	Compatible string
	RegAddr    uint64
	RegSize    uint64
}

type reader struct {
	base  uintptr
	limit uintptr
	strBase uintptr
	strLimit uintptr
}

func (r *reader) u32(off uintptr) (uint32, bool) {
	addr := r.base + off
	if addr+4 > r.limit {
		return 0, false
	}
	b0 := *(*byte)(unsafe.Pointer(addr))
	b1 := *(*byte)(unsafe.Pointer(addr + 1))
	b2 := *(*byte)(unsafe.Pointer(addr + 2))
	b3 := *(*byte)(unsafe.Pointer(addr + 3))
	return uint32(b0)<<24 | uint32(b1)<<16 | uint32(b2)<<8 | uint32(b3), true
}

func (r *reader) u64(off uintptr) (uint64, bool) {
	hi, ok := r.u32(off)
	if !ok {
		return 0, false
	}
	lo, ok := r.u32(off + 4)
	if !ok {
		return 0, false
	}
	return uint64(hi)<<32 | uint64(lo), true
}

func (r *reader) cstr(off uintptr) (string, bool) {
	addr := r.base + off
	end := addr
	for end < r.limit {
		if *(*byte)(unsafe.Pointer(end)) == 0 {
			buf := make([]byte, 0, end-addr)
			for p := addr; p < end; p++ {
				buf = append(buf, *(*byte)(unsafe.Pointer(p)))
			}
			return string(buf), true
		}
		end++
	}
	return "", false
}

func (r *reader) name(off uintptr) string {
	addr := r.base + off
	end := addr
	for end < r.limit && *(*byte)(unsafe.Pointer(end)) != 0 {
		end++
	}
	buf := make([]byte, 0, end-addr)
	for p := addr; p < end; p++ {
		buf = append(buf, *(*byte)(unsafe.Pointer(p)))
	}
	return string(buf)
}

func align4(off uintptr) uintptr {
	if rem := off % 4; rem != 0 {
		return off + (4 - rem)
	}
	return off
}

func readHeader(blobAddr uint64) (header, *reader, bool) {
	base := uintptr(blobAddr)
	hdr := header{}
	r := &reader{base: base, limit: base + 1<<20} // provisional, corrected below

	words := make([]uint32, 10)
	for i := range words {
		w, ok := r.u32(uintptr(i * 4))
		if !ok {
			return hdr, nil, false
		}
		words[i] = w
	}

	hdr = header{
		magic: words[0], totalSize: words[1], offDtStruct: words[2],
		offDtStrings: words[3], offMemRsvmap: words[4], version: words[5],
		lastCompVer: words[6], bootCpuidPhys: words[7],
		sizeDtStrings: words[8], sizeDtStruct: words[9],
	}

	if hdr.magic != magic {
		return hdr, nil, false
	}

	r.limit = base + uintptr(hdr.totalSize)
	r.strBase = base + uintptr(hdr.offDtStrings)
	r.strLimit = r.strBase + uintptr(hdr.sizeDtStrings)

	return hdr, r, true
}

// Enumerate walks the structure block, invoking cb for every node that
// carries both a reg and a compatible property, and returns the number
// of such nodes. Any out-of-bounds read or unrecognized token ends the
// walk with the count collected so far; it never panics.
func Enumerate(blobAddr uint64, cb func(Device)) int {
	hdr, r, ok := readHeader(blobAddr)
	if !ok {
		return 0
	}

	off := uintptr(hdr.offDtStruct)
	end := uintptr(hdr.offDtStruct) + uintptr(hdr.sizeDtStruct)

	count := 0
	depth := 0

	var cur Device
	var haveReg, haveCompat bool

	for off < end {
		tok, ok := r.u32(off)
		if !ok {
			break
		}
		off += 4

		switch tok {
		case tokenBeginNode:
			depth++
			cur = Device{}
			haveReg, haveCompat = false, false
			name := r.name(off)
			off = align4(off + uintptr(len(name)) + 1)

		case tokenEndNode:
			if depth > 0 && haveReg && haveCompat {
				cb(cur)
				count++
			}
			depth--

		case tokenProp:
			propLen, ok := r.u32(off)
			if !ok {
				return count
			}
			nameOff, ok := r.u32(off + 4)
			if !ok {
				return count
			}
			dataOff := off + 8

			propName := r.name(r.strBase - r.base + uintptr(nameOff))

			switch propName {
			case "reg":
				if propLen >= 16 {
					addr, ok1 := r.u64(dataOff)
					size, ok2 := r.u64(dataOff + 8)
					if ok1 && ok2 {
						cur.RegAddr, cur.RegSize = addr, size
						haveReg = true
					}
				}
			case "compatible":
				if s, ok := r.cstr(dataOff); ok {
					cur.Compatible = s
					haveCompat = true
				}
			}

			off = align4(off + 8 + uintptr(propLen))

		case tokenNop:
			// no payload

		case tokenEnd:
			return count

		default:
			return count
		}
	}

	return count
}

// Bootargs locates the /chosen node (depth 1, name "chosen") and returns
// its bootargs string property.
func Bootargs(blobAddr uint64) (string, bool) {
	hdr, r, ok := readHeader(blobAddr)
	if !ok {
		return "", false
	}

	off := uintptr(hdr.offDtStruct)
	end := off + uintptr(hdr.sizeDtStruct)
	depth := 0
	inChosen := false

	for off < end {
		tok, ok := r.u32(off)
		if !ok {
			break
		}
		off += 4

		switch tok {
		case tokenBeginNode:
			name := r.name(off)
			inChosen = depth == 1 && name == "chosen"
			depth++
			nameLen := uintptr(len(name))
			off = align4(off + nameLen + 1)

		case tokenEndNode:
			depth--

		case tokenProp:
			propLen, ok := r.u32(off)
			if !ok {
				return "", false
			}
			nameOff, ok := r.u32(off + 4)
			if !ok {
				return "", false
			}
			dataOff := off + 8

			if inChosen {
				propName := r.name(r.strBase - r.base + uintptr(nameOff))
				if propName == "bootargs" {
					return r.cstr(dataOff)
				}
			}

			off = align4(off + 8 + uintptr(propLen))

		case tokenNop:

		case tokenEnd:
			return "", false

		default:
			return "", false
		}
	}

	return "", false
}
