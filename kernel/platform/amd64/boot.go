package amd64

import "unsafe"

// parseCmdline extracts the boot command line from a Multiboot2 info
// structure, spec.md §4.1's "(a) a fixed magic-tagged boot-info
// structure." infoAddr is the physical address the boot stub captured
// from EBX at kernel entry; 0 means no Multiboot2 info was supplied.
//
// Layout: u32 total_size, u32 reserved, then a sequence of tags
// {u32 type, u32 size, data[size-8]}, each padded to an 8-byte boundary,
// terminated by a type=0 tag.
const cmdlineTagType = 1

func parseCmdline(infoAddr uint32) (string, bool) {
	if infoAddr == 0 {
		return "", false
	}

	base := uintptr(infoAddr)
	totalSize := readU32(base)
	end := base + uintptr(totalSize)

	off := base + 8 // skip total_size, reserved
	for off+8 <= end {
		tagType := readU32(off)
		tagSize := readU32(off + 4)

		if tagType == 0 {
			break
		}

		if tagType == cmdlineTagType && tagSize > 8 {
			strLen := int(tagSize) - 8
			buf := make([]byte, 0, strLen)
			for i := 0; i < strLen; i++ {
				b := *(*byte)(unsafe.Pointer(off + 8 + uintptr(i)))
				if b == 0 {
					break
				}
				buf = append(buf, b)
			}
			return string(buf), true
		}

		advance := uintptr(tagSize)
		if rem := advance % 8; rem != 0 {
			advance += 8 - rem
		}
		off += advance
	}

	return "", false
}

func readU32(addr uintptr) uint32 {
	return *(*uint32)(unsafe.Pointer(addr))
}
