package net

import "encoding/binary"

// UDPHeaderLen is the fixed 8-byte header: src_port, dst_port, length,
// checksum.
const UDPHeaderLen = 8

// UDPHeader is a decoded UDP header.
type UDPHeader struct {
	SrcPort uint16
	DstPort uint16
	Length  uint16
}

// BuildUDPHeader writes an 8-byte UDP header into buf[:8]. The checksum
// field is always zero — spec.md §6 calls it "disabled (legal for
// IPv4)".
func BuildUDPHeader(buf []byte, srcPort, dstPort uint16, payloadLength uint16) {
	binary.BigEndian.PutUint16(buf[0:2], srcPort)
	binary.BigEndian.PutUint16(buf[2:4], dstPort)
	binary.BigEndian.PutUint16(buf[4:6], UDPHeaderLen+payloadLength)
	binary.BigEndian.PutUint16(buf[6:8], 0)
}

// DecodeUDP parses an 8-byte-or-larger UDP header.
func DecodeUDP(buf []byte) (UDPHeader, bool) {
	if len(buf) < UDPHeaderLen {
		return UDPHeader{}, false
	}

	var h UDPHeader
	h.SrcPort = binary.BigEndian.Uint16(buf[0:2])
	h.DstPort = binary.BigEndian.Uint16(buf[2:4])
	h.Length = binary.BigEndian.Uint16(buf[4:6])

	return h, true
}
