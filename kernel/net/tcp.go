package net

import (
	"encoding/binary"

	"gvisor.dev/gvisor/pkg/tcpip"
	"gvisor.dev/gvisor/pkg/tcpip/header"
)

const (
	// TCPHeaderLen is the fixed 20-byte header: data-offset = 5<<4, no
	// options (spec.md §6).
	TCPHeaderLen = 20

	TCPFlagFIN = 0x01
	TCPFlagSYN = 0x02
	TCPFlagRST = 0x04
	TCPFlagPSH = 0x08
	TCPFlagACK = 0x10
	TCPFlagURG = 0x20
)

// TCPHeader is a decoded TCP header.
type TCPHeader struct {
	SrcPort    uint16
	DstPort    uint16
	Seq        uint32
	Ack        uint32
	DataOffset uint8
	Flags      uint8
	Window     uint16
}

// BuildTCPHeader writes a 20-byte TCP header into segment[:20]. segment
// must already contain any payload immediately after the header; its
// full length (header + payload) is what the checksum covers.
func BuildTCPHeader(segment []byte, srcPort, dstPort uint16, seq, ack uint32, flags uint8, window uint16, srcIP, dstIP uint32) {
	binary.BigEndian.PutUint16(segment[0:2], srcPort)
	binary.BigEndian.PutUint16(segment[2:4], dstPort)
	binary.BigEndian.PutUint32(segment[4:8], seq)
	binary.BigEndian.PutUint32(segment[8:12], ack)
	segment[12] = 5 << 4
	segment[13] = flags
	binary.BigEndian.PutUint16(segment[14:16], window)
	binary.BigEndian.PutUint16(segment[16:18], 0)
	binary.BigEndian.PutUint16(segment[18:20], 0)

	binary.BigEndian.PutUint16(segment[16:18], tcpChecksum(srcIP, dstIP, segment))
}

// tcpChecksum computes the checksum over the pseudo-header (src, dst,
// zero, proto, tcp-length) concatenated with the TCP header + payload,
// spec.md §6, via gvisor's pseudo-header and running-sum primitives.
func tcpChecksum(srcIP, dstIP uint32, segment []byte) uint16 {
	var srcB, dstB [4]byte
	binary.BigEndian.PutUint32(srcB[:], srcIP)
	binary.BigEndian.PutUint32(dstB[:], dstIP)

	pseudo := header.PseudoHeaderChecksum(header.TCPProtocolNumber, tcpip.Address(srcB[:]), tcpip.Address(dstB[:]), uint16(len(segment)))
	sum := header.ChecksumCombine(pseudo, header.Checksum(segment, 0))

	return ^sum
}

// DecodeTCP parses a 20-byte-or-larger TCP header (options are not
// interpreted).
func DecodeTCP(buf []byte) (TCPHeader, bool) {
	if len(buf) < TCPHeaderLen {
		return TCPHeader{}, false
	}

	var h TCPHeader
	h.SrcPort = binary.BigEndian.Uint16(buf[0:2])
	h.DstPort = binary.BigEndian.Uint16(buf[2:4])
	h.Seq = binary.BigEndian.Uint32(buf[4:8])
	h.Ack = binary.BigEndian.Uint32(buf[8:12])
	h.DataOffset = (buf[12] >> 4) * 4
	h.Flags = buf[13]
	h.Window = binary.BigEndian.Uint16(buf[14:16])

	return h, true
}
