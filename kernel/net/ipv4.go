package net

import (
	"encoding/binary"

	"gvisor.dev/gvisor/pkg/tcpip/header"
)

const (
	// IPv4HeaderLen is the fixed 20-byte header size: IHL=5, no
	// options (spec.md §6).
	IPv4HeaderLen = 20

	ipv4VersionIHL = 0x45 // version=4, IHL=5

	// Fixed per spec.md §6: identification=1, flags/fragment=0.
	ipv4Identification = 1

	ProtoICMP = 1
	ProtoTCP  = 6
	ProtoUDP  = 17
)

// IPv4Header is a decoded IPv4 header.
type IPv4Header struct {
	IHL         uint8
	TotalLength uint16
	TTL         uint8
	Protocol    uint8
	SrcIP       uint32
	DstIP       uint32
}

// BuildIPv4Header writes a complete 20-byte IPv4 header (version=4,
// IHL=5, DSCP=0, identification=1, no fragmentation, checksum computed
// over the finished header) into buf[:20].
func BuildIPv4Header(buf []byte, srcIP, dstIP uint32, protocol uint8, payloadLength uint16, ttl uint8) {
	buf[0] = ipv4VersionIHL
	buf[1] = 0
	binary.BigEndian.PutUint16(buf[2:4], IPv4HeaderLen+payloadLength)
	binary.BigEndian.PutUint16(buf[4:6], ipv4Identification)
	binary.BigEndian.PutUint16(buf[6:8], 0)
	buf[8] = ttl
	buf[9] = protocol
	binary.BigEndian.PutUint16(buf[10:12], 0)
	binary.BigEndian.PutUint32(buf[12:16], srcIP)
	binary.BigEndian.PutUint32(buf[16:20], dstIP)

	binary.BigEndian.PutUint16(buf[10:12], ipv4Checksum(buf[:IPv4HeaderLen]))
}

func ipv4Checksum(hdr []byte) uint16 {
	return ^header.Checksum(hdr, 0)
}

// VerifyIPv4Checksum reports whether hdr's one's-complement sum (over
// the whole header, including the checksum field) folds to 0xFFFF —
// spec.md §8's round-trip property.
func VerifyIPv4Checksum(hdr []byte) bool {
	return header.Checksum(hdr, 0) == 0xffff
}

// DecodeIPv4 parses a 20-byte-or-larger IPv4 header (options are
// skipped over, never interpreted).
func DecodeIPv4(buf []byte) (IPv4Header, bool) {
	if len(buf) < IPv4HeaderLen {
		return IPv4Header{}, false
	}

	var h IPv4Header
	h.IHL = (buf[0] & 0x0f) * 4
	h.TotalLength = binary.BigEndian.Uint16(buf[2:4])
	h.TTL = buf[8]
	h.Protocol = buf[9]
	h.SrcIP = binary.BigEndian.Uint32(buf[12:16])
	h.DstIP = binary.BigEndian.Uint32(buf[16:20])

	return h, true
}

// FormatIP renders a 32-bit address in dotted-decimal form.
func FormatIP(ip uint32) string {
	return decimalU8(byte(ip>>24)) + "." + decimalU8(byte(ip>>16)) + "." + decimalU8(byte(ip>>8)) + "." + decimalU8(byte(ip))
}
