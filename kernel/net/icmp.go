package net

import (
	"encoding/binary"

	"gvisor.dev/gvisor/pkg/tcpip/header"
)

// ICMPHeaderLen is the fixed 8-byte echo header: type, code, checksum,
// id, sequence. Not part of spec.md's bit-exact wire protocol list; a
// supplement grounded on original_source/apps/network/icmp/icmp.c,
// which the distillation dropped.
const ICMPHeaderLen = 8

const (
	ICMPEchoReply   = 0
	ICMPEchoRequest = 8
)

// ICMPHeader is a decoded ICMP echo header.
type ICMPHeader struct {
	Type     uint8
	Code     uint8
	ID       uint16
	Sequence uint16
}

func buildICMPEcho(buf []byte, icmpType uint8, id, sequence uint16) {
	buf[0] = icmpType
	buf[1] = 0
	binary.BigEndian.PutUint16(buf[2:4], 0)
	binary.BigEndian.PutUint16(buf[4:6], id)
	binary.BigEndian.PutUint16(buf[6:8], sequence)

	binary.BigEndian.PutUint16(buf[2:4], ^header.Checksum(buf[:ICMPHeaderLen], 0))
}

// BuildICMPEchoRequest writes an 8-byte ICMP echo request into buf[:8].
func BuildICMPEchoRequest(buf []byte, id, sequence uint16) {
	buildICMPEcho(buf, ICMPEchoRequest, id, sequence)
}

// BuildICMPEchoReply writes an 8-byte ICMP echo reply into buf[:8].
func BuildICMPEchoReply(buf []byte, id, sequence uint16) {
	buildICMPEcho(buf, ICMPEchoReply, id, sequence)
}

// DecodeICMP parses an 8-byte-or-larger ICMP echo header.
func DecodeICMP(buf []byte) (ICMPHeader, bool) {
	if len(buf) < ICMPHeaderLen {
		return ICMPHeader{}, false
	}

	var h ICMPHeader
	h.Type = buf[0]
	h.Code = buf[1]
	h.ID = binary.BigEndian.Uint16(buf[4:6])
	h.Sequence = binary.BigEndian.Uint16(buf[6:8])

	return h, true
}
