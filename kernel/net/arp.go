package net

import "encoding/binary"

const (
	arpHWEthernet = 1

	// ARPRequest/ARPReply are the opcode field values, spec.md §6.
	ARPRequest = 1
	ARPReply   = 2

	// ARPHeaderLen is the 28-byte ARP body following the Ethernet
	// header: hw_type, proto_type, hw_len, proto_len, op, sender_mac,
	// sender_ip, target_mac, target_ip.
	ARPHeaderLen = 28

	// ARPPacketLen is the total frame size spec.md §6 requires: 14
	// (Ethernet) + 28 (ARP) = 42 bytes.
	ARPPacketLen = EthernetHeaderLen + ARPHeaderLen
)

// ARPHeader is a decoded ARP body (Ethernet/IPv4 hardware/protocol
// pairing only, per spec.md §6 — hw_len and proto_len are always 6/4
// and are not carried in the decoded struct).
type ARPHeader struct {
	Operation uint16
	SenderMAC MAC
	SenderIP  uint32
	TargetMAC MAC
	TargetIP  uint32
}

func encodeARPBody(b []byte, op uint16, senderMAC MAC, senderIP uint32, targetMAC MAC, targetIP uint32) {
	binary.BigEndian.PutUint16(b[0:2], arpHWEthernet)
	binary.BigEndian.PutUint16(b[2:4], EtherTypeIPv4)
	b[4] = 6
	b[5] = 4
	binary.BigEndian.PutUint16(b[6:8], op)
	copy(b[8:14], senderMAC[:])
	binary.BigEndian.PutUint32(b[14:18], senderIP)
	copy(b[18:24], targetMAC[:])
	binary.BigEndian.PutUint32(b[24:28], targetIP)
}

// BuildARPRequest writes a complete 42-byte broadcast ARP request frame
// into buf (which must be at least ARPPacketLen bytes): Ethernet
// broadcast destination, target_mac all-zero.
func BuildARPRequest(buf []byte, senderMAC MAC, senderIP uint32, targetIP uint32) {
	EncodeEthernet(buf, BroadcastMAC, senderMAC, EtherTypeARP)
	encodeARPBody(buf[EthernetHeaderLen:], ARPRequest, senderMAC, senderIP, MAC{}, targetIP)
}

// BuildARPReply writes a complete 42-byte unicast ARP reply frame into
// buf, addressed to targetMAC.
func BuildARPReply(buf []byte, senderMAC MAC, senderIP uint32, targetMAC MAC, targetIP uint32) {
	EncodeEthernet(buf, targetMAC, senderMAC, EtherTypeARP)
	encodeARPBody(buf[EthernetHeaderLen:], ARPReply, senderMAC, senderIP, targetMAC, targetIP)
}

// DecodeARP parses the ARP body out of a full Ethernet+ARP frame.
func DecodeARP(frame []byte) (ARPHeader, bool) {
	if len(frame) < ARPPacketLen {
		return ARPHeader{}, false
	}

	b := frame[EthernetHeaderLen:]

	var h ARPHeader
	h.Operation = binary.BigEndian.Uint16(b[6:8])
	copy(h.SenderMAC[:], b[8:14])
	h.SenderIP = binary.BigEndian.Uint32(b[14:18])
	copy(h.TargetMAC[:], b[18:24])
	h.TargetIP = binary.BigEndian.Uint32(b[24:28])

	return h, true
}
