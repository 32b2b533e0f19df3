package net

// decimalU8 renders v in decimal without leading zeros.
func decimalU8(v uint8) string {
	if v >= 100 {
		return string([]byte{'0' + v/100, '0' + (v/10)%10, '0' + v%10})
	}
	if v >= 10 {
		return string([]byte{'0' + v/10, '0' + v%10})
	}
	return string([]byte{'0' + v})
}

func decimalU16(v uint16) string {
	if v == 0 {
		return "0"
	}
	var buf [5]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = '0' + byte(v%10)
		v /= 10
	}
	return string(buf[i:])
}

func decimalU32(v uint32) string {
	if v == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for v > 0 {
		i--
		buf[i] = '0' + byte(v%10)
		v /= 10
	}
	return string(buf[i:])
}

// PrintEthernet writes a one-line summary of frame via emit, then
// recurses into the payload's ARP or IPv4 printer. Mirrors
// original_source/apps/network/ethernet/ethernet.c's ethernet_print.
func PrintEthernet(frame []byte, emit func(string)) {
	h, ok := DecodeEthernet(frame)
	if !ok {
		emit("Ethernet frame too small")
		return
	}

	emit("Ethernet " + h.Src.String() + " -> " + h.Dst.String() + " type=0x" + hex16(h.Type) + " len=" + decimalU16(uint16(len(frame))))

	payload := frame[EthernetHeaderLen:]
	switch h.Type {
	case EtherTypeIPv4:
		PrintIPv4(payload, emit)
	case EtherTypeARP:
		PrintARP(frame, emit)
	}
}

// PrintARP writes a one-line ARP request/reply summary. frame is the
// full Ethernet+ARP frame (the sender/target fields live past the
// Ethernet header).
func PrintARP(frame []byte, emit func(string)) {
	h, ok := DecodeARP(frame)
	if !ok {
		return
	}

	switch h.Operation {
	case ARPRequest:
		emit("  ARP Request: who-has " + FormatIP(h.TargetIP) + " tell " + FormatIP(h.SenderIP) + " (" + h.SenderMAC.String() + ")")
	case ARPReply:
		emit("  ARP Reply: " + FormatIP(h.SenderIP) + " is-at " + h.SenderMAC.String())
	default:
		emit("  ARP opcode=0x" + hex16(h.Operation))
	}
}

// PrintIPv4 writes a one-line IPv4 summary, then recurses into the
// payload's TCP or UDP printer.
func PrintIPv4(packet []byte, emit func(string)) {
	h, ok := DecodeIPv4(packet)
	if !ok {
		emit("  [IPv4] Packet too small")
		return
	}

	emit("  [IPv4] " + FormatIP(h.SrcIP) + " -> " + FormatIP(h.DstIP) + " proto=" + decimalU8(h.Protocol) + " ttl=" + decimalU8(h.TTL) + " len=" + decimalU16(h.TotalLength))

	if len(packet) < int(h.IHL) {
		return
	}
	payload := packet[h.IHL:]

	switch h.Protocol {
	case ProtoTCP:
		PrintTCP(payload, emit)
	case ProtoUDP:
		PrintUDP(payload, emit)
	}
}

// PrintTCP writes a one-line TCP segment summary.
func PrintTCP(segment []byte, emit func(string)) {
	h, ok := DecodeTCP(segment)
	if !ok {
		emit("    [TCP] Segment too small")
		return
	}

	flags := ""
	add := func(s string) {
		if flags != "" {
			flags += ","
		}
		flags += s
	}
	if h.Flags&TCPFlagSYN != 0 {
		add("SYN")
	}
	if h.Flags&TCPFlagACK != 0 {
		add("ACK")
	}
	if h.Flags&TCPFlagFIN != 0 {
		add("FIN")
	}
	if h.Flags&TCPFlagRST != 0 {
		add("RST")
	}
	if h.Flags&TCPFlagPSH != 0 {
		add("PSH")
	}
	if h.Flags&TCPFlagURG != 0 {
		add("URG")
	}

	emit("    [TCP] " + decimalU16(h.SrcPort) + " -> " + decimalU16(h.DstPort) + " seq=" + decimalU32(h.Seq) + " ack=" + decimalU32(h.Ack) + " flags=[" + flags + "] win=" + decimalU16(h.Window))
}

// PrintUDP writes a one-line UDP datagram summary.
func PrintUDP(datagram []byte, emit func(string)) {
	h, ok := DecodeUDP(datagram)
	if !ok {
		emit("    [UDP] Datagram too small")
		return
	}

	emit("    [UDP] " + decimalU16(h.SrcPort) + " -> " + decimalU16(h.DstPort) + " len=" + decimalU16(h.Length))
}

const hexDigits = "0123456789abcdef"

func hex16(v uint16) string {
	b := [4]byte{hexDigits[(v>>12)&0xf], hexDigits[(v>>8)&0xf], hexDigits[(v>>4)&0xf], hexDigits[v&0xf]}
	return string(b[:])
}
