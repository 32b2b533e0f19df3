package net

import "testing"

func TestIPv4HeaderRoundTripAndChecksum(t *testing.T) {
	buf := make([]byte, IPv4HeaderLen)
	BuildIPv4Header(buf, 0x0a000201, 0x0a00020f, ProtoUDP, 16, 64)

	if !VerifyIPv4Checksum(buf) {
		t.Fatal("checksum does not fold to 0xffff")
	}

	h, ok := DecodeIPv4(buf)
	if !ok {
		t.Fatal("decode failed")
	}
	if h.IHL != IPv4HeaderLen || h.TotalLength != IPv4HeaderLen+16 || h.TTL != 64 || h.Protocol != ProtoUDP {
		t.Errorf("got %+v", h)
	}
	if h.SrcIP != 0x0a000201 || h.DstIP != 0x0a00020f {
		t.Errorf("got %+v", h)
	}
}

func TestIPv4ChecksumDetectsCorruption(t *testing.T) {
	buf := make([]byte, IPv4HeaderLen)
	BuildIPv4Header(buf, 0x0a000201, 0x0a00020f, ProtoTCP, 20, 64)

	buf[8] ^= 0xff // flip the TTL byte

	if VerifyIPv4Checksum(buf) {
		t.Error("checksum should no longer fold to 0xffff after corruption")
	}
}

func TestFormatIP(t *testing.T) {
	if got, want := FormatIP(0x0a00020f), "10.0.2.15"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
