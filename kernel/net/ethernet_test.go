package net

import "testing"

func TestEncodeDecodeEthernet(t *testing.T) {
	dst := MAC{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}
	src := MAC{0xaa, 0xbb, 0xcc, 0xdd, 0xee, 0xff}

	buf := make([]byte, EthernetHeaderLen)
	EncodeEthernet(buf, dst, src, EtherTypeARP)

	h, ok := DecodeEthernet(buf)
	if !ok {
		t.Fatal("decode failed")
	}
	if h.Dst != dst || h.Src != src || h.Type != EtherTypeARP {
		t.Errorf("got %+v", h)
	}
}

func TestDecodeEthernetShort(t *testing.T) {
	if _, ok := DecodeEthernet(make([]byte, EthernetHeaderLen-1)); ok {
		t.Error("expected failure on short buffer")
	}
}

func TestMACString(t *testing.T) {
	m := MAC{0x00, 0x1a, 0x2b, 0x3c, 0x4d, 0x5e}
	if got, want := m.String(), "00:1a:2b:3c:4d:5e"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
