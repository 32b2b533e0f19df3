package net

import "testing"

func TestICMPEchoRoundTrip(t *testing.T) {
	buf := make([]byte, ICMPHeaderLen)
	BuildICMPEchoRequest(buf, 42, 1)

	h, ok := DecodeICMP(buf)
	if !ok {
		t.Fatal("decode failed")
	}
	if h.Type != ICMPEchoRequest || h.Code != 0 || h.ID != 42 || h.Sequence != 1 {
		t.Errorf("got %+v", h)
	}

	reply := make([]byte, ICMPHeaderLen)
	BuildICMPEchoReply(reply, 42, 1)

	h, ok = DecodeICMP(reply)
	if !ok || h.Type != ICMPEchoReply {
		t.Errorf("got %+v ok=%v", h, ok)
	}
}
