package e1000

import (
	"encoding/binary"
	"testing"

	"github.com/stan-kondrat/yasouos/kernel/device"
	"github.com/stan-kondrat/yasouos/kernel/kerr"
)

// fakePort is a minimal platform.Port backed by a sparse MMIO register
// map addressed relative to a single device base, standing in for the
// 82540EM's BAR.
type fakePort struct {
	regs map[uint64]uint32
}

func newFakePort() *fakePort { return &fakePort{regs: map[uint64]uint32{}} }

func (p *fakePort) Putchar(byte)            {}
func (p *fakePort) Puts(string)             {}
func (p *fakePort) PutHex8(uint8)           {}
func (p *fakePort) PutHex16(uint16)         {}
func (p *fakePort) PutHex32(uint32)         {}
func (p *fakePort) PutHex64(uint64)         {}
func (p *fakePort) Cmdline() (string, bool) { return "", false }
func (p *fakePort) Halt()                   {}
func (p *fakePort) MMIORead32(addr uint64) uint32       { return p.regs[addr] }
func (p *fakePort) MMIOWrite32(addr uint64, val uint32) { p.regs[addr] = val }

func newTestNIC(t *testing.T) (*NIC, *fakePort) {
	t.Helper()
	port := newFakePort()
	port.regs[0x10000000+regRAL] = 0x12345678
	port.regs[0x10000000+regRAH] = 0x00009abc

	ctx := &Context{Port: port}
	if err := initContext(ctx, &device.Device{RegBase: 0x10000000}); err != nil {
		t.Fatal(err)
	}
	return ctx.NIC, port
}

func TestInitContextReadsMACFromRAL_RAH(t *testing.T) {
	nic, _ := newTestNIC(t)
	want := [6]byte{0x78, 0x56, 0x34, 0x12, 0xbc, 0x9a}
	if nic.MAC() != want {
		t.Errorf("got %x, want %x", nic.MAC(), want)
	}
}

func TestTransmitSucceedsWhenDescriptorIsFree(t *testing.T) {
	nic, port := newTestNIC(t)

	payload := []byte("hello e1000")
	if err := nic.Transmit(payload); err != nil {
		t.Fatal(err)
	}

	if got := port.regs[0x10000000+regTDT]; got != 1 {
		t.Errorf("got TDT=%d, want 1 after transmitting from descriptor 0", got)
	}

	e := nic.txDescs[0:descSize]
	if e[txCmdOff] != txdCmdEOP|txdCmdRS {
		t.Errorf("got cmd=%#x", e[txCmdOff])
	}
	gotLen := binary.LittleEndian.Uint16(e[txLengthOff:])
	if int(gotLen) != len(payload) {
		t.Errorf("got length=%d, want %d", gotLen, len(payload))
	}
}

func TestTransmitBlocksUntilDescriptorDone(t *testing.T) {
	nic, _ := newTestNIC(t)

	nic.txDescs[txStatusOff] = 0 // clear DD on descriptor 0
	if err := nic.Transmit([]byte("x")); err != kerr.ErrWouldBlock {
		t.Fatalf("got %v, want ErrWouldBlock", err)
	}
}

func TestReceiveReportsWouldBlockWithoutDD(t *testing.T) {
	nic, _ := newTestNIC(t)

	if _, err := nic.Receive(make([]byte, 64)); err != kerr.ErrWouldBlock {
		t.Fatalf("got %v, want ErrWouldBlock", err)
	}
}

func TestReceiveCopiesCompletedPacket(t *testing.T) {
	nic, port := newTestNIC(t)

	want := []byte("a completed ethernet frame")
	copy(nic.rxBufs[0], want)

	e := nic.rxDescs[0:descSize]
	binary.LittleEndian.PutUint16(e[rxLengthOff:], uint16(len(want)))
	e[rxStatusOff] = rxdStatDD | rxdStatEOP

	out := make([]byte, 128)
	n, err := nic.Receive(out)
	if err != nil {
		t.Fatal(err)
	}
	if string(out[:n]) != string(want) {
		t.Errorf("got %q, want %q", out[:n], want)
	}
	if got := port.regs[0x10000000+regRDT]; got != 0 {
		t.Errorf("got RDT=%d, want descriptor 0 returned to the ring", got)
	}
}

func TestReceiveDropsNonEOPDescriptor(t *testing.T) {
	nic, _ := newTestNIC(t)

	e := nic.rxDescs[0:descSize]
	e[rxStatusOff] = rxdStatDD // EOP bit left clear

	if _, err := nic.Receive(make([]byte, 64)); err != kerr.ErrRingProtocol {
		t.Fatalf("got %v, want ErrRingProtocol", err)
	}
	if nic.rxCurrent != 1 {
		t.Errorf("a dropped descriptor should still advance the ring, got rxCurrent=%d", nic.rxCurrent)
	}
}
