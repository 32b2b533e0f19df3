package virtiommio

import (
	"testing"

	"github.com/stan-kondrat/yasouos/kernel/device"
)

// fakePort is a minimal platform.Port backed by a sparse MMIO register
// map, standing in for real guest-physical memory.
type fakePort struct {
	regs map[uint64]uint32
}

func newFakePort() *fakePort { return &fakePort{regs: map[uint64]uint32{}} }

func (p *fakePort) Putchar(byte)                 {}
func (p *fakePort) Puts(string)                  {}
func (p *fakePort) PutHex8(uint8)                {}
func (p *fakePort) PutHex16(uint16)              {}
func (p *fakePort) PutHex32(uint32)              {}
func (p *fakePort) PutHex64(uint64)              {}
func (p *fakePort) Cmdline() (string, bool)      { return "", false }
func (p *fakePort) Halt()                        {}
func (p *fakePort) MMIORead32(addr uint64) uint32 { return p.regs[addr] }
func (p *fakePort) MMIOWrite32(addr uint64, val uint32) { p.regs[addr] = val }

func (p *fakePort) putSlot(cfg Config, slot int, version, devType uint32) {
	base := cfg.Base + uint64(slot)*cfg.Stride
	p.regs[base+offMagic] = magic
	p.regs[base+offVersion] = version
	p.regs[base+offDeviceType] = devType
}

func TestEnumerateFindsNetworkAndEntropyDevices(t *testing.T) {
	cfg := Config{Base: 0x0a000000, Stride: 0x200, Count: 4}
	port := newFakePort()

	port.putSlot(cfg, 0, 2, 1) // network
	port.putSlot(cfg, 1, 1, 4) // entropy
	// slot 2 left entirely zero: no magic, must be skipped.

	reg := &device.Registry{}
	count := Enumerate(port, cfg, reg)

	if count != 2 {
		t.Fatalf("got count=%d, want 2", count)
	}

	d0 := reg.First()
	if d0.DeviceID != 0x1000 || d0.RegBase != cfg.Base {
		t.Errorf("slot 0: got %+v", d0)
	}
	d1 := reg.Next(d0)
	if d1.DeviceID != 0x1005 || d1.RegBase != cfg.Base+cfg.Stride {
		t.Errorf("slot 1: got %+v", d1)
	}
}

func TestEnumerateSkipsBadMagicAndUnknownVersion(t *testing.T) {
	cfg := Config{Base: 0x0a000000, Stride: 0x200, Count: 2}
	port := newFakePort()

	// slot 0: right magic, bogus version.
	base := cfg.Base
	port.regs[base+offMagic] = magic
	port.regs[base+offVersion] = 99
	port.regs[base+offDeviceType] = 1

	reg := &device.Registry{}
	if count := Enumerate(port, cfg, reg); count != 0 {
		t.Errorf("got count=%d, want 0", count)
	}
}

func TestEnumerateSkipsUnknownDeviceType(t *testing.T) {
	cfg := Config{Base: 0x0a000000, Stride: 0x200, Count: 1}
	port := newFakePort()
	port.putSlot(cfg, 0, 2, 16) // 9p, unmapped by deviceTypeToID

	reg := &device.Registry{}
	if count := Enumerate(port, cfg, reg); count != 0 {
		t.Errorf("got count=%d, want 0 for an unmapped device type", count)
	}
}

func TestDeviceTypeToID(t *testing.T) {
	cases := []struct {
		in   uint32
		want uint16
		ok   bool
	}{
		{1, 0x1000, true},
		{2, 0x1001, true},
		{4, 0x1005, true},
		{16, 0, false},
	}
	for _, c := range cases {
		got, ok := deviceTypeToID(c.in)
		if got != c.want || ok != c.ok {
			t.Errorf("deviceTypeToID(%d) = %#x,%v want %#x,%v", c.in, got, ok, c.want, c.ok)
		}
	}
}
