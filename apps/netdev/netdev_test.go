package netdev

import (
	"testing"

	"github.com/stan-kondrat/yasouos/kernel/device"
	"github.com/stan-kondrat/yasouos/kernel/driver"
	"github.com/stan-kondrat/yasouos/kernel/resource"
)

// stubNIC satisfies Device without touching any real hardware, letting
// Entry.Tag be exercised independently of AcquireAll's driver-priority
// dispatch.
type stubNIC struct{}

func (stubNIC) MAC() [6]byte                  { return [6]byte{} }
func (stubNIC) Transmit([]byte) error         { return nil }
func (stubNIC) Receive([]byte) (int, error)   { return 0, nil }

func TestEntryTagDelegatesToResourceTag(t *testing.T) {
	reg := &device.Registry{}
	_, err := reg.Add(device.Device{Name: "nic", Bus: 0x02, Slot: 0x05, VendorID: 0x9999, DeviceID: 0x1})
	if err != nil {
		t.Fatal(err)
	}

	drv := driver.New("stub-nic", []driver.ID{{VendorID: 0x9999, DeviceID: 0x1}}, nil, nil)
	mgr := resource.NewManager()
	h, err := mgr.Acquire(reg, drv, nil)
	if err != nil {
		t.Fatal(err)
	}

	entry := Entry{Handle: h, Driver: "stub-nic", Device: stubNIC{}}
	if got, want := entry.Tag(), "[02:05|stub-nic@1]"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
