package device

import (
	"strings"
	"testing"
)

func TestAddFirstNextFindByName(t *testing.T) {
	var r Registry

	a, err := r.Add(Device{Name: "pci", VendorID: 0x1af4, DeviceID: 0x1000})
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.Add(Device{Name: "virtio-mmio", Compatible: "virtio,mmio"})
	if err != nil {
		t.Fatal(err)
	}

	if r.First() != a {
		t.Error("First should return the first-added device")
	}
	if r.Next(a) != b {
		t.Error("Next should walk insertion order")
	}
	if r.Next(b) != nil {
		t.Error("Next past the tail should be nil")
	}
	if got := r.FindByName("virtio-mmio"); got != b {
		t.Errorf("FindByName: got %v, want %v", got, b)
	}
	if r.FindByName("nonexistent") != nil {
		t.Error("FindByName should return nil for an unknown name")
	}
}

func TestAddExhaustion(t *testing.T) {
	var r Registry

	for i := 0; i < MaxDevices; i++ {
		if _, err := r.Add(Device{Name: "d"}); err != nil {
			t.Fatalf("unexpected error at device %d: %v", i, err)
		}
	}

	if _, err := r.Add(Device{Name: "overflow"}); err == nil {
		t.Error("expected an error once the registry is full")
	}
}

func TestBuildTreeTwoLevels(t *testing.T) {
	var r Registry

	root, _ := r.Add(Device{Name: "root", Depth: 0})
	child1, _ := r.Add(Device{Name: "child1", Depth: 1})
	child2, _ := r.Add(Device{Name: "child2", Depth: 1})
	root2, _ := r.Add(Device{Name: "root2", Depth: 0})

	r.BuildTree()

	if root.FirstChild() != child1 {
		t.Errorf("root's first child: got %v, want %v", root.FirstChild(), child1)
	}
	if child1.NextSibling() != child2 {
		t.Errorf("child1's sibling: got %v, want %v", child1.NextSibling(), child2)
	}
	if child2.Parent() != root {
		t.Errorf("child2's parent: got %v, want %v", child2.Parent(), root)
	}
	if root2.FirstChild() != nil {
		t.Error("a root with no depth-1 followers should have no children")
	}
}

func TestSetGetDriver(t *testing.T) {
	var r Registry
	d, _ := r.Add(Device{Name: "nic"})

	if d.GetDriver() != nil {
		t.Error("a freshly added device should have no bound driver")
	}

	fake := fakeDriver{name: "e1000"}
	d.SetDriver(fake)

	if got := d.GetDriver(); got == nil || got.Name() != "e1000" {
		t.Errorf("got %v", got)
	}
}

type fakeDriver struct{ name string }

func (f fakeDriver) Name() string { return f.name }

func TestMapUnmapMMIOIdentity(t *testing.T) {
	var r Registry
	d, _ := r.Add(Device{Name: "uart", RegBase: 0x09000000})

	if got := d.MapMMIO(); got != 0x09000000 {
		t.Errorf("got %#x", got)
	}
	d.UnmapMMIO(d.MapMMIO()) // must not panic
}

func TestPrintIndentsByDepthAndTagsDriver(t *testing.T) {
	var r Registry

	root, _ := r.Add(Device{Name: "pci", VendorID: 0x1af4, DeviceID: 0x1000, RegBase: 0x1000, Depth: 0})
	root.SetDriver(fakeDriver{name: "virtio-net"})
	child, _ := r.Add(Device{Name: "queue", RegBase: 0x2000, Depth: 1})
	_ = child
	r.BuildTree()

	var lines []string
	r.Print(func(s string) { lines = append(lines, s) })

	if len(lines) != 2 {
		t.Fatalf("got %d lines: %v", len(lines), lines)
	}
	if !strings.Contains(lines[0], "driver=virtio-net") || !strings.Contains(lines[0], "(1af4:1000)") {
		t.Errorf("root line missing expected tags: %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "  ") {
		t.Errorf("child line should be indented: %q", lines[1])
	}
}
