// Command kernel is the composition root: it builds the architecture's
// platform port, enumerates devices over that architecture's bus model,
// parses the boot command line, and dispatches the bundled applications
// it names — analogous to a teacher board package's init() wiring
// concrete peripheral instances together, generalized here across three
// target architectures instead of one board.
//
// https://github.com/usbarmory/tamago (board/qemu/microvm/microvm.go)
package main

import (
	"github.com/stan-kondrat/yasouos/apps/arpbroadcast"
	"github.com/stan-kondrat/yasouos/apps/httphello"
	"github.com/stan-kondrat/yasouos/apps/illegalinstruction"
	"github.com/stan-kondrat/yasouos/apps/macall"
	"github.com/stan-kondrat/yasouos/apps/mace1000"
	"github.com/stan-kondrat/yasouos/apps/macrtl8139"
	"github.com/stan-kondrat/yasouos/apps/macvirtionet"
	"github.com/stan-kondrat/yasouos/apps/packetprint"
	"github.com/stan-kondrat/yasouos/apps/randomhardware"
	"github.com/stan-kondrat/yasouos/apps/randomsoftware"
	"github.com/stan-kondrat/yasouos/kernel"
	"github.com/stan-kondrat/yasouos/kernel/cmdline"
	"github.com/stan-kondrat/yasouos/kernel/device"
	"github.com/stan-kondrat/yasouos/kernel/log"
	"github.com/stan-kondrat/yasouos/kernel/resource"
)

// apps maps each `app=<name>` command-line token to its entry point,
// spec.md §6's app table.
var apps = map[string]func(*kernel.State){
	"illegal-instruction": illegalinstruction.Run,
	"random-software":     randomsoftware.Run,
	"random-hardware":     randomhardware.Run,
	"mac-virtio-net":      macvirtionet.Run,
	"mac-e1000":           mace1000.Run,
	"mac-rtl8139":         macrtl8139.Run,
	"mac-all":             macall.Run,
	"arp-broadcast":       arpbroadcast.Run,
	"packet-print":        packetprint.Run,
	"http-hello":          httphello.Run,
}

func main() {
	port := newPort()

	reg := &device.Registry{}
	enumerate(port, reg)
	reg.BuildTree()

	logs := log.NewRegistry(port)
	boot := logs.Tag("boot")

	boot.Info("device tree:")
	reg.Print(func(s string) { port.Puts(s + "\n") })

	st := &kernel.State{
		Port:      port,
		Registry:  reg,
		Resources: resource.NewManager(),
		Log:       logs,
	}

	line, _ := port.Cmdline()
	for _, tok := range cmdline.Parse(line) {
		switch tok.Kind {
		case cmdline.Log:
			if lvl, ok := log.ParseLevel(tok.Level); ok {
				logs.SetDefaultLevel(lvl)
			}

		case cmdline.LogTag:
			if lvl, ok := log.ParseLevel(tok.Level); ok {
				logs.SetTagLevel(tok.Tag, lvl)
			}

		case cmdline.App:
			run, ok := apps[tok.App]
			if !ok {
				boot.Warn("unknown app: " + tok.App)
				continue
			}
			boot.Info("running app: " + tok.App)
			run(st)
		}
	}

	port.Halt()
}
