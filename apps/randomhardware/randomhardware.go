// Package randomhardware implements `app=random-hardware`: tries to
// acquire the VirtIO entropy device and read from it, falling back to
// the software xorshift64 PRNG and labelling the output accordingly.
//
// Grounded on original_source/kernel/init_apps.c's "random-hardware"
// branch: it calls random_hardware_init() every time the token
// appears, but a second acquisition of an already-held device fails —
// which is exactly kernel/resource.Manager.Acquire's behavior on a
// device another caller already holds, so the label falls back to
// "software" on any call after the first successful one.
package randomhardware

import (
	"github.com/stan-kondrat/yasouos/kernel"
	"github.com/stan-kondrat/yasouos/kernel/prng"
	"github.com/stan-kondrat/yasouos/kernel/virtio/rng"
)

var (
	ctx rng.Context
	gen = prng.New(0xa5a5a5a5a5a5a5a5)
)

// Run attempts to acquire the hardware entropy device, then prints 8
// random bytes, tagging the source as hardware or software.
func Run(k *kernel.State) {
	ctx.Port = k.Port
	_, err := k.Resources.Acquire(k.Registry, rng.GetDriver(), &ctx)
	hardware := err == nil && ctx.RNG != nil

	var buf [8]byte
	if hardware {
		ctx.RNG.Read(buf[:])
		k.Port.Puts("Random (hardware): ")
	} else {
		gen.FillBytes(buf[:])
		k.Port.Puts("Random (software): ")
	}

	for _, b := range buf {
		k.Port.PutHex8(b)
		k.Port.Puts(" ")
	}
	k.Port.Puts("\n")
}
