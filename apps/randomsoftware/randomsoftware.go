// Package randomsoftware implements `app=random-software`: prints 8
// bytes from the software-only xorshift64 PRNG, with no attempt at a
// hardware entropy device.
//
// Grounded on original_source/kernel/init_apps.c's "random-software"
// branch (random_get_bytes with no preceding random_hardware_init
// call).
package randomsoftware

import (
	"github.com/stan-kondrat/yasouos/kernel"
	"github.com/stan-kondrat/yasouos/kernel/prng"
)

// gen is process-wide: repeated app=random-software tokens on one
// command line draw from the same continuing stream rather than
// re-seeding identically each time.
var gen = prng.New(0x5a5a5a5a5a5a5a5a)

// Run prints 8 pseudo-random bytes as space-separated hex pairs,
// matching the original's put_hex8 loop.
func Run(k *kernel.State) {
	var buf [8]byte
	gen.FillBytes(buf[:])

	k.Port.Puts("Random (software): ")
	for _, b := range buf {
		k.Port.PutHex8(b)
		k.Port.Puts(" ")
	}
	k.Port.Puts("\n")
}
