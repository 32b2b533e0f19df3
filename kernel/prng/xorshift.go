// Package prng implements the seeded xorshift64 fallback generator used
// wherever this kernel needs random bytes without a working hardware
// entropy device: spec.md §7's "falls back to a seeded PRNG" contract,
// and the random-software application's only source of bytes.
//
// Factored out of kernel/virtio/rng's inline fallback so
// apps/randomsoftware and apps/randomhardware can share the same
// generator without depending on the VirtIO RNG driver.
package prng

// Xorshift64 is a minimal, allocation-free PRNG state.
type Xorshift64 struct {
	state uint64
}

// New seeds a generator. A zero seed is replaced with a fixed non-zero
// constant since xorshift64 cannot recover from an all-zero state.
func New(seed uint64) *Xorshift64 {
	if seed == 0 {
		seed = 0x9e3779b97f4a7c15
	}
	return &Xorshift64{state: seed}
}

// FillBytes writes len(out) pseudo-random bytes.
func (x *Xorshift64) FillBytes(out []byte) {
	for i := range out {
		x.state ^= x.state << 13
		x.state ^= x.state >> 7
		x.state ^= x.state << 17
		out[i] = byte(x.state)
	}
}
