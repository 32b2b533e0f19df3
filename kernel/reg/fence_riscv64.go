//go:build riscv64

package reg

// Fence issues a full memory fence (FENCE iorw,iorw); defined in
// fence_riscv64.s. Used around VirtIO avail/used ring index updates,
// spec.md §4.7.6.
func Fence()
