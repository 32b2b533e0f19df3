//go:build arm64

package reg

// Fence issues a full memory fence (DMB ISH); defined in fence_arm64.s.
// Used around VirtIO avail/used ring index updates, spec.md §4.7.6.
func Fence()
