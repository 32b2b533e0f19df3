//go:build amd64

package reg

// Fence issues a full memory fence (MFENCE); defined in fence_amd64.s.
// Used around VirtIO avail/used ring index updates, spec.md §4.7.6.
func Fence()
