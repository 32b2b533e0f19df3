// Package kernel defines State, the bundle of live subsystems the
// composition root hands to every bundled application (spec.md §6's
// `app=` dispatch table), so each app.Run receives one argument instead
// of the platform port, device registry, resource manager, and log
// registry threaded through separately.
package kernel

import (
	"github.com/stan-kondrat/yasouos/kernel/device"
	"github.com/stan-kondrat/yasouos/kernel/log"
	"github.com/stan-kondrat/yasouos/kernel/platform"
	"github.com/stan-kondrat/yasouos/kernel/resource"
)

// State bundles the subsystems every bundled application needs. It owns
// no global mutable state of its own — the composition root constructs
// exactly one and passes it by pointer, per spec.md §9's "own global
// mutable state in a single KernelState value" design note.
type State struct {
	Port      platform.Port
	Registry  *device.Registry
	Resources *resource.Manager
	Log       *log.Registry
}
