// Package illegalinstruction implements `app=illegal-instruction`: it
// executes this architecture's illegal/undefined instruction encoding
// and never returns, exercising the platform port's synchronous-trap
// handler (spec.md §4.1).
//
// Grounded on
// original_source/apps/illegal-instruction/app_illegal_instruction.c,
// which dispatches by #ifdef __x86_64__ / __aarch64__ / __riscv to
// `ud2` / `.word 0x00000000` / `.word 0x00000000` respectively; here the
// three encodings live in per-architecture assembly files the Go
// toolchain selects by filename suffix.
package illegalinstruction

import "github.com/stan-kondrat/yasouos/kernel"

// trigger executes the architecture's illegal instruction and does not
// return. Implemented in trigger_$GOARCH.s.
func trigger()

// Run logs intent and triggers the fault. Control never returns here.
func Run(k *kernel.State) {
	k.Log.Tag("illegal-instruction").Info("Triggering illegal instruction...")
	trigger()
}
