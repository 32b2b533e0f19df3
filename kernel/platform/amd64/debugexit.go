package amd64

// debugExitPort is QEMU's isa-debug-exit device, mapped by the "-device
// isa-debug-exit,iobase=0xf4,iosize=0x04" option the VMM profile assumes
// (original_source/arch/amd64/platform.c platform_halt).
const debugExitPort = 0xf4

// halt is HLT; defined in halt_amd64.s since Go has no HLT intrinsic.
func halt()
