package arm64

// uart0Base is QEMU virt's PL011 UART data register. Writes here are a
// simplification of the real PL011 protocol (no flag-register polling):
// QEMU's virt-machine PL011 model accepts back-to-back writes without
// backpressure, and this kernel never drives real PL011 silicon
// (original_source/kernel/platform/arm64/platform.c does the same direct
// write with no flag-register check).
const uart0Base = 0x09000000
