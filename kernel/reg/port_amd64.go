//go:build amd64

package reg

// In8/In16/In32/Out8/Out16/Out32 are the x86 port-I/O primitives used by
// the amd64 platform port and by VirtIO's legacy port-I/O transport.
// Implemented in port_amd64.s since Go has no port-I/O intrinsics.
//
// https://github.com/usbarmory/tamago (internal/reg/port_amd64.go)
func In8(port uint16) (val uint8)
func Out8(port uint16, val uint8)
func In16(port uint16) (val uint16)
func Out16(port uint16, val uint16)
func In32(port uint16) (val uint32)
func Out32(port uint16, val uint32)
