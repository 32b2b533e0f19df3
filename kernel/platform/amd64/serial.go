package amd64

import "github.com/stan-kondrat/yasouos/kernel/reg"

// COM1 16550 UART, grounded on original_source/arch/amd64/platform.c's
// platform_init/platform_putchar sequence.
const (
	com1Base = 0x3f8

	uartData = com1Base + 0
	uartIER  = com1Base + 1
	uartFCR  = com1Base + 2
	uartLCR  = com1Base + 3
	uartMCR  = com1Base + 4
	uartLSR  = com1Base + 5

	lsrTHRE = 0x20 // transmit holding register empty
)

func initSerial() {
	reg.Out8(uartIER, 0x00) // disable all UART interrupts
	reg.Out8(uartLCR, 0x80) // enable DLAB (set baud rate divisor)
	reg.Out8(uartData, 0x03) // divisor low byte: 38400 baud
	reg.Out8(uartIER, 0x00)  // divisor high byte
	reg.Out8(uartLCR, 0x03)  // 8 bits, no parity, one stop bit
	reg.Out8(uartFCR, 0xc7)  // enable FIFO, clear, 14-byte threshold
	reg.Out8(uartMCR, 0x0b)  // IRQs enabled (unused), DTR/RTS set
}

func serialPutc(b byte) {
	for reg.In8(uartLSR)&lsrTHRE == 0 {
	}
	if b == '\n' {
		reg.Out8(uartData, '\r')
		for reg.In8(uartLSR)&lsrTHRE == 0 {
		}
	}
	reg.Out8(uartData, b)
}
