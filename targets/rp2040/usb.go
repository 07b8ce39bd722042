//go:build rp2040

package main

import (
	"machine"
)

// InitUSB configures the USB CDC console
func InitUSB() {
	_ = machine.Serial.Configure(machine.UARTConfig{})
}

// console assembles command lines from the USB serial port without
// blocking the main loop
type console struct {
	buf [80]byte
	n   int
}

// poll returns a complete line once one has arrived
func (c *console) poll() (string, bool) {
	for machine.Serial.Buffered() > 0 {
		b, err := machine.Serial.ReadByte()
		if err != nil {
			return "", false
		}
		switch b {
		case '\r', '\n':
			if c.n == 0 {
				continue
			}
			line := string(c.buf[:c.n])
			c.n = 0
			return line, true
		default:
			if c.n < len(c.buf) {
				c.buf[c.n] = b
				c.n++
			}
		}
	}
	return "", false
}

// consoleWriter sends text to the USB serial port
type consoleWriter struct{}

func (consoleWriter) Write(p []byte) (int, error) {
	return machine.Serial.Write(p)
}
