// Package serial opens the serial ports used for the console and for
// streaming capture records to a collector.
package serial

import (
	"errors"
	"io"
)

var ErrNoDevice = errors.New("serial device not set")

// Port is an open serial port
type Port interface {
	io.ReadWriteCloser

	// Flush discards data received but not yet read
	Flush() error
}

// Config holds serial port settings
type Config struct {
	Device string // e.g. "/dev/ttyUSB0" or "COM3"
	Baud   int

	// Read timeout in milliseconds, 0 blocks
	ReadTimeout int
}

// DefaultConfig returns settings for a USB serial adapter
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}
