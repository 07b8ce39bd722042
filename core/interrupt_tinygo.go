//go:build tinygo

package core

import "runtime/interrupt"

// criticalSection masks interrupts for the duration of the RX hand-off
type criticalSection struct {
	state interrupt.State
}

func (c *criticalSection) lock() {
	c.state = interrupt.Disable()
}

func (c *criticalSection) unlock() {
	interrupt.Restore(c.state)
}
