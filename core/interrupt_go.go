//go:build !tinygo

package core

import "sync"

// criticalSection serialises the interrupt-time RX hand-off against the
// polling loop. On hosted Go the "interrupt" is an IRQ pump goroutine, so a
// mutex stands in for masking interrupts.
type criticalSection struct {
	mu sync.Mutex
}

func (c *criticalSection) lock() {
	c.mu.Lock()
}

func (c *criticalSection) unlock() {
	c.mu.Unlock()
}
