// Package capture implements sinks for sniffed radio frames: an in-memory
// ring for inspection and an asynchronous stream of encoded capture records
// for a serial port or a network collector.
package capture

import (
	"time"

	"radiolink/protocol"
)

// Clock returns the capture timestamp for a frame
type Clock func() uint32

// MillisClock returns a Clock counting milliseconds from now
func MillisClock() Clock {
	start := time.Now()
	return func() uint32 {
		return uint32(time.Since(start).Milliseconds())
	}
}

// maxFrame bounds the frame bytes kept per record
const maxFrame = protocol.BufferSize
