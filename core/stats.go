package core

import "sync/atomic"

// Stats counts link events. Counters are 32 bit so they stay atomic on
// microcontrollers without 64 bit atomics.
type Stats struct {
	txPackets      atomic.Uint32
	txErrors       atomic.Uint32
	txAbandoned    atomic.Uint32
	txOverflows    atomic.Uint32
	disableRetries atomic.Uint32

	rxPackets atomic.Uint32
	rxDropped atomic.Uint32
	rxErrors  atomic.Uint32
	acks      atomic.Uint32

	timeouts  atomic.Uint32
	overflows atomic.Uint32
	resets    atomic.Uint32
	unknown   atomic.Uint32
}

// StatsSnapshot is a copy of the counters at one point in time
type StatsSnapshot struct {
	TxPackets      uint32 // frames handed to the transceiver successfully
	TxErrors       uint32 // send failures
	TxAbandoned    uint32 // admitted frames dropped by a busy transceiver or a reset
	TxOverflows    uint32 // outgoing frames too large for the radio buffer
	DisableRetries uint32

	RxPackets    uint32 // frames delivered to the packet handler
	RxDropped    uint32 // completed frames lost to a full incoming queue
	RxErrors     uint32 // frames that failed to decode or were rejected
	AcksReceived uint32

	Timeouts  uint32
	Overflows uint32
	Resets    uint32
	Unknown   uint32
}

// Snapshot returns the current counter values
func (s *Stats) Snapshot() StatsSnapshot {
	return StatsSnapshot{
		TxPackets:      s.txPackets.Load(),
		TxErrors:       s.txErrors.Load(),
		TxAbandoned:    s.txAbandoned.Load(),
		TxOverflows:    s.txOverflows.Load(),
		DisableRetries: s.disableRetries.Load(),
		RxPackets:      s.rxPackets.Load(),
		RxDropped:      s.rxDropped.Load(),
		RxErrors:       s.rxErrors.Load(),
		AcksReceived:   s.acks.Load(),
		Timeouts:       s.timeouts.Load(),
		Overflows:      s.overflows.Load(),
		Resets:         s.resets.Load(),
		Unknown:        s.unknown.Load(),
	}
}

// Reset zeroes all counters
func (s *Stats) Reset() {
	for _, c := range []*atomic.Uint32{
		&s.txPackets, &s.txErrors, &s.txAbandoned, &s.txOverflows, &s.disableRetries,
		&s.rxPackets, &s.rxDropped, &s.rxErrors, &s.acks,
		&s.timeouts, &s.overflows, &s.resets, &s.unknown,
	} {
		c.Store(0)
	}
}

func (s *Stats) countEvent(f EventFlag) {
	switch f {
	case EventTimeout:
		s.timeouts.Add(1)
	case EventOverflow:
		s.overflows.Add(1)
	case EventReset:
		s.resets.Add(1)
	case EventUnknown:
		s.unknown.Add(1)
	}
}
