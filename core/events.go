package core

import "sync/atomic"

// EventFlag identifies one radio event. Flags are bits of one word.
type EventFlag uint32

const (
	EventReset EventFlag = 1 << iota
	EventTimeout
	EventOverflow
	EventDataReceived
	EventAckReceived
	EventUnknown

	eventNone EventFlag = 0
)

// eventPriority is the order in which the polling loop consumes events.
// A transceiver reset invalidates everything else.
var eventPriority = [...]EventFlag{
	EventReset,
	EventTimeout,
	EventOverflow,
	EventDataReceived,
	EventAckReceived,
	EventUnknown,
}

func (f EventFlag) String() string {
	switch f {
	case EventReset:
		return "reset"
	case EventTimeout:
		return "timeout"
	case EventOverflow:
		return "overflow"
	case EventDataReceived:
		return "data"
	case EventAckReceived:
		return "ack"
	case EventUnknown:
		return "unknown"
	case eventNone:
		return "none"
	default:
		return "multiple"
	}
}

// EventSet is a set of sticky, auto-clearing flags. Set may be called from
// interrupt context; TestAndClear and Next only from the polling loop.
type EventSet struct {
	bits atomic.Uint32
}

// Set raises flag. Raising an already raised flag has no effect.
func (e *EventSet) Set(flag EventFlag) {
	for {
		old := e.bits.Load()
		if old&uint32(flag) == uint32(flag) {
			return
		}
		if e.bits.CompareAndSwap(old, old|uint32(flag)) {
			return
		}
	}
}

// TestAndClear reports whether flag was raised and clears it
func (e *EventSet) TestAndClear(flag EventFlag) bool {
	for {
		old := e.bits.Load()
		if old&uint32(flag) == 0 {
			return false
		}
		if e.bits.CompareAndSwap(old, old&^uint32(flag)) {
			return true
		}
	}
}

// Next clears and returns the highest priority raised flag. Lower priority
// flags stay raised for later polls.
func (e *EventSet) Next() (EventFlag, bool) {
	if e.bits.Load() == 0 {
		return eventNone, false
	}
	for _, f := range eventPriority {
		if e.TestAndClear(f) {
			return f, true
		}
	}
	return eventNone, false
}

// Pending returns the raised flags without clearing them
func (e *EventSet) Pending() EventFlag {
	return EventFlag(e.bits.Load())
}

// IsSet reports whether flag is raised without clearing it
func (e *EventSet) IsSet(flag EventFlag) bool {
	return e.bits.Load()&uint32(flag) != 0
}
