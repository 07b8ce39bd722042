package core

import (
	"sync"
	"testing"
)

func TestEventSetTestAndClear(t *testing.T) {
	var e EventSet

	if e.TestAndClear(EventTimeout) {
		t.Error("Unraised flag reported set")
	}
	e.Set(EventTimeout)
	e.Set(EventTimeout) // idempotent
	if !e.TestAndClear(EventTimeout) {
		t.Error("Raised flag not reported")
	}
	if e.TestAndClear(EventTimeout) {
		t.Error("Flag reported twice for one occurrence")
	}
}

func TestEventSetPriority(t *testing.T) {
	var e EventSet
	e.Set(EventUnknown)
	e.Set(EventAckReceived)
	e.Set(EventDataReceived)
	e.Set(EventOverflow)
	e.Set(EventTimeout)
	e.Set(EventReset)

	want := []EventFlag{
		EventReset, EventTimeout, EventOverflow,
		EventDataReceived, EventAckReceived, EventUnknown,
	}
	for i, w := range want {
		got, ok := e.Next()
		if !ok || got != w {
			t.Fatalf("Step %d: expected %s, got %s (ok=%v)", i, w, got, ok)
		}
	}
	if _, ok := e.Next(); ok {
		t.Error("Expected empty set")
	}
}

func TestEventSetKeepsLowerPriority(t *testing.T) {
	var e EventSet
	e.Set(EventAckReceived)
	e.Set(EventTimeout)

	if got, _ := e.Next(); got != EventTimeout {
		t.Fatalf("Expected timeout first, got %s", got)
	}
	if !e.IsSet(EventAckReceived) {
		t.Error("Lower priority flag lost")
	}
}

func TestEventSetConcurrentSet(t *testing.T) {
	var e EventSet
	flags := []EventFlag{EventTimeout, EventOverflow, EventDataReceived, EventAckReceived}

	var wg sync.WaitGroup
	for _, f := range flags {
		wg.Add(1)
		go func(f EventFlag) {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				e.Set(f)
			}
		}(f)
	}
	wg.Wait()

	for _, f := range flags {
		if !e.TestAndClear(f) {
			t.Errorf("Flag %s lost", f)
		}
	}
}

func TestPriorityInProcess(t *testing.T) {
	rig := newRig(t, DefaultConfig())
	rig.waitForAck(t)

	// Reset wins over a simultaneous data completion
	rig.radio.events.Set(EventDataReceived)
	rig.radio.events.Set(EventReset)
	rig.radio.Process()

	if !hasTransition(rig.radio, StateWaitForAck, StateReset) {
		t.Errorf("Expected WAIT_FOR_ACK -> RESET, trace %v", transitions(rig.radio))
	}
	if !rig.radio.events.IsSet(EventDataReceived) {
		t.Error("Data event consumed in the same poll as reset")
	}
}
