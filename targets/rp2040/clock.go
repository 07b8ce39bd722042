//go:build rp2040

package main

import (
	"runtime/volatile"
	"unsafe"
)

// RP2040 timer peripheral, a free running 64 bit microsecond counter
const (
	timerBase     = 0x40054000
	timerTIMERAWL = timerBase + 0x0C // Raw timer low word
)

var timerRAWL = (*volatile.Register32)(unsafe.Pointer(uintptr(timerTIMERAWL)))

// micros returns the low 32 bits of the microsecond counter
func micros() uint32 {
	return timerRAWL.Get()
}

// captureClock stamps capture records in milliseconds
func captureClock() uint32 {
	return micros() / 1000
}
