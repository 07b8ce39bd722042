package core

import "errors"

var (
	// ErrNoData is returned by ProcessTx when nothing is queued. It is a
	// signal, not a failure.
	ErrNoData = errors.New("no outgoing data")

	// ErrOverflow is returned when a payload does not fit the radio buffer
	ErrOverflow = errors.New("payload exceeds radio buffer")

	// ErrQueueFull is returned by a MessageQueue that cannot take a frame
	ErrQueueFull = errors.New("queue full")

	// ErrHardwareBusy is returned by a Transceiver that cannot leave receive mode yet
	ErrHardwareBusy = errors.New("transceiver busy")

	// ErrNoCompletion is returned by Transceiver.CheckRx when the interrupt
	// was not the end of a receive operation
	ErrNoCompletion = errors.New("no receive completion")

	ErrRange = errors.New("argument out of range 0..15")
)
