// Package msgqueue provides the bounded, preallocated message queues that sit
// between the radio link controller and the application.
package msgqueue

import (
	"errors"
	"sync"
	"sync/atomic"

	"radiolink/core"
	"radiolink/protocol"
)

var (
	ErrTooLarge = errors.New("message larger than queue slot")

	errFull = core.ErrQueueFull
)

// Default queue geometry. Slots are larger than a radio buffer so that
// oversized application payloads reach the controller and are rejected there.
const (
	DefaultDepth    = 8
	DefaultSlotSize = 2 * protocol.BufferSize
)

// Queue implements core.MessageQueue. The outgoing direction accepts any
// number of producers and one consumer (the polling loop); the incoming
// direction has one producer (the interrupt handler) and one consumer.
type Queue struct {
	out *ring
	in  *ring

	sendMu sync.Mutex

	txDropped atomic.Uint32
	rxDropped atomic.Uint32
}

var _ core.MessageQueue = (*Queue)(nil)

// New creates a Queue with depth slots of slotSize bytes per direction
func New(depth, slotSize int) *Queue {
	return &Queue{
		out: newRing(depth, slotSize),
		in:  newRing(depth, slotSize),
	}
}

// NewDefault creates a Queue with the default geometry
func NewDefault() *Queue {
	return New(DefaultDepth, DefaultSlotSize)
}

// Send queues an encoded frame for transmission
func (q *Queue) Send(frame []byte, flags protocol.Flags) error {
	q.sendMu.Lock()
	err := q.out.push(frame, flags)
	q.sendMu.Unlock()
	if err == errFull {
		q.txDropped.Add(1)
	}
	return err
}

func (q *Queue) PeekOutgoing(dst []byte) (int, protocol.Flags, bool) {
	return q.out.peek(dst)
}

func (q *Queue) DropOutgoing() {
	q.out.drop()
}

// PushIncoming never blocks; a full queue drops the frame
func (q *Queue) PushIncoming(frame []byte, flags protocol.Flags) error {
	err := q.in.push(frame, flags)
	if err != nil {
		q.rxDropped.Add(1)
	}
	return err
}

func (q *Queue) PopIncoming(dst []byte) (int, protocol.Flags, bool) {
	n, flags, ok := q.in.peek(dst)
	if ok {
		q.in.drop()
	}
	return n, flags, ok
}

// OutgoingLen returns the number of frames waiting for transmission
func (q *Queue) OutgoingLen() int {
	return q.out.len()
}

// IncomingLen returns the number of received frames not yet processed
func (q *Queue) IncomingLen() int {
	return q.in.len()
}

// TxDropped returns how many Send calls found the outgoing queue full
func (q *Queue) TxDropped() uint32 {
	return q.txDropped.Load()
}

// RxDropped returns how many received frames were dropped
func (q *Queue) RxDropped() uint32 {
	return q.rxDropped.Load()
}
