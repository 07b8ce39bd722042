package msgqueue

import (
	"sync/atomic"

	"radiolink/protocol"
)

// ring is a fixed-capacity FIFO of fixed-size message slots. All storage is
// allocated up front. One producer and one consumer may run concurrently;
// head is only written by the consumer and tail only by the producer.
type ring struct {
	data  []byte
	lens  []uint16
	flags []protocol.Flags
	slot  int
	depth uint32

	head atomic.Uint32 // next slot to pop (free running)
	tail atomic.Uint32 // next slot to push (free running)
}

func newRing(depth, slot int) *ring {
	if depth < 1 {
		depth = 1
	}
	return &ring{
		data:  make([]byte, depth*slot),
		lens:  make([]uint16, depth),
		flags: make([]protocol.Flags, depth),
		slot:  slot,
		depth: uint32(depth),
	}
}

// push copies msg into the next free slot
func (r *ring) push(msg []byte, flags protocol.Flags) error {
	if len(msg) > r.slot {
		return ErrTooLarge
	}
	t := r.tail.Load()
	if t-r.head.Load() >= r.depth {
		return errFull
	}
	i := int(t % r.depth)
	copy(r.data[i*r.slot:], msg)
	r.lens[i] = uint16(len(msg))
	r.flags[i] = flags
	r.tail.Store(t + 1)
	return nil
}

// peek copies the oldest message into dst without removing it. The returned
// length is the stored length, which may exceed len(dst).
func (r *ring) peek(dst []byte) (int, protocol.Flags, bool) {
	h := r.head.Load()
	if h == r.tail.Load() {
		return 0, protocol.FlagNone, false
	}
	i := int(h % r.depth)
	n := int(r.lens[i])
	copy(dst, r.data[i*r.slot:i*r.slot+n])
	return n, r.flags[i], true
}

// drop removes the oldest message
func (r *ring) drop() {
	h := r.head.Load()
	if h != r.tail.Load() {
		r.head.Store(h + 1)
	}
}

func (r *ring) len() int {
	return int(r.tail.Load() - r.head.Load())
}
