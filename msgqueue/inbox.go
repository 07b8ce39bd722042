package msgqueue

import (
	"sync/atomic"

	"radiolink/protocol"
)

// Inbox collects delivered data payloads for the application. It is a
// protocol.Handler fed by the polling loop and drained by one reader.
type Inbox struct {
	r       *ring
	dropped atomic.Uint32
}

// NewInbox creates an Inbox holding up to depth payloads
func NewInbox(depth int) *Inbox {
	return &Inbox{r: newRing(depth, protocol.MaxMACPayload)}
}

// OnPacketRx stores data payloads; acknowledgements are not delivered
func (b *Inbox) OnPacketRx(f protocol.Frame) error {
	if f.Type != protocol.MsgTypeData {
		return nil
	}
	if err := b.r.push(f.Payload, f.Flags); err != nil {
		b.dropped.Add(1)
	}
	return nil
}

// Receive pops the oldest payload into dst
func (b *Inbox) Receive(dst []byte) (int, bool) {
	n, _, ok := b.r.peek(dst)
	if ok {
		b.r.drop()
	}
	return n, ok
}

// Len returns the number of pending payloads
func (b *Inbox) Len() int {
	return b.r.len()
}

// Dropped returns how many payloads were lost to a full inbox
func (b *Inbox) Dropped() uint32 {
	return b.dropped.Load()
}
