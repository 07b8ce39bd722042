package capture

import (
	"sync"

	"radiolink/core"
	"radiolink/protocol"
)

type ringSlot struct {
	rec   protocol.CaptureRecord
	n     int
	frame [maxFrame]byte
}

// Ring keeps the most recent captured frames in preallocated slots
type Ring struct {
	mu    sync.Mutex
	slots []ringSlot
	head  int
	count int
	seq   uint8
	clock Clock
}

var _ core.CaptureSink = (*Ring)(nil)

// NewRing creates a Ring holding size frames. A nil clock stamps zero.
func NewRing(size int, clock Clock) *Ring {
	if size < 1 {
		size = 1
	}
	return &Ring{slots: make([]ringSlot, size), clock: clock}
}

func (r *Ring) Capture(dir protocol.Direction, flags protocol.Flags, frame []byte) {
	var now uint32
	if r.clock != nil {
		now = r.clock()
	}
	r.mu.Lock()
	s := &r.slots[r.head]
	s.n = copy(s.frame[:], frame)
	s.rec = protocol.CaptureRecord{Seq: r.seq, Dir: dir, Flags: flags, Clock: now}
	r.seq++
	r.head = (r.head + 1) % len(r.slots)
	if r.count < len(r.slots) {
		r.count++
	}
	r.mu.Unlock()
}

// Records returns copies of the kept records, oldest first
func (r *Ring) Records() []protocol.CaptureRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]protocol.CaptureRecord, 0, r.count)
	start := (r.head - r.count + len(r.slots)) % len(r.slots)
	for i := 0; i < r.count; i++ {
		s := &r.slots[(start+i)%len(r.slots)]
		rec := s.rec
		rec.Frame = append([]byte(nil), s.frame[:s.n]...)
		out = append(out, rec)
	}
	return out
}

// Len returns the number of kept records
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Reset discards all records
func (r *Ring) Reset() {
	r.mu.Lock()
	r.head = 0
	r.count = 0
	r.mu.Unlock()
}
