package capture

import (
	"io"
	"sync"
	"sync/atomic"

	"radiolink/core"
	"radiolink/protocol"
)

type encoded struct {
	n   int
	buf [protocol.CaptureRecordMax]byte
}

// Stream encodes captured frames and writes them to w from a background
// goroutine. Capture never blocks: when the buffer is full the record is
// dropped and counted.
type Stream struct {
	w     io.Writer
	enc   *protocol.CaptureEncoder
	clock Clock

	mu     sync.RWMutex // guards closed against sends on ch
	closed bool
	ch     chan encoded
	done   chan struct{}

	dropped atomic.Uint32
	written atomic.Uint32
	errs    atomic.Uint32
	lastErr atomic.Value
}

var _ core.CaptureSink = (*Stream)(nil)

// NewStream starts a Stream buffering up to depth records
func NewStream(w io.Writer, depth int, clock Clock) *Stream {
	if depth < 1 {
		depth = 16
	}
	if clock == nil {
		clock = MillisClock()
	}
	s := &Stream{
		w:     w,
		enc:   protocol.NewCaptureEncoder(),
		clock: clock,
		ch:    make(chan encoded, depth),
		done:  make(chan struct{}),
	}
	go s.run()
	return s
}

// Capture is called from the polling loop. After Close records are dropped.
func (s *Stream) Capture(dir protocol.Direction, flags protocol.Flags, frame []byte) {
	rec := protocol.CaptureRecord{Dir: dir, Flags: flags, Clock: s.clock(), Frame: frame}
	raw, err := s.enc.Encode(&rec)
	if err != nil {
		s.dropped.Add(1)
		return
	}
	var e encoded
	e.n = copy(e.buf[:], raw)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.dropped.Add(1)
		return
	}
	select {
	case s.ch <- e:
	default:
		s.dropped.Add(1)
	}
}

func (s *Stream) run() {
	defer close(s.done)
	for e := range s.ch {
		if _, err := s.w.Write(e.buf[:e.n]); err != nil {
			s.errs.Add(1)
			s.lastErr.Store(err)
			continue
		}
		s.written.Add(1)
	}
}

// Close flushes buffered records and stops the writer goroutine. The
// underlying writer is not closed.
func (s *Stream) Close() error {
	s.mu.Lock()
	if !s.closed {
		s.closed = true
		close(s.ch)
	}
	s.mu.Unlock()
	<-s.done
	return nil
}

// Dropped returns how many records were lost to a full buffer
func (s *Stream) Dropped() uint32 {
	return s.dropped.Load()
}

// Written returns how many records reached the writer
func (s *Stream) Written() uint32 {
	return s.written.Load()
}

// Err returns the last write error, if any
func (s *Stream) Err() error {
	if err, ok := s.lastErr.Load().(error); ok {
		return err
	}
	return nil
}
