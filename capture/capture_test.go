package capture

import (
	"bytes"
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"radiolink/protocol"
)

func counterClock() Clock {
	var n uint32
	return func() uint32 {
		n += 10
		return n
	}
}

func TestRingKeepsNewest(t *testing.T) {
	r := NewRing(2, counterClock())
	r.Capture(protocol.DirTx, protocol.FlagReqAck, []byte{0x01})
	r.Capture(protocol.DirRx, protocol.FlagIsAck, []byte{0x02})
	r.Capture(protocol.DirTx, protocol.FlagNone, []byte{0x03})

	recs := r.Records()
	if len(recs) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(recs))
	}
	if recs[0].Seq != 1 || recs[0].Dir != protocol.DirRx || !recs[0].Flags.IsAck() || recs[0].Clock != 20 {
		t.Errorf("Unexpected oldest record: %+v", recs[0])
	}
	if !bytes.Equal(recs[1].Frame, []byte{0x03}) {
		t.Errorf("Unexpected newest frame: %v", recs[1].Frame)
	}

	r.Reset()
	if r.Len() != 0 {
		t.Error("Reset kept records")
	}
}

func TestRingCopiesFrame(t *testing.T) {
	r := NewRing(4, nil)
	frame := []byte{0x01, 0x02}
	r.Capture(protocol.DirTx, protocol.FlagNone, frame)
	frame[0] = 0xFF

	if got := r.Records()[0].Frame[0]; got != 0x01 {
		t.Errorf("Ring aliased the caller's buffer, got %#x", got)
	}
}

// lockedBuffer is a bytes.Buffer safe for one writer and one reader
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *lockedBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]byte(nil), b.buf.Bytes()...)
}

func TestStreamRoundTrip(t *testing.T) {
	var out lockedBuffer
	s := NewStream(&out, 8, counterClock())

	frames := [][]byte{{0x01, 0x00, 0xAA}, {0x02, 0x00}, {0x01, 0x01, 0xBB, 0xCC}}
	for i, f := range frames {
		s.Capture(protocol.Direction(i%2), protocol.FlagNone, f)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if s.Written() != 3 || s.Dropped() != 0 {
		t.Fatalf("Expected 3 written and none dropped, got %d and %d", s.Written(), s.Dropped())
	}

	var got [][]byte
	err := ReadRecords(bytes.NewReader(out.Bytes()), func(rec protocol.CaptureRecord) error {
		if rec.Dir != protocol.Direction(len(got)%2) {
			t.Errorf("Record %d has direction %s", len(got), rec.Dir)
		}
		got = append(got, append([]byte(nil), rec.Frame...))
		return nil
	})
	if err != nil {
		t.Fatalf("ReadRecords failed: %v", err)
	}
	if len(got) != len(frames) {
		t.Fatalf("Expected %d frames, got %d", len(frames), len(got))
	}
	for i := range frames {
		if !bytes.Equal(got[i], frames[i]) {
			t.Errorf("Frame %d: expected %v, got %v", i, frames[i], got[i])
		}
	}
}

// blockingWriter holds every write until released
type blockingWriter struct {
	release chan struct{}
}

func (w *blockingWriter) Write(p []byte) (int, error) {
	<-w.release
	return len(p), nil
}

func TestStreamDropsWhenFull(t *testing.T) {
	w := &blockingWriter{release: make(chan struct{})}
	s := NewStream(w, 1, nil)

	for i := 0; i < 10; i++ {
		s.Capture(protocol.DirTx, protocol.FlagNone, []byte{0x01, byte(i)})
	}
	if s.Dropped() == 0 {
		t.Error("Expected dropped records with a stalled writer")
	}
	close(w.release)
	s.Close()
	if s.Written()+s.Dropped() != 10 {
		t.Errorf("Records unaccounted: written %d dropped %d", s.Written(), s.Dropped())
	}
}

func TestStreamCaptureAfterClose(t *testing.T) {
	var out lockedBuffer
	s := NewStream(&out, 4, counterClock())
	s.Capture(protocol.DirTx, protocol.FlagNone, []byte{0x01, 0x00})
	if err := s.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	s.Capture(protocol.DirRx, protocol.FlagNone, []byte{0x01, 0x01})
	if err := s.Close(); err != nil {
		t.Fatalf("Second Close failed: %v", err)
	}
	if s.Written() != 1 || s.Dropped() != 1 {
		t.Errorf("Expected 1 written and 1 dropped, got %d and %d", s.Written(), s.Dropped())
	}
}

func TestQUICLoopback(t *testing.T) {
	col, err := ListenQUIC("127.0.0.1:0", nil)
	if err != nil {
		t.Skipf("UDP loopback unavailable: %v", err)
	}
	defer col.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	type result struct {
		frames [][]byte
		err    error
	}
	done := make(chan result, 1)
	go func() {
		stream, _, err := col.Accept(ctx)
		if err != nil {
			done <- result{err: err}
			return
		}
		defer stream.Close()
		var res result
		res.err = ReadRecords(stream, func(rec protocol.CaptureRecord) error {
			res.frames = append(res.frames, append([]byte(nil), rec.Frame...))
			if len(res.frames) == 2 {
				return errDone
			}
			return nil
		})
		done <- res
	}()

	w, err := DialQUIC(ctx, col.Addr().String(), nil)
	if err != nil {
		t.Fatalf("DialQUIC failed: %v", err)
	}
	defer w.Close()

	s := NewStream(w, 4, nil)
	s.Capture(protocol.DirTx, protocol.FlagNone, []byte{0x01, 0x00, 0x10})
	s.Capture(protocol.DirRx, protocol.FlagIsAck, []byte{0x02, 0x00})
	s.Close()

	select {
	case res := <-done:
		if res.err != errDone {
			t.Fatalf("Collector failed: %v", res.err)
		}
		if !bytes.Equal(res.frames[1], []byte{0x02, 0x00}) {
			t.Errorf("Unexpected second frame %v", res.frames[1])
		}
	case <-ctx.Done():
		t.Fatal("Timed out waiting for records")
	}
}

var errDone = errors.New("done")
