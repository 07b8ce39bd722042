package core

import (
	"errors"
	"fmt"

	"radiolink/protocol"
)

var errFakeSend = errors.New("send failed")

type completion struct {
	status RxStatus
	data   []byte
}

// fakeTransceiver records every call and replays scripted completions
type fakeTransceiver struct {
	calls       []string
	busy        int // DisableReceive failures left, -1 for always busy
	sendErr     error
	sent        [][]byte
	completions []completion
	lq          uint8
}

func (f *fakeTransceiver) log(format string, args ...interface{}) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeTransceiver) Init() error { f.log("Init"); return nil }
func (f *fakeTransceiver) Reset() error { f.log("Reset"); return nil }
func (f *fakeTransceiver) SetChannel(ch uint8) error { f.log("SetChannel(%d)", ch); return nil }
func (f *fakeTransceiver) SetPower(lvl uint8) error { f.log("SetPower(%d)", lvl); return nil }
func (f *fakeTransceiver) EnableReceive(t uint32) error {
	f.log("EnableReceive(%#x)", t)
	return nil
}

func (f *fakeTransceiver) DisableReceive() error {
	f.log("DisableReceive")
	if f.busy != 0 {
		if f.busy > 0 {
			f.busy--
		}
		return ErrHardwareBusy
	}
	return nil
}

func (f *fakeTransceiver) Send(payload []byte) error {
	f.log("Send(% x)", payload)
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, append([]byte(nil), payload...))
	return nil
}

func (f *fakeTransceiver) LinkQuality() uint8 { return f.lq }

func (f *fakeTransceiver) CheckRx(pkt *RxPacket) error {
	if len(f.completions) == 0 {
		return ErrNoCompletion
	}
	c := f.completions[0]
	f.completions = f.completions[1:]
	pkt.Status = c.status
	pkt.Len = copy(pkt.Buffer(), c.data)
	return nil
}

func (f *fakeTransceiver) complete(status RxStatus, data []byte) {
	f.completions = append(f.completions, completion{status: status, data: data})
}

func (f *fakeTransceiver) reset() {
	f.calls = nil
}

type queued struct {
	frame []byte
	flags protocol.Flags
}

// fakeQueue is an unbounded outgoing queue and an incoming queue with an
// optional capacity
type fakeQueue struct {
	out   []queued
	in    []queued
	inCap int // 0 means unbounded
}

func (q *fakeQueue) send(frame []byte, flags protocol.Flags) {
	q.out = append(q.out, queued{append([]byte(nil), frame...), flags})
}

func (q *fakeQueue) PeekOutgoing(dst []byte) (int, protocol.Flags, bool) {
	if len(q.out) == 0 {
		return 0, protocol.FlagNone, false
	}
	copy(dst, q.out[0].frame)
	return len(q.out[0].frame), q.out[0].flags, true
}

func (q *fakeQueue) DropOutgoing() {
	if len(q.out) > 0 {
		q.out = q.out[1:]
	}
}

func (q *fakeQueue) PushIncoming(frame []byte, flags protocol.Flags) error {
	if q.inCap > 0 && len(q.in) >= q.inCap {
		return ErrQueueFull
	}
	q.in = append(q.in, queued{append([]byte(nil), frame...), flags})
	return nil
}

func (q *fakeQueue) PopIncoming(dst []byte) (int, protocol.Flags, bool) {
	if len(q.in) == 0 {
		return 0, protocol.FlagNone, false
	}
	m := q.in[0]
	q.in = q.in[1:]
	return copy(dst, m.frame), m.flags, true
}

type captured struct {
	dir   protocol.Direction
	flags protocol.Flags
	frame []byte
}

type fakeSink struct {
	records []captured
}

func (s *fakeSink) Capture(dir protocol.Direction, flags protocol.Flags, frame []byte) {
	s.records = append(s.records, captured{dir, flags, append([]byte(nil), frame...)})
}
