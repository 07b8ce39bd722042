package bridge

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"radiolink/msgqueue"
	"radiolink/protocol"
)

type fakeRedis struct {
	mu      sync.Mutex
	lists   map[string][]string
	pushErr error
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{lists: make(map[string][]string)}
}

func (f *fakeRedis) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.pushErr != nil {
		return redis.NewIntResult(0, f.pushErr)
	}
	for _, v := range values {
		f.lists[key] = append([]string{v.(string)}, f.lists[key]...)
	}
	return redis.NewIntResult(int64(len(f.lists[key])), nil)
}

func (f *fakeRedis) BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, key := range keys {
		l := f.lists[key]
		if len(l) == 0 {
			continue
		}
		v := l[len(l)-1]
		f.lists[key] = l[:len(l)-1]
		return redis.NewStringSliceResult([]string{key, v}, nil)
	}
	return redis.NewStringSliceResult(nil, redis.Nil)
}

func (f *fakeRedis) list(key string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.lists[key]...)
}

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.Out = io.Discard
	return log
}

type rig struct {
	redis   *fakeRedis
	framing *protocol.Framing
	queue   *msgqueue.Queue
	inbox   *msgqueue.Inbox
	bridge  *Bridge
}

func newRig(reqAck bool) *rig {
	r := &rig{
		redis:   newFakeRedis(),
		framing: protocol.NewFraming(),
		queue:   msgqueue.NewDefault(),
		inbox:   msgqueue.NewInbox(4),
	}
	cfg := Config{TxList: "tx", RxList: "rx", ReqAck: reqAck, PopTimeout: time.Millisecond, DrainInterval: time.Millisecond}
	r.bridge = New(r.redis, cfg, r.framing, r.queue, r.inbox, quietLogger())
	return r
}

func TestUplink(t *testing.T) {
	r := newRig(false)
	for _, p := range []string{"first", "second"} {
		r.inbox.OnPacketRx(protocol.Frame{Type: protocol.MsgTypeData, Payload: []byte(p)})
	}

	n, err := r.bridge.Uplink(context.Background())
	if err != nil {
		t.Fatalf("Uplink failed: %v", err)
	}
	if n != 2 || r.bridge.Uplinked() != 2 {
		t.Errorf("Uplink pushed %d (counter %d), want 2", n, r.bridge.Uplinked())
	}

	// LPUSH keeps the newest at the head
	got := r.redis.list("rx")
	if len(got) != 2 || got[0] != "second" || got[1] != "first" {
		t.Errorf("rx list = %q", got)
	}
	if r.inbox.Len() != 0 {
		t.Errorf("Inbox not drained, %d left", r.inbox.Len())
	}
}

func TestUplinkError(t *testing.T) {
	r := newRig(false)
	r.redis.pushErr = errors.New("connection refused")
	r.inbox.OnPacketRx(protocol.Frame{Type: protocol.MsgTypeData, Payload: []byte("x")})

	if _, err := r.bridge.Uplink(context.Background()); err == nil {
		t.Error("Expected push error")
	}
	if r.bridge.Uplinked() != 0 {
		t.Errorf("Uplinked = %d after failure", r.bridge.Uplinked())
	}
}

func TestDownlink(t *testing.T) {
	for _, reqAck := range []bool{false, true} {
		r := newRig(reqAck)
		r.redis.LPush(context.Background(), "tx", "hello")

		if err := r.bridge.Downlink(context.Background()); err != nil {
			t.Fatalf("Downlink failed: %v", err)
		}
		if r.bridge.Downlinked() != 1 {
			t.Fatalf("Downlinked = %d, want 1", r.bridge.Downlinked())
		}

		var buf [protocol.BufferSize]byte
		n, flags, ok := r.queue.PeekOutgoing(buf[:])
		if !ok {
			t.Fatal("No frame queued")
		}
		f, err := r.framing.Decode(buf[:n])
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if f.Type != protocol.MsgTypeData || string(f.Payload) != "hello" {
			t.Errorf("Queued frame = %+v", f)
		}
		if flags.ReqAck() != reqAck || f.Flags.ReqAck() != reqAck {
			t.Errorf("reqAck=%v: queue flags %v, frame flags %v", reqAck, flags, f.Flags)
		}
	}
}

func TestDownlinkEmpty(t *testing.T) {
	r := newRig(false)
	if err := r.bridge.Downlink(context.Background()); err != nil {
		t.Errorf("Downlink on empty list = %v, want nil", err)
	}
	if r.queue.OutgoingLen() != 0 {
		t.Error("Frame queued from empty list")
	}
}

func TestDownlinkRejects(t *testing.T) {
	r := newRig(false)
	r.redis.LPush(context.Background(), "tx", strings.Repeat("x", protocol.MaxMACPayload+1))

	if err := r.bridge.Downlink(context.Background()); err != nil {
		t.Fatalf("Downlink failed: %v", err)
	}
	if r.bridge.Rejected() != 1 || r.queue.OutgoingLen() != 0 {
		t.Errorf("Rejected = %d, queued = %d", r.bridge.Rejected(), r.queue.OutgoingLen())
	}

	// a full outgoing queue is reported the same way
	small := msgqueue.New(1, protocol.BufferSize)
	b := New(r.redis, Config{TxList: "tx", RxList: "rx"}, r.framing, small, r.inbox, quietLogger())
	r.redis.LPush(context.Background(), "tx", "a", "b")
	for i := 0; i < 2; i++ {
		if err := b.Downlink(context.Background()); err != nil {
			t.Fatalf("Downlink failed: %v", err)
		}
	}
	if b.Downlinked() != 1 || b.Rejected() != 1 {
		t.Errorf("Downlinked = %d, Rejected = %d", b.Downlinked(), b.Rejected())
	}
}

func TestRun(t *testing.T) {
	r := newRig(false)
	r.redis.LPush(context.Background(), "tx", "down")
	r.inbox.OnPacketRx(protocol.Frame{Type: protocol.MsgTypeData, Payload: []byte("up")})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.bridge.Run(ctx) }()

	deadline := time.Now().Add(2 * time.Second)
	for r.bridge.Uplinked() == 0 || r.bridge.Downlinked() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("Bridge did not forward in time")
		}
		time.Sleep(time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
}
