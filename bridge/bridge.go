// Package bridge moves payloads between the radio message queues and Redis
// lists so other gateway services can talk over the link. Received data
// payloads are pushed onto RxList; payloads popped from TxList are framed
// and queued for transmission.
package bridge

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"

	"radiolink/protocol"
)

// Client is the subset of *redis.Client the bridge uses
type Client interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	BRPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// Source yields received payloads, as msgqueue.Inbox does
type Source interface {
	Receive(dst []byte) (int, bool)
}

// Config holds the bridge settings
type Config struct {
	TxList string
	RxList string
	ReqAck bool // ask the peer to acknowledge bridged frames

	// PopTimeout bounds one BRPOP so cancellation is noticed
	PopTimeout time.Duration
	// DrainInterval is how often the source is checked for new payloads
	DrainInterval time.Duration
}

// Bridge connects a Source and an Outbox to two Redis lists
type Bridge struct {
	client  Client
	cfg     Config
	framing *protocol.Framing
	out     protocol.Outbox
	in      Source
	log     logrus.FieldLogger

	frame   [protocol.MaxPayloadSize]byte
	payload [protocol.MaxMACPayload]byte

	uplinked   atomic.Uint32
	downlinked atomic.Uint32
	rejected   atomic.Uint32
}

// Dial creates a Redis client for addr
func Dial(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}

// New creates a Bridge. Zero durations in cfg take defaults.
func New(client Client, cfg Config, framing *protocol.Framing, out protocol.Outbox, in Source, log logrus.FieldLogger) *Bridge {
	if cfg.PopTimeout == 0 {
		cfg.PopTimeout = time.Second
	}
	if cfg.DrainInterval == 0 {
		cfg.DrainInterval = 10 * time.Millisecond
	}
	return &Bridge{
		client:  client,
		cfg:     cfg,
		framing: framing,
		out:     out,
		in:      in,
		log:     log.WithField("component", "bridge"),
	}
}

// Run forwards in both directions until ctx is cancelled
func (b *Bridge) Run(ctx context.Context) error {
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		b.runUplink(ctx)
	}()
	go func() {
		defer wg.Done()
		b.runDownlink(ctx)
	}()
	wg.Wait()
	return ctx.Err()
}

func (b *Bridge) runUplink(ctx context.Context) {
	ticker := time.NewTicker(b.cfg.DrainInterval)
	defer ticker.Stop()
	for {
		if _, err := b.Uplink(ctx); err != nil && ctx.Err() == nil {
			b.log.WithError(err).Warn("uplink failed")
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (b *Bridge) runDownlink(ctx context.Context) {
	for ctx.Err() == nil {
		if err := b.Downlink(ctx); err != nil && ctx.Err() == nil {
			b.log.WithError(err).Warn("downlink failed")
			select {
			case <-ctx.Done():
			case <-time.After(b.cfg.PopTimeout):
			}
		}
	}
}

// Uplink pushes every payload waiting in the source onto RxList and
// returns how many were pushed. A payload whose push fails is lost.
func (b *Bridge) Uplink(ctx context.Context) (int, error) {
	count := 0
	for {
		n, ok := b.in.Receive(b.payload[:])
		if !ok {
			return count, nil
		}
		if err := b.client.LPush(ctx, b.cfg.RxList, string(b.payload[:n])).Err(); err != nil {
			return count, err
		}
		count++
		b.uplinked.Add(1)
	}
}

// Downlink waits up to PopTimeout for one payload on TxList and queues it
// for transmission. A timeout is not an error.
func (b *Bridge) Downlink(ctx context.Context) error {
	res, err := b.client.BRPop(ctx, b.cfg.PopTimeout, b.cfg.TxList).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return err
	}
	// BRPOP replies with the list name followed by the value
	if len(res) != 2 {
		return nil
	}

	flags := protocol.FlagNone
	if b.cfg.ReqAck {
		flags = protocol.FlagReqAck
	}
	n, flags, err := b.framing.Encode(b.frame[:], []byte(res[1]), protocol.MsgTypeData, flags)
	if err != nil {
		b.rejected.Add(1)
		b.log.WithError(err).WithField("len", len(res[1])).Warn("payload rejected")
		return nil
	}
	if err := b.out.Send(b.frame[:n], flags); err != nil {
		b.rejected.Add(1)
		b.log.WithError(err).Warn("outgoing queue rejected frame")
		return nil
	}
	b.downlinked.Add(1)
	return nil
}

// Uplinked returns how many payloads were pushed to Redis
func (b *Bridge) Uplinked() uint32 {
	return b.uplinked.Load()
}

// Downlinked returns how many payloads were queued for the radio
func (b *Bridge) Downlinked() uint32 {
	return b.downlinked.Load()
}

// Rejected returns how many popped payloads could not be queued
func (b *Bridge) Rejected() uint32 {
	return b.rejected.Load()
}
