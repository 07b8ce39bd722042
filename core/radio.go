// Package core implements the half-duplex radio link controller: the link
// state machine, event hand-off from interrupt context and the single TX and
// RX packet buffers.
//
// A Radio has two execution contexts. HandleInterrupt runs in interrupt
// context (or an IRQ goroutine on hosted Go) and never blocks. Every other
// method that touches the transceiver runs in one cooperative polling loop
// that calls Process. Setters are plain atomic writes and may be called from
// anywhere; the polling loop applies them.
package core

import (
	"sync"
	"sync/atomic"

	"radiolink/protocol"
)

// Transceiver operations, used as the Value of TraceError entries
const (
	OpReset uint32 = iota + 1
	OpInit
	OpSetChannel
	OpSetPower
	OpEnableReceive
	OpSend
)

const (
	pendingChannel uint32 = 1 << iota
	pendingPower
)

// Radio is the link controller. One Radio owns one transceiver.
type Radio struct {
	cfg     Config
	xcvr    Transceiver
	framing Framing
	queue   MessageQueue
	sink    CaptureSink
	handler PacketHandler

	events EventSet
	state  atomic.Uint32

	channel     atomic.Uint32
	power       atomic.Uint32
	on          atomic.Bool
	sniff       atomic.Bool
	pending     atomic.Uint32
	linkQuality atomic.Uint32

	cs criticalSection
	rx RxPacket // written by CheckRx under cs
	tx TxPacket // polling loop only

	txScratch [protocol.MaxPayloadSize]byte
	rxFrame   [protocol.BufferSize]byte

	stats Stats
	trace traceRing

	debugMu      sync.Mutex
	debugPrintln DebugWriter
}

// New creates a controller in state Initial with the radio on. The
// transceiver is not touched until Init or the first Reset event.
func New(cfg Config, xcvr Transceiver, framing Framing, queue MessageQueue) (*Radio, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	r := &Radio{
		cfg:     cfg,
		xcvr:    xcvr,
		framing: framing,
		queue:   queue,
	}
	r.channel.Store(uint32(cfg.Channel))
	r.power.Store(uint32(cfg.Power))
	r.on.Store(true)
	r.state.Store(uint32(StateInitial))
	r.rx.reset()
	return r, nil
}

// SetCaptureSink sets where frames go while sniffing. Call before the
// polling loop starts.
func (r *Radio) SetCaptureSink(sink CaptureSink) {
	r.sink = sink
}

// SetPacketHandler sets the upper layer for decoded frames. Call before the
// polling loop starts.
func (r *Radio) SetPacketHandler(h PacketHandler) {
	r.handler = h
}

// Init runs the full transceiver initialisation and returns the first
// error. Must be called from the polling context.
func (r *Radio) Init() error {
	return r.initRadio()
}

// initRadio resets and configures the transceiver, clears both packet
// buffers and puts the state machine back to Initial. Sniffing is turned
// off and the radio on.
func (r *Radio) initRadio() error {
	r.sniff.Store(false)
	r.on.Store(true)

	var first error
	check := func(op uint32, err error) {
		if err == nil {
			return
		}
		r.traceError(op)
		if first == nil {
			first = err
		}
	}

	r.pending.Swap(0)
	check(OpReset, r.xcvr.Reset())
	check(OpInit, r.xcvr.Init())
	check(OpSetChannel, r.xcvr.SetChannel(uint8(r.channel.Load())))
	check(OpSetPower, r.xcvr.SetPower(uint8(r.power.Load())))

	r.tx.reset()
	r.cs.lock()
	r.rx.reset()
	r.cs.unlock()

	r.setState(StateInitial)
	return first
}

// Process runs one poll: apply configuration, consume one event, advance the
// state machine, admit one outgoing frame and deliver one incoming frame.
// It does nothing while the radio is off.
func (r *Radio) Process() {
	if !r.on.Load() {
		return
	}
	r.applyPending()
	r.handleEvents()
	r.runStateMachine()
	_ = r.ProcessTx() // ErrNoData and ErrOverflow are counted, not reported
	r.processRx()
}

func (r *Radio) applyPending() {
	p := r.pending.Swap(0)
	if p&pendingChannel != 0 {
		if err := r.xcvr.SetChannel(uint8(r.channel.Load())); err != nil {
			r.traceError(OpSetChannel)
		}
	}
	if p&pendingPower != 0 {
		if err := r.xcvr.SetPower(uint8(r.power.Load())); err != nil {
			r.traceError(OpSetPower)
		}
	}
}

// handleEvents consumes the highest priority pending event
func (r *Radio) handleEvents() {
	ev, ok := r.events.Next()
	if !ok {
		return
	}
	from := r.State()
	r.stats.countEvent(ev)
	r.trace.record(TraceEntry{Kind: TraceEvent, From: from, Event: ev})

	if ev == EventReset {
		if from == StateTransmitData {
			r.stats.txAbandoned.Add(1)
			r.trace.record(TraceEntry{Kind: TraceDrop, From: from, Value: uint32(r.tx.Len)})
		}
		r.debug("radio: transceiver reset")
		r.setState(StateReset)
		return
	}
	switch ev {
	case EventTimeout:
		r.debug("radio: timeout")
	case EventOverflow:
		r.debug("radio: overflow")
	case EventUnknown:
		r.debug("radio: unknown completion")
	}
	if from == StateTransmitData {
		// The admitted frame has left the queue; only Reset drops it
		return
	}
	r.setState(StateReceiveAlwaysOn)
}

// runStateMachine advances until the state waits for an external trigger
func (r *Radio) runStateMachine() {
	busy := 0
	for {
		switch r.State() {
		case StateInitial:
			r.setState(StateReceiveAlwaysOn)

		case StateReset:
			if err := r.initRadio(); err != nil {
				r.debug("radio: re-init failed: " + err.Error())
			}

		case StateReceiveAlwaysOn:
			r.setState(StateReadyForTxRx)
			if err := r.xcvr.EnableReceive(ReceiveForever); err != nil {
				r.traceError(OpEnableReceive)
			}
			return

		case StateTransmitData:
			if err := r.xcvr.DisableReceive(); err != nil {
				busy++
				r.stats.disableRetries.Add(1)
				if busy >= r.cfg.MaxDisableRetries {
					r.stats.txAbandoned.Add(1)
					r.trace.record(TraceEntry{Kind: TraceDrop, From: StateTransmitData, Value: uint32(r.tx.Len)})
					r.debug("radio: transceiver busy, frame abandoned")
					r.setState(StateReceiveAlwaysOn)
				}
				continue
			}
			r.transmit()

		default:
			if r.State().suspends() {
				return
			}
			r.setState(StateReceiveAlwaysOn)
		}
	}
}

// transmit sends the admitted frame and picks the next state
func (r *Radio) transmit() {
	payload := r.tx.Payload()
	if err := r.xcvr.Send(payload); err != nil {
		r.stats.txErrors.Add(1)
		r.traceError(OpSend)
		r.setState(StateReceiveAlwaysOn)
		return
	}
	r.stats.txPackets.Add(1)
	r.trace.record(TraceEntry{Kind: TraceTx, From: StateTransmitData, Value: uint32(len(payload))})

	if !r.cfg.AckEnabled || r.tx.Flags.IsAck() || r.framing.IsAck(payload) {
		r.setState(StateReceiveAlwaysOn)
		return
	}
	r.setState(StateWaitForAck)
	if err := r.xcvr.EnableReceive(r.cfg.AckTimeout); err != nil {
		r.traceError(OpEnableReceive)
	}
}

// ProcessTx admits one outgoing frame when the link is ready. It returns
// ErrNoData if nothing is queued and ErrOverflow if the frame does not fit.
func (r *Radio) ProcessTx() error {
	if r.State() != StateReadyForTxRx {
		return nil
	}
	return r.checkTx()
}

func (r *Radio) checkTx() error {
	n, flags, ok := r.queue.PeekOutgoing(r.txScratch[:])
	if !ok {
		return ErrNoData
	}
	if n > protocol.MaxPayloadSize {
		r.stats.txOverflows.Add(1)
		r.trace.record(TraceEntry{Kind: TraceDrop, From: StateReadyForTxRx, Value: uint32(n)})
		if r.cfg.OverflowPolicy == OverflowDrop {
			r.queue.DropOutgoing()
		}
		return ErrOverflow
	}
	r.queue.DropOutgoing()

	copy(r.tx.Data[protocol.HeaderSize:], r.txScratch[:n])
	r.tx.Len = n
	r.tx.Flags = flags
	r.tx.Data[protocol.IdxSize] = byte(n)
	r.tx.Data[protocol.IdxFlags] = byte(flags)
	r.setState(StateTransmitData)

	if r.sniff.Load() && r.sink != nil {
		r.sink.Capture(protocol.DirTx, flags, r.tx.Payload())
	}
	return nil
}

// processRx delivers one frame from the incoming queue
func (r *Radio) processRx() {
	n, flags, ok := r.queue.PopIncoming(r.rxFrame[:])
	if !ok {
		return
	}
	if n > len(r.rxFrame) {
		n = len(r.rxFrame)
	}
	frame := r.rxFrame[:n]

	if r.sniff.Load() && r.sink != nil {
		r.sink.Capture(protocol.DirRx, flags, frame)
	}

	f, err := r.framing.Decode(frame)
	if err != nil {
		r.stats.rxErrors.Add(1)
		r.trace.record(TraceEntry{Kind: TraceDrop, From: r.State(), Value: uint32(n)})
		return
	}
	if r.handler != nil {
		if err := r.handler.OnPacketRx(f); err != nil {
			r.stats.rxErrors.Add(1)
			return
		}
	}
	r.stats.rxPackets.Add(1)
	r.trace.record(TraceEntry{Kind: TraceRx, From: r.State(), Value: uint32(n)})

	if f.Flags.IsAck() || flags.IsAck() {
		r.events.Set(EventAckReceived)
		r.stats.acks.Add(1)
	}
}

// HandleInterrupt classifies a transceiver completion. It is called from
// interrupt context and raises at most one event. A received frame is
// copied into the incoming queue before DataReceived is raised; if the
// queue is full the frame is dropped and counted.
func (r *Radio) HandleInterrupt() {
	r.cs.lock()
	if err := r.xcvr.CheckRx(&r.rx); err != nil {
		r.cs.unlock()
		return
	}
	var ev EventFlag
	switch r.rx.Status {
	case RxTimeout:
		ev = EventTimeout
	case RxSuccess:
		payload := r.rx.Payload()
		flags := protocol.FlagNone
		if r.framing.IsAck(payload) {
			flags = protocol.FlagIsAck
		}
		r.linkQuality.Store(uint32(r.xcvr.LinkQuality()))
		if err := r.queue.PushIncoming(payload, flags); err != nil {
			r.stats.rxDropped.Add(1)
		}
		ev = EventDataReceived
	case RxOverflow:
		ev = EventOverflow
	case RxReset:
		ev = EventReset
	default:
		ev = EventUnknown
	}
	r.cs.unlock()
	r.events.Set(ev)
}

func (r *Radio) setState(s LinkState) {
	from := LinkState(r.state.Swap(uint32(s)))
	if from != s {
		r.trace.record(TraceEntry{Kind: TraceTransition, From: from, To: s})
	}
}

func (r *Radio) traceError(op uint32) {
	r.trace.record(TraceEntry{Kind: TraceError, From: r.State(), Value: op})
	r.debug("radio: transceiver operation " + utoa(op) + " failed")
}
