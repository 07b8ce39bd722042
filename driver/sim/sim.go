// Package sim is an in-memory radio medium. Nodes attached to one Air hear
// each other's transmissions when tuned to the same channel and receiving.
// It stands in for hardware in tests and in the daemon's simulation mode.
package sim

import (
	"fmt"
	"sync"

	"radiolink/core"
)

// Air is a shared half-duplex medium
type Air struct {
	mu    sync.Mutex
	nodes []*Node
}

// NewAir creates an empty medium
func NewAir() *Air {
	return &Air{}
}

// NewNode attaches a transceiver to the medium
func (a *Air) NewNode(name string) *Node {
	n := &Node{name: name, air: a}
	a.mu.Lock()
	a.nodes = append(a.nodes, n)
	a.mu.Unlock()
	return n
}

// transmit delivers frame to every other node listening on channel
func (a *Air) transmit(from *Node, channel, power uint8, frame []byte) {
	a.mu.Lock()
	var targets []*Node
	for _, n := range a.nodes {
		if n != from {
			targets = append(targets, n)
		}
	}
	a.mu.Unlock()

	for _, n := range targets {
		n.hear(channel, power, frame)
	}
}

// Advance moves simulated time forward by ticks, expiring bounded receive
// windows
func (a *Air) Advance(ticks uint32) {
	a.mu.Lock()
	nodes := append([]*Node(nil), a.nodes...)
	a.mu.Unlock()
	for _, n := range nodes {
		n.advance(ticks)
	}
}

// Node is one simulated transceiver. It implements core.Transceiver.
type Node struct {
	name string
	air  *Air

	mu        sync.Mutex
	channel   uint8
	power     uint8
	rxOn      bool
	rxTimeout uint32 // remaining ticks, 0 for forever
	pending   ringBuffer
	sent      ringBuffer
	calls     []string
	lq        uint8
	irq       func()

	busy    int
	sendErr error
}

var _ core.Transceiver = (*Node)(nil)

// OnInterrupt sets the function called when a completion is pending,
// normally Radio.HandleInterrupt
func (n *Node) OnInterrupt(fn func()) {
	n.mu.Lock()
	n.irq = fn
	n.mu.Unlock()
}

func (n *Node) log(format string, args ...interface{}) {
	n.calls = append(n.calls, fmt.Sprintf(format, args...))
}

func (n *Node) Init() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.log("Init")
	n.rxOn = false
	return nil
}

func (n *Node) Reset() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.log("Reset")
	n.rxOn = false
	n.pending = ringBuffer{}
	return nil
}

func (n *Node) SetChannel(ch uint8) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.log("SetChannel(%d)", ch)
	n.channel = ch
	return nil
}

func (n *Node) SetPower(level uint8) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.log("SetPower(%d)", level)
	n.power = level
	return nil
}

func (n *Node) EnableReceive(timeout uint32) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.log("EnableReceive(%#x)", timeout)
	n.rxOn = true
	n.rxTimeout = timeout
	return nil
}

func (n *Node) DisableReceive() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.log("DisableReceive")
	if n.busy != 0 {
		if n.busy > 0 {
			n.busy--
		}
		return core.ErrHardwareBusy
	}
	n.rxOn = false
	return nil
}

func (n *Node) Send(payload []byte) error {
	n.mu.Lock()
	n.log("Send(% x)", payload)
	if n.sendErr != nil {
		err := n.sendErr
		n.mu.Unlock()
		return err
	}
	frame := append([]byte(nil), payload...)
	n.sent.push(completion{status: core.RxSuccess, data: frame})
	ch, pw := n.channel, n.power
	n.mu.Unlock()

	n.air.transmit(n, ch, pw, frame)
	return nil
}

func (n *Node) LinkQuality() uint8 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.lq
}

func (n *Node) CheckRx(pkt *core.RxPacket) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	c, ok := n.pending.pop()
	if !ok {
		return core.ErrNoCompletion
	}
	pkt.Status = c.status
	pkt.Len = 0
	if c.status != core.RxSuccess {
		return nil
	}
	if len(c.data) > len(pkt.Buffer()) {
		pkt.Status = core.RxOverflow
		return nil
	}
	pkt.Len = copy(pkt.Buffer(), c.data)
	n.lq = c.lq
	return nil
}

// hear receives a frame from the air if tuned and listening. A single
// receive window closes after one frame, like the hardware.
func (n *Node) hear(channel, power uint8, frame []byte) {
	n.mu.Lock()
	if !n.rxOn || n.channel != channel {
		n.mu.Unlock()
		return
	}
	if n.rxTimeout != core.ReceiveForever {
		n.rxOn = false
	}
	n.pending.push(completion{status: core.RxSuccess, data: frame, lq: linkQuality(power)})
	irq := n.irq
	n.mu.Unlock()
	if irq != nil {
		irq()
	}
}

func (n *Node) advance(ticks uint32) {
	n.mu.Lock()
	if !n.rxOn || n.rxTimeout == core.ReceiveForever {
		n.mu.Unlock()
		return
	}
	if ticks < n.rxTimeout {
		n.rxTimeout -= ticks
		n.mu.Unlock()
		return
	}
	n.rxOn = false
	n.rxTimeout = 0
	n.pending.push(completion{status: core.RxTimeout})
	irq := n.irq
	n.mu.Unlock()
	if irq != nil {
		irq()
	}
}

// Inject queues a completion as if the hardware had produced it and raises
// the interrupt
func (n *Node) Inject(status core.RxStatus, data []byte) {
	n.mu.Lock()
	n.pending.push(completion{status: status, data: append([]byte(nil), data...)})
	irq := n.irq
	n.mu.Unlock()
	if irq != nil {
		irq()
	}
}

// SetBusy makes the next count DisableReceive calls fail; -1 fails forever
func (n *Node) SetBusy(count int) {
	n.mu.Lock()
	n.busy = count
	n.mu.Unlock()
}

// SetSendError makes Send fail with err until cleared with nil
func (n *Node) SetSendError(err error) {
	n.mu.Lock()
	n.sendErr = err
	n.mu.Unlock()
}

// Sent returns the frames this node transmitted, oldest first
func (n *Node) Sent() [][]byte {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.sent.snapshot()
}

// Calls returns and clears the transceiver call log
func (n *Node) Calls() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := n.calls
	n.calls = nil
	return out
}

// Receiving reports whether the receiver is on
func (n *Node) Receiving() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.rxOn
}

func (n *Node) String() string {
	return n.name
}

// linkQuality derives a raw quality from the sender's power level
func linkQuality(power uint8) uint8 {
	return uint8(2 * (100 - 3*int(power)))
}
