package protocol

// Handler receives decoded incoming frames
type Handler interface {
	OnPacketRx(f Frame) error
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(f Frame) error

func (h HandlerFunc) OnPacketRx(f Frame) error {
	return h(f)
}

// Outbox accepts encoded frames for transmission
type Outbox interface {
	Send(frame []byte, flags Flags) error
}

// AckResponder answers data frames that request an acknowledgement and then
// passes every frame on to Next.
type AckResponder struct {
	Framing *Framing
	Out     Outbox
	Next    Handler

	buf [MACHeaderSize]byte
}

// NewAckResponder creates an AckResponder
func NewAckResponder(framing *Framing, out Outbox, next Handler) *AckResponder {
	return &AckResponder{Framing: framing, Out: out, Next: next}
}

// OnPacketRx queues the acknowledgement before delivering the frame so the
// ACK goes out on the next transmit opportunity.
func (a *AckResponder) OnPacketRx(f Frame) error {
	if f.Type == MsgTypeData && f.Flags.ReqAck() {
		n, flags, err := a.Framing.EncodeAck(a.buf[:], f.Seq)
		if err != nil {
			return err
		}
		if err := a.Out.Send(a.buf[:n], flags); err != nil {
			return err
		}
	}
	if a.Next != nil {
		return a.Next.OnPacketRx(f)
	}
	return nil
}
