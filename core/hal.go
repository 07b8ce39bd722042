package core

import "radiolink/protocol"

// Transceiver is the raw radio chip. All methods except CheckRx are called
// from the polling loop only. CheckRx is called from interrupt context and
// must not block.
type Transceiver interface {
	Init() error
	Reset() error
	SetChannel(ch uint8) error
	SetPower(level uint8) error

	// EnableReceive turns the receiver on. A timeout of ReceiveForever
	// keeps it on until DisableReceive; any other value is a hardware
	// receive timeout in transceiver ticks.
	EnableReceive(timeout uint32) error

	// DisableReceive returns ErrHardwareBusy while a frame is arriving
	DisableReceive() error

	Send(payload []byte) error

	// LinkQuality returns the raw signal quality of the last received frame
	LinkQuality() uint8

	// CheckRx completes the current receive operation into pkt. It returns
	// ErrNoCompletion if the interrupt was not the end of a receive.
	CheckRx(pkt *RxPacket) error
}

// Framing classifies and decodes frames
type Framing interface {
	Decode(frame []byte) (protocol.Frame, error)
	IsAck(frame []byte) bool
}

// MessageQueue connects the controller to the application.
//
// PeekOutgoing copies the oldest outgoing frame into dst without removing
// it and returns its full stored length, which may exceed len(dst).
// DropOutgoing removes that frame. PushIncoming is called from interrupt
// context and must not block; it returns ErrQueueFull when full.
type MessageQueue interface {
	PeekOutgoing(dst []byte) (int, protocol.Flags, bool)
	DropOutgoing()
	PushIncoming(frame []byte, flags protocol.Flags) error
	PopIncoming(dst []byte) (int, protocol.Flags, bool)
}

// CaptureSink receives a copy of every frame while sniffing is enabled.
// Capture must copy frame before returning and must not block.
type CaptureSink interface {
	Capture(dir protocol.Direction, flags protocol.Flags, frame []byte)
}

// PacketHandler is the upper layer that consumes decoded frames. An error
// means the frame was not accepted.
type PacketHandler interface {
	OnPacketRx(f protocol.Frame) error
}
