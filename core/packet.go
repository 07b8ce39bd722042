package core

import "radiolink/protocol"

// RxStatus is the completion status of a receive operation
type RxStatus uint8

const (
	RxSuccess RxStatus = iota
	RxTimeout
	RxOverflow
	RxReset
	RxUnknown
)

func (s RxStatus) String() string {
	switch s {
	case RxSuccess:
		return "success"
	case RxTimeout:
		return "timeout"
	case RxOverflow:
		return "overflow"
	case RxReset:
		return "reset"
	default:
		return "unknown"
	}
}

// TxPacket is the single outgoing radio buffer. The payload lives at
// protocol.HeaderSize; the header bytes carry size and flags.
type TxPacket struct {
	Data  [protocol.BufferSize]byte
	Len   int
	Flags protocol.Flags
}

// Payload returns the bytes handed to the transceiver
func (p *TxPacket) Payload() []byte {
	return p.Data[protocol.HeaderSize : protocol.HeaderSize+p.Len]
}

func (p *TxPacket) reset() {
	p.Data = [protocol.BufferSize]byte{}
	p.Len = 0
	p.Flags = protocol.FlagNone
}

// RxPacket is the single incoming radio buffer, filled by
// Transceiver.CheckRx at interrupt time.
type RxPacket struct {
	Data   [protocol.BufferSize]byte
	Len    int
	Status RxStatus
}

// Payload returns the received bytes
func (p *RxPacket) Payload() []byte {
	n := p.Len
	if n > protocol.MaxPayloadSize {
		n = protocol.MaxPayloadSize
	}
	if n < 0 {
		n = 0
	}
	return p.Data[protocol.HeaderSize : protocol.HeaderSize+n]
}

// Buffer returns the payload area a transceiver copies received bytes into
func (p *RxPacket) Buffer() []byte {
	return p.Data[protocol.HeaderSize:]
}

func (p *RxPacket) reset() {
	p.Data = [protocol.BufferSize]byte{}
	p.Len = 0
	p.Status = RxUnknown
}
