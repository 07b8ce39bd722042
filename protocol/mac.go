package protocol

import (
	"errors"
	"sync/atomic"
)

// MAC header carried at the start of every over-the-air payload
//
//	+--------+--------+-------------+
//	|  Type  |  Seq   |   Payload   |
//	+--------+--------+-------------+
//	| 1 byte | 1 byte | 0-60 bytes  |
//	+--------+--------+-------------+
//
// Bit 7 of the type byte is set when the sender requests an acknowledgement.
const (
	MACHeaderSize = 2
	MACIdxType    = 0
	MACIdxSeq     = 1

	macTypeMask   = 0x7F
	macReqAckFlag = 0x80

	MaxMACPayload = MaxPayloadSize - MACHeaderSize
)

// MsgType identifies the MAC message type
type MsgType uint8

const (
	MsgTypeInvalid MsgType = 0
	MsgTypeData    MsgType = 1
	MsgTypeAck     MsgType = 2
)

func (t MsgType) String() string {
	switch t {
	case MsgTypeData:
		return "DATA"
	case MsgTypeAck:
		return "ACK"
	default:
		return "INVALID"
	}
}

var (
	ErrShortFrame  = errors.New("frame shorter than MAC header")
	ErrInvalidType = errors.New("invalid MAC message type")
	ErrPayloadSize = errors.New("payload too large for frame")
	ErrDstTooSmall = errors.New("destination buffer too small")
)

// Frame is a decoded over-the-air payload. Payload aliases the decoded buffer.
type Frame struct {
	Type    MsgType
	Seq     uint8
	Flags   Flags
	Payload []byte
}

// Framing encodes and decodes MAC frames. The zero value is ready to use.
type Framing struct {
	seq uint32 // atomic, low 8 bits used
}

// NewFraming creates a new Framing
func NewFraming() *Framing {
	return &Framing{}
}

// Encode writes a MAC frame for payload into dst and returns the frame length
// together with the local flags to queue it with. Data frames take the next
// sequence number; use EncodeAck to answer a specific sequence.
func (f *Framing) Encode(dst []byte, payload []byte, typ MsgType, flags Flags) (int, Flags, error) {
	seq := uint8(atomic.AddUint32(&f.seq, 1))
	return encodeFrame(dst, payload, typ, seq, flags)
}

// EncodeAck writes an acknowledgement for the given sequence number
func (f *Framing) EncodeAck(dst []byte, seq uint8) (int, Flags, error) {
	return encodeFrame(dst, nil, MsgTypeAck, seq, FlagNone)
}

func encodeFrame(dst []byte, payload []byte, typ MsgType, seq uint8, flags Flags) (int, Flags, error) {
	if typ == MsgTypeInvalid || typ&^macTypeMask != 0 {
		return 0, flags, ErrInvalidType
	}
	if len(payload) > MaxMACPayload {
		return 0, flags, ErrPayloadSize
	}
	n := MACHeaderSize + len(payload)
	if len(dst) < n {
		return 0, flags, ErrDstTooSmall
	}

	b := byte(typ)
	if typ == MsgTypeAck {
		// an ACK is never acknowledged
		flags = (flags | FlagIsAck) &^ FlagReqAck
	} else if flags.ReqAck() {
		b |= macReqAckFlag
	}
	dst[MACIdxType] = b
	dst[MACIdxSeq] = seq
	copy(dst[MACHeaderSize:], payload)
	return n, flags, nil
}

// Decode parses a MAC frame. The returned payload aliases frame.
func (f *Framing) Decode(frame []byte) (Frame, error) {
	if len(frame) < MACHeaderSize {
		return Frame{}, ErrShortFrame
	}
	typ := MsgType(frame[MACIdxType] & macTypeMask)
	var flags Flags
	switch typ {
	case MsgTypeAck:
		flags |= FlagIsAck
	case MsgTypeData:
		if frame[MACIdxType]&macReqAckFlag != 0 {
			flags |= FlagReqAck
		}
	default:
		return Frame{}, ErrInvalidType
	}
	return Frame{
		Type:    typ,
		Seq:     frame[MACIdxSeq],
		Flags:   flags,
		Payload: frame[MACHeaderSize:],
	}, nil
}

// IsAck reports whether an encoded frame is an acknowledgement
func (f *Framing) IsAck(frame []byte) bool {
	return len(frame) > MACIdxType && MsgType(frame[MACIdxType]&macTypeMask) == MsgTypeAck
}
