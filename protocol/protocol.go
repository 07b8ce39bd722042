// Package protocol implements the byte layouts shared by the radio link:
// the physical packet buffer, the MAC header carried over the air and the
// capture record stream used for sniffing.
package protocol

// Version represents the radiolink protocol version
const Version = "0.1.0"

// Physical buffer layout. The transceiver only ever sees the bytes starting at
// HeaderSize; the leading bytes are local bookkeeping.
const (
	BufferSize = 64 // Size of one physical packet buffer
	IdxSize    = 0  // Payload size byte
	IdxFlags   = 1  // Local packet flags byte
	HeaderSize = 2  // Start of the over-the-air payload

	MaxPayloadSize = BufferSize - HeaderSize
)

// Flags are local packet flags kept next to a payload while it is queued.
type Flags uint8

const (
	FlagNone   Flags = 0
	FlagIsAck  Flags = 1 << 0 // Packet is an acknowledgement
	FlagReqAck Flags = 1 << 1 // Sender expects an acknowledgement
)

// IsAck reports whether the ACK flag is set
func (f Flags) IsAck() bool {
	return f&FlagIsAck != 0
}

// ReqAck reports whether the sender asked for an acknowledgement
func (f Flags) ReqAck() bool {
	return f&FlagReqAck != 0
}

// Direction of a captured frame
type Direction uint8

const (
	DirRx Direction = 0
	DirTx Direction = 1
)

func (d Direction) String() string {
	if d == DirTx {
		return "TX"
	}
	return "RX"
}
