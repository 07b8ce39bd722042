package core

// LinkState is the radio link state machine state
type LinkState uint32

const (
	StateInitial LinkState = iota
	StateReset
	StateReceiveAlwaysOn
	StateTransmitData
	StateWaitForAck
	StateReadyForTxRx
)

// String returns the name shown by the shell status command
func (s LinkState) String() string {
	switch s {
	case StateInitial:
		return "INITIAL"
	case StateReset:
		return "RESET"
	case StateReceiveAlwaysOn:
		return "ALWAYS_ON"
	case StateTransmitData:
		return "TRANSMIT_DATA"
	case StateWaitForAck:
		return "WAIT_FOR_ACK"
	case StateReadyForTxRx:
		return "READY_TX_RX"
	default:
		return "UNKNOWN"
	}
}

// suspends reports whether the state machine stops advancing in s until
// an external trigger arrives
func (s LinkState) suspends() bool {
	return s == StateReadyForTxRx || s == StateWaitForAck
}
