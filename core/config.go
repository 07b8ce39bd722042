package core

const (
	MaxChannel = 15
	MaxPower   = 15

	DefaultChannel = 5
	DefaultPower   = 15

	// ReceiveForever keeps the receiver on until it is disabled
	ReceiveForever uint32 = 0

	// DefaultAckTimeout is the receive window for an acknowledgement, in
	// transceiver ticks
	DefaultAckTimeout uint32 = 0xB000

	DefaultMaxDisableRetries = 32
)

// OverflowPolicy decides what happens to an outgoing frame that does not fit
// the radio buffer
type OverflowPolicy uint8

const (
	// OverflowDrop removes the frame from the queue
	OverflowDrop OverflowPolicy = iota
	// OverflowRetain leaves the frame queued; the caller must remove it
	OverflowRetain
)

func (p OverflowPolicy) String() string {
	if p == OverflowRetain {
		return "retain"
	}
	return "drop"
}

// Config holds the controller settings
type Config struct {
	Channel uint8
	Power   uint8

	// AckEnabled makes the controller wait for an acknowledgement after
	// every data frame it sends
	AckEnabled bool
	AckTimeout uint32

	// MaxDisableRetries bounds how often one poll retries leaving receive
	// mode before the pending frame is abandoned
	MaxDisableRetries int

	OverflowPolicy OverflowPolicy
}

// DefaultConfig returns the power-on settings
func DefaultConfig() Config {
	return Config{
		Channel:           DefaultChannel,
		Power:             DefaultPower,
		AckEnabled:        true,
		AckTimeout:        DefaultAckTimeout,
		MaxDisableRetries: DefaultMaxDisableRetries,
		OverflowPolicy:    OverflowDrop,
	}
}

// Validate checks ranges and fills zero values that have a default
func (c *Config) Validate() error {
	if c.Channel > MaxChannel || c.Power > MaxPower {
		return ErrRange
	}
	if c.AckTimeout == ReceiveForever {
		c.AckTimeout = DefaultAckTimeout
	}
	if c.MaxDisableRetries <= 0 {
		c.MaxDisableRetries = DefaultMaxDisableRetries
	}
	return nil
}
