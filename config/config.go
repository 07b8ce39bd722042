// Package config loads the radiolinkd configuration file. The file is JSON5,
// so comments and trailing commas are allowed.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/flynn/json5"

	"radiolink/core"
)

var ErrBadValue = errors.New("invalid configuration value")

// Driver names accepted in Config.Driver
const (
	DriverSim    = "sim"
	DriverSX127x = "sx127x"
)

// Config is the daemon configuration
type Config struct {
	Driver         string `json:"driver"`
	LogLevel       string `json:"logLevel"`
	PollIntervalMs int    `json:"pollIntervalMs"`
	QueueDepth     int    `json:"queueDepth"`

	Radio   RadioConfig   `json:"radio"`
	Board   BoardConfig   `json:"board"`
	Chip    ChipConfig    `json:"chip"`
	Capture CaptureConfig `json:"capture"`
	Bridge  BridgeConfig  `json:"bridge"`
	Console ConsoleConfig `json:"console"`
}

// RadioConfig mirrors core.Config. Channel, power and ACK mode are pointers
// so that an explicit zero is kept.
type RadioConfig struct {
	Channel           *uint8 `json:"channel"`
	Power             *uint8 `json:"power"`
	AckEnabled        *bool  `json:"ackEnabled"`
	AckTimeout        uint32 `json:"ackTimeout"`
	MaxDisableRetries int    `json:"maxDisableRetries"`
	OverflowPolicy    string `json:"overflowPolicy"` // "drop" or "retain"
	Sniff             bool   `json:"sniff"`
}

// BoardConfig names the Linux devices of an SX127x board
type BoardConfig struct {
	SPI     string `json:"spi"`
	DIO0    string `json:"dio0"`
	DIO1    string `json:"dio1"`
	Reset   string `json:"reset"`
	SpeedHz int64  `json:"speedHz"`
}

// ChipConfig tunes the SX127x driver
type ChipConfig struct {
	BaseFrequencyHz  uint64 `json:"baseFrequencyHz"`
	ChannelSpacingHz uint64 `json:"channelSpacingHz"`
	SyncWord         uint8  `json:"syncWord"`
}

// CaptureConfig selects where sniffed frames go. Serial and QUIC are
// exclusive; with neither set captured frames are kept in memory.
type CaptureConfig struct {
	Serial string `json:"serial"`
	Baud   int    `json:"baud"`
	QUIC   string `json:"quic"`
	Depth  int    `json:"depth"`
}

// BridgeConfig connects the message queues to Redis lists. An empty Addr
// disables the bridge.
type BridgeConfig struct {
	Addr   string `json:"addr"`
	TxList string `json:"txList"`
	RxList string `json:"rxList"`
	ReqAck *bool  `json:"reqAck"`
}

// ConsoleConfig selects the shell input. An empty Serial reads stdin.
type ConsoleConfig struct {
	Disabled bool   `json:"disabled"`
	Serial   string `json:"serial"`
	Baud     int    `json:"baud"`
}

// Load reads and parses a configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse parses JSON5 configuration data and fills in defaults
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := json5.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no file is given
func Default() *Config {
	var cfg Config
	applyDefaults(&cfg)
	return &cfg
}

// applyDefaults fills in missing values
func applyDefaults(cfg *Config) {
	if cfg.Driver == "" {
		cfg.Driver = DriverSim
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.PollIntervalMs == 0 {
		cfg.PollIntervalMs = 5
	}
	if cfg.QueueDepth == 0 {
		cfg.QueueDepth = 8
	}

	if cfg.Radio.OverflowPolicy == "" {
		cfg.Radio.OverflowPolicy = core.OverflowDrop.String()
	}

	if cfg.Board.DIO0 == "" {
		cfg.Board.DIO0 = "GPIO25"
	}
	if cfg.Board.SpeedHz == 0 {
		cfg.Board.SpeedHz = 8000000
	}

	if cfg.Capture.Baud == 0 {
		cfg.Capture.Baud = 115200
	}
	if cfg.Capture.Depth == 0 {
		cfg.Capture.Depth = 64
	}

	if cfg.Bridge.TxList == "" {
		cfg.Bridge.TxList = "radiolink:tx"
	}
	if cfg.Bridge.RxList == "" {
		cfg.Bridge.RxList = "radiolink:rx"
	}

	if cfg.Console.Baud == 0 {
		cfg.Console.Baud = 115200
	}
}

func (c *Config) validate() error {
	switch c.Driver {
	case DriverSim, DriverSX127x:
	default:
		return fmt.Errorf("%w: driver %q", ErrBadValue, c.Driver)
	}
	if c.PollIntervalMs < 0 || c.QueueDepth < 0 {
		return fmt.Errorf("%w: negative interval or depth", ErrBadValue)
	}
	if c.Capture.Serial != "" && c.Capture.QUIC != "" {
		return fmt.Errorf("%w: capture to both serial and quic", ErrBadValue)
	}
	if _, err := c.Radio.Core(); err != nil {
		return err
	}
	return nil
}

// Core converts the radio section to controller settings
func (r RadioConfig) Core() (core.Config, error) {
	cfg := core.DefaultConfig()
	if r.Channel != nil {
		cfg.Channel = *r.Channel
	}
	if r.Power != nil {
		cfg.Power = *r.Power
	}
	if r.AckEnabled != nil {
		cfg.AckEnabled = *r.AckEnabled
	}
	if r.AckTimeout != 0 {
		cfg.AckTimeout = r.AckTimeout
	}
	if r.MaxDisableRetries != 0 {
		cfg.MaxDisableRetries = r.MaxDisableRetries
	}

	switch strings.ToLower(r.OverflowPolicy) {
	case "", "drop":
		cfg.OverflowPolicy = core.OverflowDrop
	case "retain":
		cfg.OverflowPolicy = core.OverflowRetain
	default:
		return cfg, fmt.Errorf("%w: overflow policy %q", ErrBadValue, r.OverflowPolicy)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: radio: %v", ErrBadValue, err)
	}
	return cfg, nil
}
