package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"radiolink/core"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse([]byte(`{}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Driver != DriverSim {
		t.Errorf("Driver = %q, want %q", cfg.Driver, DriverSim)
	}
	if cfg.PollIntervalMs != 5 || cfg.QueueDepth != 8 {
		t.Errorf("PollIntervalMs = %d, QueueDepth = %d", cfg.PollIntervalMs, cfg.QueueDepth)
	}
	if cfg.Bridge.TxList != "radiolink:tx" || cfg.Bridge.RxList != "radiolink:rx" {
		t.Errorf("Bridge lists = %q, %q", cfg.Bridge.TxList, cfg.Bridge.RxList)
	}

	rc, err := cfg.Radio.Core()
	if err != nil {
		t.Fatalf("Core failed: %v", err)
	}
	if rc != core.DefaultConfig() {
		t.Errorf("Core() = %+v, want defaults %+v", rc, core.DefaultConfig())
	}
}

func TestParseJSON5(t *testing.T) {
	data := []byte(`{
	// hardware radio on a Raspberry Pi
	driver: "sx127x",
	logLevel: "debug",
	radio: {
		channel: 0,
		power: 3,
		ackEnabled: false,
		overflowPolicy: "retain",
	},
	board: {dio0: "GPIO24", reset: "GPIO17"},
	capture: {quic: "collector:4242"},
}`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if cfg.Driver != DriverSX127x || cfg.LogLevel != "debug" {
		t.Errorf("Driver = %q, LogLevel = %q", cfg.Driver, cfg.LogLevel)
	}
	if cfg.Board.DIO0 != "GPIO24" || cfg.Board.Reset != "GPIO17" || cfg.Board.SpeedHz != 8000000 {
		t.Errorf("Board = %+v", cfg.Board)
	}
	if cfg.Capture.QUIC != "collector:4242" {
		t.Errorf("Capture = %+v", cfg.Capture)
	}

	rc, err := cfg.Radio.Core()
	if err != nil {
		t.Fatalf("Core failed: %v", err)
	}
	if rc.Channel != 0 {
		t.Errorf("Channel = %d, want explicit 0", rc.Channel)
	}
	if rc.Power != 3 || rc.AckEnabled || rc.OverflowPolicy != core.OverflowRetain {
		t.Errorf("Core() = %+v", rc)
	}
	if rc.AckTimeout != core.DefaultAckTimeout {
		t.Errorf("AckTimeout = %#x, want %#x", rc.AckTimeout, core.DefaultAckTimeout)
	}
}

func TestParseInvalid(t *testing.T) {
	testCases := []struct {
		name string
		data string
	}{
		{"driver", `{driver: "nrf24"}`},
		{"channel", `{radio: {channel: 16}}`},
		{"power", `{radio: {power: 200}}`},
		{"policy", `{radio: {overflowPolicy: "block"}}`},
		{"capture", `{capture: {serial: "/dev/ttyUSB0", quic: "host:1"}}`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := Parse([]byte(tc.data)); !errors.Is(err, ErrBadValue) {
				t.Errorf("Parse(%s) = %v, want ErrBadValue", tc.data, err)
			}
		})
	}

	if _, err := Parse([]byte(`{driver: `)); err == nil {
		t.Error("Expected syntax error")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "radiolinkd.json5")
	if err := os.WriteFile(path, []byte(`{pollIntervalMs: 20}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.PollIntervalMs != 20 {
		t.Errorf("PollIntervalMs = %d, want 20", cfg.PollIntervalMs)
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json5")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Driver != DriverSim || cfg.Capture.Depth != 64 {
		t.Errorf("Default() = %+v", cfg)
	}
}
