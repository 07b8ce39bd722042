package periph

import (
	"bytes"
	"context"
	"sync/atomic"
	"testing"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi"
)

// loopConn echoes written bytes back, shifted by one like a register read
type loopConn struct {
	last []byte
}

func (c *loopConn) String() string { return "loop" }

func (c *loopConn) Tx(w, r []byte) error {
	c.last = append([]byte(nil), w...)
	for i := range r {
		if i > 0 && i-1 < len(w) {
			r[i] = w[i-1]
		}
	}
	return nil
}

func (c *loopConn) Duplex() conn.Duplex { return conn.Full }

func (c *loopConn) TxPackets(p []spi.Packet) error { return nil }

func TestSPIBus(t *testing.T) {
	c := &loopConn{}
	bus := &SPIBus{Conn: c}

	r := make([]byte, 3)
	if err := bus.Tx([]byte{0x42, 0x01, 0x02}, r); err != nil {
		t.Fatalf("Tx failed: %v", err)
	}
	if !bytes.Equal(r, []byte{0x00, 0x42, 0x01}) {
		t.Errorf("Unexpected read %v", r)
	}

	if _, err := bus.Transfer(0x99); err != nil {
		t.Fatalf("Transfer failed: %v", err)
	}
	if !bytes.Equal(c.last, []byte{0x99}) {
		t.Errorf("Transfer wrote %v", c.last)
	}
}

func TestOutPin(t *testing.T) {
	pin := &gpiotest.Pin{N: "RST"}
	out := &OutPin{Pin: pin}

	out.Low()
	if pin.Read() != gpio.Low {
		t.Error("Expected low")
	}
	out.High()
	if pin.Read() != gpio.High {
		t.Error("Expected high")
	}
}

func TestIRQPump(t *testing.T) {
	pin := &gpiotest.Pin{N: "DIO0", EdgesChan: make(chan gpio.Level)}
	var calls atomic.Int32

	pump := &IRQPump{
		Pins:    []gpio.PinIn{pin},
		Handler: func() { calls.Add(1) },
		Poll:    20 * time.Millisecond,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- pump.Run(ctx) }()

	for i := 0; i < 3; i++ {
		pin.EdgesChan <- gpio.High
	}
	deadline := time.Now().Add(2 * time.Second)
	for calls.Load() < 3 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run returned %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop")
	}
	if calls.Load() < 3 {
		t.Errorf("Expected at least 3 handler calls, got %d", calls.Load())
	}
}

func TestIRQPumpNoPins(t *testing.T) {
	pump := &IRQPump{Handler: func() {}}
	if err := pump.Run(context.Background()); err == nil {
		t.Error("Expected error without pins")
	}
}
