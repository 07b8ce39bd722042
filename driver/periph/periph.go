//go:build !tinygo

// Package periph binds an SX127x radio to Linux SPI and GPIO through
// periph.io and pumps its DIO interrupt lines into the link controller.
package periph

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"
)

// BoardConfig names the host devices the radio is wired to
type BoardConfig struct {
	SPI   string // e.g. "/dev/spidev0.0" or "" for the first port
	DIO0  string // RxDone / TxDone line, required
	DIO1  string // RxTimeout line, optional
	Reset string // optional
	Speed physic.Frequency
}

// Board holds the opened SPI port and GPIO lines
type Board struct {
	port  spi.PortCloser
	Bus   *SPIBus
	DIO0  gpio.PinIO
	DIO1  gpio.PinIO
	Reset *OutPin
}

// Open initialises periph and opens the configured devices
func Open(cfg BoardConfig) (*Board, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph init: %w", err)
	}
	if cfg.Speed == 0 {
		cfg.Speed = 8 * physic.MegaHertz
	}

	p, err := spireg.Open(cfg.SPI)
	if err != nil {
		return nil, fmt.Errorf("open spi %q: %w", cfg.SPI, err)
	}
	c, err := p.Connect(cfg.Speed, spi.Mode0, 8)
	if err != nil {
		p.Close()
		return nil, fmt.Errorf("connect spi: %w", err)
	}

	b := &Board{port: p, Bus: &SPIBus{Conn: c}}
	if b.DIO0, err = inputPin(cfg.DIO0); err != nil {
		p.Close()
		return nil, err
	}
	if cfg.DIO1 != "" {
		if b.DIO1, err = inputPin(cfg.DIO1); err != nil {
			p.Close()
			return nil, err
		}
	}
	if cfg.Reset != "" {
		pin := gpioreg.ByName(cfg.Reset)
		if pin == nil {
			p.Close()
			return nil, fmt.Errorf("failed to find RESET pin %q", cfg.Reset)
		}
		if err := pin.Out(gpio.High); err != nil {
			p.Close()
			return nil, err
		}
		b.Reset = &OutPin{Pin: pin}
	}
	return b, nil
}

func inputPin(name string) (gpio.PinIO, error) {
	if name == "" {
		return nil, errors.New("DIO0 pin is required")
	}
	pin := gpioreg.ByName(name)
	if pin == nil {
		return nil, fmt.Errorf("failed to find pin %q", name)
	}
	if err := pin.In(gpio.PullDown, gpio.RisingEdge); err != nil {
		return nil, fmt.Errorf("configure %s: %w", name, err)
	}
	return pin, nil
}

// Close releases the SPI port
func (b *Board) Close() error {
	return b.port.Close()
}

// SPIBus adapts a periph SPI connection to the tinygo drivers.SPI interface
type SPIBus struct {
	Conn spi.Conn
	one  [1]byte
}

func (s *SPIBus) Tx(w, r []byte) error {
	return s.Conn.Tx(w, r)
}

func (s *SPIBus) Transfer(b byte) (byte, error) {
	var r [1]byte
	s.one[0] = b
	err := s.Conn.Tx(s.one[:], r[:])
	return r[0], err
}

// OutPin adapts a periph output to the High/Low pin interface
type OutPin struct {
	Pin gpio.PinOut
}

func (p *OutPin) High() { _ = p.Pin.Out(gpio.High) }
func (p *OutPin) Low() { _ = p.Pin.Out(gpio.Low) }

// IRQPump waits for rising edges on the DIO lines and calls the handler,
// standing in for the interrupt vector on a hosted system. The handler is
// also called after every quiet Poll interval so a missed edge cannot stall
// the link.
type IRQPump struct {
	Pins    []gpio.PinIn
	Handler func()
	Poll    time.Duration
}

// Run blocks until ctx is cancelled. Calls to Handler are serialised.
func (p *IRQPump) Run(ctx context.Context) error {
	if len(p.Pins) == 0 {
		return errors.New("no interrupt pins")
	}
	poll := p.Poll
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}

	var mu sync.Mutex
	fire := func() {
		mu.Lock()
		p.Handler()
		mu.Unlock()
	}

	var wg sync.WaitGroup
	for _, pin := range p.Pins {
		if pin == nil {
			continue
		}
		wg.Add(1)
		go func(pin gpio.PinIn) {
			defer wg.Done()
			for ctx.Err() == nil {
				pin.WaitForEdge(poll)
				if ctx.Err() != nil {
					return
				}
				fire()
			}
		}(pin)
	}
	<-ctx.Done()
	for _, pin := range p.Pins {
		if pin != nil {
			_ = pin.Halt() // unblocks WaitForEdge
		}
	}
	wg.Wait()
	return nil
}
