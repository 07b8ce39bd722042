//go:build rp2040

package main

import (
	"machine"
)

// radioBus describes how the SX127x module is wired
type radioBus struct {
	spi  *machine.SPI
	sck  machine.Pin
	sdo  machine.Pin
	sdi  machine.Pin
	cs   machine.Pin
	rst  machine.Pin
	dio0 machine.Pin
}

// Wiring of the common RP2040 LoRa boards
var radioBuses = map[string]radioBus{
	// Adafruit Feather RP2040 RFM95
	"feather": {spi: machine.SPI1, sck: machine.GPIO14, sdo: machine.GPIO15, sdi: machine.GPIO8, cs: machine.GPIO16, rst: machine.GPIO17, dio0: machine.GPIO21},
	// Pico carrier with an RFM95 module on SPI0
	"pico": {spi: machine.SPI0, sck: machine.GPIO2, sdo: machine.GPIO3, sdi: machine.GPIO4, cs: machine.GPIO5, rst: machine.GPIO6, dio0: machine.GPIO7},
}

const radioBaudRate = 8000000

// configure sets up the SPI block and the control lines
func (b radioBus) configure() error {
	if err := b.spi.Configure(machine.SPIConfig{
		Frequency: radioBaudRate,
		SCK:       b.sck,
		SDO:       b.sdo,
		SDI:       b.sdi,
		Mode:      0,
	}); err != nil {
		return err
	}
	b.cs.Configure(machine.PinConfig{Mode: machine.PinOutput})
	b.cs.High()
	b.rst.Configure(machine.PinConfig{Mode: machine.PinOutput})
	b.rst.High()
	b.dio0.Configure(machine.PinConfig{Mode: machine.PinInputPulldown})
	return nil
}

// csBus frames every transfer with the chip select line. It implements the
// drivers.SPI interface the SX127x driver expects.
type csBus struct {
	spi *machine.SPI
	cs  machine.Pin
}

func (b *csBus) Tx(w, r []byte) error {
	b.cs.Low()
	err := b.spi.Tx(w, r)
	b.cs.High()
	return err
}

func (b *csBus) Transfer(w byte) (byte, error) {
	b.cs.Low()
	r, err := b.spi.Transfer(w)
	b.cs.High()
	return r, err
}
