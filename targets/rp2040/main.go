//go:build rp2040

// Firmware for an RP2040 board with an SX127x module. The DIO0 interrupt
// only flags the completion; the main loop runs the handler so SPI traffic
// never happens in interrupt context.
package main

import (
	"machine"
	"sync/atomic"
	"time"

	"radiolink/capture"
	"radiolink/core"
	"radiolink/driver/sx127x"
	"radiolink/msgqueue"
	"radiolink/protocol"
	"radiolink/shell"
)

const board = "feather"

var irqPending atomic.Bool

func main() {
	InitUSB()
	out := consoleWriter{}

	bus := radioBuses[board]
	if err := bus.configure(); err != nil {
		halt(out, "spi: "+err.Error())
	}

	dev := sx127x.New(&csBus{spi: bus.spi, cs: bus.cs}, bus.rst, sx127x.DefaultConfig())
	framing := protocol.NewFraming()
	queue := msgqueue.NewDefault()
	inbox := msgqueue.NewInbox(msgqueue.DefaultDepth)

	radio, err := core.New(core.DefaultConfig(), dev, framing, queue)
	if err != nil {
		halt(out, "radio: "+err.Error())
	}
	radio.SetPacketHandler(protocol.NewAckResponder(framing, queue, inbox))
	radio.SetDebugWriter(func(msg string) {
		out.Write([]byte(msg + "\r\n"))
	})

	machine.UART0.Configure(machine.UARTConfig{BaudRate: 115200})
	radio.SetCaptureSink(capture.NewStream(machine.UART0, 16, captureClock))

	if err := radio.Init(); err != nil {
		radio.DumpTrace()
	}

	err = bus.dio0.SetInterrupt(machine.PinRising, func(machine.Pin) {
		irqPending.Store(true)
	})
	if err != nil {
		halt(out, "dio0: "+err.Error())
	}

	sh := shell.New(out)
	sh.Register(shell.RadioCommand(radio))
	sh.Register(shell.SendCommand(framing, queue))

	var (
		con     console
		payload [protocol.MaxMACPayload]byte
	)
	for {
		// level check catches an edge that fired before the flag was read
		if irqPending.Swap(false) || bus.dio0.Get() {
			radio.HandleInterrupt()
		}
		radio.Process()

		if line, ok := con.poll(); ok {
			_ = sh.Execute(line)
		}
		if n, ok := inbox.Receive(payload[:]); ok {
			out.Write([]byte("rx: "))
			out.Write(payload[:n])
			out.Write([]byte("\r\n"))
		}

		time.Sleep(100 * time.Microsecond)
	}
}

func halt(out consoleWriter, msg string) {
	for {
		out.Write([]byte("radiolink: " + msg + "\r\n"))
		time.Sleep(time.Second)
	}
}
