package main

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"

	"radiolink/config"
	"radiolink/core"
	"radiolink/driver/periph"
	"radiolink/driver/sim"
	"radiolink/driver/sx127x"
	"radiolink/protocol"
)

// hardware is the transceiver plus whatever has to run next to it
type hardware struct {
	xcvr core.Transceiver

	attach func(ctx context.Context, radio *core.Radio)
	poll   func(interval time.Duration)
	close  func()
}

func openHardware(cfg *config.Config, log *logrus.Logger) (*hardware, error) {
	switch cfg.Driver {
	case config.DriverSim:
		return openSim(cfg, log)
	case config.DriverSX127x:
		return openSX127x(cfg, log)
	}
	return nil, errors.New("unknown driver " + cfg.Driver)
}

// openSX127x binds the chip to spidev and the DIO lines to an IRQ pump
func openSX127x(cfg *config.Config, log *logrus.Logger) (*hardware, error) {
	board, err := periph.Open(periph.BoardConfig{
		SPI:   cfg.Board.SPI,
		DIO0:  cfg.Board.DIO0,
		DIO1:  cfg.Board.DIO1,
		Reset: cfg.Board.Reset,
		Speed: physic.Frequency(cfg.Board.SpeedHz) * physic.Hertz,
	})
	if err != nil {
		return nil, err
	}

	chip := sx127x.DefaultConfig()
	if cfg.Chip.BaseFrequencyHz != 0 {
		chip.BaseFrequency = cfg.Chip.BaseFrequencyHz
	}
	if cfg.Chip.ChannelSpacingHz != 0 {
		chip.ChannelSpacing = cfg.Chip.ChannelSpacingHz
	}
	if cfg.Chip.SyncWord != 0 {
		chip.SyncWord = cfg.Chip.SyncWord
	}

	var reset sx127x.Pin
	if board.Reset != nil {
		reset = board.Reset
	}
	dev := sx127x.New(board.Bus, reset, chip)

	return &hardware{
		xcvr: dev,
		attach: func(ctx context.Context, radio *core.Radio) {
			pump := &periph.IRQPump{
				Pins:    []gpio.PinIn{board.DIO0, board.DIO1},
				Handler: radio.HandleInterrupt,
			}
			go func() {
				if err := pump.Run(ctx); err != nil {
					log.WithError(err).Error("interrupt pump stopped")
				}
			}()
		},
		poll:  func(time.Duration) {},
		close: func() { board.Close() },
	}, nil
}

// openSim attaches the local radio and an echoing peer to a simulated
// medium. Everything the peer receives is sent back to the local radio.
func openSim(cfg *config.Config, log *logrus.Logger) (*hardware, error) {
	air := sim.NewAir()
	local := air.NewNode("local")
	peerNode := air.NewNode("peer")

	peer, err := newLink(cfg, peerNode, log, "peer")
	if err != nil {
		return nil, err
	}
	if err := peer.radio.Init(); err != nil {
		return nil, err
	}
	peerNode.OnInterrupt(peer.radio.HandleInterrupt)

	var (
		payload [protocol.MaxMACPayload]byte
		frame   [protocol.MaxPayloadSize]byte
	)
	echo := func() {
		for {
			n, ok := peer.inbox.Receive(payload[:])
			if !ok {
				return
			}
			fl, flags, err := peer.framing.Encode(frame[:], payload[:n], protocol.MsgTypeData, protocol.FlagReqAck)
			if err == nil {
				err = peer.queue.Send(frame[:fl], flags)
			}
			if err != nil {
				log.WithError(err).Warn("sim peer could not echo")
			}
		}
	}

	return &hardware{
		xcvr: local,
		attach: func(_ context.Context, radio *core.Radio) {
			local.OnInterrupt(radio.HandleInterrupt)
		},
		poll: func(interval time.Duration) {
			peer.radio.Process()
			echo()
			// one link tick per microsecond of wall time
			air.Advance(uint32(interval / time.Microsecond))
			if log.IsLevelEnabled(logrus.TraceLevel) {
				for _, c := range local.Calls() {
					log.WithField("node", local.String()).Trace(c)
				}
			} else {
				local.Calls()
			}
			peerNode.Calls()
		},
		close: func() {},
	}, nil
}
