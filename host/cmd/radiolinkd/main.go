// Command radiolinkd runs the radio link controller on a Linux host. It
// drives an SX127x over spidev or a simulated medium, offers the radio shell
// on stdin or a serial console and optionally bridges payloads to Redis.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"radiolink/bridge"
	"radiolink/capture"
	"radiolink/config"
	"radiolink/core"
	"radiolink/host/serial"
	"radiolink/hostlog"
	"radiolink/msgqueue"
	"radiolink/protocol"
	"radiolink/shell"
)

var (
	configPath = flag.String("config", "", "Configuration file (JSON5)")
	logLevel   = flag.String("log", "", "Log level, overrides the configuration")
	simulate   = flag.Bool("sim", false, "Use the simulated radio medium")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		if cfg, err = config.Load(*configPath); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	if *simulate {
		cfg.Driver = config.DriverSim
	}

	log := hostlog.New(cfg.LogLevel)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("radiolinkd stopped")
	}
}

// link bundles the controller with its queues
type link struct {
	radio   *core.Radio
	framing *protocol.Framing
	queue   *msgqueue.Queue
	inbox   *msgqueue.Inbox
}

func newLink(cfg *config.Config, xcvr core.Transceiver, log *logrus.Logger, name string) (*link, error) {
	rc, err := cfg.Radio.Core()
	if err != nil {
		return nil, err
	}
	l := &link{
		framing: protocol.NewFraming(),
		queue:   msgqueue.New(cfg.QueueDepth, msgqueue.DefaultSlotSize),
		inbox:   msgqueue.NewInbox(cfg.QueueDepth),
	}
	if l.radio, err = core.New(rc, xcvr, l.framing, l.queue); err != nil {
		return nil, err
	}
	l.radio.SetDebugWriter(hostlog.DebugWriter(log, name))
	l.radio.SetPacketHandler(protocol.NewAckResponder(l.framing, l.queue, l.inbox))
	return l, nil
}

func run(ctx context.Context, cfg *config.Config, log *logrus.Logger) error {
	hw, err := openHardware(cfg, log)
	if err != nil {
		return err
	}
	defer hw.close()

	l, err := newLink(cfg, hw.xcvr, log, "radio")
	if err != nil {
		return err
	}

	sink, closeSink, err := openCapture(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeSink()
	l.radio.SetCaptureSink(sink)

	if err := l.radio.Init(); err != nil {
		return fmt.Errorf("init radio: %w", err)
	}
	l.radio.SetSniff(cfg.Radio.Sniff)
	hw.attach(ctx, l.radio)

	log.WithFields(logrus.Fields{
		"driver":  cfg.Driver,
		"channel": l.radio.Status().Channel,
		"power":   l.radio.Status().Power,
	}).Info("radio link started")

	if !cfg.Console.Disabled {
		if err := startShell(ctx, cfg, l, log); err != nil {
			return err
		}
	}

	bridged := cfg.Bridge.Addr != ""
	if bridged {
		client := bridge.Dial(cfg.Bridge.Addr)
		defer client.Close()
		reqAck := cfg.Bridge.ReqAck == nil || *cfg.Bridge.ReqAck
		b := bridge.New(client, bridge.Config{
			TxList: cfg.Bridge.TxList,
			RxList: cfg.Bridge.RxList,
			ReqAck: reqAck,
		}, l.framing, l.queue, l.inbox, log)
		go func() {
			if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
				log.WithError(err).Error("bridge stopped")
			}
		}()
		log.WithField("addr", cfg.Bridge.Addr).Info("redis bridge started")
	}

	interval := time.Duration(cfg.PollIntervalMs) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var payload [protocol.MaxMACPayload]byte
	for {
		select {
		case <-ctx.Done():
			l.radio.DumpTrace()
			return ctx.Err()
		case <-ticker.C:
		}

		l.radio.Process()
		hw.poll(interval)

		if !bridged {
			for {
				n, ok := l.inbox.Receive(payload[:])
				if !ok {
					break
				}
				log.WithField("len", n).Infof("received %q", payload[:n])
			}
		}
	}
}

func startShell(ctx context.Context, cfg *config.Config, l *link, log *logrus.Logger) error {
	var (
		in  io.Reader = os.Stdin
		out io.Writer = os.Stdout
	)
	if cfg.Console.Serial != "" {
		sc := serial.DefaultConfig(cfg.Console.Serial)
		sc.Baud = cfg.Console.Baud
		sc.ReadTimeout = 0
		port, err := serial.Open(sc)
		if err != nil {
			return err
		}
		go func() {
			<-ctx.Done()
			port.Close()
		}()
		in, out = port, port
	}

	sh := shell.New(out)
	sh.Register(shell.RadioCommand(l.radio))
	sh.Register(shell.SendCommand(l.framing, l.queue))
	go func() {
		if err := sh.Run(in); err != nil && ctx.Err() == nil {
			log.WithError(err).Warn("console closed")
		}
	}()
	return nil
}

// openCapture builds the sink sniffed frames are written to
func openCapture(ctx context.Context, cfg *config.Config, log *logrus.Logger) (core.CaptureSink, func(), error) {
	clock := capture.MillisClock()
	cc := cfg.Capture

	var w io.WriteCloser
	switch {
	case cc.Serial != "":
		sc := serial.DefaultConfig(cc.Serial)
		sc.Baud = cc.Baud
		port, err := serial.Open(sc)
		if err != nil {
			return nil, nil, err
		}
		w = port
	case cc.QUIC != "":
		qw, err := capture.DialQUIC(ctx, cc.QUIC, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("dial capture collector: %w", err)
		}
		w = qw
	default:
		return capture.NewRing(cc.Depth, clock), func() {}, nil
	}

	stream := capture.NewStream(w, cc.Depth, clock)
	log.WithFields(logrus.Fields{"serial": cc.Serial, "quic": cc.QUIC}).Info("capture stream open")
	return stream, func() {
		stream.Close()
		w.Close()
		if stream.Dropped() > 0 {
			log.WithField("dropped", stream.Dropped()).Warn("capture records dropped")
		}
	}, nil
}
