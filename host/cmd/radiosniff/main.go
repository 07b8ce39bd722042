// Command radiosniff prints the frames a radio captures while sniffing. It
// reads the capture record stream from a serial port or accepts streams from
// radiolinkd instances over QUIC.
package main

import (
	"context"
	"encoding/hex"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"radiolink/capture"
	"radiolink/host/serial"
	"radiolink/hostlog"
	"radiolink/protocol"
)

var (
	device   = flag.String("serial", "", "Serial device carrying capture records")
	baud     = flag.Int("baud", 115200, "Serial baud rate")
	listen   = flag.String("listen", "", "UDP address to accept QUIC capture streams on")
	logLevel = flag.String("log", "info", "Log level")
)

func main() {
	flag.Parse()
	log := hostlog.New(*logLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch {
	case *device != "":
		err = sniffSerial(ctx, log)
	case *listen != "":
		err = collect(ctx, log)
	default:
		fmt.Fprintln(os.Stderr, "Error: one of -serial or -listen is required")
		flag.Usage()
		os.Exit(2)
	}
	if err != nil && ctx.Err() == nil {
		log.WithError(err).Fatal("radiosniff stopped")
	}
}

func sniffSerial(ctx context.Context, log *logrus.Logger) error {
	cfg := serial.DefaultConfig(*device)
	cfg.Baud = *baud
	cfg.ReadTimeout = 0
	port, err := serial.Open(cfg)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		port.Close()
	}()
	return dump(port, log.WithField("source", *device))
}

// collect accepts one stream per radio and prints them concurrently
func collect(ctx context.Context, log *logrus.Logger) error {
	c, err := capture.ListenQUIC(*listen, nil)
	if err != nil {
		return err
	}
	defer c.Close()
	log.WithField("addr", c.Addr().String()).Info("waiting for capture streams")

	for {
		stream, remote, err := c.Accept(ctx)
		if err != nil {
			return err
		}
		entry := log.WithField("source", remote)
		entry.Info("capture stream connected")
		go func() {
			defer stream.Close()
			if err := dump(stream, entry); err != nil && ctx.Err() == nil {
				entry.WithError(err).Warn("capture stream ended")
			}
		}()
	}
}

func dump(r io.Reader, log logrus.FieldLogger) error {
	framing := protocol.NewFraming()
	return capture.ReadRecords(r, func(rec protocol.CaptureRecord) error {
		log.WithFields(describe(framing, rec)).Info(hex.EncodeToString(rec.Frame))
		return nil
	})
}

// describe decodes the MAC header of a captured frame into log fields
func describe(framing *protocol.Framing, rec protocol.CaptureRecord) logrus.Fields {
	fields := logrus.Fields{
		"seq":   rec.Seq,
		"dir":   rec.Dir.String(),
		"clock": rec.Clock,
		"len":   len(rec.Frame),
	}
	f, err := framing.Decode(rec.Frame)
	if err != nil {
		fields["mac"] = err.Error()
		return fields
	}
	fields["type"] = f.Type.String()
	fields["macSeq"] = f.Seq
	if f.Flags.ReqAck() {
		fields["reqAck"] = true
	}
	return fields
}
