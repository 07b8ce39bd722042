package main

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"radiolink/capture"
	"radiolink/protocol"
)

func TestDescribe(t *testing.T) {
	framing := protocol.NewFraming()
	var buf [protocol.MaxPayloadSize]byte
	n, _, err := framing.Encode(buf[:], []byte("hi"), protocol.MsgTypeData, protocol.FlagReqAck)
	if err != nil {
		t.Fatalf("Encode failed: %v", err)
	}

	fields := describe(framing, protocol.CaptureRecord{Seq: 4, Dir: protocol.DirTx, Clock: 99, Frame: buf[:n]})
	if fields["type"] != "DATA" || fields["dir"] != "TX" || fields["reqAck"] != true {
		t.Errorf("describe() = %v", fields)
	}
	if fields["len"] != n || fields["clock"] != uint32(99) {
		t.Errorf("describe() = %v", fields)
	}

	fields = describe(framing, protocol.CaptureRecord{Frame: []byte{0x01}})
	if _, ok := fields["mac"]; !ok {
		t.Errorf("Expected MAC error field, got %v", fields)
	}
}

func TestDump(t *testing.T) {
	var stream bytes.Buffer
	s := capture.NewStream(&stream, 4, func() uint32 { return 7 })
	s.Capture(protocol.DirRx, protocol.FlagNone, []byte{0x01, 0x02, 0xAB})
	s.Close()

	var out bytes.Buffer
	log := logrus.New()
	log.Out = &out
	log.Formatter = &logrus.TextFormatter{DisableTimestamp: true, DisableColors: true}

	if err := dump(&stream, log); err != nil {
		t.Fatalf("dump failed: %v", err)
	}
	got := out.String()
	if !strings.Contains(got, "0102ab") || !strings.Contains(got, "dir=RX") || !strings.Contains(got, "type=DATA") {
		t.Errorf("dump output %q", got)
	}

	if err := dump(io.MultiReader(), log); err != nil {
		t.Errorf("dump of empty stream = %v", err)
	}
}
