package shell

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"radiolink/core"
)

// Radio is the part of the link controller the radio commands drive
type Radio interface {
	Status() core.Status
	Stats() core.StatsSnapshot
	ResetStats()
	SetOn(on bool)
	SetSniff(on bool)
	SetChannel(ch uint8) error
	SetPower(level uint8) error
	RequestReset()
}

const wrongArgument = "Wrong argument, must be in the range 0..15"

// RadioCommand returns the "radio" command group for r
func RadioCommand(r Radio) Command {
	return Command{
		Name:   "radio",
		Run:    func(w io.Writer, args []string) error { return runRadio(r, w, args) },
		Help:   radioHelp,
		Status: func(w io.Writer) { radioStatus(r, w) },
	}
}

func runRadio(r Radio, w io.Writer, args []string) error {
	if len(args) == 0 {
		radioHelp(w)
		return nil
	}

	switch args[0] {
	case "help":
		radioHelp(w)
		return nil
	case "status":
		radioStatus(r, w)
		return nil
	case "on":
		r.SetOn(true)
		return nil
	case "off":
		r.SetOn(false)
		return nil
	case "reset":
		r.RequestReset()
		return nil
	case "stats":
		if len(args) > 1 && args[1] == "reset" {
			r.ResetStats()
			return nil
		}
		radioStats(r, w)
		return nil
	case "sniff":
		if len(args) == 2 {
			switch args[1] {
			case "on":
				r.SetSniff(true)
				return nil
			case "off":
				r.SetSniff(false)
				return nil
			}
		}
	case "channel", "power":
		if len(args) != 2 {
			break
		}
		val, err := strconv.ParseUint(args[1], 0, 8)
		if err != nil || val > core.MaxChannel {
			fmt.Fprintln(w, wrongArgument)
			return ErrWrongArgument
		}
		if args[0] == "channel" {
			err = r.SetChannel(uint8(val))
		} else {
			err = r.SetPower(uint8(val))
		}
		if err != nil {
			fmt.Fprintln(w, wrongArgument)
			return ErrWrongArgument
		}
		return nil
	}

	fmt.Fprintf(w, "*** Failed or unknown command: radio %s\n", strings.Join(args, " "))
	return ErrUnknownCommand
}

func radioHelp(w io.Writer) {
	writeHelp(w, "radio", "Group of radio commands")
	writeHelp(w, "  help|status", "Shows radio help or status")
	writeHelp(w, "  on|off", "Turns the radio on or off")
	writeHelp(w, "  sniff on|off", "Turns sniffing on or off")
	writeHelp(w, "  channel <number>", "Switches to the given channel. Channel must be in the range 0..15")
	writeHelp(w, "  power <number>", "Changes the output power. Power must be in the range 0..15")
	writeHelp(w, "  reset", "Reset transceiver")
	writeHelp(w, "  stats [reset]", "Shows or clears the link counters")
}

func radioStatus(r Radio, w io.Writer) {
	st := r.Status()
	fmt.Fprintln(w, "Radio")
	writeStatus(w, "  on", yesNo(st.On))
	writeStatus(w, "  sniff", yesNo(st.Sniff))
	writeStatus(w, "  LQ", strconv.Itoa(st.LinkQualityDBm)+" dBm")
	writeStatus(w, "  channel", strconv.Itoa(int(st.Channel)))
	writeStatus(w, "  outputPower", strconv.Itoa(int(st.Power)))
	writeStatus(w, "  state", st.State.String())
}

func radioStats(r Radio, w io.Writer) {
	s := r.Stats()
	fmt.Fprintln(w, "Radio stats")
	for _, c := range []struct {
		name string
		val  uint32
	}{
		{"  tx", s.TxPackets},
		{"  txErrors", s.TxErrors},
		{"  txAbandoned", s.TxAbandoned},
		{"  txOverflows", s.TxOverflows},
		{"  retries", s.DisableRetries},
		{"  rx", s.RxPackets},
		{"  rxDropped", s.RxDropped},
		{"  rxErrors", s.RxErrors},
		{"  acks", s.AcksReceived},
		{"  timeouts", s.Timeouts},
		{"  overflows", s.Overflows},
		{"  resets", s.Resets},
		{"  unknown", s.Unknown},
	} {
		writeStatus(w, c.name, strconv.FormatUint(uint64(c.val), 10))
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
