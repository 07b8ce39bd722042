package shell

import (
	"fmt"
	"io"
	"strings"

	"radiolink/protocol"
)

// SendCommand returns the "send" command, which frames its arguments as one
// data payload and queues it on out. "send -ack <text>" requests an
// acknowledgement.
func SendCommand(framing *protocol.Framing, out protocol.Outbox) Command {
	var frame [protocol.MaxPayloadSize]byte
	return Command{
		Name: "send",
		Run: func(w io.Writer, args []string) error {
			flags := protocol.FlagNone
			if len(args) > 0 && args[0] == "-ack" {
				flags = protocol.FlagReqAck
				args = args[1:]
			}
			if len(args) == 0 {
				fmt.Fprintln(w, "*** Nothing to send")
				return ErrUnknownCommand
			}
			n, flags, err := framing.Encode(frame[:], []byte(strings.Join(args, " ")), protocol.MsgTypeData, flags)
			if err != nil {
				return err
			}
			return out.Send(frame[:n], flags)
		},
		Help: func(w io.Writer) {
			writeHelp(w, "send [-ack] <text>", "Queues text as one data frame")
		},
	}
}
