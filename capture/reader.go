package capture

import (
	"errors"
	"io"

	"radiolink/protocol"
)

// ReadRecords decodes capture records from r until it returns an error.
// fn receives each record; its Frame is only valid during the call. io.EOF
// from r ends the stream cleanly and returns nil.
func ReadRecords(r io.Reader, fn func(protocol.CaptureRecord) error) error {
	dec := protocol.NewCaptureDecoder()
	buf := make([]byte, protocol.CaptureRecordMax)
	for {
		n := dec.Free()
		if n > len(buf) {
			n = len(buf)
		}
		n, err := r.Read(buf[:n])
		if n > 0 {
			_, _ = dec.Write(buf[:n])
			for {
				rec, ok := dec.Next()
				if !ok {
					break
				}
				if ferr := fn(rec); ferr != nil {
					return ferr
				}
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
	}
}
