package protocol

import "errors"

// Capture record layout, framed the same way on serial and QUIC streams
//
//	[len][seq] vlq(dir) vlq(flags) vlq(clock) vlq(n) frame[n] [crc hi][crc lo] 0x7E
//
// len counts the whole record including header and trailer.
const (
	CaptureHeaderSize  = 2
	CaptureTrailerSize = 3
	CaptureRecordMin   = CaptureHeaderSize + 4 + CaptureTrailerSize
	CaptureRecordMax   = 96
	CaptureIdxLen      = 0
	CaptureIdxSeq      = 1
	CaptureSync        = 0x7E
)

var (
	ErrRecordTooLarge = errors.New("capture record too large")
	ErrBadRecord      = errors.New("malformed capture record")
)

// CaptureRecord is one sniffed frame
type CaptureRecord struct {
	Seq   uint8
	Dir   Direction
	Flags Flags
	Clock uint32
	Frame []byte
}

// CaptureEncoder serialises capture records. Not safe for concurrent use.
type CaptureEncoder struct {
	out *ScratchOutput
	seq uint8
}

// NewCaptureEncoder creates a CaptureEncoder
func NewCaptureEncoder() *CaptureEncoder {
	return &CaptureEncoder{out: NewScratchOutput()}
}

// Encode serialises rec and returns the record bytes. The returned slice is
// reused by the next call. rec.Seq is ignored; the encoder numbers records.
func (e *CaptureEncoder) Encode(rec *CaptureRecord) ([]byte, error) {
	if len(rec.Frame) > MaxPayloadSize {
		return nil, ErrRecordTooLarge
	}
	e.out.Reset()
	e.out.Output([]byte{0, e.seq})
	EncodeVLQUint(e.out, uint32(rec.Dir))
	EncodeVLQUint(e.out, uint32(rec.Flags))
	EncodeVLQUint(e.out, rec.Clock)
	EncodeVLQBytes(e.out, rec.Frame)

	body := e.out.Len()
	e.out.SetByte(CaptureIdxLen, uint8(body+CaptureTrailerSize))
	crc := CRC16(e.out.Result())
	e.out.Output([]byte{
		uint8((crc & 0xFF00) >> 8),
		uint8(crc & 0xFF),
		CaptureSync,
	})
	if e.out.Overflowed() {
		return nil, ErrRecordTooLarge
	}
	rec.Seq = e.seq
	e.seq++
	return e.out.Result(), nil
}

// CaptureDecoder reassembles capture records from a byte stream, skipping
// garbage up to the next sync byte after a framing error.
type CaptureDecoder struct {
	in       *FifoBuffer
	synced   bool
	started  bool
	nextSeq  uint8
	frameBuf [MaxPayloadSize]byte

	// Lost counts records missing from the sequence, Errors counts framing errors
	Lost   uint32
	Errors uint32
}

// NewCaptureDecoder creates a CaptureDecoder
func NewCaptureDecoder() *CaptureDecoder {
	return &CaptureDecoder{
		in:     NewFifoBuffer(4 * CaptureRecordMax),
		synced: true,
	}
}

// Write feeds stream bytes and returns how many were accepted
func (d *CaptureDecoder) Write(p []byte) (int, error) {
	return d.in.Write(p), nil
}

// Free returns the number of bytes that can be fed without loss
func (d *CaptureDecoder) Free() int {
	return d.in.Free()
}

// Next returns the next complete record. The record's Frame is only valid
// until the following call.
func (d *CaptureDecoder) Next() (CaptureRecord, bool) {
	data := d.in.Data()
	var rec CaptureRecord
	found := false

	for len(data) > 0 && !found {
		if !d.synced {
			syncPos := -1
			for i, b := range data {
				if b == CaptureSync {
					syncPos = i
					break
				}
			}
			if syncPos < 0 {
				data = nil
				break
			}
			data = data[syncPos+1:]
			d.synced = true
			continue
		}

		if data[0] == CaptureSync {
			data = data[1:]
			continue
		}
		if len(data) < CaptureRecordMin {
			break
		}
		recLen := int(data[CaptureIdxLen])
		if recLen < CaptureRecordMin || recLen > CaptureRecordMax {
			d.desync()
			continue
		}
		if len(data) < recLen {
			break
		}
		if data[recLen-1] != CaptureSync {
			d.desync()
			continue
		}
		frameCRC := uint16(data[recLen-CaptureTrailerSize])<<8 | uint16(data[recLen-CaptureTrailerSize+1])
		if frameCRC != CRC16(data[:recLen-CaptureTrailerSize]) {
			d.desync()
			continue
		}

		var err error
		rec, err = d.parse(data[:recLen])
		data = data[recLen:]
		if err != nil {
			d.Errors++
			continue
		}
		found = true
	}

	consumed := d.in.Available() - len(data)
	if consumed > 0 {
		d.in.Pop(consumed)
	}
	return rec, found
}

func (d *CaptureDecoder) desync() {
	d.synced = false
	d.Errors++
}

func (d *CaptureDecoder) parse(raw []byte) (CaptureRecord, error) {
	rec := CaptureRecord{Seq: raw[CaptureIdxSeq]}
	body := raw[CaptureHeaderSize : len(raw)-CaptureTrailerSize]

	dir, err := DecodeVLQUint(&body)
	if err != nil {
		return rec, err
	}
	flags, err := DecodeVLQUint(&body)
	if err != nil {
		return rec, err
	}
	clock, err := DecodeVLQUint(&body)
	if err != nil {
		return rec, err
	}
	frame, err := DecodeVLQBytes(&body)
	if err != nil {
		return rec, err
	}
	if len(body) != 0 || len(frame) > len(d.frameBuf) {
		return rec, ErrBadRecord
	}

	if d.started && rec.Seq != d.nextSeq {
		d.Lost += uint32(rec.Seq - d.nextSeq)
	}
	d.started = true
	d.nextSeq = rec.Seq + 1

	n := copy(d.frameBuf[:], frame)
	rec.Dir = Direction(dir)
	rec.Flags = Flags(flags)
	rec.Clock = clock
	rec.Frame = d.frameBuf[:n]
	return rec, nil
}
