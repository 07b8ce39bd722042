package protocol

// OutputBuffer receives encoded record bytes
type OutputBuffer interface {
	Output(data []byte)
}

// ScratchOutput assembles one capture record in a fixed array. Bytes past
// the end are discarded and remembered as an overflow.
type ScratchOutput struct {
	buf      [CaptureRecordMax]byte
	pos      int
	overflow bool
}

// NewScratchOutput creates an empty ScratchOutput
func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	n := copy(s.buf[s.pos:], data)
	s.pos += n
	if n < len(data) {
		s.overflow = true
	}
}

// Len returns the number of bytes written so far
func (s *ScratchOutput) Len() int {
	return s.pos
}

// SetByte patches an already written byte, used for the length header
func (s *ScratchOutput) SetByte(pos int, val byte) {
	if pos < s.pos {
		s.buf[pos] = val
	}
}

// Overflowed reports whether any output was cut off since the last Reset
func (s *ScratchOutput) Overflowed() bool {
	return s.overflow
}

// Result returns the accumulated bytes; the slice is reused after Reset
func (s *ScratchOutput) Result() []byte {
	return s.buf[:s.pos]
}

func (s *ScratchOutput) Reset() {
	s.pos = 0
	s.overflow = false
}

// FifoBuffer holds stream bytes that have not been parsed yet. Data is kept
// contiguous: Pop moves the remainder to the front, so Data never copies.
type FifoBuffer struct {
	buf []byte
	n   int
}

// NewFifoBuffer creates a FifoBuffer holding up to capacity bytes
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{buf: make([]byte, capacity)}
}

// Write appends as much of data as fits and returns the count
func (f *FifoBuffer) Write(data []byte) int {
	n := copy(f.buf[f.n:], data)
	f.n += n
	return n
}

// Data returns the unread bytes. The slice is invalidated by Write and Pop.
func (f *FifoBuffer) Data() []byte {
	return f.buf[:f.n]
}

func (f *FifoBuffer) Available() int {
	return f.n
}

func (f *FifoBuffer) Free() int {
	return len(f.buf) - f.n
}

// Pop discards the first n unread bytes
func (f *FifoBuffer) Pop(n int) {
	if n >= f.n {
		f.n = 0
		return
	}
	copy(f.buf, f.buf[n:f.n])
	f.n -= n
}

func (f *FifoBuffer) Reset() {
	f.n = 0
}
