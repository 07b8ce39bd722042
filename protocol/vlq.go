package protocol

import "errors"

// Capture fields use the Klipper variable length quantity: big endian 7 bit
// groups with the high bit set on all but the last byte. Values are encoded
// as signed 32 bit so a wrapped clock costs at most five bytes.

var ErrBufferTooSmall = errors.New("record truncated inside a VLQ field")

// vlqLen returns the number of bytes needed for v
func vlqLen(v int32) int {
	switch {
	case v >= -(1<<5) && v < 3<<5:
		return 1
	case v >= -(1<<12) && v < 3<<12:
		return 2
	case v >= -(1<<19) && v < 3<<19:
		return 3
	case v >= -(1<<26) && v < 3<<26:
		return 4
	}
	return 5
}

// EncodeVLQUint appends v to output
func EncodeVLQUint(output OutputBuffer, v uint32) {
	s := int32(v)
	n := vlqLen(s)
	var b [5]byte
	for i := 0; i < n; i++ {
		b[i] = byte(s>>(7*uint(n-1-i))) & 0x7F
		if i < n-1 {
			b[i] |= 0x80
		}
	}
	output.Output(b[:n])
}

// DecodeVLQUint reads one value and advances data past it. data is left
// untouched on error.
func DecodeVLQUint(data *[]byte) (uint32, error) {
	b := *data
	if len(b) == 0 {
		return 0, ErrBufferTooSmall
	}
	c := b[0]
	v := uint32(c & 0x7F)
	if c&0x60 == 0x60 {
		v |= ^uint32(0x1F) // negative: sign extend the first group
	}
	i := 1
	for c&0x80 != 0 {
		if i >= len(b) {
			return 0, ErrBufferTooSmall
		}
		c = b[i]
		i++
		v = v<<7 | uint32(c&0x7F)
	}
	*data = b[i:]
	return v, nil
}

// EncodeVLQBytes appends a length prefixed byte string
func EncodeVLQBytes(output OutputBuffer, data []byte) {
	EncodeVLQUint(output, uint32(len(data)))
	output.Output(data)
}

// DecodeVLQBytes reads a length prefixed byte string. The result aliases
// data.
func DecodeVLQBytes(data *[]byte) ([]byte, error) {
	b := *data
	n, err := DecodeVLQUint(&b)
	if err != nil {
		return nil, err
	}
	if uint32(len(b)) < n {
		return nil, ErrBufferTooSmall
	}
	*data = b[n:]
	return b[:n], nil
}
