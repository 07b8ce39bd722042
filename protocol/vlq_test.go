package protocol

import (
	"testing"
)

func TestVLQClockValues(t *testing.T) {
	// capture clocks use the full uint32 range, including wrapped values
	testCases := []uint32{0, 95, 96, 4095, 0xB000, 1 << 26, 0xFFFFFFFF}

	for _, expected := range testCases {
		output := NewScratchOutput()
		EncodeVLQUint(output, expected)
		encoded := output.Result()

		data := encoded
		decoded, err := DecodeVLQUint(&data)
		if err != nil {
			t.Errorf("Failed to decode VLQ for value %d: %v", expected, err)
			continue
		}
		if decoded != expected {
			t.Errorf("VLQ mismatch: expected %d, got %d (encoded as %v)", expected, decoded, encoded)
		}
		if len(data) != 0 {
			t.Errorf("VLQ decode left %d bytes for value %d", len(data), expected)
		}
		if len(encoded) > 5 {
			t.Errorf("Value %d encoded to %d bytes", expected, len(encoded))
		}
	}
}

func TestVLQBytesTruncated(t *testing.T) {
	output := NewScratchOutput()
	EncodeVLQBytes(output, []byte{0x01, 0x02, 0x03})
	encoded := output.Result()

	data := encoded[:len(encoded)-1]
	if _, err := DecodeVLQBytes(&data); err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall for truncated bytes, got %v", err)
	}
}

func TestVLQBufferTooSmall(t *testing.T) {
	// Continuation byte but no following byte
	data := []byte{0x80}
	_, err := DecodeVLQUint(&data)
	if err != ErrBufferTooSmall {
		t.Errorf("Expected ErrBufferTooSmall, got %v", err)
	}
}

func TestVLQEncodedLength(t *testing.T) {
	testCases := []struct {
		v    uint32
		want int
	}{
		{0, 1},
		{95, 1},
		{96, 2},
		{3<<12 - 1, 2},
		{3 << 12, 3},
		{3 << 19, 4},
		{3 << 26, 5},
		{0xFFFFFFFF, 1}, // -1
	}

	for _, tc := range testCases {
		out := NewScratchOutput()
		EncodeVLQUint(out, tc.v)
		if out.Len() != tc.want {
			t.Errorf("EncodeVLQUint(%#x) wrote %d bytes, want %d", tc.v, out.Len(), tc.want)
		}
	}
}
