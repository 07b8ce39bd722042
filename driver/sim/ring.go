package sim

import "radiolink/core"

type completion struct {
	status core.RxStatus
	data   []byte
	lq     uint8
}

const ringCapacity = 64

type ringBuffer struct {
	data       [ringCapacity]completion
	head, tail int // head = next pop, tail = next push
	count      int
}

func (rb *ringBuffer) push(c completion) {
	if rb.count == ringCapacity {
		// Overwrite the oldest when buffer is full to keep memory bounded
		rb.data[rb.tail] = completion{}
		rb.head = (rb.head + 1) % ringCapacity
		rb.count--
	}
	rb.data[rb.tail] = c
	rb.tail = (rb.tail + 1) % ringCapacity
	rb.count++
}

func (rb *ringBuffer) pop() (completion, bool) {
	if rb.count == 0 {
		return completion{}, false
	}
	c := rb.data[rb.head]
	rb.data[rb.head] = completion{}
	rb.head = (rb.head + 1) % ringCapacity
	rb.count--
	return c, true
}

func (rb *ringBuffer) snapshot() [][]byte {
	out := make([][]byte, rb.count)
	i := rb.head
	for c := 0; c < rb.count; c++ {
		out[c] = append([]byte(nil), rb.data[i].data...)
		i = (i + 1) % ringCapacity
	}
	return out
}
