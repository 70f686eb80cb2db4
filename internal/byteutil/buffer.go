// Package byteutil pools scratch buffers for encoding artifacts.
package byteutil

import (
	"bytes"
	"sync"
)

var buffers = sync.Pool{
	New: func() interface{} { return &bytes.Buffer{} },
}

// GetBuffer returns an empty buffer from the pool.
func GetBuffer() *bytes.Buffer {
	return buffers.Get().(*bytes.Buffer)
}

// PutBuffer resets b and returns it to the pool. b must not be used after.
func PutBuffer(b *bytes.Buffer) {
	b.Reset()
	buffers.Put(b)
}

// Detach copies the buffer contents so the buffer can go back to the pool.
func Detach(b *bytes.Buffer) []byte {
	out := make([]byte, b.Len())
	copy(out, b.Bytes())
	return out
}
