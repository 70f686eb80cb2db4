package byteutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuffer(t *testing.T) {
	b := GetBuffer()
	b.WriteString("model")
	out := Detach(b)
	PutBuffer(b)

	assert.Equal(t, []byte("model"), out)

	b = GetBuffer()
	defer PutBuffer(b)
	assert.Equal(t, 0, b.Len())
}
