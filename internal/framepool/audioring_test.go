package framepool

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAudioRing_WriteShortOnFull(t *testing.T) {
	ring := NewAudioRing(8)

	n := ring.Write([]byte{1, 2, 3, 4})
	assert.Equal(t, 4, n)

	// Only 4 bytes of free space remain.
	n = ring.Write([]byte{5, 6, 7, 8, 9, 10})
	assert.Equal(t, 4, n)
	assert.Equal(t, 8, ring.Len())
}

func TestAudioRing_ReadDrainsFIFO(t *testing.T) {
	ring := NewAudioRing(4)
	ring.Write([]byte{1, 2, 3})

	out := make([]byte, 2)
	n := ring.Read(out)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{1, 2}, out)
	assert.Equal(t, 1, ring.Len())

	// Writing after a partial read should wrap correctly.
	ring.Write([]byte{4, 5, 6})
	out = make([]byte, 4)
	n = ring.Read(out)
	assert.Equal(t, 4, n)
	assert.Equal(t, []byte{3, 4, 5, 6}, out)
}

func TestAudioRing_PeekDoesNotConsume(t *testing.T) {
	ring := NewAudioRing(4)
	ring.Write([]byte{1, 2})

	peeked := make([]byte, 2)
	n := ring.Peek(peeked)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, ring.Len())

	read := make([]byte, 2)
	ring.Read(read)
	assert.Equal(t, peeked, read)
}

func TestAudioRing_Clear(t *testing.T) {
	ring := NewAudioRing(4)
	ring.Write([]byte{1, 2, 3})
	ring.Clear()
	assert.Equal(t, 0, ring.Len())
}
