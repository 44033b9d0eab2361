package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaderPackUnpackRoundTrip(t *testing.T) {
	h := &Header{
		Version:  3,
		NumFiles: 2,
		MaxFiles: 10,
		ResThumb: [2]uint16{64, 64},
		ResSmall: [2]uint16{256, 256},
	}

	buf := h.Pack()
	require.Len(t, buf, HeaderSize)

	got, err := UnpackHeader(buf)
	require.NoError(t, err)
	assert.Equal(t, h, got)
}

func TestUnpackHeaderRejectsBadMagic(t *testing.T) {
	buf := make([]byte, HeaderSize)
	copy(buf, []byte("not an image store"))

	_, err := UnpackHeader(buf)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestUnpackHeaderRejectsShortBuffer(t *testing.T) {
	_, err := UnpackHeader(make([]byte, HeaderSize-1))
	assert.ErrorIs(t, err, ErrIO)
}
