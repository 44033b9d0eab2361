package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDedupCheckFlagsDuplicateID(t *testing.T) {
	s := &Store{slots: []*Slot{
		{ImgID: "a.jpg", IsValid: true},
		{ImgID: "a.jpg", IsValid: true},
	}}

	_, err := s.dedupCheck(1)
	assert.ErrorIs(t, err, ErrDuplicateID)
}

func TestDedupCheckSharesOffsetsOnContentMatch(t *testing.T) {
	sha := [shaSize]byte{1, 2, 3}
	existing := &Slot{
		ImgID:   "first.jpg",
		SHA:     sha,
		IsValid: true,
		Size:    [NumRes]uint32{10, 20, 30},
		Offset:  [NumRes]uint64{100, 200, 300},
	}
	fresh := &Slot{
		ImgID:   "second.jpg",
		SHA:     sha,
		IsValid: true,
	}
	s := &Store{slots: []*Slot{existing, fresh}}

	out, err := s.dedupCheck(1)
	require.NoError(t, err)
	assert.True(t, out.contentDup)
	assert.Equal(t, existing.Size, fresh.Size)
	assert.Equal(t, existing.Offset, fresh.Offset)
}

func TestDedupCheckResetsOrigOffsetWithoutContentMatch(t *testing.T) {
	fresh := &Slot{ImgID: "only.jpg", IsValid: true, Offset: [NumRes]uint64{0, 0, 999}}
	s := &Store{slots: []*Slot{fresh}}

	out, err := s.dedupCheck(0)
	require.NoError(t, err)
	assert.False(t, out.contentDup)
	assert.Equal(t, uint64(0), fresh.Offset[ResOrig])
}

func TestFindFreeSlot(t *testing.T) {
	s := &Store{slots: []*Slot{
		{IsValid: true},
		{IsValid: false},
		{IsValid: true},
	}}
	assert.Equal(t, 1, s.findFreeSlot())
}

func TestFindFreeSlotReturnsMinusOneWhenFull(t *testing.T) {
	s := &Store{slots: []*Slot{{IsValid: true}, {IsValid: true}}}
	assert.Equal(t, -1, s.findFreeSlot())
}
