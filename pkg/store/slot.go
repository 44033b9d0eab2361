package store

import (
	"encoding/binary"
	"fmt"
)

// Slot is one entry of the preallocated slot table that follows the header.
// Slot i lives at byte offset HeaderSize + i*SlotSize.
//
// On-disk layout (little-endian, SlotSize bytes total):
//
//	imgID[128]      null-terminated, unique when IsValid
//	sha[32]         sha256 of the original payload
//	resOrig[2]      width, height of the original image, uint32 each
//	size[3]         byte length of thumb/small/orig payloads, uint32 each
//	offset[3]       byte offset of thumb/small/orig payloads, uint64 each
//	isValid         slotEmpty or slotNonEmpty, uint16
//	reserved        padding, uint16
type Slot struct {
	ImgID   string
	SHA     [shaSize]byte
	ResOrig [2]uint32
	Size    [NumRes]uint32
	Offset  [NumRes]uint64
	IsValid bool
}

// Pack serialises s into a SlotSize-byte buffer.
func (s *Slot) Pack() []byte {
	buf := make([]byte, SlotSize)
	id := s.ImgID
	if len(id) > MaxImgIDLen {
		id = id[:MaxImgIDLen]
	}
	copy(buf[0:imgIDFieldSize], []byte(id))

	off := imgIDFieldSize
	copy(buf[off:off+shaSize], s.SHA[:])
	off += shaSize

	binary.LittleEndian.PutUint32(buf[off:], s.ResOrig[0])
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], s.ResOrig[1])
	off += 4

	for i := 0; i < NumRes; i++ {
		binary.LittleEndian.PutUint32(buf[off:], s.Size[i])
		off += 4
	}
	for i := 0; i < NumRes; i++ {
		binary.LittleEndian.PutUint64(buf[off:], s.Offset[i])
		off += 8
	}

	valid := slotEmpty
	if s.IsValid {
		valid = slotNonEmpty
	}
	binary.LittleEndian.PutUint16(buf[off:], valid)
	off += 2
	// final 2 reserved bytes stay zeroed

	return buf
}

// UnpackSlot parses a SlotSize-byte buffer into a Slot.
func UnpackSlot(buf []byte) (*Slot, error) {
	if len(buf) < SlotSize {
		return nil, fmt.Errorf("%w: slot buffer too short (%d < %d)", ErrIO, len(buf), SlotSize)
	}

	s := &Slot{}
	s.ImgID = cString(buf[0:imgIDFieldSize])

	off := imgIDFieldSize
	copy(s.SHA[:], buf[off:off+shaSize])
	off += shaSize

	s.ResOrig[0] = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	s.ResOrig[1] = binary.LittleEndian.Uint32(buf[off:])
	off += 4

	for i := 0; i < NumRes; i++ {
		s.Size[i] = binary.LittleEndian.Uint32(buf[off:])
		off += 4
	}
	for i := 0; i < NumRes; i++ {
		s.Offset[i] = binary.LittleEndian.Uint64(buf[off:])
		off += 8
	}

	s.IsValid = binary.LittleEndian.Uint16(buf[off:]) == slotNonEmpty

	return s, nil
}

// shaEqual reports whether two digests match, mirroring the original
// byte-for-byte comparison used for content dedup.
func shaEqual(a, b [shaSize]byte) bool {
	return a == b
}
