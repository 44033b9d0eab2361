package store

import (
	"encoding/binary"
	"fmt"
)

// Header is the fixed-size record at offset 0 of an image store file.
//
// On-disk layout (little-endian, HeaderSize bytes total):
//
//	name[32]          null-terminated magic tag, always StoreMagic
//	version   uint32
//	numFiles  uint32
//	maxFiles  uint32
//	resThumb  [2]uint16  width, height cap for the thumb resolution
//	resSmall  [2]uint16  width, height cap for the small resolution
//	reserved  uint32     padding, always zero
//	reserved2 uint64     padding, always zero
type Header struct {
	Version  uint32
	NumFiles uint32
	MaxFiles uint32
	ResThumb [2]uint16
	ResSmall [2]uint16
}

// Pack serialises h into a HeaderSize-byte buffer.
func (h *Header) Pack() []byte {
	buf := make([]byte, HeaderSize)
	copy(buf[0:nameFieldSize], []byte(StoreMagic))

	off := nameFieldSize
	binary.LittleEndian.PutUint32(buf[off:], h.Version)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], h.NumFiles)
	off += 4
	binary.LittleEndian.PutUint32(buf[off:], h.MaxFiles)
	off += 4
	binary.LittleEndian.PutUint16(buf[off:], h.ResThumb[0])
	off += 2
	binary.LittleEndian.PutUint16(buf[off:], h.ResThumb[1])
	off += 2
	binary.LittleEndian.PutUint16(buf[off:], h.ResSmall[0])
	off += 2
	binary.LittleEndian.PutUint16(buf[off:], h.ResSmall[1])
	off += 2
	// remaining bytes up to HeaderSize stay zeroed (reserved fields)
	return buf
}

// UnpackHeader parses a HeaderSize-byte buffer into a Header, validating the
// magic tag.
func UnpackHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("%w: header buffer too short (%d < %d)", ErrIO, len(buf), HeaderSize)
	}

	name := cString(buf[0:nameFieldSize])
	if name != StoreMagic {
		return nil, fmt.Errorf("%w: not an image store (bad magic %q)", ErrInvalidArgument, name)
	}

	h := &Header{}
	off := nameFieldSize
	h.Version = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	h.NumFiles = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	h.MaxFiles = binary.LittleEndian.Uint32(buf[off:])
	off += 4
	h.ResThumb[0] = binary.LittleEndian.Uint16(buf[off:])
	off += 2
	h.ResThumb[1] = binary.LittleEndian.Uint16(buf[off:])
	off += 2
	h.ResSmall[0] = binary.LittleEndian.Uint16(buf[off:])
	off += 2
	h.ResSmall[1] = binary.LittleEndian.Uint16(buf[off:])
	off += 2

	return h, nil
}

// cString trims a fixed-size byte array at its first NUL byte.
func cString(b []byte) string {
	for i, c := range b {
		if c == 0 {
			return string(b[:i])
		}
	}
	return string(b)
}
