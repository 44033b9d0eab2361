package store

import (
	"fmt"

	"github.com/nicolasduc/imgstore/pkg/imgcodec"
)

// lazilyResize ensures slots[index] has a payload for res, materialising it
// on first request by decoding the original, scaling it to the store's
// configured cap for that resolution, and appending the encoded result to
// the payload region. Subsequent reads at the same resolution reuse the
// stored offset/size instead of recomputing.
func (s *Store) lazilyResize(index int, res int) error {
	slot := s.slots[index]
	if slot.Size[res] != 0 && slot.Offset[res] != 0 {
		return nil
	}
	if res == ResOrig {
		return fmt.Errorf("%w: original resolution must already be present", ErrImgLib)
	}

	original, err := s.readPayload(slot.Offset[ResOrig], slot.Size[ResOrig])
	if err != nil {
		return err
	}

	img, err := imgcodec.Decode(original)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrImgLib, err)
	}

	var maxW, maxH uint32
	var kernel imgcodec.Kernel
	switch res {
	case ResThumb:
		maxW, maxH = uint32(s.header.ResThumb[0]), uint32(s.header.ResThumb[1])
		kernel = imgcodec.KernelBilinear
	case ResSmall:
		maxW, maxH = uint32(s.header.ResSmall[0]), uint32(s.header.ResSmall[1])
		kernel = imgcodec.KernelCatmullRom
	default:
		return fmt.Errorf("%w: unknown resolution %d", ErrResolutions, res)
	}

	resized, err := imgcodec.Resize(img, maxW, maxH, kernel)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrImgLib, err)
	}

	offset, err := s.appendPayload(resized)
	if err != nil {
		return err
	}

	slot.Size[res] = uint32(len(resized))
	slot.Offset[res] = offset
	return s.flushSlot(index)
}

// readPayload reads size bytes at offset from the payload region.
func (s *Store) readPayload(offset uint64, size uint32) ([]byte, error) {
	buf := make([]byte, size)
	if _, err := s.file.ReadAt(buf, int64(offset)); err != nil {
		return nil, fmt.Errorf("%w: reading payload at offset %d: %v", ErrIO, offset, err)
	}
	return buf, nil
}

// appendPayload writes data to the end of the file and returns the offset
// it was written at.
func (s *Store) appendPayload(data []byte) (uint64, error) {
	off, err := s.file.Seek(0, 2) // io.SeekEnd
	if err != nil {
		return 0, fmt.Errorf("%w: seeking to end: %v", ErrIO, err)
	}
	if _, err := s.file.Write(data); err != nil {
		return 0, fmt.Errorf("%w: appending payload: %v", ErrIO, err)
	}
	return uint64(off), nil
}
