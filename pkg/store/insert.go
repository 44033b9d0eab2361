package store

import (
	"crypto/sha256"
	"fmt"

	"github.com/nicolasduc/imgstore/pkg/imgcodec"
)

// Insert adds a new original-resolution JPEG payload under imgID. The
// original is content-addressed by its SHA-256 digest: if an existing
// valid slot already holds the same bytes, the new slot shares that
// slot's size/offset triples instead of appending a duplicate copy.
// Insert requires a read-write handle.
func (s *Store) Insert(imgID string, payload []byte) error {
	if err := s.requireReadWrite(); err != nil {
		return err
	}
	if imgID == "" {
		return fmt.Errorf("%w: image id must not be empty", ErrInvalidImgID)
	}
	// Mirrors the original's strncpy into a fixed MAX_IMG_ID buffer: an
	// overlong id is truncated to 127 bytes + null, never rejected.
	if len(imgID) > MaxImgIDLen {
		imgID = imgID[:MaxImgIDLen]
	}
	if len(payload) == 0 {
		return fmt.Errorf("%w: empty payload", ErrInvalidArgument)
	}
	if s.header.NumFiles >= s.header.MaxFiles {
		return fmt.Errorf("%w: store has reached its %d file capacity", ErrFullImgStore, s.header.MaxFiles)
	}

	img, err := imgcodec.Decode(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrImgLib, err)
	}
	width, height := imgcodec.Dimensions(img)

	index := s.findFreeSlot()
	if index < 0 {
		return fmt.Errorf("%w: no free slot despite num_files < max_files", ErrFullImgStore)
	}

	digest := sha256.Sum256(payload)
	slot := s.slots[index]
	*slot = Slot{
		ImgID:   imgID,
		SHA:     digest,
		ResOrig: [2]uint32{width, height},
		IsValid: true,
	}
	slot.Size[ResOrig] = uint32(len(payload))

	dedup, err := s.dedupCheck(index)
	if err != nil {
		*slot = Slot{}
		return err
	}

	if !dedup.contentDup {
		offset, err := s.appendPayload(payload)
		if err != nil {
			*slot = Slot{}
			return err
		}
		slot.Offset[ResOrig] = offset
	}

	if err := s.flushSlot(index); err != nil {
		return err
	}

	s.header.NumFiles++
	s.header.Version++
	if err := s.flushHeader(); err != nil {
		return err
	}

	s.logger.Info("➕ inserted image", "img_id", imgID, "index", index, "size", len(payload))
	return nil
}
