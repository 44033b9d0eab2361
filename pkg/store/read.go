package store

import "fmt"

// Read returns the bytes of imgID's payload at the given resolution,
// resizing and persisting that variant first if it has not been
// materialised yet.
func (s *Store) Read(imgID string, res int) ([]byte, error) {
	if res < ResThumb || res >= NumRes {
		return nil, fmt.Errorf("%w: resolution %d out of range", ErrResolutions, res)
	}
	if s.header.NumFiles == 0 {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, imgID)
	}

	index := s.findByID(imgID)
	if index < 0 {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, imgID)
	}

	slot := s.slots[index]
	if slot.Size[res] == 0 || slot.Offset[res] == 0 {
		if err := s.requireReadWrite(); err != nil {
			return nil, fmt.Errorf("%w: resolution not yet materialised and store is read-only", ErrInvalidArgument)
		}
		if err := s.lazilyResize(index, res); err != nil {
			return nil, err
		}
	}

	return s.readPayload(slot.Offset[res], slot.Size[res])
}

// findByID returns the index of the valid slot holding imgID, or -1.
func (s *Store) findByID(imgID string) int {
	for i, slot := range s.slots {
		if slot.IsValid && slot.ImgID == imgID {
			return i
		}
	}
	return -1
}
