package store

import "fmt"

// Delete marks imgID's slot empty. The payload bytes are left in place;
// they are reclaimed only by Compact. Delete requires a read-write handle.
func (s *Store) Delete(imgID string) error {
	if err := s.requireReadWrite(); err != nil {
		return err
	}
	if imgID == "" {
		return fmt.Errorf("%w: %q", ErrInvalidImgID, imgID)
	}
	// Insert truncates overlong ids to 127 bytes + null before storing them,
	// so look up the same truncated form rather than rejecting it here.
	if len(imgID) > MaxImgIDLen {
		imgID = imgID[:MaxImgIDLen]
	}
	if s.header.NumFiles == 0 {
		return fmt.Errorf("%w: %s", ErrFileNotFound, imgID)
	}

	index := s.findByID(imgID)
	if index < 0 {
		return fmt.Errorf("%w: %s", ErrFileNotFound, imgID)
	}

	s.header.NumFiles--
	s.header.Version++
	if err := s.flushHeader(); err != nil {
		return err
	}

	s.slots[index].IsValid = false
	if err := s.flushSlot(index); err != nil {
		return err
	}

	s.logger.Info("🗑️  deleted image", "img_id", imgID, "index", index)
	return nil
}
