package store

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/natefinch/atomic"

	"github.com/nicolasduc/imgstore/pkg/archive"
)

// payloadStart is the byte offset where the payload region begins: right
// after the header and the full slot table.
func payloadStart(maxFiles uint32) int64 {
	return int64(HeaderSize) + int64(maxFiles)*int64(SlotSize)
}

type interval struct {
	offset int64
	size   int64
}

// needsCompaction reports whether the payload region contains any byte
// range not claimed by a live slot's size/offset pair.
//
// The original implementation re-walked every slot and resolution for each
// candidate offset, an O(holes * max_files * NumRes) scan. This instead
// collects every claimed interval once, sorts it by offset, and walks the
// sorted list linearly checking that consecutive intervals are contiguous
// and together span the whole payload region.
func (s *Store) needsCompaction() (bool, error) {
	end, err := s.file.Seek(0, 2)
	if err != nil {
		return false, fmt.Errorf("%w: seeking to end: %v", ErrIO, err)
	}
	start := payloadStart(s.header.MaxFiles)
	if end <= start {
		return false, nil
	}

	intervals := s.claimedIntervals()
	sort.Slice(intervals, func(i, j int) bool { return intervals[i].offset < intervals[j].offset })

	cursor := start
	for _, iv := range intervals {
		if iv.offset+iv.size <= cursor {
			// already covered: slots sharing content through dedup claim the same range
			continue
		}
		if iv.offset != cursor {
			return true, nil
		}
		cursor += iv.size
	}
	return cursor != end, nil
}

// claimedIntervals lists every (offset, size) payload range referenced by
// a valid slot, across all three resolutions.
func (s *Store) claimedIntervals() []interval {
	var out []interval
	for _, slot := range s.slots {
		if !slot.IsValid {
			continue
		}
		for res := 0; res < NumRes; res++ {
			if slot.Size[res] != 0 {
				out = append(out, interval{offset: int64(slot.Offset[res]), size: int64(slot.Size[res])})
			}
		}
	}
	return out
}

// CompactOptions controls optional side effects of Compact.
type CompactOptions struct {
	// AuditTrailPath, if non-empty, receives a best-effort bzip2-compressed
	// tar snapshot of the store's original payloads taken before the
	// rewrite. A failure writing the audit trail never fails Compact.
	AuditTrailPath string
}

// Compact rewrites the store into a temporary file, keeping only live
// slots and their already-materialised resized variants, then atomically
// replaces the original file. If the payload region has no holes, Compact
// is a no-op. Compact requires a read-write handle.
func (s *Store) Compact(opts CompactOptions) error {
	if err := s.requireReadWrite(); err != nil {
		return err
	}

	need, err := s.needsCompaction()
	if err != nil {
		return err
	}
	if !need {
		s.logger.Debug("🧹 compaction skipped, no holes found")
		return nil
	}

	if opts.AuditTrailPath != "" {
		if err := s.writeAuditTrail(opts.AuditTrailPath); err != nil {
			s.logger.Warn("⚠️ audit trail failed, continuing with compaction", "error", err)
		}
	}

	tmpPath := s.path + ".gc-tmp"
	os.Remove(tmpPath)

	rebuilt, err := Create(tmpPath, s.header.MaxFiles, s.header.ResThumb, s.header.ResSmall, s.logger)
	if err != nil {
		return fmt.Errorf("creating compaction target: %w", err)
	}

	// On failure the temporary store is left in place; the next Compact
	// removes it before creating a fresh one.
	if err := s.copyLiveSlotsInto(rebuilt); err != nil {
		rebuilt.Close()
		return err
	}
	if err := rebuilt.Close(); err != nil {
		return err
	}

	data, err := os.ReadFile(tmpPath)
	if err != nil {
		return fmt.Errorf("%w: reading compaction target: %v", ErrIO, err)
	}
	if err := atomic.WriteFile(s.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("%w: replacing store file: %v", ErrIO, err)
	}
	os.Remove(tmpPath)

	if err := s.reopenAfterCompact(); err != nil {
		return err
	}

	s.logger.Info("🧹 compacted store", "path", s.path)
	return nil
}

// copyLiveSlotsInto reinserts every valid slot's original payload into dst
// via the ordinary insert path, then copies across any already-materialised
// resized variants so they don't need recomputing.
func (s *Store) copyLiveSlotsInto(dst *Store) error {
	for _, slot := range s.slots {
		if !slot.IsValid {
			continue
		}

		original, err := s.readPayload(slot.Offset[ResOrig], slot.Size[ResOrig])
		if err != nil {
			return err
		}
		if err := dst.Insert(slot.ImgID, original); err != nil {
			return fmt.Errorf("re-inserting %s during compaction: %w", slot.ImgID, err)
		}

		dstIndex := dst.findByID(slot.ImgID)
		for _, res := range []int{ResThumb, ResSmall} {
			if slot.Size[res] == 0 {
				continue
			}
			data, err := s.readPayload(slot.Offset[res], slot.Size[res])
			if err != nil {
				return err
			}
			offset, err := dst.appendPayload(data)
			if err != nil {
				return err
			}
			dst.slots[dstIndex].Size[res] = slot.Size[res]
			dst.slots[dstIndex].Offset[res] = offset
			if err := dst.flushSlot(dstIndex); err != nil {
				return err
			}
		}
	}
	return nil
}

// writeAuditTrail bundles every live original payload into a bzip2-tar
// archive at path, for operators who want a pre-compaction snapshot.
func (s *Store) writeAuditTrail(path string) error {
	var entries []archive.Entry
	for _, slot := range s.slots {
		if !slot.IsValid {
			continue
		}
		data, err := s.readPayload(slot.Offset[ResOrig], slot.Size[ResOrig])
		if err != nil {
			return err
		}
		entries = append(entries, archive.Entry{Name: slot.ImgID + ".jpg", Data: data})
	}

	bundle, err := archive.WriteTar(entries, archive.OpBzip2)
	if err != nil {
		return err
	}
	return os.WriteFile(path, bundle, 0o644)
}

// reopenAfterCompact re-reads the header and slot table after the
// underlying file was atomically replaced out from under this handle's
// *os.File. The file descriptor itself still refers to the old, now
// unlinked inode, so we close it and reopen the path cleanly.
func (s *Store) reopenAfterCompact() error {
	s.file.Close()
	file, err := os.OpenFile(s.path, os.O_RDWR, 0o644)
	if err != nil {
		return fmt.Errorf("%w: reopening %s after compaction: %v", ErrIO, s.path, err)
	}
	s.file = file
	return s.readHeaderAndSlots()
}
