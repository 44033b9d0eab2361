package store

import (
	"fmt"
	"os"

	"github.com/nicolasduc/imgstore/pkg/archive"
)

// Export bundles every valid slot's original payload into a tar archive at
// archivePath, optionally passed through codec (archive.OpNone,
// archive.OpGzip, or archive.OpBzip2).
func (s *Store) Export(archivePath string, codec uint8) error {
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

	bundle, err := archive.WriteTar(entries, codec)
	if err != nil {
		return fmt.Errorf("building export archive: %w", err)
	}

	if err := os.WriteFile(archivePath, bundle, 0o644); err != nil {
		return fmt.Errorf("%w: writing %s: %v", ErrIO, archivePath, err)
	}

	s.logger.Info("📦 exported store", "archive", archivePath, "images", len(entries), "codec", archive.CodecName(codec))
	return nil
}
