package store

import (
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
)

// OpenMode selects how Open attaches to a store file.
//
// This replaces the original string-prefix convention ("r" meant read-only,
// anything else meant read-write) with a typed enum so invalid modes are a
// compile error rather than a silently-wrong runtime default.
type OpenMode int

const (
	OpenReadOnly OpenMode = iota
	OpenReadWrite
)

// Store is a handle onto an open image store file: the header, the full
// slot table kept resident in memory, and the underlying *os.File used for
// payload reads/writes. A Store is single-writer: OpenReadWrite acquires a
// PID lock file for the lifetime of the handle.
type Store struct {
	path      string
	file      *os.File
	mode      OpenMode
	header    *Header
	slots     []*Slot
	lockPath  string
	logger    hclog.Logger
}

// Open attaches to an existing store file at path. mode selects whether the
// handle may mutate the store; OpenReadWrite additionally acquires the
// single-writer lock, failing with ErrLocked if another writer holds it.
func Open(path string, mode OpenMode, logger hclog.Logger) (*Store, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	flag := os.O_RDONLY
	if mode == OpenReadWrite {
		flag = os.O_RDWR
	}

	var lp string
	if mode == OpenReadWrite {
		acquired, err := acquireLock(path, logger)
		if err != nil {
			return nil, err
		}
		lp = acquired
	}

	file, err := os.OpenFile(path, flag, 0o644)
	if err != nil {
		if mode == OpenReadWrite {
			releaseLock(lp, logger)
		}
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		}
		return nil, fmt.Errorf("%w: opening %s: %v", ErrIO, path, err)
	}

	s := &Store{
		path:     path,
		file:     file,
		mode:     mode,
		lockPath: lp,
		logger:   logger.Named("store"),
	}

	if err := s.readHeaderAndSlots(); err != nil {
		file.Close()
		releaseLock(lp, logger)
		return nil, err
	}

	s.logger.Debug("📂 opened store", "path", path, "num_files", s.header.NumFiles, "max_files", s.header.MaxFiles)
	return s, nil
}

// Create initialises a brand-new store file at path with the given
// capacity and resize targets, then opens it read-write.
func Create(path string, maxFiles uint32, thumbRes, smallRes [2]uint16, logger hclog.Logger) (*Store, error) {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	if maxFiles == 0 || maxFiles > MaxMaxFiles {
		return nil, fmt.Errorf("%w: max_files must be in [1, %d], got %d", ErrMaxFiles, MaxMaxFiles, maxFiles)
	}
	if err := validateResolutionCap(thumbRes, MaxThumbRes); err != nil {
		return nil, err
	}
	if err := validateResolutionCap(smallRes, MaxSmallRes); err != nil {
		return nil, err
	}

	lp, err := acquireLock(path, logger)
	if err != nil {
		return nil, err
	}

	file, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		releaseLock(lp, logger)
		if os.IsExist(err) {
			return nil, fmt.Errorf("%w: %s already exists", ErrInvalidArgument, path)
		}
		return nil, fmt.Errorf("%w: creating %s: %v", ErrIO, path, err)
	}

	header := &Header{
		Version:  1,
		NumFiles: 0,
		MaxFiles: maxFiles,
		ResThumb: thumbRes,
		ResSmall: smallRes,
	}

	s := &Store{
		path:     path,
		file:     file,
		mode:     OpenReadWrite,
		header:   header,
		slots:    make([]*Slot, maxFiles),
		lockPath: lp,
		logger:   logger.Named("store"),
	}
	for i := range s.slots {
		s.slots[i] = &Slot{}
	}

	if err := s.flushHeader(); err != nil {
		file.Close()
		releaseLock(lp, logger)
		return nil, err
	}
	for i := range s.slots {
		if err := s.flushSlot(i); err != nil {
			file.Close()
			releaseLock(lp, logger)
			return nil, err
		}
	}

	s.logger.Info("🆕 created store", "path", path, "max_files", maxFiles)
	return s, nil
}

func validateResolutionCap(res [2]uint16, max uint16) error {
	if res[0] < MinResDim || res[1] < MinResDim || res[0] > max || res[1] > max {
		return fmt.Errorf("%w: resolution %dx%d out of bounds [%d, %d]", ErrResolutions, res[0], res[1], MinResDim, max)
	}
	return nil
}

// readHeaderAndSlots loads the header and full slot table from disk into
// memory. Called from Open, and again after Compact replaces the file.
func (s *Store) readHeaderAndSlots() error {
	hbuf := make([]byte, HeaderSize)
	if _, err := s.file.ReadAt(hbuf, 0); err != nil {
		return fmt.Errorf("%w: reading header: %v", ErrIO, err)
	}
	header, err := UnpackHeader(hbuf)
	if err != nil {
		return err
	}
	s.header = header

	s.slots = make([]*Slot, header.MaxFiles)
	sbuf := make([]byte, SlotSize)
	for i := uint32(0); i < header.MaxFiles; i++ {
		off := int64(HeaderSize) + int64(i)*int64(SlotSize)
		if _, err := s.file.ReadAt(sbuf, off); err != nil {
			return fmt.Errorf("%w: reading slot %d: %v", ErrIO, i, err)
		}
		slot, err := UnpackSlot(sbuf)
		if err != nil {
			return fmt.Errorf("reading slot %d: %w", i, err)
		}
		s.slots[i] = slot
	}
	return nil
}

// flushHeader writes the in-memory header back to disk.
func (s *Store) flushHeader() error {
	if _, err := s.file.WriteAt(s.header.Pack(), 0); err != nil {
		return fmt.Errorf("%w: writing header: %v", ErrIO, err)
	}
	return nil
}

// flushSlot writes slots[i] back to its on-disk position.
func (s *Store) flushSlot(i int) error {
	off := int64(HeaderSize) + int64(i)*int64(SlotSize)
	if _, err := s.file.WriteAt(s.slots[i].Pack(), off); err != nil {
		return fmt.Errorf("%w: writing slot %d: %v", ErrIO, i, err)
	}
	return nil
}

// Close flushes nothing further (writes are synchronous) and releases the
// file descriptor and, for a read-write handle, the write lock.
func (s *Store) Close() error {
	err := s.file.Close()
	if s.mode == OpenReadWrite {
		releaseLock(s.lockPath, s.logger)
	}
	if err != nil {
		return fmt.Errorf("%w: closing %s: %v", ErrIO, s.path, err)
	}
	return nil
}

func (s *Store) requireReadWrite() error {
	if s.mode != OpenReadWrite {
		return fmt.Errorf("%w: store opened read-only", ErrInvalidArgument)
	}
	return nil
}

// Header returns a copy of the store's current header.
func (s *Store) Header() Header {
	return *s.header
}

// Path returns the filesystem path the store was opened from.
func (s *Store) Path() string {
	return s.path
}
