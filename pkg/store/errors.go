package store

import "errors"

// Kind identifies the category of a store error, independent of the
// particular operation that raised it. CLI front-ends use Kind to pick an
// exit code; the HTTP front-end collapses every non-nil error to 500.
type Kind int

const (
	KindNone Kind = iota
	KindInvalidArgument
	KindInvalidFilename
	KindInvalidImgID
	KindIO
	KindOutOfMemory
	KindNotEnoughArguments
	KindInvalidCommand
	KindFileNotFound
	KindDuplicateID
	KindFullImgStore
	KindMaxFiles
	KindResolutions
	KindImgLib
	KindLocked
)

// Sentinel errors, one per Kind. Wrap these with fmt.Errorf("...: %w", Err...)
// to attach context; callers match with errors.Is.
var (
	ErrInvalidArgument    = errors.New("invalid argument")
	ErrInvalidFilename    = errors.New("invalid filename")
	ErrInvalidImgID       = errors.New("invalid image id")
	ErrIO                 = errors.New("I/O error")
	ErrOutOfMemory        = errors.New("out of memory")
	ErrNotEnoughArguments = errors.New("not enough arguments")
	ErrInvalidCommand     = errors.New("invalid command")
	ErrFileNotFound       = errors.New("image not found")
	ErrDuplicateID        = errors.New("duplicate image id")
	ErrFullImgStore       = errors.New("store is full")
	ErrMaxFiles           = errors.New("invalid max_files")
	ErrResolutions        = errors.New("invalid resolution")
	ErrImgLib             = errors.New("image codec error")
	ErrLocked             = errors.New("store is locked by another writer")
)

var kindBySentinel = map[error]Kind{
	ErrInvalidArgument:    KindInvalidArgument,
	ErrInvalidFilename:    KindInvalidFilename,
	ErrInvalidImgID:       KindInvalidImgID,
	ErrIO:                 KindIO,
	ErrOutOfMemory:        KindOutOfMemory,
	ErrNotEnoughArguments: KindNotEnoughArguments,
	ErrInvalidCommand:     KindInvalidCommand,
	ErrFileNotFound:       KindFileNotFound,
	ErrDuplicateID:        KindDuplicateID,
	ErrFullImgStore:       KindFullImgStore,
	ErrMaxFiles:           KindMaxFiles,
	ErrResolutions:        KindResolutions,
	ErrImgLib:             KindImgLib,
	ErrLocked:             KindLocked,
}

// KindOf classifies err by the sentinel it wraps. Unrecognised errors
// (including nil) classify as KindNone; callers should treat that as "not a
// store error" rather than success.
func KindOf(err error) Kind {
	if err == nil {
		return KindNone
	}
	for sentinel, kind := range kindBySentinel {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindNone
}

// ExitCode maps a Kind to the small positive integer the CLI surfaces on
// process exit: the Kind's position in the enumeration above, or 1 for an
// error that wraps no store sentinel.
func ExitCode(err error) int {
	kind := KindOf(err)
	if kind == KindNone {
		if err == nil {
			return 0
		}
		return 1
	}
	return int(kind)
}
