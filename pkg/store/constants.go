package store

// Format identification. StoreMagic is the exact string imprinted in
// header.Name; it never changes across versions of the format.
const StoreMagic = "EPFL ImgStore binary"

// =================================
// Fixed sizes - part of the on-disk format
// =================================
const (
	nameFieldSize  = 32  // bytes reserved for the null-terminated magic tag
	imgIDFieldSize = 128 // bytes reserved for the null-terminated image id
	shaSize        = 32  // sha256 digest length

	HeaderSize = 64  // bytes, fixed layout (see header.go)
	SlotSize   = 208 // bytes, fixed layout (see slot.go): id+sha+resOrig+size[3]+offset[3]+isValid+reserved
)

// =================================
// Resolution indices - part of the format spec
// =================================
const (
	ResThumb = 0
	ResSmall = 1
	ResOrig  = 2
	NumRes   = 3
)

// =================================
// Constraints
// =================================
const (
	MaxImgIDLen   = imgIDFieldSize - 1 // 127, last byte reserved for the null terminator
	MaxMaxFiles   = 100000
	MaxThumbRes   = 128
	MaxSmallRes   = 256
	MinResDim     = 1
	DefaultMaxFiles = 10
)

// Default resolutions used by the CLI's create command when none are given.
var (
	DefaultThumbRes = [2]uint16{64, 64}
	DefaultSmallRes = [2]uint16{256, 256}
)

// =================================
// is_valid flag values
// =================================
const (
	slotEmpty    uint16 = 0
	slotNonEmpty uint16 = 1
)
