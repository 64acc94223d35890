package sqpack

import "math"

const (
	// HeaderSize is the fixed size of the parsed part of a file header.
	// The block table always starts right after it, even when
	// Header.HeaderLength describes a larger padded region.
	HeaderSize = 24

	// BlockEntrySize is the on-disk size of one block table entry.
	BlockEntrySize = 8

	// FrameHeaderSize is the size of the sub-header in front of every block frame.
	FrameHeaderSize = 16

	// BlockMagic must be the first field of every block sub-header.
	BlockMagic = 0x10

	// BlockPadding is the alignment compressed frames are padded to.
	BlockPadding = 0x80

	// StoredThreshold discriminates compressed frames from stored ones.
	// The format carries no explicit flag: a compressed length below this
	// value means DEFLATE, anything else is stored verbatim and the frame's
	// decompressed length is its literal byte count.
	StoredThreshold = 32000

	// MaxBlocks caps the block count accepted from a header so a corrupt
	// header cannot trigger an unbounded allocation.
	MaxBlocks = 1 << 20

	// MaxFrameLength bounds the bytes following a block sub-header. Block
	// table entries describe blocks with 16-bit sizes, so anything longer
	// comes from a corrupt sub-header.
	MaxFrameLength = math.MaxUint16
)
