// Package sqpack describes the on-disk layout of dat containers: the per-file
// header, the block table that follows it and the framed blocks holding the
// payload.
package sqpack

import (
	"fmt"
	"strconv"
	"strings"
)

// OffsetDescriptor locates one logical file inside a dat container.
// It is produced by an index lookup.
type OffsetDescriptor struct {
	DataOffset uint32 // absolute position of the file header in the container
	FolderHash uint32 // optional, for logging only
	FileHash   uint32 // optional, for logging only
}

func (d OffsetDescriptor) String() string {
	if d.FolderHash == 0 && d.FileHash == 0 {
		return fmt.Sprintf("0x%08X", d.DataOffset)
	}
	return fmt.Sprintf("%08X/%08X@0x%08X", d.FolderHash, d.FileHash, d.DataOffset)
}

// ParseOffsetDescriptor parses the form produced by OffsetDescriptor.String:
// either a bare data offset or FOLDER/FILE@OFFSET with hex hashes.
// Offsets accept Go integer prefixes such as 0x.
func ParseOffsetDescriptor(s string) (OffsetDescriptor, error) {
	var d OffsetDescriptor

	hashes, offset, found := strings.Cut(s, "@")
	if !found {
		offset, hashes = hashes, ""
	}

	v, err := strconv.ParseUint(strings.TrimSpace(offset), 0, 32)
	if err != nil {
		return d, fmt.Errorf("invalid data offset %q: %w", offset, err)
	}
	d.DataOffset = uint32(v)

	if hashes == "" {
		return d, nil
	}

	folder, file, ok := strings.Cut(hashes, "/")
	if !ok {
		return d, fmt.Errorf("invalid hash pair %q: expected FOLDER/FILE", hashes)
	}
	if v, err = strconv.ParseUint(folder, 16, 32); err != nil {
		return d, fmt.Errorf("invalid folder hash %q: %w", folder, err)
	}
	d.FolderHash = uint32(v)
	if v, err = strconv.ParseUint(file, 16, 32); err != nil {
		return d, fmt.Errorf("invalid file hash %q: %w", file, err)
	}
	d.FileHash = uint32(v)

	return d, nil
}

// Header is the fixed part of a file header.
//
// [header_length][content_kind][uncompressed_size][reserved][block_buffer_size][num_blocks]
type Header struct {
	HeaderLength     uint32 // size of the (padded) header region; frames start after it
	ContentKind      ContentKind
	UncompressedSize uint32 // size of the reassembled payload
	BlockBufferSize  uint32
	NumBlocks        uint32 // number of block table entries
}

// BlockTableEntry describes one block of a file.
//
// [offset(uint32)][block_size(uint16)][decompressed_size(uint16)]
type BlockTableEntry struct {
	Offset           uint32 // relative to DataOffset + HeaderLength
	BlockSize        uint16 // on-disk frame size
	DecompressedSize uint16
}

// FrameHeader is the sub-header in front of every block frame.
//
// [magic(0x10)][reserved][compressed_length][decompressed_length]
type FrameHeader struct {
	Magic              uint32
	CompressedLength   uint32
	DecompressedLength uint32
}

// Compressed reports whether the frame holds a DEFLATE stream
// rather than stored bytes.
func (h FrameHeader) Compressed() bool {
	return h.CompressedLength < StoredThreshold
}

// Frame holds the bytes of a single block as they were read from disk.
type Frame struct {
	Data       []byte
	Compressed bool
}

// ContentKind identifies how a file's payload is laid out in the container.
type ContentKind uint32

const (
	// ContentKindEmpty (0x01) is reserved and not decoded.
	ContentKindEmpty ContentKind = iota + 1
	// ContentKindBinary (0x02) is an opaque blob split into blocks.
	// It is the only kind this package decodes.
	ContentKindBinary
	// ContentKindModel (0x03) is reserved and not decoded.
	ContentKindModel
	// ContentKindTexture (0x04) is reserved and not decoded.
	ContentKindTexture
)

func (k ContentKind) String() string {
	switch k {
	case ContentKindEmpty:
		return "Empty"
	case ContentKindBinary:
		return "Binary"
	case ContentKindModel:
		return "Model"
	case ContentKindTexture:
		return "Texture"
	default:
		return fmt.Sprintf("ContentKind(%d)", uint32(k))
	}
}

// ParseContentKind maps a raw content kind code to a ContentKind.
// Reserved kinds yield ErrUnsupportedContentKind, unknown codes yield
// ErrInvalidContentKind.
func ParseContentKind(code uint32) (ContentKind, error) {
	switch k := ContentKind(code); k {
	case ContentKindBinary:
		return k, nil
	case ContentKindEmpty, ContentKindModel, ContentKindTexture:
		return k, fmt.Errorf("%w: %s", ErrUnsupportedContentKind, k)
	default:
		return k, fmt.Errorf("%w: %d", ErrInvalidContentKind, code)
	}
}
