package sqpack

import (
	"encoding/binary"
	"fmt"
)

// DecodeHeader decodes a file header from buf, which must hold at least
// HeaderSize bytes. The content kind is validated; the header is still
// returned alongside a content kind error so callers can log it.
func DecodeHeader(buf []byte) (*Header, error) {
	if len(buf) < HeaderSize {
		return nil, fmt.Errorf("header data too short: need %d, got %d", HeaderSize, len(buf))
	}

	h := &Header{
		HeaderLength:     binary.LittleEndian.Uint32(buf[0:4]),
		UncompressedSize: binary.LittleEndian.Uint32(buf[8:12]),
		// buf[12:16] is reserved
		BlockBufferSize: binary.LittleEndian.Uint32(buf[16:20]),
		NumBlocks:       binary.LittleEndian.Uint32(buf[20:24]),
	}

	kind, err := ParseContentKind(binary.LittleEndian.Uint32(buf[4:8]))
	h.ContentKind = kind
	if err != nil {
		return h, err
	}

	return h, nil
}

// DecodeBlockTable decodes count block table entries from buf.
func DecodeBlockTable(buf []byte, count int) ([]BlockTableEntry, error) {
	if len(buf) < count*BlockEntrySize {
		return nil, fmt.Errorf("block table too short: need %d, got %d", count*BlockEntrySize, len(buf))
	}

	entries := make([]BlockTableEntry, count)
	for i := range entries {
		b := buf[i*BlockEntrySize:]
		entries[i] = BlockTableEntry{
			Offset:           binary.LittleEndian.Uint32(b[0:4]),
			BlockSize:        binary.LittleEndian.Uint16(b[4:6]),
			DecompressedSize: binary.LittleEndian.Uint16(b[6:8]),
		}
	}
	return entries, nil
}

// DecodeFrameHeader decodes a block sub-header and checks its magic.
func DecodeFrameHeader(buf []byte) (*FrameHeader, error) {
	if len(buf) < FrameHeaderSize {
		return nil, fmt.Errorf("frame header too short: need %d, got %d", FrameHeaderSize, len(buf))
	}

	h := &FrameHeader{
		Magic: binary.LittleEndian.Uint32(buf[0:4]),
		// buf[4:8] is reserved
		CompressedLength:   binary.LittleEndian.Uint32(buf[8:12]),
		DecompressedLength: binary.LittleEndian.Uint32(buf[12:16]),
	}
	if h.Magic != BlockMagic {
		return nil, fmt.Errorf("%w: expected 0x%X, got 0x%X", ErrMagicMissing, BlockMagic, h.Magic)
	}
	return h, nil
}

// FrameLength returns how many bytes follow the sub-header of a frame
// whose table entry declares blockSize.
//
// Stored frames are exactly DecompressedLength bytes. Compressed frames are
// padded to BlockPadding unless blockSize+16 is already aligned; the padding
// term uses uint32 wraparound for blockSize below 16.
func FrameLength(h *FrameHeader, blockSize uint16) uint32 {
	if !h.Compressed() {
		return h.DecompressedLength
	}

	size := uint32(blockSize)
	if (size+FrameHeaderSize)%BlockPadding == 0 {
		return h.CompressedLength
	}
	return h.CompressedLength + BlockPadding - ((size - FrameHeaderSize) % BlockPadding)
}

// BlockOffset returns the absolute position of a block frame.
func BlockOffset(dataOffset uint32, h *Header, e BlockTableEntry) int64 {
	return int64(dataOffset) + int64(h.HeaderLength) + int64(e.Offset)
}
