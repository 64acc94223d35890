package parser

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ossyrian/sqparse/internal/sqpack"
)

// maxPrealloc caps the payload buffer allocated up front. Sizes in the
// header and block table are untrusted, so larger payloads grow as blocks
// are actually read.
const maxPrealloc = 16 << 20

// sizer is implemented by in-memory sources such as *bytes.Reader
// and *io.SectionReader.
type sizer interface {
	Size() int64
}

// DatReader reads logical files from a dat container.
//
// All reads are positional (io.ReaderAt), so a DatReader never moves the
// cursor of the underlying file and is safe for concurrent use as long as
// the file is not written to.
type DatReader struct {
	file   io.ReaderAt
	size   int64 // container size in bytes, -1 if unknown
	logger *slog.Logger
}

// NewDatReader creates a DatReader over file. The container size is taken
// from file when it can report one and is used to reject corrupt lengths
// before allocating.
func NewDatReader(file io.ReaderAt, logger *slog.Logger) *DatReader {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	r := &DatReader{
		file:   file,
		size:   -1,
		logger: logger,
	}

	switch f := file.(type) {
	case *os.File:
		if fi, err := f.Stat(); err == nil && fi.Mode().IsRegular() {
			r.size = fi.Size()
		}
	case sizer:
		r.size = f.Size()
	}

	return r
}

// Size returns the container size, or -1 if it is unknown.
func (r *DatReader) Size() int64 {
	return r.size
}

// readAt fills buf from off. Anything short of a full buffer is an error.
func (r *DatReader) readAt(buf []byte, off int64, what string) error {
	n, err := r.file.ReadAt(buf, off)
	if n == len(buf) {
		return nil
	}
	if err == nil || err == io.EOF {
		err = io.ErrUnexpectedEOF
	}
	return fmt.Errorf("%w: failed to read %s at offset %d: %w", sqpack.ErrRead, what, off, err)
}

// fits reports whether n bytes starting at off lie inside the container.
// It always succeeds when the size is unknown.
func (r *DatReader) fits(off, n int64) bool {
	return r.size < 0 || off+n <= r.size
}

// ReadHeader reads the header of the file located by desc.
// Content kinds other than sqpack.ContentKindBinary are rejected.
func (r *DatReader) ReadHeader(desc sqpack.OffsetDescriptor) (*sqpack.Header, error) {
	var buf [sqpack.HeaderSize]byte
	if err := r.readAt(buf[:], int64(desc.DataOffset), "header"); err != nil {
		return nil, err
	}

	h, err := sqpack.DecodeHeader(buf[:])
	if err != nil {
		return nil, fmt.Errorf("invalid header at %s: %w", desc, err)
	}

	r.logger.Debug("read header",
		"offset", desc.String(),
		"header_length", h.HeaderLength,
		"content_kind", h.ContentKind.String(),
		"uncompressed_size", h.UncompressedSize,
		"block_buffer_size", h.BlockBufferSize,
		"num_blocks", h.NumBlocks,
	)

	return h, nil
}

// ReadBlockTable reads the block table of the file located by desc.
// The table starts right after the fixed header fields, not at
// h.HeaderLength.
func (r *DatReader) ReadBlockTable(desc sqpack.OffsetDescriptor, h *sqpack.Header) ([]sqpack.BlockTableEntry, error) {
	off := int64(desc.DataOffset) + sqpack.HeaderSize
	span := int64(h.NumBlocks) * sqpack.BlockEntrySize

	if h.NumBlocks > sqpack.MaxBlocks || !r.fits(off, span) {
		return nil, fmt.Errorf("%w: %d blocks at %s", sqpack.ErrTableTooLarge, h.NumBlocks, desc)
	}

	buf := make([]byte, span)
	if err := r.readAt(buf, off, "block table"); err != nil {
		return nil, err
	}

	entries, err := sqpack.DecodeBlockTable(buf, int(h.NumBlocks))
	if err != nil {
		return nil, fmt.Errorf("invalid block table at %s: %w", desc, err)
	}

	r.logger.Debug("read block table",
		"offset", desc.String(),
		"entries", len(entries),
	)

	return entries, nil
}

// ReadBlockFrame reads the frame of one block. offset is the absolute
// position of the block sub-header and blockSize the size declared by the
// block table entry.
func (r *DatReader) ReadBlockFrame(offset int64, blockSize uint16) (*sqpack.Frame, error) {
	var hdr [sqpack.FrameHeaderSize]byte
	if err := r.readAt(hdr[:], offset, "block header"); err != nil {
		return nil, err
	}

	fh, err := sqpack.DecodeFrameHeader(hdr[:])
	if err != nil {
		return nil, fmt.Errorf("invalid block at offset %d: %w", offset, err)
	}

	length := int64(sqpack.FrameLength(fh, blockSize))
	if length > sqpack.MaxFrameLength {
		return nil, fmt.Errorf("%w: block at offset %d declares %d bytes", sqpack.ErrFrameTooLarge, offset, length)
	}

	dataOff := offset + sqpack.FrameHeaderSize
	if !r.fits(dataOff, length) {
		return nil, fmt.Errorf("%w: block at offset %d needs %d bytes past the end of the container: %w",
			sqpack.ErrRead, offset, dataOff+length-r.size, io.ErrUnexpectedEOF)
	}

	data := make([]byte, length)
	if err := r.readAt(data, dataOff, "block data"); err != nil {
		return nil, err
	}

	r.logger.Debug("read block frame",
		"block_offset", offset,
		"block_size", blockSize,
		"compressed", fh.Compressed(),
		"compressed_length", fh.CompressedLength,
		"decompressed_length", fh.DecompressedLength,
		"frame_length", length,
	)

	return &sqpack.Frame{Data: data, Compressed: fh.Compressed()}, nil
}

// Reassemble reads every block listed in table, decompressing where needed,
// and concatenates them in table order. The result must add up to
// h.UncompressedSize; otherwise sqpack.ErrSizeMismatch is returned and no
// payload.
func (r *DatReader) Reassemble(desc sqpack.OffsetDescriptor, h *sqpack.Header, table []sqpack.BlockTableEntry) ([]byte, error) {
	var hint int
	for _, e := range table {
		hint += int(e.DecompressedSize)
	}
	payload := make([]byte, 0, min(hint, int(h.UncompressedSize), maxPrealloc))

	declared := uint64(h.UncompressedSize)
	var total uint64
	for i, e := range table {
		off := sqpack.BlockOffset(desc.DataOffset, h, e)

		frame, err := r.ReadBlockFrame(off, e.BlockSize)
		if err != nil {
			return nil, fmt.Errorf("failed to read block %d of %s: %w", i, desc, err)
		}

		remaining := declared - total
		data := frame.Data
		if frame.Compressed {
			// one byte past the remaining budget is enough to detect overflow
			data, err = inflate(frame.Data, int(e.DecompressedSize), int64(remaining)+1)
			if err != nil {
				return nil, fmt.Errorf("failed to decompress block %d of %s: %w", i, desc, err)
			}
		}

		if uint64(len(data)) > remaining {
			return nil, fmt.Errorf("%w: %s exceeds the declared %d bytes at block %d",
				sqpack.ErrSizeMismatch, desc, declared, i)
		}

		total += uint64(len(data))
		payload = append(payload, data...)
	}

	if total != uint64(h.UncompressedSize) {
		return nil, fmt.Errorf("%w: %s reassembled to %d bytes, header declares %d",
			sqpack.ErrSizeMismatch, desc, total, h.UncompressedSize)
	}

	return payload, nil
}

// ReadFile extracts the complete payload of the file located by desc.
func (r *DatReader) ReadFile(desc sqpack.OffsetDescriptor) ([]byte, error) {
	h, err := r.ReadHeader(desc)
	if err != nil {
		return nil, err
	}

	table, err := r.ReadBlockTable(desc, h)
	if err != nil {
		return nil, err
	}

	payload, err := r.Reassemble(desc, h, table)
	if err != nil {
		return nil, err
	}

	r.logger.Info("extracted file",
		"offset", desc.String(),
		"content_kind", h.ContentKind.String(),
		"blocks", len(table),
		"size", len(payload),
	)

	return payload, nil
}
