// Package testutil builds synthetic dat containers for tests.
package testutil

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/klauspost/compress/flate"

	"github.com/ossyrian/sqparse/internal/sqpack"
)

// ContainerPrefix is the number of filler bytes written before the first file,
// so that no file starts at offset zero.
const ContainerPrefix = 0x800

// Block is one block of a synthetic file.
type Block struct {
	Data   []byte
	Stored bool   // write Data verbatim instead of deflating it
	Magic  uint32 // sub-header magic, 0 means sqpack.BlockMagic
}

// File is one logical file of a synthetic container.
type File struct {
	Kind   uint32 // content kind code, 0 means sqpack.ContentKindBinary
	Blocks []Block

	// UncompressedSize overrides the size declared in the header.
	// nil declares the real payload size.
	UncompressedSize *uint32
}

// Payload returns the concatenated block data of f.
func (f File) Payload() []byte {
	var out []byte
	for _, b := range f.Blocks {
		out = append(out, b.Data...)
	}
	return out
}

// Uint32 returns a pointer to v.
func Uint32(v uint32) *uint32 {
	return &v
}

// BuildContainer lays out files back to back after ContainerPrefix filler
// bytes and returns the container along with a descriptor for every file.
func BuildContainer(t testing.TB, files ...File) ([]byte, []sqpack.OffsetDescriptor) {
	t.Helper()

	buf := bytes.NewBuffer(bytes.Repeat([]byte{0xCC}, ContainerPrefix))
	descs := make([]sqpack.OffsetDescriptor, 0, len(files))

	for i, f := range files {
		descs = append(descs, sqpack.OffsetDescriptor{
			DataOffset: uint32(buf.Len()),
			FileHash:   uint32(i + 1),
		})
		buf.Write(buildFile(t, f))
		align(buf, sqpack.BlockPadding)
	}

	return buf.Bytes(), descs
}

func buildFile(t testing.TB, f File) []byte {
	t.Helper()

	kind := f.Kind
	if kind == 0 {
		kind = uint32(sqpack.ContentKindBinary)
	}

	var frames bytes.Buffer
	entries := make([]sqpack.BlockTableEntry, 0, len(f.Blocks))
	for _, b := range f.Blocks {
		start := frames.Len()
		blockSize := writeFrame(t, &frames, b)
		for frames.Len() < start+int(blockSize) {
			frames.WriteByte(0)
		}
		entries = append(entries, sqpack.BlockTableEntry{
			Offset:           uint32(start),
			BlockSize:        blockSize,
			DecompressedSize: uint16(len(b.Data)),
		})
	}

	size := uint32(len(f.Payload()))
	if f.UncompressedSize != nil {
		size = *f.UncompressedSize
	}

	headerLength := alignUp(sqpack.HeaderSize+len(entries)*sqpack.BlockEntrySize, sqpack.BlockPadding)

	var out bytes.Buffer
	for _, v := range []uint32{uint32(headerLength), kind, size, 0, 0x4000, uint32(len(entries))} {
		binary.Write(&out, binary.LittleEndian, v)
	}
	for _, e := range entries {
		binary.Write(&out, binary.LittleEndian, e)
	}
	align(&out, sqpack.BlockPadding)
	out.Write(frames.Bytes())

	return out.Bytes()
}

// writeFrame writes the sub-header and body of b and returns the smallest
// aligned block size whose computed frame length still fits inside it.
func writeFrame(t testing.TB, w *bytes.Buffer, b Block) uint16 {
	t.Helper()

	magic := b.Magic
	if magic == 0 {
		magic = sqpack.BlockMagic
	}

	fh := &sqpack.FrameHeader{
		CompressedLength:   sqpack.StoredThreshold,
		DecompressedLength: uint32(len(b.Data)),
	}
	body := b.Data
	if !b.Stored {
		body = Deflate(t, b.Data)
		fh.CompressedLength = uint32(len(body))
	}

	for _, v := range []uint32{magic, 0, fh.CompressedLength, fh.DecompressedLength} {
		binary.Write(w, binary.LittleEndian, v)
	}
	w.Write(body)

	blockSize := alignUp(sqpack.FrameHeaderSize+len(body), sqpack.BlockPadding)
	for sqpack.FrameHeaderSize+int(sqpack.FrameLength(fh, uint16(blockSize))) > blockSize {
		blockSize += sqpack.BlockPadding
	}
	return uint16(blockSize)
}

// Deflate compresses data as a raw DEFLATE stream.
func Deflate(t testing.TB, data []byte) []byte {
	t.Helper()

	var buf bytes.Buffer
	fw, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		t.Fatalf("failed to create deflate writer: %v", err)
	}
	if _, err := fw.Write(data); err != nil {
		t.Fatalf("failed to deflate: %v", err)
	}
	if err := fw.Close(); err != nil {
		t.Fatalf("failed to close deflate writer: %v", err)
	}
	return buf.Bytes()
}

func alignUp(n, to int) int {
	return (n + to - 1) / to * to
}

func align(w *bytes.Buffer, to int) {
	for w.Len()%to != 0 {
		w.WriteByte(0)
	}
}
