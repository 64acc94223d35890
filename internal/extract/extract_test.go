package extract_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ossyrian/sqparse/internal/extract"
	"github.com/ossyrian/sqparse/internal/parser"
	"github.com/ossyrian/sqparse/internal/sqpack"
	"github.com/ossyrian/sqparse/internal/testutil"
)

func testFiles() []testutil.File {
	return []testutil.File{
		{Blocks: []testutil.Block{
			{Data: bytes.Repeat([]byte("abcdefghij"), 10)},
			{Data: bytes.Repeat([]byte{1, 2, 3, 4, 5}, 10), Stored: true},
		}},
		{Blocks: []testutil.Block{{Data: bytes.Repeat([]byte("bgm_0"), 2000)}}},
		{Blocks: []testutil.Block{{Data: []byte("exh"), Stored: true}}},
	}
}

func newExtractor(t *testing.T, data []byte, opts ...extract.Option) *extract.Extractor {
	t.Helper()
	e, err := extract.New(parser.NewDatReader(bytes.NewReader(data), nil), opts...)
	require.NoError(t, err)
	return e
}

func TestExtractor_ExtractAll(t *testing.T) {
	files := testFiles()
	data, descs := testutil.BuildContainer(t, files...)
	dir := filepath.Join(t.TempDir(), "out")

	e := newExtractor(t, data, extract.WithOutputDir(dir), extract.WithWorkers(2))
	results, err := e.ExtractAll(context.Background(), descs)
	require.NoError(t, err)
	require.Len(t, results, len(files))

	for i, res := range results {
		want := files[i].Payload()
		assert.Equal(t, descs[i], res.Descriptor)
		assert.Equal(t, len(want), res.Size)
		assert.Equal(t, digest.FromBytes(want), res.Digest)
		assert.False(t, res.Cached)
		assert.Equal(t, filepath.Join(dir, extract.FileName(descs[i])), res.Path)

		written, err := os.ReadFile(res.Path)
		require.NoError(t, err)
		assert.Equal(t, want, written)
	}
}

func TestExtractor_Cache(t *testing.T) {
	data, descs := testutil.BuildContainer(t, testFiles()...)

	t.Run("hit", func(t *testing.T) {
		e := newExtractor(t, data, extract.WithWorkers(1))
		results, err := e.ExtractAll(context.Background(), []sqpack.OffsetDescriptor{descs[1], descs[1]})
		require.NoError(t, err)
		assert.False(t, results[0].Cached)
		assert.True(t, results[1].Cached)
		assert.Equal(t, results[0].Digest, results[1].Digest)
	})

	t.Run("disabled", func(t *testing.T) {
		e := newExtractor(t, data, extract.WithWorkers(1), extract.WithCacheSize(0))
		results, err := e.ExtractAll(context.Background(), []sqpack.OffsetDescriptor{descs[1], descs[1]})
		require.NoError(t, err)
		assert.False(t, results[0].Cached)
		assert.False(t, results[1].Cached)
	})

	t.Run("extract", func(t *testing.T) {
		e := newExtractor(t, data)
		first, err := e.Extract(descs[0])
		require.NoError(t, err)
		second, err := e.Extract(descs[0])
		require.NoError(t, err)
		assert.Equal(t, first, second)
		assert.Len(t, second, 150)
	})
}

func TestExtractor_Failure(t *testing.T) {
	files := testFiles()
	files[1].UncompressedSize = testutil.Uint32(1)
	data, descs := testutil.BuildContainer(t, files...)

	e := newExtractor(t, data)
	results, err := e.ExtractAll(context.Background(), descs)
	assert.ErrorIs(t, err, sqpack.ErrSizeMismatch)
	assert.Contains(t, err.Error(), descs[1].String())
	assert.Nil(t, results)

	// a failed extraction is not cached
	_, err = e.Extract(descs[1])
	assert.ErrorIs(t, err, sqpack.ErrSizeMismatch)
}

func TestExtractor_Canceled(t *testing.T) {
	data, descs := testutil.BuildContainer(t, testFiles()...)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := newExtractor(t, data).ExtractAll(ctx, descs)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results)
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "00000800.bin", extract.FileName(sqpack.OffsetDescriptor{DataOffset: 0x800}))
	assert.Equal(t, "e39b7999_a41d4329_00000800.bin",
		extract.FileName(sqpack.OffsetDescriptor{DataOffset: 0x800, FolderHash: 0xE39B7999, FileHash: 0xA41D4329}))
}
