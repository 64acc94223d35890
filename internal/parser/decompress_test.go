package parser

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ossyrian/sqparse/internal/sqpack"
	"github.com/ossyrian/sqparse/internal/testutil"
)

func TestInflate(t *testing.T) {
	original := []byte("hello world, this is a test of raw deflate blocks")
	compressed := testutil.Deflate(t, original)

	t.Run("basic decode", func(t *testing.T) {
		got, err := inflate(compressed, len(original), 1<<20)
		require.NoError(t, err)
		assert.Equal(t, original, got)
	})

	t.Run("ignores padding", func(t *testing.T) {
		padded := append(bytes.Clone(compressed), make([]byte, 100)...)
		got, err := inflate(padded, 0, 1<<20)
		require.NoError(t, err)
		assert.Equal(t, original, got)
	})

	t.Run("decoder reuse", func(t *testing.T) {
		for i := range 5 {
			got, err := inflate(compressed, len(original), 1<<20)
			require.NoError(t, err, "iteration %d", i)
			assert.Equal(t, original, got, "iteration %d", i)
		}
	})

	t.Run("truncated stream", func(t *testing.T) {
		_, err := inflate(compressed[:len(compressed)/2], len(original), 1<<20)
		assert.ErrorIs(t, err, sqpack.ErrDecompression)
	})

	t.Run("reserved block type", func(t *testing.T) {
		_, err := inflate([]byte{0xFF, 0x00, 0x00}, 10, 1<<20)
		assert.ErrorIs(t, err, sqpack.ErrDecompression)
	})
}

func TestInflate_Limit(t *testing.T) {
	original := bytes.Repeat([]byte{0}, 4096)
	compressed := testutil.Deflate(t, original)

	got, err := inflate(compressed, 0, 101)
	require.NoError(t, err)
	assert.Len(t, got, 101)
}
