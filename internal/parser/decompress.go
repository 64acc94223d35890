package parser

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/flate"

	"github.com/ossyrian/sqparse/internal/sqpack"
)

// inflaters holds raw DEFLATE readers for reuse across blocks.
var inflaters = sync.Pool{
	New: func() any {
		return flate.NewReader(nil)
	},
}

// inflate decodes a raw DEFLATE stream. Trailing padding after the final
// block is ignored. sizeHint only preallocates the output; at most limit
// bytes are decoded.
func inflate(src []byte, sizeHint int, limit int64) ([]byte, error) {
	fr := inflaters.Get().(io.ReadCloser)
	defer inflaters.Put(fr)

	if err := fr.(flate.Resetter).Reset(bytes.NewReader(src), nil); err != nil {
		return nil, fmt.Errorf("%w: %w", sqpack.ErrDecompression, err)
	}

	out := bytes.NewBuffer(make([]byte, 0, sizeHint))
	if _, err := out.ReadFrom(io.LimitReader(fr, limit)); err != nil {
		return nil, fmt.Errorf("%w: %w", sqpack.ErrDecompression, err)
	}

	return out.Bytes(), nil
}
