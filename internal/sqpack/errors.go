package sqpack

import "errors"

var (
	// ErrRead is returned when the container could not be read.
	ErrRead = errors.New("failed to read container")

	// ErrMagicMissing is returned when a block sub-header does not start with BlockMagic.
	ErrMagicMissing = errors.New("block magic missing")

	// ErrUnsupportedContentKind is returned for reserved content kinds this decoder does not handle.
	ErrUnsupportedContentKind = errors.New("unsupported content kind")

	// ErrInvalidContentKind is returned for content kind codes outside the known range.
	ErrInvalidContentKind = errors.New("invalid content kind")

	// ErrTableTooLarge is returned when a header declares more blocks than the container can hold.
	ErrTableTooLarge = errors.New("block table too large")

	// ErrFrameTooLarge is returned when a block sub-header declares a frame
	// longer than MaxFrameLength.
	ErrFrameTooLarge = errors.New("block frame too large")

	// ErrDecompression is returned when a block's DEFLATE stream is malformed.
	ErrDecompression = errors.New("decompression failed")

	// ErrSizeMismatch is returned when the reassembled payload size does not
	// match the size declared in the header.
	ErrSizeMismatch = errors.New("payload size mismatch")
)
