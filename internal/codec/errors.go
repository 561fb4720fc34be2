package codec

import (
	"errors"
	"fmt"
	"io"
)

var (
	// ErrFormat means the input is not a well-formed file of the expected format.
	ErrFormat = errors.New("codec: malformed image data")

	// ErrUnsupported means the input uses a valid but unsupported feature
	// (compressed BMP, other bit depths, 16-bit PPM samples).
	ErrUnsupported = errors.New("codec: unsupported image variant")

	// ErrTruncated means the input ended before all pixel data was read.
	ErrTruncated = fmt.Errorf("%w: truncated data", ErrFormat)
)

// truncated converts short-read errors into ErrTruncated, keeping the
// original error in the chain.
func truncated(err error, what string) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: %s: %w", ErrTruncated, what, io.ErrUnexpectedEOF)
	}
	return fmt.Errorf("read %s: %w", what, err)
}
