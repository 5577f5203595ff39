// Package compression provides transparent stream compression for the
// JSONL converter paths. The codec is selected by file name: paths ending
// in ".gz" read and write gzip streams, everything else passes through
// untouched. File ownership stays with the caller; the wrappers returned
// here never close the underlying stream.
package compression

import (
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// Compressed reports whether path names a gzip-compressed stream.
func Compressed(path string) bool {
	return strings.HasSuffix(path, ".gz")
}

// NewReader wraps r with the decompressor that path calls for. For
// uncompressed paths the reader is returned as-is behind a no-op Close.
// Close the returned reader before the underlying stream.
func NewReader(path string, r io.Reader) (io.ReadCloser, error) {
	if !Compressed(path) {
		return io.NopCloser(r), nil
	}
	return gzip.NewReader(r)
}

// NewWriter wraps w with the compressor that path calls for. Closing the
// returned writer flushes and terminates the compressed stream but leaves
// the underlying writer open.
func NewWriter(path string, w io.Writer) io.WriteCloser {
	if !Compressed(path) {
		return nopWriteCloser{w}
	}
	return gzip.NewWriter(w)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
