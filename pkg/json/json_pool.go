// Package json provides pooled buffers and encoding helpers for the row
// rendering paths. Every row a command prints is built as one JSON line
// in a pooled buffer, so large scans reuse a handful of allocations
// instead of churning the heap.
package json

import (
	"bytes"
	"io"
	"sync"

	gojson "github.com/goccy/go-json"
)

// Buffers larger than this are dropped instead of pooled so one huge row
// cannot pin memory for the rest of the run.
const maxPooledBuffer = 1024 * 1024

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// GetBuffer returns an empty buffer from the pool.
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool.
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > maxPooledBuffer {
		return
	}
	bufferPool.Put(buf)
}

// AppendString appends the JSON encoding of s (quoted and escaped) to
// buf. HTML characters are left alone so strings round-trip byte for
// byte through the converters.
func AppendString(buf *bytes.Buffer, s string) error {
	data, err := gojson.MarshalWithOption(s, gojson.DisableHTMLEscape())
	if err != nil {
		return err
	}
	buf.Write(data)
	return nil
}

// NewLineDecoder returns a decoder configured for JSON Lines input.
// Numbers decode as gojson.Number so int64 values survive the trip
// through interface{} without losing precision to float64.
func NewLineDecoder(r io.Reader) *gojson.Decoder {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	return dec
}
