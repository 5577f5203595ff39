package columnar

import (
	"os"
	"sort"
	"strings"

	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet"
	"github.com/apache/arrow-go/v18/parquet/compress"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/domvwt/parquet-inspector/pkg/errors"
)

// codecs maps codec names accepted on the command line to Parquet
// compression codecs.
var codecs = map[string]compress.Compression{
	"snappy": compress.Codecs.Snappy,
	"gzip":   compress.Codecs.Gzip,
	"zstd":   compress.Codecs.Zstd,
	"brotli": compress.Codecs.Brotli,
	"none":   compress.Codecs.Uncompressed,
}

// CompressionCodecs lists the accepted codec names in sorted order.
func CompressionCodecs() []string {
	names := make([]string, 0, len(codecs))
	for name := range codecs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// WriteTable writes the table to a Parquet file, one buffered row group
// per batch. The table must not carry a selection; convert full tables
// only.
func WriteTable(t *Table, path string, compression string) error {
	codec, ok := codecs[strings.ToLower(compression)]
	if !ok {
		return errors.Newf(errors.ErrorTypeConfig,
			"unsupported compression codec: %s", compression)
	}
	if t.sel != nil {
		return errors.New(errors.ErrorTypeInternal, "cannot write a filtered or sliced table")
	}

	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrorTypeSource, "failed to create: %s", path)
	}

	props := parquet.NewWriterProperties(
		parquet.WithCompression(codec),
		parquet.WithDictionaryDefault(true),
		parquet.WithDataPageSize(1024*1024),
	)
	// Storing the Arrow schema in the footer keeps list field names and
	// timestamp units stable across a write/read round trip.
	arrowProps := pqarrow.NewArrowWriterProperties(
		pqarrow.WithAllocator(memory.NewGoAllocator()),
		pqarrow.WithStoreSchema(),
	)
	fw, err := pqarrow.NewFileWriter(t.schema, f, props, arrowProps)
	if err != nil {
		f.Close()
		return errors.Wrapf(err, errors.ErrorTypeData, "failed to create parquet writer: %s", path)
	}

	for _, rec := range t.batches {
		if err := fw.WriteBuffered(rec); err != nil {
			fw.Close()
			return errors.Wrapf(err, errors.ErrorTypeData, "failed to write: %s", path)
		}
	}
	// Close writes the footer and closes the underlying file.
	if err := fw.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrorTypeData, "failed to write: %s", path)
	}
	return nil
}
