package columnar

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"

	"github.com/domvwt/parquet-inspector/pkg/errors"
)

// FileDescription summarizes the footer metadata of a single Parquet
// file.
type FileDescription struct {
	CreatedBy      string
	NumColumns     int
	NumRows        int64
	NumRowGroups   int
	FormatVersion  string
	SerializedSize int64
}

// String renders the description in the conventional key: value layout,
// one field per line, without a trailing newline.
func (d *FileDescription) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "created_by: %s\n", d.CreatedBy)
	fmt.Fprintf(&b, "num_columns: %d\n", d.NumColumns)
	fmt.Fprintf(&b, "num_rows: %d\n", d.NumRows)
	fmt.Fprintf(&b, "num_row_groups: %d\n", d.NumRowGroups)
	fmt.Fprintf(&b, "format_version: %s\n", d.FormatVersion)
	fmt.Fprintf(&b, "serialized_size: %d", d.SerializedSize)
	return b.String()
}

// DescribeFile reads the footer metadata of a single Parquet file.
// Directories and unreadable paths are source errors so callers can
// steer users toward a concrete partition file.
func DescribeFile(path string) (*FileDescription, error) {
	if err := statFile(path); err != nil {
		return nil, err
	}
	fr, err := file.OpenParquetFile(path, false)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeData, "failed to open parquet file: %s", path)
	}
	defer fr.Close()

	size, err := footerSize(path)
	if err != nil {
		return nil, err
	}

	md := fr.MetaData()
	return &FileDescription{
		CreatedBy:      md.GetCreatedBy(),
		NumColumns:     md.Schema.NumColumns(),
		NumRows:        fr.NumRows(),
		NumRowGroups:   fr.NumRowGroups(),
		FormatVersion:  formatVersion(md.FileMetaData.Version),
		SerializedSize: size,
	}, nil
}

// ReadSchema reads the Arrow schema of a single Parquet file without
// materializing any rows.
func ReadSchema(path string, memoryMap bool) (*arrow.Schema, error) {
	if err := statFile(path); err != nil {
		return nil, err
	}
	fr, err := file.OpenParquetFile(path, memoryMap)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeData, "failed to open parquet file: %s", path)
	}
	defer fr.Close()

	ar, err := pqarrow.NewFileReader(fr, pqarrow.ArrowReadProperties{}, memory.NewGoAllocator())
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeData, "failed to open parquet file: %s", path)
	}
	schema, err := ar.Schema()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeData, "failed to read schema: %s", path)
	}
	return schema, nil
}

func statFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrorTypeSource, "failed to read: %s", path)
	}
	if info.IsDir() {
		return errors.Newf(errors.ErrorTypeSource, "not a parquet file: %s", path)
	}
	return nil
}

// formatVersion maps the footer version number to the usual spelling.
// Writers only record 1 or 2; the 2.x feature levels are not stored.
func formatVersion(v int32) string {
	switch v {
	case 1:
		return "1.0"
	case 2:
		return "2.6"
	default:
		return "1.0"
	}
}

// footerSize returns the length of the Thrift footer, taken from the
// 8-byte file trailer: a little-endian uint32 length followed by the
// PAR1 magic.
func footerSize(path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrapf(err, errors.ErrorTypeSource, "failed to read: %s", path)
	}
	defer f.Close()

	if _, err := f.Seek(-8, io.SeekEnd); err != nil {
		return 0, errors.Wrapf(err, errors.ErrorTypeData, "not a parquet file: %s", path)
	}
	trailer := make([]byte, 8)
	if _, err := io.ReadFull(f, trailer); err != nil {
		return 0, errors.Wrapf(err, errors.ErrorTypeData, "not a parquet file: %s", path)
	}
	if string(trailer[4:]) != "PAR1" {
		return 0, errors.Newf(errors.ErrorTypeData, "not a parquet file: %s", path)
	}
	return int64(binary.LittleEndian.Uint32(trailer[:4])), nil
}

// FormatSchema renders an Arrow schema as the conventional tree: one
// "name: type" line per field, nested children expanded as indented
// "child N, name: type" lines.
func FormatSchema(s *arrow.Schema) string {
	var b strings.Builder
	for i, f := range s.Fields() {
		if i > 0 {
			b.WriteByte('\n')
		}
		writeFieldLine(&b, "", f, 0)
	}
	return b.String()
}

func writeFieldLine(b *strings.Builder, prefix string, f arrow.Field, depth int) {
	for i := 0; i < depth; i++ {
		b.WriteString("  ")
	}
	b.WriteString(prefix)
	b.WriteString(f.Name)
	b.WriteString(": ")
	b.WriteString(typeString(f.Type))
	if nested, ok := f.Type.(arrow.NestedType); ok {
		for i, child := range nested.Fields() {
			b.WriteByte('\n')
			writeFieldLine(b, fmt.Sprintf("child %d, ", i), child, depth+1)
		}
	}
}

// typeString spells a data type the way the Arrow ecosystem prints
// schemas across languages, which differs from the Go String() form for
// a handful of types.
func typeString(dt arrow.DataType) string {
	switch t := dt.(type) {
	case *arrow.StringType:
		return "string"
	case *arrow.LargeStringType:
		return "large_string"
	case *arrow.Float64Type:
		return "double"
	case *arrow.Float32Type:
		return "float"
	case *arrow.Float16Type:
		return "halffloat"
	case *arrow.Date32Type:
		return "date32[day]"
	case *arrow.Date64Type:
		return "date64[ms]"
	case *arrow.TimestampType:
		if t.TimeZone == "" {
			return fmt.Sprintf("timestamp[%s]", t.Unit)
		}
		return fmt.Sprintf("timestamp[%s, tz=%s]", t.Unit, t.TimeZone)
	case *arrow.Decimal128Type:
		return fmt.Sprintf("decimal128(%d, %d)", t.Precision, t.Scale)
	case *arrow.FixedSizeBinaryType:
		return fmt.Sprintf("fixed_size_binary[%d]", t.ByteWidth)
	case *arrow.ListType:
		elem := t.ElemField()
		return fmt.Sprintf("list<%s: %s>", elem.Name, typeString(elem.Type))
	case *arrow.LargeListType:
		elem := t.ElemField()
		return fmt.Sprintf("large_list<%s: %s>", elem.Name, typeString(elem.Type))
	case *arrow.MapType:
		return fmt.Sprintf("map<%s, %s>", typeString(t.KeyType()), typeString(t.ItemType()))
	case *arrow.StructType:
		parts := make([]string, 0, len(t.Fields()))
		for _, f := range t.Fields() {
			parts = append(parts, fmt.Sprintf("%s: %s", f.Name, typeString(f.Type)))
		}
		return fmt.Sprintf("struct<%s>", strings.Join(parts, ", "))
	default:
		return dt.String()
	}
}
