package columnar

import (
	"bufio"
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/domvwt/parquet-inspector/pkg/errors"
	"github.com/domvwt/parquet-inspector/pkg/json"
)

// WriteRows renders every selected row as a JSON object, one per line,
// in schema field order. Members are separated by ", " and keys from
// values by ": ". Non-finite floats are emitted bare as NaN, Infinity
// and -Infinity, so a line is not always strict JSON.
func (t *Table) WriteRows(w io.Writer) error {
	bw := bufio.NewWriterSize(w, 64*1024)
	buf := json.GetBuffer()
	defer json.PutBuffer(buf)

	err := t.forEachRow(func(rec arrow.Record, row int) error {
		buf.Reset()
		if err := appendRowJSON(buf, rec, row); err != nil {
			return err
		}
		buf.WriteByte('\n')
		_, werr := bw.Write(buf.Bytes())
		return werr
	})
	if err != nil {
		return err
	}
	return bw.Flush()
}

func appendRowJSON(buf *bytes.Buffer, rec arrow.Record, row int) error {
	buf.WriteByte('{')
	for i := 0; i < int(rec.NumCols()); i++ {
		if i > 0 {
			buf.WriteString(", ")
		}
		if err := json.AppendString(buf, rec.Schema().Field(i).Name); err != nil {
			return err
		}
		buf.WriteString(": ")
		if err := appendValueJSON(buf, rec.Column(i), row); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

func appendValueJSON(buf *bytes.Buffer, arr arrow.Array, row int) error {
	if arr.IsNull(row) {
		buf.WriteString("null")
		return nil
	}
	switch a := arr.(type) {
	case *array.Boolean:
		if a.Value(row) {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case *array.Int8:
		appendInt(buf, int64(a.Value(row)))
	case *array.Int16:
		appendInt(buf, int64(a.Value(row)))
	case *array.Int32:
		appendInt(buf, int64(a.Value(row)))
	case *array.Int64:
		appendInt(buf, a.Value(row))
	case *array.Uint8:
		appendUint(buf, uint64(a.Value(row)))
	case *array.Uint16:
		appendUint(buf, uint64(a.Value(row)))
	case *array.Uint32:
		appendUint(buf, uint64(a.Value(row)))
	case *array.Uint64:
		appendUint(buf, a.Value(row))
	case *array.Float32:
		appendFloat(buf, float64(a.Value(row)), 32)
	case *array.Float64:
		appendFloat(buf, a.Value(row), 64)
	case *array.String:
		return json.AppendString(buf, a.Value(row))
	case *array.LargeString:
		return json.AppendString(buf, a.Value(row))
	case *array.Binary:
		return appendBinary(buf, a.Value(row))
	case *array.LargeBinary:
		return appendBinary(buf, a.Value(row))
	case *array.FixedSizeBinary:
		return appendBinary(buf, a.Value(row))
	case *array.Date32:
		appendQuoted(buf, time.Unix(int64(a.Value(row))*86400, 0).UTC().Format("2006-01-02"))
	case *array.Date64:
		appendQuoted(buf, time.UnixMilli(int64(a.Value(row))).UTC().Format("2006-01-02"))
	case *array.Timestamp:
		return appendTimestamp(buf, a, row)
	case *array.Time32:
		unit := a.DataType().(*arrow.Time32Type).Unit
		appendQuoted(buf, formatTimeOfDay(int64(a.Value(row)), unit))
	case *array.Time64:
		unit := a.DataType().(*arrow.Time64Type).Unit
		appendQuoted(buf, formatTimeOfDay(int64(a.Value(row)), unit))
	case *array.Decimal128:
		scale := a.DataType().(*arrow.Decimal128Type).Scale
		appendQuoted(buf, a.Value(row).ToString(scale))
	case *array.Map:
		return appendMap(buf, a, row)
	case *array.List:
		start, end := a.ValueOffsets(row)
		return appendListRange(buf, a.ListValues(), start, end)
	case *array.LargeList:
		start, end := a.ValueOffsets(row)
		return appendListRange(buf, a.ListValues(), start, end)
	case *array.Struct:
		return appendStruct(buf, a, row)
	default:
		return errors.Newf(errors.ErrorTypeData,
			"unsupported type for JSON output: %s", arr.DataType())
	}
	return nil
}

func appendInt(buf *bytes.Buffer, v int64) {
	buf.WriteString(strconv.FormatInt(v, 10))
}

func appendUint(buf *bytes.Buffer, v uint64) {
	buf.WriteString(strconv.FormatUint(v, 10))
}

// appendFloat renders floats the way a lenient JSON encoder does:
// shortest round-trip form, integral values with a trailing ".0", and
// bare NaN / Infinity / -Infinity for the non-finite values.
func appendFloat(buf *bytes.Buffer, v float64, bitSize int) {
	switch {
	case math.IsNaN(v):
		buf.WriteString("NaN")
	case math.IsInf(v, 1):
		buf.WriteString("Infinity")
	case math.IsInf(v, -1):
		buf.WriteString("-Infinity")
	case v == math.Trunc(v) && math.Abs(v) < 1e16:
		buf.WriteString(strconv.FormatFloat(v, 'f', 1, bitSize))
	default:
		buf.WriteString(strconv.FormatFloat(v, 'g', -1, bitSize))
	}
}

func appendBinary(buf *bytes.Buffer, b []byte) error {
	return json.AppendString(buf, base64.StdEncoding.EncodeToString(b))
}

func appendQuoted(buf *bytes.Buffer, s string) {
	buf.WriteByte('"')
	buf.WriteString(s)
	buf.WriteByte('"')
}

func appendTimestamp(buf *bytes.Buffer, a *array.Timestamp, row int) error {
	typ := a.DataType().(*arrow.TimestampType)
	ts := tsToTime(a.Value(row), typ.Unit)

	var b strings.Builder
	if typ.TimeZone == "" {
		ts = ts.UTC()
		b.WriteString(ts.Format("2006-01-02 15:04:05"))
		writeMicros(&b, ts.Nanosecond())
	} else {
		ts = ts.In(timestampLocation(typ.TimeZone))
		b.WriteString(ts.Format("2006-01-02 15:04:05"))
		writeMicros(&b, ts.Nanosecond())
		b.WriteString(ts.Format("-07:00"))
	}
	appendQuoted(buf, b.String())
	return nil
}

// tsToTime converts a raw timestamp value to a time.Time in UTC.
func tsToTime(ts arrow.Timestamp, unit arrow.TimeUnit) time.Time {
	switch unit {
	case arrow.Second:
		return time.Unix(int64(ts), 0).UTC()
	case arrow.Millisecond:
		return time.Unix(0, int64(ts)*int64(time.Millisecond)).UTC()
	case arrow.Microsecond:
		return time.Unix(0, int64(ts)*int64(time.Microsecond)).UTC()
	default:
		return time.Unix(0, int64(ts)).UTC()
	}
}

// timestampLocation resolves an Arrow timezone string, falling back to
// UTC when the zone database does not know the name.
func timestampLocation(tz string) *time.Location {
	if tz == "UTC" || tz == "" {
		return time.UTC
	}
	if loc, err := time.LoadLocation(tz); err == nil {
		return loc
	}
	if off, ok := parseZoneOffset(tz); ok {
		return time.FixedZone(tz, off)
	}
	return time.UTC
}

// parseZoneOffset parses fixed offsets of the form +HH:MM or -HH:MM.
func parseZoneOffset(tz string) (int, bool) {
	if len(tz) != 6 || (tz[0] != '+' && tz[0] != '-') || tz[3] != ':' {
		return 0, false
	}
	hh, err := strconv.Atoi(tz[1:3])
	if err != nil {
		return 0, false
	}
	mm, err := strconv.Atoi(tz[4:6])
	if err != nil {
		return 0, false
	}
	off := hh*3600 + mm*60
	if tz[0] == '-' {
		off = -off
	}
	return off, true
}

// writeMicros appends a 6-digit fractional-second suffix when the
// sub-second part is non-zero at microsecond precision.
func writeMicros(b *strings.Builder, nanos int) {
	micros := nanos / 1000
	if micros != 0 {
		fmt.Fprintf(b, ".%06d", micros)
	}
}

// formatTimeOfDay renders a time32/time64 value as HH:MM:SS with an
// optional 6-digit fraction.
func formatTimeOfDay(v int64, unit arrow.TimeUnit) string {
	var nanos int64
	switch unit {
	case arrow.Second:
		nanos = v * int64(time.Second)
	case arrow.Millisecond:
		nanos = v * int64(time.Millisecond)
	case arrow.Microsecond:
		nanos = v * int64(time.Microsecond)
	default:
		nanos = v
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%02d:%02d:%02d",
		nanos/int64(time.Hour),
		nanos/int64(time.Minute)%60,
		nanos/int64(time.Second)%60)
	writeMicros(&b, int(nanos%int64(time.Second)))
	return b.String()
}

func appendListRange(buf *bytes.Buffer, values arrow.Array, start, end int64) error {
	buf.WriteByte('[')
	for i := start; i < end; i++ {
		if i > start {
			buf.WriteString(", ")
		}
		if err := appendValueJSON(buf, values, int(i)); err != nil {
			return err
		}
	}
	buf.WriteByte(']')
	return nil
}

func appendStruct(buf *bytes.Buffer, a *array.Struct, row int) error {
	fields := a.DataType().(*arrow.StructType).Fields()
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteString(", ")
		}
		if err := json.AppendString(buf, f.Name); err != nil {
			return err
		}
		buf.WriteString(": ")
		if err := appendValueJSON(buf, a.Field(i), row); err != nil {
			return err
		}
	}
	buf.WriteByte('}')
	return nil
}

// appendMap renders a map cell as [[key, value], ...] pairs, matching
// how map columns convert to plain JSON-friendly lists.
func appendMap(buf *bytes.Buffer, a *array.Map, row int) error {
	start, end := a.ValueOffsets(row)
	keys, items := a.Keys(), a.Items()
	buf.WriteByte('[')
	for i := start; i < end; i++ {
		if i > start {
			buf.WriteString(", ")
		}
		buf.WriteByte('[')
		if err := appendValueJSON(buf, keys, int(i)); err != nil {
			return err
		}
		buf.WriteString(", ")
		if err := appendValueJSON(buf, items, int(i)); err != nil {
			return err
		}
		buf.WriteByte(']')
	}
	buf.WriteByte(']')
	return nil
}
