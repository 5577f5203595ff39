package columnar

import (
	"bufio"
	"bytes"
	"io"
	"os"

	"github.com/apache/arrow-go/v18/arrow"
	gojson "github.com/goccy/go-json"

	"github.com/domvwt/parquet-inspector/pkg/compression"
	"github.com/domvwt/parquet-inspector/pkg/errors"
	"github.com/domvwt/parquet-inspector/pkg/json"
)

// jsonValue is a decoded JSON value: nil, bool, gojson.Number, string,
// []jsonValue or *jsonObject.
type jsonValue interface{}

// jsonObject is a JSON object with member order preserved.
type jsonObject struct {
	keys []string
	vals map[string]jsonValue
}

// ReadJSONLines reads a JSON Lines file, gzip-compressed when the name
// ends in .gz, infers an Arrow schema from the values and materializes
// the rows into a Table. Blank lines are skipped; every other line must
// hold a single JSON object.
func ReadJSONLines(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeSource, "failed to read: %s", path)
	}
	defer f.Close()

	r, err := compression.NewReader(path, f)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeData, "failed to read gzip stream: %s", path)
	}
	defer r.Close()

	rows, err := decodeLines(r)
	if err != nil {
		return nil, err
	}
	schema, err := inferSchema(rows)
	if err != nil {
		return nil, err
	}
	rec, err := buildRecord(schema, rows)
	if err != nil {
		return nil, err
	}
	return NewTable(schema, []arrow.Record{rec}), nil
}

// WriteJSONLines writes the table as JSON Lines, gzip-compressed when
// the name ends in .gz.
func WriteJSONLines(t *Table, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrorTypeSource, "failed to create: %s", path)
	}

	w := compression.NewWriter(path, f)
	if err := t.WriteRows(w); err != nil {
		w.Close()
		f.Close()
		return err
	}
	if err := w.Close(); err != nil {
		f.Close()
		return errors.Wrapf(err, errors.ErrorTypeData, "failed to finish gzip stream: %s", path)
	}
	if err := f.Close(); err != nil {
		return errors.Wrapf(err, errors.ErrorTypeSource, "failed to close: %s", path)
	}
	return nil
}

func decodeLines(r io.Reader) ([]*jsonObject, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1024*1024), 64*1024*1024)

	var rows []*jsonObject
	line := 0
	for sc.Scan() {
		line++
		raw := bytes.TrimSpace(sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		obj, err := decodeObject(raw)
		if err != nil {
			return nil, errors.Wrapf(err, errors.ErrorTypeData, "line %d: invalid JSON object", line)
		}
		rows = append(rows, obj)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrorTypeData, "failed to scan input")
	}
	return rows, nil
}

// decodeObject parses one line through the token stream so member order
// survives; plain map decoding would scramble it.
func decodeObject(raw []byte) (*jsonObject, error) {
	dec := json.NewLineDecoder(bytes.NewReader(raw))

	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(gojson.Delim); !ok || delim != '{' {
		return nil, errors.New(errors.ErrorTypeData, "not a JSON object")
	}
	obj, err := decodeObjectBody(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New(errors.ErrorTypeData, "trailing data after object")
	}
	return obj, nil
}

func decodeObjectBody(dec *gojson.Decoder) (*jsonObject, error) {
	obj := &jsonObject{vals: make(map[string]jsonValue)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, errors.Newf(errors.ErrorTypeData, "unexpected object key %v", keyTok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		if _, dup := obj.vals[key]; !dup {
			obj.keys = append(obj.keys, key)
		}
		obj.vals[key] = val
	}
	if _, err := dec.Token(); err != nil { // closing brace
		return nil, err
	}
	return obj, nil
}

func decodeValue(dec *gojson.Decoder) (jsonValue, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	delim, ok := tok.(gojson.Delim)
	if !ok {
		return tok, nil // nil, bool, string or gojson.Number
	}
	switch delim {
	case '{':
		return decodeObjectBody(dec)
	case '[':
		items := []jsonValue{}
		for dec.More() {
			item, err := decodeValue(dec)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		if _, err := dec.Token(); err != nil { // closing bracket
			return nil, err
		}
		return items, nil
	default:
		return nil, errors.Newf(errors.ErrorTypeData, "unexpected token %v", delim)
	}
}
