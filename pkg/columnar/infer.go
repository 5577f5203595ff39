package columnar

import (
	"strconv"
	"strings"
	"time"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	gojson "github.com/goccy/go-json"

	"github.com/domvwt/parquet-inspector/pkg/errors"
)

type typeKind int

const (
	kindUnknown typeKind = iota
	kindBool
	kindInt
	kindFloat
	kindString
	kindDate
	kindTimestamp
	kindList
	kindStruct
)

func kindName(k typeKind) string {
	switch k {
	case kindBool:
		return "bool"
	case kindInt:
		return "integer"
	case kindFloat:
		return "float"
	case kindString:
		return "string"
	case kindDate:
		return "date"
	case kindTimestamp:
		return "timestamp"
	case kindList:
		return "array"
	case kindStruct:
		return "object"
	default:
		return "null"
	}
}

// typeNode tracks the type inferred for one field position across all
// observed rows.
type typeNode struct {
	kind   typeKind
	unit   arrow.TimeUnit
	elem   *typeNode
	fields []*structField
	index  map[string]*structField
}

type structField struct {
	name string
	node *typeNode
}

func (n *typeNode) field(name string) *structField {
	if f, ok := n.index[name]; ok {
		return f
	}
	f := &structField{name: name, node: &typeNode{}}
	n.fields = append(n.fields, f)
	n.index[name] = f
	return f
}

// inferSchema derives an Arrow schema from the decoded rows. Fields
// appear in first-seen order; conflicting value types for a field are a
// data error.
func inferSchema(rows []*jsonObject) (*arrow.Schema, error) {
	root := &typeNode{kind: kindStruct, index: map[string]*structField{}}
	for _, row := range rows {
		if err := observeObject(root, row, ""); err != nil {
			return nil, err
		}
	}
	fields := make([]arrow.Field, 0, len(root.fields))
	for _, f := range root.fields {
		fields = append(fields, arrow.Field{Name: f.name, Type: f.node.arrowType(), Nullable: true})
	}
	return arrow.NewSchema(fields, nil), nil
}

func observeObject(node *typeNode, obj *jsonObject, path string) error {
	for _, key := range obj.keys {
		childPath := key
		if path != "" {
			childPath = path + "." + key
		}
		if err := observe(node.field(key).node, obj.vals[key], childPath); err != nil {
			return err
		}
	}
	return nil
}

func observe(node *typeNode, v jsonValue, path string) error {
	switch val := v.(type) {
	case nil:
		return nil
	case bool:
		return node.merge(kindBool, 0, path)
	case gojson.Number:
		if _, err := strconv.ParseInt(string(val), 10, 64); err == nil {
			return node.merge(kindInt, 0, path)
		}
		return node.merge(kindFloat, 0, path)
	case string:
		kind, unit := classifyString(val)
		return node.merge(kind, unit, path)
	case []jsonValue:
		if err := node.merge(kindList, 0, path); err != nil {
			return err
		}
		for _, item := range val {
			if err := observe(node.elem, item, path); err != nil {
				return err
			}
		}
		return nil
	case *jsonObject:
		if err := node.merge(kindStruct, 0, path); err != nil {
			return err
		}
		return observeObject(node, val, path)
	}
	return errors.Newf(errors.ErrorTypeInternal, "field %s: unexpected value %T", path, v)
}

// merge folds an observed kind into the node, widening where two kinds
// have a common shape and failing where they do not.
func (n *typeNode) merge(kind typeKind, unit arrow.TimeUnit, path string) error {
	if n.kind == kindUnknown {
		n.kind = kind
		n.unit = unit
		if kind == kindList {
			n.elem = &typeNode{}
		}
		if kind == kindStruct {
			n.index = map[string]*structField{}
		}
		return nil
	}
	if n.kind == kind {
		if kind == kindTimestamp && unitRank(unit) > unitRank(n.unit) {
			n.unit = unit
		}
		return nil
	}
	switch {
	case n.kind == kindInt && kind == kindFloat,
		n.kind == kindFloat && kind == kindInt:
		n.kind = kindFloat
	case n.kind == kindTimestamp && kind == kindString,
		n.kind == kindDate && kind == kindString,
		n.kind == kindString && (kind == kindTimestamp || kind == kindDate):
		n.kind = kindString
	case n.kind == kindDate && kind == kindTimestamp:
		n.kind = kindTimestamp
		n.unit = unit
	case n.kind == kindTimestamp && kind == kindDate:
		// dates fold into the timestamp column as midnight
	default:
		return errors.Newf(errors.ErrorTypeData,
			"conflicting types for field %s: %s and %s", path, kindName(n.kind), kindName(kind))
	}
	return nil
}

func unitRank(u arrow.TimeUnit) int {
	switch u {
	case arrow.Nanosecond:
		return 3
	case arrow.Microsecond:
		return 2
	case arrow.Millisecond:
		return 1
	default:
		return 0
	}
}

func (n *typeNode) arrowType() arrow.DataType {
	switch n.kind {
	case kindBool:
		return arrow.FixedWidthTypes.Boolean
	case kindInt:
		return arrow.PrimitiveTypes.Int64
	case kindFloat:
		return arrow.PrimitiveTypes.Float64
	case kindString:
		return arrow.BinaryTypes.String
	case kindDate:
		return arrow.FixedWidthTypes.Date32
	case kindTimestamp:
		return &arrow.TimestampType{Unit: n.unit}
	case kindList:
		return arrow.ListOf(n.elem.arrowType())
	case kindStruct:
		fields := make([]arrow.Field, 0, len(n.fields))
		for _, f := range n.fields {
			fields = append(fields, arrow.Field{Name: f.name, Type: f.node.arrowType(), Nullable: true})
		}
		return arrow.StructOf(fields...)
	default:
		return arrow.Null
	}
}

// timestampLayouts are the string shapes accepted as timestamps, with
// and without a T separator and a zone offset. Fractional seconds are
// accepted after any of them.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	time.RFC3339,
}

func classifyString(s string) (typeKind, arrow.TimeUnit) {
	if len(s) == 10 {
		if _, err := time.Parse("2006-01-02", s); err == nil {
			return kindDate, 0
		}
	}
	if len(s) >= 19 {
		if _, ok := parseTimestamp(s); ok {
			return kindTimestamp, timestampUnit(s)
		}
	}
	return kindString, 0
}

func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// timestampUnit picks the narrowest unit that keeps every fractional
// digit: up to three digits fit milliseconds, six microseconds, nine
// nanoseconds.
func timestampUnit(s string) arrow.TimeUnit {
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return arrow.Millisecond
	}
	digits := 0
	for i := dot + 1; i < len(s) && s[i] >= '0' && s[i] <= '9'; i++ {
		digits++
	}
	switch {
	case digits > 6:
		return arrow.Nanosecond
	case digits > 3:
		return arrow.Microsecond
	default:
		return arrow.Millisecond
	}
}

// buildRecord materializes the rows into a single record batch of the
// inferred schema. Missing keys become nulls.
func buildRecord(schema *arrow.Schema, rows []*jsonObject) (arrow.Record, error) {
	rb := array.NewRecordBuilder(memory.NewGoAllocator(), schema)
	defer rb.Release()

	for _, row := range rows {
		for i, f := range schema.Fields() {
			v, ok := row.vals[f.Name]
			if !ok {
				rb.Field(i).AppendNull()
				continue
			}
			if err := appendValue(rb.Field(i), f.Type, v, f.Name); err != nil {
				return nil, err
			}
		}
	}
	return rb.NewRecord(), nil
}

func appendValue(b array.Builder, dt arrow.DataType, v jsonValue, path string) error {
	if v == nil {
		b.AppendNull()
		return nil
	}
	switch bld := b.(type) {
	case *array.BooleanBuilder:
		bv, ok := v.(bool)
		if !ok {
			return badValue(path, "bool", v)
		}
		bld.Append(bv)
	case *array.Int64Builder:
		num, ok := v.(gojson.Number)
		if !ok {
			return badValue(path, "integer", v)
		}
		iv, err := strconv.ParseInt(string(num), 10, 64)
		if err != nil {
			return errors.Wrapf(err, errors.ErrorTypeData, "field %s: invalid integer %s", path, num)
		}
		bld.Append(iv)
	case *array.Float64Builder:
		num, ok := v.(gojson.Number)
		if !ok {
			return badValue(path, "number", v)
		}
		fv, err := strconv.ParseFloat(string(num), 64)
		if err != nil {
			return errors.Wrapf(err, errors.ErrorTypeData, "field %s: invalid number %s", path, num)
		}
		bld.Append(fv)
	case *array.StringBuilder:
		sv, ok := v.(string)
		if !ok {
			return badValue(path, "string", v)
		}
		bld.Append(sv)
	case *array.TimestampBuilder:
		sv, ok := v.(string)
		if !ok {
			return badValue(path, "timestamp string", v)
		}
		ts, ok := parseTimestamp(sv)
		if !ok {
			d, err := time.Parse("2006-01-02", sv)
			if err != nil {
				return badValue(path, "timestamp string", v)
			}
			ts = d
		}
		switch dt.(*arrow.TimestampType).Unit {
		case arrow.Second:
			bld.Append(arrow.Timestamp(ts.Unix()))
		case arrow.Millisecond:
			bld.Append(arrow.Timestamp(ts.UnixMilli()))
		case arrow.Microsecond:
			bld.Append(arrow.Timestamp(ts.UnixMicro()))
		default:
			bld.Append(arrow.Timestamp(ts.UnixNano()))
		}
	case *array.Date32Builder:
		sv, ok := v.(string)
		if !ok {
			return badValue(path, "date string", v)
		}
		d, err := time.Parse("2006-01-02", sv)
		if err != nil {
			return badValue(path, "date string", v)
		}
		bld.Append(arrow.Date32(d.Unix() / 86400))
	case *array.ListBuilder:
		items, ok := v.([]jsonValue)
		if !ok {
			return badValue(path, "array", v)
		}
		bld.Append(true)
		elem := dt.(*arrow.ListType).Elem()
		vb := bld.ValueBuilder()
		for _, item := range items {
			if err := appendValue(vb, elem, item, path); err != nil {
				return err
			}
		}
	case *array.StructBuilder:
		obj, ok := v.(*jsonObject)
		if !ok {
			return badValue(path, "object", v)
		}
		bld.Append(true)
		st := dt.(*arrow.StructType)
		for i, f := range st.Fields() {
			cv, ok := obj.vals[f.Name]
			if !ok {
				bld.FieldBuilder(i).AppendNull()
				continue
			}
			if err := appendValue(bld.FieldBuilder(i), f.Type, cv, path+"."+f.Name); err != nil {
				return err
			}
		}
	case *array.NullBuilder:
		bld.AppendNull()
	default:
		return errors.Newf(errors.ErrorTypeInternal, "field %s: no builder for type %s", path, dt)
	}
	return nil
}

func badValue(path, want string, v jsonValue) error {
	return errors.Newf(errors.ErrorTypeData, "field %s: expected %s, got %T", path, want, v)
}
