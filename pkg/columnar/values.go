package columnar

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/domvwt/parquet-inspector/pkg/errors"
)

// filterableType reports whether a column of this type can appear in a
// filter expression. Filter literals are booleans, numbers and strings,
// so only columns of those shapes compare meaningfully.
func filterableType(dt arrow.DataType) bool {
	switch dt.ID() {
	case arrow.BOOL,
		arrow.INT8, arrow.INT16, arrow.INT32, arrow.INT64,
		arrow.UINT8, arrow.UINT16, arrow.UINT32, arrow.UINT64,
		arrow.FLOAT32, arrow.FLOAT64,
		arrow.STRING, arrow.LARGE_STRING:
		return true
	}
	return false
}

// filterValue extracts one cell as a normalized scalar for filter
// evaluation: int64 for signed integers, uint64 for unsigned, float64
// for floats, bool, string, or nil for null.
func filterValue(arr arrow.Array, row int) (interface{}, error) {
	if arr.IsNull(row) {
		return nil, nil
	}
	switch a := arr.(type) {
	case *array.Boolean:
		return a.Value(row), nil
	case *array.Int8:
		return int64(a.Value(row)), nil
	case *array.Int16:
		return int64(a.Value(row)), nil
	case *array.Int32:
		return int64(a.Value(row)), nil
	case *array.Int64:
		return a.Value(row), nil
	case *array.Uint8:
		return uint64(a.Value(row)), nil
	case *array.Uint16:
		return uint64(a.Value(row)), nil
	case *array.Uint32:
		return uint64(a.Value(row)), nil
	case *array.Uint64:
		return a.Value(row), nil
	case *array.Float32:
		return float64(a.Value(row)), nil
	case *array.Float64:
		return a.Value(row), nil
	case *array.String:
		return a.Value(row), nil
	case *array.LargeString:
		return a.Value(row), nil
	}
	return nil, errors.Newf(errors.ErrorTypeFilter,
		"cannot filter on column of type %s", arr.DataType())
}
