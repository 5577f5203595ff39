package columnar

import (
	"fmt"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/domvwt/parquet-inspector/pkg/errors"
)

// Validate runs structural checks over every batch of the table and
// returns a validation error describing the first problem found. A nil
// return means the table decoded into a consistent structure.
func (t *Table) Validate() error {
	for bi, rec := range t.batches {
		if !rec.Schema().Equal(t.schema) {
			return errors.Newf(errors.ErrorTypeValidation,
				"batch %d: schema does not match table schema", bi)
		}
		if int(rec.NumCols()) != len(t.schema.Fields()) {
			return errors.Newf(errors.ErrorTypeValidation,
				"batch %d: %d columns, schema has %d", bi, rec.NumCols(), len(t.schema.Fields()))
		}
		for ci := 0; ci < int(rec.NumCols()); ci++ {
			col := rec.Column(ci)
			at := fmt.Sprintf("batch %d column %s", bi, t.schema.Field(ci).Name)
			if int64(col.Len()) != rec.NumRows() {
				return errors.Newf(errors.ErrorTypeValidation,
					"%s: length %d does not match %d rows", at, col.Len(), rec.NumRows())
			}
			if err := validateArray(col, at); err != nil {
				return err
			}
		}
	}
	return nil
}

func validateArray(arr arrow.Array, at string) error {
	if n := arr.NullN(); n < 0 || n > arr.Len() {
		return errors.Newf(errors.ErrorTypeValidation,
			"%s: null count %d out of range for length %d", at, n, arr.Len())
	}
	switch a := arr.(type) {
	case *array.List:
		if err := validateOffsets(a, a.ListValues().Len(), at); err != nil {
			return err
		}
		return validateArray(a.ListValues(), at+".item")
	case *array.LargeList:
		if err := validateOffsets(a, a.ListValues().Len(), at); err != nil {
			return err
		}
		return validateArray(a.ListValues(), at+".item")
	case *array.Map:
		if err := validateOffsets(a, a.ListValues().Len(), at); err != nil {
			return err
		}
		if err := validateArray(a.Keys(), at+".key"); err != nil {
			return err
		}
		return validateArray(a.Items(), at+".value")
	case *array.Struct:
		fields := a.DataType().(*arrow.StructType).Fields()
		for i, f := range fields {
			child := a.Field(i)
			if child.Len() < a.Len() {
				return errors.Newf(errors.ErrorTypeValidation,
					"%s.%s: child length %d shorter than struct length %d",
					at, f.Name, child.Len(), a.Len())
			}
			if err := validateArray(child, at+"."+f.Name); err != nil {
				return err
			}
		}
	}
	return nil
}

// offsetsArray is the slice of the list-shaped array surface the offset
// checks need.
type offsetsArray interface {
	arrow.Array
	ValueOffsets(i int) (int64, int64)
}

// validateOffsets checks that every row's value range is well formed:
// start <= end and end within the values child.
func validateOffsets(a offsetsArray, valuesLen int, at string) error {
	for i := 0; i < a.Len(); i++ {
		start, end := a.ValueOffsets(i)
		if start > end {
			return errors.Newf(errors.ErrorTypeValidation,
				"%s: row %d offsets decrease (%d > %d)", at, i, start, end)
		}
		if start < 0 || end > int64(valuesLen) {
			return errors.Newf(errors.ErrorTypeValidation,
				"%s: row %d offsets [%d, %d) outside values length %d",
				at, i, start, end, valuesLen)
		}
	}
	return nil
}
