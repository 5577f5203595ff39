// Package columnar reads, inspects and writes Parquet tables.
//
// All pqi subcommands funnel through this package: a Parquet file or
// partitioned dataset is materialized into a Table, optionally filtered
// and projected, and then rendered as JSON rows, converted back to
// Parquet, or checked for structural problems.
package columnar

import (
	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"

	"github.com/domvwt/parquet-inspector/pkg/errors"
	"github.com/domvwt/parquet-inspector/pkg/filter"
)

// ReadOptions configures ReadTable.
type ReadOptions struct {
	// Columns projects the table to the named columns, in the given
	// order. Empty means all columns.
	Columns []string
	// Filter keeps only the rows matching the expression. Filter
	// columns may reference columns dropped by the projection.
	Filter filter.Expr
	// Parallel enables parallel column decoding.
	Parallel bool
	// MemoryMap opens local files with mmap instead of buffered reads.
	MemoryMap bool
	// BatchSize is the number of rows per record batch. Zero uses the
	// reader default.
	BatchSize int64
}

// rowRef addresses a single row inside one of the table's batches.
type rowRef struct {
	batch int
	row   int
}

// Table is an immutable, fully materialized columnar table. A nil
// selection means every row of every batch in order; filtering and the
// Head/Tail views narrow it without copying column data.
type Table struct {
	schema  *arrow.Schema
	batches []arrow.Record
	sel     []rowRef
	rows    int64
	owned   bool
}

// NewTable wraps record batches into a Table. The table takes ownership
// of the records and releases them in Release.
func NewTable(schema *arrow.Schema, batches []arrow.Record) *Table {
	var rows int64
	for _, rec := range batches {
		rows += rec.NumRows()
	}
	return &Table{schema: schema, batches: batches, rows: rows, owned: true}
}

// Schema returns the table schema.
func (t *Table) Schema() *arrow.Schema { return t.schema }

// NumRows returns the number of selected rows.
func (t *Table) NumRows() int64 { return t.rows }

// Release frees the underlying record batches. Views returned by Head
// and Tail share their parent's batches and release nothing.
func (t *Table) Release() {
	if !t.owned {
		return
	}
	for _, rec := range t.batches {
		rec.Release()
	}
	t.batches = nil
	t.sel = nil
	t.rows = 0
}

// Head returns a view of the first min(n, NumRows) rows.
func (t *Table) Head(n int) (*Table, error) {
	if n < 0 {
		return nil, errors.Newf(errors.ErrorTypeData, "invalid row count: %d", n)
	}
	sel := t.selection()
	if n < len(sel) {
		sel = sel[:n]
	}
	return t.view(sel), nil
}

// Tail returns a view of the last min(n, NumRows) rows. Row order stays
// ascending so output reads the same way as Head.
func (t *Table) Tail(n int) (*Table, error) {
	if n < 0 {
		return nil, errors.Newf(errors.ErrorTypeData, "invalid row count: %d", n)
	}
	sel := t.selection()
	if n < len(sel) {
		sel = sel[len(sel)-n:]
	}
	return t.view(sel), nil
}

func (t *Table) view(sel []rowRef) *Table {
	return &Table{schema: t.schema, batches: t.batches, sel: sel, rows: int64(len(sel))}
}

// selection materializes the row references in selection order.
func (t *Table) selection() []rowRef {
	if t.sel != nil {
		return t.sel
	}
	refs := make([]rowRef, 0, t.rows)
	for bi, rec := range t.batches {
		for ri := 0; ri < int(rec.NumRows()); ri++ {
			refs = append(refs, rowRef{batch: bi, row: ri})
		}
	}
	return refs
}

// forEachRow invokes fn for every selected row in order.
func (t *Table) forEachRow(fn func(rec arrow.Record, row int) error) error {
	if t.sel == nil {
		for _, rec := range t.batches {
			for ri := 0; ri < int(rec.NumRows()); ri++ {
				if err := fn(rec, ri); err != nil {
					return err
				}
			}
		}
		return nil
	}
	for _, ref := range t.sel {
		if err := fn(t.batches[ref.batch], ref.row); err != nil {
			return err
		}
	}
	return nil
}

// applyFilter narrows the selection to rows matching expr. Filter
// columns must be top-level primitive columns of the current schema.
func (t *Table) applyFilter(expr filter.Expr) error {
	if len(expr) == 0 {
		return nil
	}
	cols := expr.Columns()
	idx := make(map[string]int, len(cols))
	for _, name := range cols {
		indices := t.schema.FieldIndices(name)
		if len(indices) == 0 {
			return errors.Newf(errors.ErrorTypeFilter, "unknown filter column: %s", name)
		}
		f := t.schema.Field(indices[0])
		if !filterableType(f.Type) {
			return errors.Newf(errors.ErrorTypeFilter, "cannot filter on column %s of type %s", name, f.Type)
		}
		idx[name] = indices[0]
	}

	sel := make([]rowRef, 0, t.rows)
	for bi, rec := range t.batches {
		lookup := func(row int) filter.LookupFunc {
			return func(name string) (interface{}, error) {
				return filterValue(rec.Column(idx[name]), row)
			}
		}
		for ri := 0; ri < int(rec.NumRows()); ri++ {
			ok, err := expr.Match(lookup(ri))
			if err != nil {
				return err
			}
			if ok {
				sel = append(sel, rowRef{batch: bi, row: ri})
			}
		}
	}
	t.sel = sel
	t.rows = int64(len(sel))
	return nil
}

// project narrows the schema to the named columns, in the given order.
// The selection stays valid because batch and row positions do not move.
func (t *Table) project(columns []string) error {
	if len(columns) == 0 {
		return nil
	}
	indices := make([]int, 0, len(columns))
	fields := make([]arrow.Field, 0, len(columns))
	for _, name := range columns {
		found := t.schema.FieldIndices(name)
		if len(found) == 0 {
			return errors.Newf(errors.ErrorTypeData, "unknown column: %s", name)
		}
		indices = append(indices, found[0])
		fields = append(fields, t.schema.Field(found[0]))
	}
	projected := arrow.NewSchema(fields, nil)
	for bi, rec := range t.batches {
		cols := make([]arrow.Array, 0, len(indices))
		for _, ci := range indices {
			col := rec.Column(ci)
			col.Retain() // ownership moves to the projected record
			cols = append(cols, col)
		}
		narrow := array.NewRecord(projected, cols, rec.NumRows())
		rec.Release()
		t.batches[bi] = narrow
	}
	t.schema = projected
	return nil
}
