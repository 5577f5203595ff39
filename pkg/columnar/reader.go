package columnar

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/apache/arrow-go/v18/parquet/file"
	"github.com/apache/arrow-go/v18/parquet/pqarrow"
	"go.uber.org/zap"

	"github.com/domvwt/parquet-inspector/pkg/errors"
	"github.com/domvwt/parquet-inspector/pkg/logger"
)

// defaultBatchSize bounds record batches when the caller does not set one.
const defaultBatchSize = 4096

// ReadTable materializes a Parquet file, or a directory of Parquet
// files, into a Table. Filtering runs before projection so a filter may
// reference columns the projection drops.
func ReadTable(ctx context.Context, path string, opts ReadOptions) (*Table, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeSource, "failed to read: %s", path)
	}

	var t *Table
	if info.IsDir() {
		t, err = readPartitioned(ctx, path, opts)
	} else {
		t, err = readParquetFile(ctx, path, opts)
	}
	if err != nil {
		return nil, err
	}

	if err := t.applyFilter(opts.Filter); err != nil {
		t.Release()
		return nil, err
	}
	if err := t.project(opts.Columns); err != nil {
		t.Release()
		return nil, err
	}
	return t, nil
}

func readParquetFile(ctx context.Context, path string, opts ReadOptions) (*Table, error) {
	fr, err := file.OpenParquetFile(path, opts.MemoryMap)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeData, "failed to open parquet file: %s", path)
	}
	defer fr.Close()

	props := pqarrow.ArrowReadProperties{
		Parallel:  opts.Parallel,
		BatchSize: opts.BatchSize,
	}
	if props.BatchSize <= 0 {
		props.BatchSize = defaultBatchSize
	}
	ar, err := pqarrow.NewFileReader(fr, props, memory.NewGoAllocator())
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeData, "failed to open parquet file: %s", path)
	}
	schema, err := ar.Schema()
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeData, "failed to read schema: %s", path)
	}

	rr, err := ar.GetRecordReader(ctx, nil, nil)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeData, "failed to read: %s", path)
	}
	defer rr.Release()

	var batches []arrow.Record
	var rows int64
	for rr.Next() {
		rec := rr.Record()
		rec.Retain() // the reader reuses the record on the next call
		batches = append(batches, rec)
		rows += rec.NumRows()
	}
	if err := rr.Err(); err != nil {
		for _, rec := range batches {
			rec.Release()
		}
		return nil, errors.Wrapf(err, errors.ErrorTypeData, "failed to read: %s", path)
	}

	logger.Debug("read parquet file",
		zap.String("path", path), zap.Int64("rows", rows), zap.Int("batches", len(batches)))

	return &Table{schema: schema, batches: batches, rows: rows, owned: true}, nil
}

// readPartitioned reads every *.parquet file under dir, in lexicographic
// path order, and concatenates the batches. All files must agree on the
// schema.
func readPartitioned(ctx context.Context, dir string, opts ReadOptions) (*Table, error) {
	var paths []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".parquet") {
			paths = append(paths, p)
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrorTypeSource, "failed to read: %s", dir)
	}
	if len(paths) == 0 {
		return nil, errors.Newf(errors.ErrorTypeSource, "no parquet files found under: %s", dir)
	}
	sort.Strings(paths)

	merged := &Table{owned: true}
	for _, p := range paths {
		part, err := readParquetFile(ctx, p, opts)
		if err != nil {
			merged.Release()
			return nil, err
		}
		if merged.schema == nil {
			merged.schema = part.schema
		} else if !merged.schema.Equal(part.schema) {
			part.Release()
			merged.Release()
			return nil, errors.Newf(errors.ErrorTypeData,
				"schema mismatch in partitioned dataset: %s", p)
		}
		merged.batches = append(merged.batches, part.batches...)
		merged.rows += part.rows
	}

	logger.Debug("read partitioned dataset",
		zap.String("dir", dir), zap.Int("files", len(paths)), zap.Int64("rows", merged.rows))

	return merged, nil
}
