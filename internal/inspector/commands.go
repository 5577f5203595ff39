package inspector

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/domvwt/parquet-inspector/pkg/columnar"
	"github.com/domvwt/parquet-inspector/pkg/errors"
	"github.com/domvwt/parquet-inspector/pkg/source"
)

// Metadata prints the file-level parquet metadata of a single file.
// Partitioned datasets have no single footer, so a directory source maps
// to the partition guidance diagnostic.
func Metadata(ctx context.Context, opts *Options) error {
	local, cleanup, err := source.Resolve(ctx, opts.Source, opts.Remote)
	if err != nil {
		return err
	}
	defer cleanup()

	desc, err := columnar.DescribeFile(local)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeSource) {
			return partitionGuidance(opts, "metadata")
		}
		return err
	}
	fmt.Fprintln(opts.Stdout, desc)
	return nil
}

// Schema prints the arrow schema tree of a single file. Same partitioned
// source behavior as Metadata.
func Schema(ctx context.Context, opts *Options) error {
	local, cleanup, err := source.Resolve(ctx, opts.Source, opts.Remote)
	if err != nil {
		return err
	}
	defer cleanup()

	s, err := columnar.ReadSchema(local, opts.MemoryMap)
	if err != nil {
		if errors.IsType(err, errors.ErrorTypeSource) {
			return partitionGuidance(opts, "schema")
		}
		return err
	}
	fmt.Fprintln(opts.Stdout, columnar.FormatSchema(s))
	return nil
}

// Head prints the first min(Rows, table length) rows as JSON lines.
func Head(ctx context.Context, opts *Options) error {
	t, err := readTable(ctx, opts)
	if err != nil {
		return err
	}
	defer t.Release()

	h, err := t.Head(opts.Rows)
	if err != nil {
		return err
	}
	return h.WriteRows(opts.Stdout)
}

// Tail prints the last min(Rows, table length) rows as JSON lines, in
// ascending row order.
func Tail(ctx context.Context, opts *Options) error {
	t, err := readTable(ctx, opts)
	if err != nil {
		return err
	}
	defer t.Release()

	tl, err := t.Tail(opts.Rows)
	if err != nil {
		return err
	}
	return tl.WriteRows(opts.Stdout)
}

// Count prints the number of rows surviving the filter.
func Count(ctx context.Context, opts *Options) error {
	t, err := readTable(ctx, opts)
	if err != nil {
		return err
	}
	defer t.Release()

	fmt.Fprintln(opts.Stdout, t.NumRows())
	return nil
}

// Validate checks the structural integrity of the table. Success prints
// OK; any failure, read failures included, prints the trimmed message and
// maps to exit code 1.
func Validate(ctx context.Context, opts *Options) error {
	t, err := readTable(ctx, opts)
	if err != nil {
		return validationFailure(opts, err)
	}
	defer t.Release()

	if err := t.Validate(); err != nil {
		return validationFailure(opts, err)
	}
	fmt.Fprintln(opts.Stdout, "OK")
	return nil
}

// ToJSONL converts a parquet source to line-delimited JSON.
func ToJSONL(ctx context.Context, opts *Options) error {
	t, err := readTable(ctx, opts)
	if err != nil {
		return err
	}
	defer t.Release()

	out := DeriveOutput(opts.Source, opts.Output, ".jsonl")
	if err := columnar.WriteJSONLines(t, out); err != nil {
		return err
	}
	opts.log().Debug("wrote jsonl",
		zap.String("output", out),
		zap.Int64("rows", t.NumRows()))
	return nil
}

// ToParquet converts a line-delimited JSON source to parquet.
func ToParquet(ctx context.Context, opts *Options) error {
	local, cleanup, err := source.Resolve(ctx, opts.Source, opts.Remote)
	if err != nil {
		return err
	}
	defer cleanup()

	t, err := columnar.ReadJSONLines(local)
	if err != nil {
		return err
	}
	defer t.Release()

	out := DeriveOutput(opts.Source, opts.Output, ".parquet")
	if err := columnar.WriteTable(t, out, opts.Compression); err != nil {
		return err
	}
	opts.log().Debug("wrote parquet",
		zap.String("output", out),
		zap.Int64("rows", t.NumRows()),
		zap.String("compression", opts.Compression))
	return nil
}

// readTable resolves the source and reads it under the invocation
// options. Remote objects are downloaded to a temp file which is removed
// before returning; the table is fully materialized in memory by then.
func readTable(ctx context.Context, opts *Options) (*columnar.Table, error) {
	local, cleanup, err := source.Resolve(ctx, opts.Source, opts.Remote)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	start := time.Now()
	t, err := columnar.ReadTable(ctx, local, columnar.ReadOptions{
		Columns:   opts.Columns,
		Filter:    opts.Filter,
		Parallel:  opts.Threads,
		MemoryMap: opts.MemoryMap,
		BatchSize: opts.BatchSize,
	})
	if err != nil {
		return nil, err
	}
	opts.log().Debug("table read",
		zap.String("source", opts.Source),
		zap.Int64("rows", t.NumRows()),
		zap.Duration("duration", time.Since(start)))
	return t, nil
}

// partitionGuidance prints the fixed guidance for metadata and schema
// requests against a partitioned dataset or unreadable source.
func partitionGuidance(opts *Options, command string) error {
	fmt.Fprintf(opts.Stdout, "Error: Use the `%s` command on a valid partition.\n", command)
	return &ExitError{Code: 1}
}

// validationFailure prints the failure for the validate subcommand. Typed
// errors print their message without the type prefix.
func validationFailure(opts *Options, err error) error {
	msg := err.Error()
	if e, ok := errors.As(err); ok {
		msg = e.Message
	}
	fmt.Fprintln(opts.Stdout, strings.TrimSpace(msg))
	return &ExitError{Code: 1}
}
