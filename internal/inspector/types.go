// Package inspector implements the pqi subcommands.
//
// Each subcommand is a Handler working from a fully populated Options
// record. Handlers print results to the configured stdout writer and
// distinguish two failure shapes: anticipated failures (a partitioned
// dataset where a single file is required, an invalid filter string, a
// failed validation) print a user-facing diagnostic on stdout and return
// an ExitError carrying the process exit code; everything else returns a
// regular error for the CLI layer to report on stderr.
package inspector

import (
	"context"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/domvwt/parquet-inspector/pkg/filter"
	"github.com/domvwt/parquet-inspector/pkg/logger"
	"github.com/domvwt/parquet-inspector/pkg/source"
)

// Options carries the settings for one subcommand invocation. It is built
// once by the CLI layer and read-only afterwards.
type Options struct {
	Source      string      // parquet file, dataset directory, or s3:// / gs:// object
	Columns     []string    // projected column names; nil reads every column
	Rows        int         // row count for head and tail
	Filter      filter.Expr // parsed row filter; nil keeps every row
	Threads     bool        // decode columns in parallel
	MemoryMap   bool        // memory-map local files instead of buffered reads
	Output      string      // converter output path; derived from Source when empty
	Compression string      // parquet codec for to-parquet
	BatchSize   int64       // arrow record batch size when reading

	Remote source.Options // region and credential settings for remote sources

	Stdout io.Writer   // result sink; os.Stdout in the CLI, a buffer in tests
	Logger *zap.Logger // optional; the global logger is used when nil
}

// Handler executes one subcommand.
type Handler func(ctx context.Context, opts *Options) error

// ExitError requests a specific process exit code after a handler has
// already written its diagnostic to stdout. The CLI layer exits with Code
// without printing anything further.
type ExitError struct {
	Code int
}

// Error implements the error interface.
func (e *ExitError) Error() string {
	return fmt.Sprintf("exit status %d", e.Code)
}

func (o *Options) log() *zap.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return logger.Get()
}
