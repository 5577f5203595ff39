package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/domvwt/parquet-inspector/internal/inspector"
	"github.com/domvwt/parquet-inspector/pkg/columnar"
	"github.com/domvwt/parquet-inspector/pkg/config"
	"github.com/domvwt/parquet-inspector/pkg/logger"
	"github.com/domvwt/parquet-inspector/pkg/source"
)

var version = "0.3.0"

// commandSpec describes one subcommand: its cobra surface and the handler
// that executes it.
type commandSpec struct {
	name     string
	summary  string
	handler  inspector.Handler
	columns  bool // -c/--columns
	rows     bool // -n/--rows
	filters  bool // -f/--filters
	output   bool // -o/--output
	compress bool // --compression
}

// commandSpecs is the full subcommand table. The cobra tree is built from
// it once at startup.
var commandSpecs = []commandSpec{
	{name: "metadata", summary: "print file metadata", handler: inspector.Metadata},
	{name: "schema", summary: "print data schema", handler: inspector.Schema, columns: true},
	{name: "head", summary: "print first n rows (default is 10)", handler: inspector.Head, columns: true, rows: true, filters: true},
	{name: "tail", summary: "print last n rows (default is 10)", handler: inspector.Tail, columns: true, rows: true, filters: true},
	{name: "count", summary: "print number of rows", handler: inspector.Count, columns: true, rows: true, filters: true},
	{name: "validate", summary: "validate file", handler: inspector.Validate},
	{name: "to-jsonl", summary: "convert parquet file to jsonl", handler: inspector.ToJSONL, output: true},
	{name: "to-parquet", summary: "convert jsonl file to parquet", handler: inspector.ToParquet, output: true, compress: true},
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := run(os.Args[1:]); err != nil {
		var exitErr *inspector.ExitError
		if errors.As(err, &exitErr) {
			// the handler already printed its diagnostic
			os.Exit(exitErr.Code)
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	root := newRootCommand(cfg)
	root.SetArgs(args)
	return root.Execute()
}

// newRootCommand builds the cobra tree from the command-spec table.
func newRootCommand(cfg *config.Config) *cobra.Command {
	var (
		threads  bool
		mmap     bool
		logLevel string
	)

	root := &cobra.Command{
		Use:   "pqi",
		Short: "parquet-inspector: cli tool for inspecting parquet files.",
		Long: `pqi inspects Apache Parquet files from the command line: metadata, schema,
row samples, row counts, structural validation, and conversion to and from
line-delimited JSON. Sources can be local files, partitioned dataset
directories, or s3:// and gs:// objects.

Example:
  pqi head data.parquet -n 5
  pqi count data.parquet -f "[('status', '==', 'active')]"
  pqi to-jsonl s3://bucket/data.parquet`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return logger.Init(logger.Config{
				Level:    logLevel,
				Encoding: cfg.Log.Format,
			})
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			// a bare invocation prints help and exits 1
			if err := cmd.Help(); err != nil {
				return err
			}
			return &inspector.ExitError{Code: 1}
		},
	}
	root.SetVersionTemplate("{{.Version}}\n")

	root.PersistentFlags().BoolVarP(&threads, "threads", "t", cfg.Read.Threads, "use threads for reading")
	root.PersistentFlags().BoolVarP(&mmap, "mmap", "m", cfg.Read.MemoryMap, "use memory mapping for reading")
	root.PersistentFlags().StringVar(&logLevel, "log-level", cfg.Log.Level, "log level (debug, info, warn, error)")

	for _, spec := range commandSpecs {
		root.AddCommand(newSubcommand(spec, cfg, &threads, &mmap))
	}
	root.AddCommand(newVersionCommand())

	return root
}

func newSubcommand(spec commandSpec, cfg *config.Config, threads, mmap *bool) *cobra.Command {
	var (
		columns     string
		rows        int
		filters     string
		output      string
		compression string
	)

	cmd := &cobra.Command{
		Use:   spec.name + " SOURCE",
		Short: spec.summary,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expr, err := inspector.ParseFilter(filters, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			opts := &inspector.Options{
				Source:      args[0],
				Columns:     inspector.SplitColumns(columns),
				Rows:        rows,
				Filter:      expr,
				Threads:     *threads,
				MemoryMap:   *mmap,
				Output:      output,
				Compression: compression,
				BatchSize:   cfg.Read.BatchSize,
				Remote: source.Options{
					S3Region:           cfg.Remote.S3Region,
					GCSCredentialsFile: cfg.Remote.GCSCredentialsFile,
				},
				Stdout: cmd.OutOrStdout(),
				Logger: logger.With(zap.String("command", spec.name)),
			}
			return spec.handler(cmd.Context(), opts)
		},
	}

	if spec.columns {
		cmd.Flags().StringVarP(&columns, "columns", "c", "", "comma separated list of columns to read")
	}
	if spec.rows {
		cmd.Flags().IntVarP(&rows, "rows", "n", cfg.Rows, "number of rows to print")
	}
	if spec.filters {
		cmd.Flags().StringVarP(&filters, "filters", "f", "", "filters defined in disjunctive normal form")
	}
	if spec.output {
		cmd.Flags().StringVarP(&output, "output", "o", "", "path to output file")
	}
	if spec.compress {
		cmd.Flags().StringVar(&compression, "compression", cfg.Output.Compression,
			"parquet compression codec ("+strings.Join(columnar.CompressionCodecs(), ", ")+")")
	}

	return cmd
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "show version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "pqi v%s\n", version)
			fmt.Fprintf(cmd.OutOrStdout(), "Go version: %s\n", runtime.Version())
			fmt.Fprintf(cmd.OutOrStdout(), "OS/Arch: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
