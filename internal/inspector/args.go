package inspector

import (
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/domvwt/parquet-inspector/pkg/filter"
	"github.com/domvwt/parquet-inspector/pkg/source"
)

// filterFormatHint documents the accepted filter grammar. Printed under
// the invalid-filter diagnostic.
const filterFormatHint = `(expected DNF filters like "[('col', '>', 5)]" or "[[('a', '==', 1)], [('b', 'in', (2, 3))]]")`

// SplitColumns converts a comma-separated column flag into an ordered
// list of trimmed names. Empty input means no column restriction.
func SplitColumns(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	columns := make([]string, 0, len(parts))
	for _, p := range parts {
		if name := strings.TrimSpace(p); name != "" {
			columns = append(columns, name)
		}
	}
	if len(columns) == 0 {
		return nil
	}
	return columns
}

// ParseFilter parses a raw --filters argument. A parse failure prints the
// invalid-filter diagnostic and a format hint to stdout and returns an
// ExitError; no source I/O has happened at that point.
func ParseFilter(raw string, stdout io.Writer) (filter.Expr, error) {
	if raw == "" {
		return nil, nil
	}
	expr, err := filter.Parse(raw)
	if err != nil {
		fmt.Fprintf(stdout, "Invalid filter string: '%s'\n%s\n", raw, filterFormatHint)
		return nil, &ExitError{Code: 1}
	}
	return expr, nil
}

// DeriveOutput resolves the converter output path: the explicit output
// when set, otherwise the source with its extension swapped to ext.
// Remote sources map to the object basename in the working directory. A
// trailing .gz participates in the swap, so data.jsonl.gz becomes
// data.parquet rather than data.jsonl.parquet.
func DeriveOutput(src, output, ext string) string {
	if output != "" {
		return output
	}
	name := src
	if source.IsRemote(name) {
		name = path.Base(name)
	}
	name = strings.TrimSuffix(name, "/")
	name = strings.TrimSuffix(name, ".gz")
	if e := filepath.Ext(name); e != "" {
		name = strings.TrimSuffix(name, e)
	}
	return name + ext
}
