package columnar

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domvwt/parquet-inspector/pkg/errors"
)

func TestReadJSONLinesKeyOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(
		`{"b": 1, "a": 2}
{"b": 3, "a": 4, "c": 5}
`), 0o644))

	tbl, err := ReadJSONLines(path)
	require.NoError(t, err)
	defer tbl.Release()

	// Fields stay in first-seen order; late arrivals go to the end and
	// backfill as null.
	require.Equal(t, []string{
		`{"b": 1, "a": 2, "c": null}`,
		`{"b": 3, "a": 4, "c": 5}`,
	}, rowsOf(t, tbl))
}

func TestReadJSONLinesSkipsBlankLines(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rows.jsonl")
	require.NoError(t, os.WriteFile(path, []byte("\n{\"a\": 1}\n   \n{\"a\": 2}\n"), 0o644))

	tbl, err := ReadJSONLines(path)
	require.NoError(t, err)
	defer tbl.Release()
	assert.Equal(t, int64(2), tbl.NumRows())
}

func TestReadJSONLinesRejectsNonObjects(t *testing.T) {
	dir := t.TempDir()

	cases := map[string]string{
		"array":    "[1, 2]\n",
		"scalar":   "42\n",
		"garbage":  "{not json}\n",
		"trailing": `{"a": 1} extra` + "\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(dir, name+".jsonl")
			require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
			_, err := ReadJSONLines(path)
			require.Error(t, err)
			assert.True(t, errors.IsType(err, errors.ErrorTypeData))
			assert.Contains(t, err.Error(), "line 1")
		})
	}
}

func TestJSONLinesGzipRoundTrip(t *testing.T) {
	dir := t.TempDir()
	tbl := tableFromJSONL(t, `{"id": 1, "name": "alpha"}
{"id": 2, "name": "beta"}
`)
	defer tbl.Release()

	path := filepath.Join(dir, "rows.jsonl.gz")
	require.NoError(t, WriteJSONLines(tbl, path))

	back, err := ReadJSONLines(path)
	require.NoError(t, err)
	defer back.Release()

	require.Equal(t, rowsOf(t, tbl), rowsOf(t, back))
}

func TestParquetJSONLRoundTrip(t *testing.T) {
	lines := `{"id": 1, "score": 1000.0, "name": "alpha", "when": "2024-01-15 10:30:00", "day": "2024-01-15", "tags": ["x", "y"], "meta": {"k": 1}}
{"id": 2, "score": 0.5, "name": null, "when": "2024-02-20 00:00:01", "day": "2024-02-20", "tags": [], "meta": null}
`
	dir := t.TempDir()
	src := filepath.Join(dir, "rows.jsonl")
	require.NoError(t, os.WriteFile(src, []byte(lines), 0o644))

	tbl, err := ReadJSONLines(src)
	require.NoError(t, err)
	defer tbl.Release()

	pq := filepath.Join(dir, "rows.parquet")
	require.NoError(t, WriteTable(tbl, pq, "zstd"))

	back, err := ReadTable(context.Background(), pq, ReadOptions{})
	require.NoError(t, err)
	defer back.Release()

	out := filepath.Join(dir, "back.jsonl")
	require.NoError(t, WriteJSONLines(back, out))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, lines, string(data))
}
