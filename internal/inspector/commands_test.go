package inspector

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domvwt/parquet-inspector/pkg/columnar"
	"github.com/domvwt/parquet-inspector/pkg/errors"
	"github.com/domvwt/parquet-inspector/pkg/filter"
	"github.com/domvwt/parquet-inspector/pkg/testutil"
)

var fixtureLines = []string{
	`{"id": 1, "name": "alpha"}`,
	`{"id": 2, "name": "beta"}`,
	`{"id": 3, "name": "gamma"}`,
	`{"id": 4, "name": "delta"}`,
	`{"id": 5, "name": "epsilon"}`,
}

// writeParquet builds a parquet fixture under dir by converting JSON lines.
func writeParquet(t *testing.T, dir, name string, lines []string) string {
	t.Helper()
	src := testutil.WriteFile(t, dir, name+".jsonl", strings.Join(lines, "\n")+"\n")
	tbl, err := columnar.ReadJSONLines(src)
	require.NoError(t, err)
	defer tbl.Release()

	out := filepath.Join(dir, name+".parquet")
	require.NoError(t, columnar.WriteTable(tbl, out, "snappy"))
	return out
}

func testOptions(t *testing.T, source string) (*Options, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return &Options{
		Source: source,
		Rows:   10,
		Stdout: &buf,
		Logger: testutil.TestLogger(t),
	}, &buf
}

func TestMetadata(t *testing.T) {
	dir := t.TempDir()
	src := writeParquet(t, dir, "data", fixtureLines)

	opts, buf := testOptions(t, src)
	require.NoError(t, Metadata(context.Background(), opts))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "created_by: "))
	assert.Equal(t, "num_columns: 2", lines[1])
	assert.Equal(t, "num_rows: 5", lines[2])
	assert.Equal(t, "num_row_groups: 1", lines[3])
	assert.Equal(t, "format_version: 2.6", lines[4])
	assert.True(t, strings.HasPrefix(lines[5], "serialized_size: "))
}

func TestMetadataOnPartitionedSource(t *testing.T) {
	dir := t.TempDir()
	writeParquet(t, dir, "part-0", fixtureLines[:2])
	writeParquet(t, dir, "part-1", fixtureLines[2:])

	opts, buf := testOptions(t, dir)
	err := Metadata(context.Background(), opts)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Equal(t, "Error: Use the `metadata` command on a valid partition.\n", buf.String())
}

func TestMetadataOnMissingSource(t *testing.T) {
	opts, buf := testOptions(t, filepath.Join(t.TempDir(), "absent.parquet"))
	err := Metadata(context.Background(), opts)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, "Error: Use the `metadata` command on a valid partition.\n", buf.String())
}

func TestSchema(t *testing.T) {
	dir := t.TempDir()
	src := writeParquet(t, dir, "data", fixtureLines)

	opts, buf := testOptions(t, src)
	require.NoError(t, Schema(context.Background(), opts))
	assert.Equal(t, "id: int64\nname: string\n", buf.String())
}

func TestSchemaOnPartitionedSource(t *testing.T) {
	dir := t.TempDir()
	writeParquet(t, dir, "part-0", fixtureLines)

	opts, buf := testOptions(t, dir)
	err := Schema(context.Background(), opts)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, "Error: Use the `schema` command on a valid partition.\n", buf.String())
}

func TestHead(t *testing.T) {
	dir := t.TempDir()
	src := writeParquet(t, dir, "data", fixtureLines)

	opts, buf := testOptions(t, src)
	opts.Rows = 2
	require.NoError(t, Head(context.Background(), opts))
	assert.Equal(t, fixtureLines[0]+"\n"+fixtureLines[1]+"\n", buf.String())
}

func TestTailKeepsAscendingOrder(t *testing.T) {
	dir := t.TempDir()
	src := writeParquet(t, dir, "data", fixtureLines)

	opts, buf := testOptions(t, src)
	opts.Rows = 2
	require.NoError(t, Tail(context.Background(), opts))
	assert.Equal(t, fixtureLines[3]+"\n"+fixtureLines[4]+"\n", buf.String())
}

func TestHeadCappedAtTableLength(t *testing.T) {
	dir := t.TempDir()
	src := writeParquet(t, dir, "data", fixtureLines)

	opts, buf := testOptions(t, src)
	opts.Rows = 50
	require.NoError(t, Head(context.Background(), opts))
	assert.Equal(t, strings.Join(fixtureLines, "\n")+"\n", buf.String())
}

func TestHeadWithColumnsAndFilter(t *testing.T) {
	dir := t.TempDir()
	src := writeParquet(t, dir, "data", fixtureLines)

	opts, buf := testOptions(t, src)
	expr, err := filter.Parse("[('id', '>', 3)]")
	require.NoError(t, err)
	opts.Filter = expr
	opts.Columns = []string{"name"}

	require.NoError(t, Head(context.Background(), opts))
	assert.Equal(t, `{"name": "delta"}`+"\n"+`{"name": "epsilon"}`+"\n", buf.String())
}

func TestCount(t *testing.T) {
	dir := t.TempDir()
	src := writeParquet(t, dir, "data", fixtureLines)

	opts, buf := testOptions(t, src)
	require.NoError(t, Count(context.Background(), opts))
	assert.Equal(t, "5\n", buf.String())
}

func TestCountFiltered(t *testing.T) {
	dir := t.TempDir()
	src := writeParquet(t, dir, "data", fixtureLines)

	opts, buf := testOptions(t, src)
	expr, err := filter.Parse("[('id', '<=', 2)]")
	require.NoError(t, err)
	opts.Filter = expr

	require.NoError(t, Count(context.Background(), opts))
	assert.Equal(t, "2\n", buf.String())
}

func TestValidate(t *testing.T) {
	dir := t.TempDir()
	src := writeParquet(t, dir, "data", fixtureLines)

	opts, buf := testOptions(t, src)
	require.NoError(t, Validate(context.Background(), opts))
	assert.Equal(t, "OK\n", buf.String())
}

func TestValidatePartitionedSource(t *testing.T) {
	// partitioned datasets are readable, so validate succeeds where
	// metadata and schema refuse
	dir := t.TempDir()
	writeParquet(t, dir, "part-0", fixtureLines[:2])
	writeParquet(t, dir, "part-1", fixtureLines[2:])

	opts, buf := testOptions(t, dir)
	require.NoError(t, Validate(context.Background(), opts))
	assert.Equal(t, "OK\n", buf.String())
}

func TestValidateMissingSource(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.parquet")
	opts, buf := testOptions(t, missing)
	err := Validate(context.Background(), opts)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)
	assert.Equal(t, "failed to read: "+missing+"\n", buf.String())
}

func TestValidateCorruptFile(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteFile(t, dir, "corrupt.parquet", "not parquet at all")

	opts, buf := testOptions(t, src)
	err := Validate(context.Background(), opts)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, "failed to open parquet file: "+src+"\n", buf.String())
}

func TestToJSONLDefaultOutput(t *testing.T) {
	dir := t.TempDir()
	src := writeParquet(t, dir, "data", fixtureLines)
	require.NoError(t, os.Remove(filepath.Join(dir, "data.jsonl")))

	opts, _ := testOptions(t, src)
	require.NoError(t, ToJSONL(context.Background(), opts))

	got, err := os.ReadFile(filepath.Join(dir, "data.jsonl"))
	require.NoError(t, err)
	assert.Equal(t, strings.Join(fixtureLines, "\n")+"\n", string(got))
}

func TestToParquetRoundTrip(t *testing.T) {
	ctx, cancel := testutil.TestContext(t)
	defer cancel()

	dir := t.TempDir()
	src := testutil.WriteFile(t, dir, "rows.jsonl", strings.Join(fixtureLines, "\n")+"\n")

	opts, _ := testOptions(t, src)
	opts.Compression = "zstd"
	require.NoError(t, ToParquet(ctx, opts))

	tbl, err := columnar.ReadTable(ctx, filepath.Join(dir, "rows.parquet"), columnar.ReadOptions{})
	require.NoError(t, err)
	defer tbl.Release()
	assert.Equal(t, int64(5), tbl.NumRows())

	var buf bytes.Buffer
	require.NoError(t, tbl.WriteRows(&buf))
	assert.Equal(t, strings.Join(fixtureLines, "\n")+"\n", buf.String())
}

func TestToParquetGzipSource(t *testing.T) {
	dir := t.TempDir()
	var gz bytes.Buffer
	w := gzip.NewWriter(&gz)
	_, err := w.Write([]byte(fixtureLines[0] + "\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	src := filepath.Join(dir, "rows.jsonl.gz")
	require.NoError(t, os.WriteFile(src, gz.Bytes(), 0o644))

	opts, _ := testOptions(t, src)
	opts.Compression = "snappy"
	require.NoError(t, ToParquet(context.Background(), opts))

	// the .gz suffix folds into the extension swap
	_, err = os.Stat(filepath.Join(dir, "rows.parquet"))
	require.NoError(t, err)
}

func TestToParquetUnknownCompression(t *testing.T) {
	dir := t.TempDir()
	src := testutil.WriteFile(t, dir, "rows.jsonl", fixtureLines[0]+"\n")

	opts, _ := testOptions(t, src)
	opts.Compression = "lzma"
	err := ToParquet(context.Background(), opts)
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}
