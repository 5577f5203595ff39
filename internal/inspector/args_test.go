package inspector

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitColumns(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "single", in: "id", want: []string{"id"}},
		{name: "multiple", in: "id,name,score", want: []string{"id", "name", "score"}},
		{name: "spaces trimmed", in: " id , name ", want: []string{"id", "name"}},
		{name: "empty segments dropped", in: "id,,name,", want: []string{"id", "name"}},
		{name: "only separators", in: ", ,", want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SplitColumns(tt.in))
		})
	}
}

func TestParseFilterValid(t *testing.T) {
	var buf bytes.Buffer
	expr, err := ParseFilter("[('id', '>', 5)]", &buf)
	require.NoError(t, err)
	require.NotNil(t, expr)
	assert.Empty(t, buf.String())
}

func TestParseFilterEmpty(t *testing.T) {
	var buf bytes.Buffer
	expr, err := ParseFilter("", &buf)
	require.NoError(t, err)
	assert.Nil(t, expr)
	assert.Empty(t, buf.String())
}

func TestParseFilterInvalid(t *testing.T) {
	var buf bytes.Buffer
	expr, err := ParseFilter("[(a > 5)]", &buf)
	assert.Nil(t, expr)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, 1, exitErr.Code)

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Invalid filter string: '[(a > 5)]'", lines[0])
	assert.Contains(t, lines[1], "expected DNF filters")
}

func TestDeriveOutput(t *testing.T) {
	tests := []struct {
		name   string
		src    string
		output string
		ext    string
		want   string
	}{
		{name: "explicit output wins", src: "x.parquet", output: "out.jsonl", ext: ".jsonl", want: "out.jsonl"},
		{name: "parquet to jsonl", src: "x.parquet", ext: ".jsonl", want: "x.jsonl"},
		{name: "keeps directory", src: "/data/x.parquet", ext: ".jsonl", want: "/data/x.jsonl"},
		{name: "jsonl to parquet", src: "x.jsonl", ext: ".parquet", want: "x.parquet"},
		{name: "gzip folded into swap", src: "x.jsonl.gz", ext: ".parquet", want: "x.parquet"},
		{name: "no extension", src: "dataset", ext: ".jsonl", want: "dataset.jsonl"},
		{name: "trailing slash", src: "dataset/", ext: ".jsonl", want: "dataset.jsonl"},
		{name: "s3 object lands in working directory", src: "s3://bucket/path/x.parquet", ext: ".jsonl", want: "x.jsonl"},
		{name: "gs object", src: "gs://bucket/x.jsonl.gz", ext: ".parquet", want: "x.parquet"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DeriveOutput(tt.src, tt.output, tt.ext))
		})
	}
}

func TestExitErrorMessage(t *testing.T) {
	assert.Equal(t, "exit status 1", (&ExitError{Code: 1}).Error())
}
