package source

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domvwt/parquet-inspector/pkg/errors"
)

func TestSplitURI(t *testing.T) {
	tests := []struct {
		uri            string
		scheme, bucket string
		key            string
		ok             bool
	}{
		{"s3://bucket/path/to/file.parquet", "s3", "bucket", "path/to/file.parquet", true},
		{"gs://bucket/file.jsonl.gz", "gs", "bucket", "file.jsonl.gz", true},
		{"s3://bucket", "s3", "bucket", "", true},
		{"https://example.com/x", "https", "example.com", "x", true},
		{"data/file.parquet", "", "", "", false},
		{"/abs/path.parquet", "", "", "", false},
		{"://missing-scheme", "", "", "", false},
	}
	for _, tt := range tests {
		scheme, bucket, key, ok := splitURI(tt.uri)
		assert.Equal(t, tt.ok, ok, tt.uri)
		assert.Equal(t, tt.scheme, scheme, tt.uri)
		assert.Equal(t, tt.bucket, bucket, tt.uri)
		assert.Equal(t, tt.key, key, tt.uri)
	}
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("s3://bucket/key"))
	assert.True(t, IsRemote("gs://bucket/key"))
	assert.False(t, IsRemote("plain/file.parquet"))
	assert.False(t, IsRemote("/tmp/file.parquet"))
}

func TestResolveLocalPassThrough(t *testing.T) {
	// Local paths are returned untouched, even when they do not exist;
	// the reader reports missing files with its own guidance.
	path, cleanup, err := Resolve(context.Background(), "data/events.parquet", Options{})
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, "data/events.parquet", path)
}

func TestResolveUnsupportedScheme(t *testing.T) {
	_, _, err := Resolve(context.Background(), "ftp://host/file.parquet", Options{})
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeSource))
	assert.Contains(t, err.Error(), "ftp://")
}

func TestResolveInvalidObjectURI(t *testing.T) {
	for _, uri := range []string{"s3://bucket", "gs:///key-without-bucket"} {
		_, _, err := Resolve(context.Background(), uri, Options{})
		require.Error(t, err, uri)
		assert.True(t, errors.IsType(err, errors.ErrorTypeSource), uri)
	}
}

func TestRemoteSuffix(t *testing.T) {
	assert.Equal(t, ".parquet", remoteSuffix("path/to/data.parquet"))
	assert.Equal(t, ".jsonl.gz", remoteSuffix("rows.jsonl.gz"))
	assert.Equal(t, "", remoteSuffix("no-extension"))
}
