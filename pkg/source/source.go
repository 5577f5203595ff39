// Package source resolves command-line source arguments to local paths.
// Plain paths pass through untouched; s3:// and gs:// URIs download the
// object to a temporary file so the rest of pqi only ever sees local
// files.
package source

import (
	"context"
	"os"
	"path"
	"strings"

	"github.com/domvwt/parquet-inspector/pkg/errors"
)

// Options carries the remote-access settings from configuration.
type Options struct {
	// S3Region overrides the region resolved from the AWS environment.
	S3Region string
	// GCSCredentialsFile points at a service-account key file. Empty
	// uses application default credentials.
	GCSCredentialsFile string
}

// IsRemote reports whether the argument is a scheme-qualified URI
// rather than a local path.
func IsRemote(uri string) bool {
	_, _, _, ok := splitURI(uri)
	return ok
}

// Resolve turns a source argument into a local path. Remote objects are
// downloaded to a temp file; cleanup removes it and is safe to call
// once the table is materialized in memory. Local paths return a no-op
// cleanup.
func Resolve(ctx context.Context, uri string, opts Options) (string, func(), error) {
	scheme, bucket, key, ok := splitURI(uri)
	if !ok {
		return uri, func() {}, nil
	}
	if scheme != "s3" && scheme != "gs" {
		return "", nil, errors.Newf(errors.ErrorTypeSource,
			"unsupported scheme %s:// in %s", scheme, uri)
	}
	if bucket == "" || key == "" {
		return "", nil, errors.Newf(errors.ErrorTypeSource, "invalid object URI: %s", uri)
	}

	tmp, err := os.CreateTemp("", "pqi-*"+remoteSuffix(key))
	if err != nil {
		return "", nil, errors.Wrap(err, errors.ErrorTypeSource, "failed to create temp file")
	}

	var fetchErr error
	switch scheme {
	case "s3":
		fetchErr = fetchS3(ctx, bucket, key, opts, tmp)
	case "gs":
		fetchErr = fetchGCS(ctx, bucket, key, opts, tmp)
	}
	if fetchErr == nil {
		fetchErr = closeTemp(tmp)
	}
	if fetchErr != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", nil, fetchErr
	}
	return tmp.Name(), func() { os.Remove(tmp.Name()) }, nil
}

func closeTemp(tmp *os.File) error {
	if err := tmp.Close(); err != nil {
		return errors.Wrap(err, errors.ErrorTypeSource, "failed to write temp file")
	}
	return nil
}

// splitURI splits scheme://bucket/key. ok is false for plain paths.
func splitURI(uri string) (scheme, bucket, key string, ok bool) {
	i := strings.Index(uri, "://")
	if i <= 0 {
		return "", "", "", false
	}
	scheme = uri[:i]
	rest := uri[i+3:]
	if j := strings.IndexByte(rest, '/'); j >= 0 {
		return scheme, rest[:j], rest[j+1:], true
	}
	return scheme, rest, "", true
}

// remoteSuffix keeps the object's extension chain on the temp file so
// suffix-sensitive readers (.gz detection) still work.
func remoteSuffix(key string) string {
	base := path.Base(key)
	if i := strings.IndexByte(base, '.'); i >= 0 {
		return base[i:]
	}
	return ""
}
