package source

import (
	"context"
	"io"
	"os"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/domvwt/parquet-inspector/pkg/errors"
	"github.com/domvwt/parquet-inspector/pkg/logger"
)

func fetchGCS(ctx context.Context, bucket, key string, opts Options, dst *os.File) error {
	var clientOpts []option.ClientOption
	if opts.GCSCredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.GCSCredentialsFile))
	}
	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeSource, "failed to initialize GCS client")
	}
	defer client.Close()

	r, err := client.Bucket(bucket).Object(key).NewReader(ctx)
	if err != nil {
		return errors.Wrapf(err, errors.ErrorTypeSource,
			"failed to open gs://%s/%s", bucket, key)
	}
	defer r.Close()

	n, err := io.Copy(dst, r)
	if err != nil {
		return errors.Wrapf(err, errors.ErrorTypeSource,
			"failed to download gs://%s/%s", bucket, key)
	}

	logger.Debug("downloaded object",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int64("bytes", n))
	return nil
}
