package source

import (
	"context"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"github.com/domvwt/parquet-inspector/pkg/errors"
	"github.com/domvwt/parquet-inspector/pkg/logger"
)

func fetchS3(ctx context.Context, bucket, key string, opts Options, dst *os.File) error {
	var loadOpts []func(*awsconfig.LoadOptions) error
	if opts.S3Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.S3Region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return errors.Wrap(err, errors.ErrorTypeSource, "failed to load AWS configuration")
	}

	client := s3.NewFromConfig(cfg)
	downloader := manager.NewDownloader(client)

	n, err := downloader.Download(ctx, dst, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.Wrapf(err, errors.ErrorTypeSource,
			"failed to download s3://%s/%s", bucket, key)
	}

	logger.Debug("downloaded object",
		zap.String("bucket", bucket),
		zap.String("key", key),
		zap.Int64("bytes", n))
	return nil
}
