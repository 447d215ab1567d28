package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/aws/retry"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/jorundl/costofliving-etl/config"
)

var (
	// ErrStorageAccess covers authentication, authorization and transport
	// failures against the object store.
	ErrStorageAccess = errors.New("object storage access failed")
	// ErrObjectNotFound means the bucket/key does not address an object.
	ErrObjectNotFound = errors.New("object not found")
)

type S3Client struct {
	S3     *s3.Client
	Logger *slog.Logger
}

// NewS3Client builds an S3 client from the loaded secrets. Request retries
// use the SDK's standard retryer configured from the extract.backoff block.
func NewS3Client(ctx context.Context, cfg *config.Config, secrets config.Secrets, logger *slog.Logger) (*S3Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.S3.Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(secrets.AWSAccessKey, secrets.AWSSecretKey, ""),
		),
		awsconfig.WithRetryer(func() aws.Retryer {
			return retry.NewStandard(func(o *retry.StandardOptions) {
				if cfg.Extract.Backoff.MaxAttempts > 0 {
					o.MaxAttempts = cfg.Extract.Backoff.MaxAttempts
				}
				if cfg.Extract.Backoff.MaxBackoff > 0 {
					o.MaxBackoff = cfg.Extract.Backoff.MaxBackoff
				}
			})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: loading AWS config: %v", ErrStorageAccess, err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.S3.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.S3.BaseEndpoint)
		}
		o.UsePathStyle = cfg.S3.UsePathStyle
	})

	return &S3Client{S3: client, Logger: logger}, nil
}

// FetchObject issues a single GetObject request and reads the full body into
// memory. The dataset is small enough that streaming buys nothing here.
func (c *S3Client) FetchObject(ctx context.Context, bucket, key string) ([]byte, error) {
	out, err := c.S3.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classifyS3Error(bucket, key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body of s3://%s/%s: %v", ErrStorageAccess, bucket, key, err)
	}

	c.Logger.Debug("Fetched object from S3", "bucket", bucket, "key", key, "bytes", len(body))

	return body, nil
}

func classifyS3Error(bucket, key string, err error) error {
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &noSuchKey) {
		return fmt.Errorf("%w: s3://%s/%s", ErrObjectNotFound, bucket, key)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return fmt.Errorf("%w: s3://%s/%s: %s", ErrObjectNotFound, bucket, key, apiErr.ErrorCode())
		}
	}

	return fmt.Errorf("%w: getting s3://%s/%s: %v", ErrStorageAccess, bucket, key, err)
}
