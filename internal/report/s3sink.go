package report

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"

	"docrank/internal/domain"
)

// PutObjectAPI is the subset of the S3 client the sink needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Writer uploads the report to a bucket.
type S3Writer struct {
	client PutObjectAPI
	bucket string
	key    string
	logger *zap.Logger
}

// NewS3Writer creates a sink that writes to bucket/prefix/name.
func NewS3Writer(client PutObjectAPI, bucket, prefix, name string, logger *zap.Logger) *S3Writer {
	if name == "" {
		name = DefaultFileName
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &S3Writer{
		client: client,
		bucket: bucket,
		key:    path.Join(prefix, name),
		logger: logger,
	}
}

// NewS3Client loads the default AWS credential chain for region.
func NewS3Client(ctx context.Context, region string) (*s3.Client, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return s3.NewFromConfig(cfg), nil
}

// Write uploads the encoded report.
func (w *S3Writer) Write(ctx context.Context, report domain.Report) (string, error) {
	data, err := Encode(report)
	if err != nil {
		return "", err
	}
	_, err = w.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(w.bucket),
		Key:         aws.String(w.key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json; charset=utf-8"),
	})
	if err != nil {
		return "", fmt.Errorf("upload report to s3://%s/%s: %w", w.bucket, w.key, err)
	}
	location := "s3://" + w.bucket + "/" + w.key
	w.logger.Debug("report uploaded", zap.String("location", location))
	return location, nil
}
