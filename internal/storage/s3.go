package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/recipeshare/backend/config"
)

// s3API is the slice of the S3 client this store uses, kept as an
// interface so tests can run without AWS credentials.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
}

// S3 stores pictures in an S3 bucket under the same relative keys the
// local store uses on disk.
type S3 struct {
	api    s3API
	bucket string
}

// NewS3 creates a store backed by the configured bucket.
func NewS3(cfg *config.S3Config) *S3 {
	return &S3{api: cfg.Client, bucket: cfg.BucketName}
}

// NewS3WithAPI allows injecting a fake client in tests.
func NewS3WithAPI(api s3API, bucket string) *S3 {
	return &S3{api: api, bucket: bucket}
}

func (s *S3) Save(ctx context.Context, upload *Upload) (string, error) {
	key := objectKey(upload.Filename)

	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(upload.Content),
		ContentType: aws.String(http.DetectContentType(upload.Content)),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3: %w", err)
	}
	return key, nil
}

func (s *S3) Delete(ctx context.Context, path string) error {
	if !validKey(path) {
		return fmt.Errorf("invalid storage path: %q", path)
	}
	_, err := s.api.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	return err
}

func (s *S3) Exists(ctx context.Context, path string) (bool, error) {
	if !validKey(path) {
		return false, nil
	}
	_, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(path),
	})
	if err != nil {
		var nf *types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
