package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/dooshek/honey/internal/logger"
)

// S3Store uploads clips to an S3 bucket. The storage reference is the object key.
type S3Store struct {
	uploader *s3manager.Uploader
	bucket   string
}

// NewS3Store returns a store using static credentials in the given region.
func NewS3Store(accessKeyID, secretAccessKey, region, bucket string) (*S3Store, error) {
	if region == "" {
		return nil, errors.New("aws region required (AWS_REGION_NAME)")
	}
	if bucket == "" {
		return nil, errors.New("s3 bucket required (AWS_S3_BUCKET_NAME)")
	}

	cfg := &aws.Config{Region: aws.String(region)}
	if accessKeyID != "" || secretAccessKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(accessKeyID, secretAccessKey, "")
	}

	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create aws session: %w", err)
	}

	return NewS3StoreWithSession(sess, bucket), nil
}

// NewS3StoreWithSession returns a store using an existing session
func NewS3StoreWithSession(sess *session.Session, bucket string) *S3Store {
	return &S3Store{
		uploader: s3manager.NewUploader(sess),
		bucket:   bucket,
	}
}

func (s *S3Store) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	out, err := s.uploader.UploadWithContext(ctx, &s3manager.UploadInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to bucket %s: %w", key, s.bucket, err)
	}

	logger.Debugf("Uploaded %d bytes to %s", len(data), out.Location)
	return key, nil
}
