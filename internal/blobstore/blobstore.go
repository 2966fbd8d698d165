package blobstore

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/healthbridge/medgrant/internal/models"
)

// Store uploads and deletes visit attachments. The grant bundle only carries
// the returned references through; file contents are never inspected.
type Store interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader) (models.FileRef, error)
	Delete(ctx context.Context, key string) error
}

// S3Store implements Store on top of an S3-compatible bucket
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

// NewS3Store creates an S3-backed store using the default AWS config chain.
func NewS3Store(ctx context.Context, bucket, publicURL string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.New(s3.Options{
		Region:       cfg.Region,
		Credentials:  cfg.Credentials,
		HTTPClient:   cfg.HTTPClient,
		BaseEndpoint: cfg.BaseEndpoint,
		UsePathStyle: true,
	})

	return &S3Store{client: client, bucket: bucket, publicURL: strings.TrimSuffix(publicURL, "/")}, nil
}

// Upload stores the object and returns its reference
func (s *S3Store) Upload(ctx context.Context, key, contentType string, body io.Reader) (models.FileRef, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return models.FileRef{}, fmt.Errorf("failed to upload object: %w", err)
	}

	return models.FileRef{
		URL: s.publicURL + "/" + key,
		Key: key,
	}, nil
}

// Delete removes the object by key
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}
