// Package storage provides the object-store collaborator used for avatar
// uploads. It targets S3 and S3-compatible backends such as MinIO.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Config holds object storage settings.
type S3Config struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string

	// BaseEndpoint overrides the AWS endpoint for S3-compatible backends.
	BaseEndpoint string

	// PublicBaseURL is the address objects are served from. When empty, the
	// standard AWS virtual-hosted URL is used.
	PublicBaseURL string
}

// S3AvatarStore implements domain.AvatarStore on top of an S3 bucket.
type S3AvatarStore struct {
	client        *s3.Client
	bucket        string
	region        string
	publicBaseURL string
}

// NewS3AvatarStore creates an S3-backed avatar store.
func NewS3AvatarStore(ctx context.Context, cfg S3Config) (*S3AvatarStore, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3AvatarStore{
		client:        client,
		bucket:        cfg.Bucket,
		region:        cfg.Region,
		publicBaseURL: strings.TrimSuffix(cfg.PublicBaseURL, "/"),
	}, nil
}

// Upload writes the object and returns its public URL.
func (s *S3AvatarStore) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}

	return s.objectURL(key), nil
}

func (s *S3AvatarStore) objectURL(key string) string {
	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + key
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}
