package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	config "github.com/maheshrc27/crosspost/configs"
)

// StorageService puts media where the platforms can fetch it by URL.
type StorageService interface {
	Upload(ctx context.Context, key string, file []byte, contentType string) (string, error)
	PublicURL(key string) string
}

type s3Storage struct {
	cfg    config.S3
	client *s3.Client
}

// NewStorageService builds an S3 client. A custom endpoint (R2, MinIO)
// switches to path-style addressing.
func NewStorageService(ctx context.Context, cfg config.S3) (StorageService, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKey != "" && cfg.SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &s3Storage{cfg: cfg, client: client}, nil
}

func (r *s3Storage) Upload(ctx context.Context, key string, file []byte, contentType string) (string, error) {
	if r.cfg.Bucket == "" {
		return "", fmt.Errorf("upload %s: S3_BUCKET is not set", key)
	}
	input := &s3.PutObjectInput{
		Bucket:      aws.String(r.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file),
		ContentType: aws.String(contentType),
	}

	if _, err := r.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("upload %s: %w", key, err)
	}
	return r.PublicURL(key), nil
}

func (r *s3Storage) PublicURL(key string) string {
	switch {
	case r.cfg.PublicURL != "":
		return strings.TrimRight(r.cfg.PublicURL, "/") + "/" + key
	case r.cfg.Endpoint != "":
		return fmt.Sprintf("%s/%s/%s", strings.TrimRight(r.cfg.Endpoint, "/"), r.cfg.Bucket, key)
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", r.cfg.Bucket, r.cfg.Region, key)
	}
}
