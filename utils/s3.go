package utils

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"time"

	appconfig "github.com/Digitallaureate/kabirFirstBackend/config"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ErrStorageNotConfigured is returned when R2 credentials are absent.
var ErrStorageNotConfigured = errors.New("object storage is not configured")

// presignExpiry is used when no public base URL is configured.
const presignExpiry = 7 * 24 * time.Hour

// ObjectStorage uploads customer-service media to Cloudflare R2 (S3-compatible).
type ObjectStorage struct {
	client        *s3.Client
	presigner     *s3.PresignClient
	bucket        string
	publicBaseURL string
}

// NewObjectStorage builds an R2 client from configuration.
func NewObjectStorage(ctx context.Context, cfg appconfig.R2Config) (*ObjectStorage, error) {
	if !cfg.Enabled() {
		return nil, ErrStorageNotConfigured
	}

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"), // required by the SDK, ignored by R2
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load R2 config: %w", err)
	}

	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return &ObjectStorage{
		client:        client,
		presigner:     s3.NewPresignClient(client),
		bucket:        cfg.Bucket,
		publicBaseURL: cfg.PublicBaseURL,
	}, nil
}

// Upload stores the object and returns a URL the mobile app can load.
func (s *ObjectStorage) Upload(ctx context.Context, objectName string, body io.Reader, contentType string) (string, error) {
	if contentType == "" {
		contentType = mime.TypeByExtension(path.Ext(objectName))
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectName),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("R2 upload failed: %w", err)
	}

	if s.publicBaseURL != "" {
		return s.publicBaseURL + "/" + objectName, nil
	}
	return s.SignedURL(ctx, objectName, presignExpiry)
}

// SignedURL returns a presigned GET URL for the given object.
func (s *ObjectStorage) SignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	presigned, err := s.presigner.PresignGetObject(ctx,
		&s3.GetObjectInput{
			Bucket: aws.String(s.bucket),
			Key:    aws.String(objectName),
		},
		func(po *s3.PresignOptions) {
			po.Expires = expiry
		},
	)
	if err != nil {
		return "", fmt.Errorf("presign R2 URL: %w", err)
	}
	return presigned.URL, nil
}
