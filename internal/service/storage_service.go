// Package service contains the business logic layer.
package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "github.com/halcyonhealth/halcyon-api/internal/config"
)

// StorageService handles object storage for uploaded lab report
// documents (S3-compatible: Tigris, MinIO, AWS).
type StorageService struct {
	client  *s3.Client
	bucket  string
	enabled bool
	logger  *slog.Logger
}

// NewStorageService creates a new storage service.
func NewStorageService(cfg *appconfig.Config, logger *slog.Logger) (*StorageService, error) {
	if !cfg.StorageEnabled {
		logger.Info("storage service disabled - no bucket configured")
		return &StorageService{
			enabled: false,
			logger:  logger,
		}, nil
	}

	awsCfg, err := config.LoadDefaultConfig(context.Background(),
		config.WithRegion(cfg.StorageRegion),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.StorageAccessKey,
			cfg.StorageSecretKey,
			"",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	// Path-style addressing is required for some S3-compatible services
	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.StorageEndpoint)
		o.UsePathStyle = true
	})

	logger.Info("storage service initialized",
		"bucket", cfg.StorageBucket,
		"endpoint", cfg.StorageEndpoint,
	)

	return &StorageService{
		client:  client,
		bucket:  cfg.StorageBucket,
		enabled: true,
		logger:  logger,
	}, nil
}

// IsEnabled returns whether storage is configured and available.
func (s *StorageService) IsEnabled() bool {
	return s.enabled
}

// StoreReportDocument stores the original uploaded document for a lab
// report and returns the object key.
func (s *StorageService) StoreReportDocument(ctx context.Context, reportID, contentType string, body []byte) (string, error) {
	if !s.enabled {
		return "", fmt.Errorf("storage is not enabled")
	}

	key := fmt.Sprintf("lab-reports/%s", reportID)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to store report document: %w", err)
	}

	s.logger.Info("stored lab report document",
		"report_id", reportID,
		"key", key,
		"size_bytes", len(body),
	)

	return key, nil
}

// GetReportDocument retrieves a stored document by object key.
func (s *StorageService) GetReportDocument(ctx context.Context, key string) ([]byte, error) {
	if !s.enabled {
		return nil, fmt.Errorf("storage is not enabled")
	}

	output, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get report document: %w", err)
	}
	defer func() { _ = output.Body.Close() }()

	data, err := io.ReadAll(output.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read report document: %w", err)
	}

	return data, nil
}

// GetDocumentPresignedURL returns a presigned download URL for a stored
// document. The URL is valid for the specified duration (default 1 hour).
func (s *StorageService) GetDocumentPresignedURL(ctx context.Context, key string, expiry time.Duration) (string, error) {
	if !s.enabled {
		return "", fmt.Errorf("storage is not enabled")
	}

	if expiry == 0 {
		expiry = 1 * time.Hour
	}

	presignClient := s3.NewPresignClient(s.client)
	presignedReq, err := presignClient.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(expiry))
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}

	return presignedReq.URL, nil
}

// DeleteReportDocument deletes a stored document. Missing keys are not
// an error.
func (s *StorageService) DeleteReportDocument(ctx context.Context, key string) error {
	if !s.enabled || key == "" {
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete report document: %w", err)
	}

	s.logger.Info("deleted lab report document", "key", key)
	return nil
}
