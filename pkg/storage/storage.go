package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/maestriajurisp/leads-api/pkg/logger"
	"github.com/maestriajurisp/leads-api/pkg/metrics"
	"go.uber.org/zap"
)

// ErrEmptyKey is returned when an object key is blank
var ErrEmptyKey = errors.New("object key is empty")

// StorageClient signs access to objects in an S3-compatible bucket
type StorageClient struct {
	s3Client   *s3.Client
	presigner  *s3.PresignClient
	bucketName string
	endpoint   string
}

// NewStorageClient creates a new S3-compatible storage client. An empty
// endpoint uses AWS.
func NewStorageClient(accessKeyID, secretAccessKey, bucketName, endpoint, region string) (*StorageClient, error) {
	if bucketName == "" {
		return nil, fmt.Errorf("bucket name is required")
	}

	// Default region if not provided
	if region == "" {
		region = "us-east-1"
	}

	opts := s3.Options{
		Region: region,
		Credentials: credentials.NewStaticCredentialsProvider(
			accessKeyID,
			secretAccessKey,
			"", // session token not needed
		),
	}
	if endpoint != "" {
		opts.BaseEndpoint = aws.String(strings.TrimRight(endpoint, "/"))
		opts.UsePathStyle = true
	}
	s3Client := s3.New(opts)

	logger.Info("Object storage client initialized",
		zap.String("bucket", bucketName),
		zap.String("endpoint", endpoint),
		zap.String("region", region),
	)

	return &StorageClient{
		s3Client:   s3Client,
		presigner:  s3.NewPresignClient(s3Client),
		bucketName: bucketName,
		endpoint:   endpoint,
	}, nil
}

// PresignGetURL returns a time-limited GET URL for key
func (s *StorageClient) PresignGetURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	start := time.Now()
	operation := "presignGetObject"

	if strings.TrimSpace(key) == "" {
		return "", ErrEmptyKey
	}

	req, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(ttl))

	duration := metrics.MeasureDuration(start)

	if err != nil {
		metrics.StorageRequestDuration.WithLabelValues(operation, "error").Observe(duration)
		metrics.StorageRequestTotal.WithLabelValues(operation, "error").Inc()
		logger.LogAPICall(ctx, "object_storage", operation, "error", duration,
			zap.Error(err),
			zap.String("key", key),
		)
		return "", fmt.Errorf("failed to presign object URL: %w", err)
	}

	metrics.StorageRequestDuration.WithLabelValues(operation, "success").Observe(duration)
	metrics.StorageRequestTotal.WithLabelValues(operation, "success").Inc()
	logger.LogAPICall(ctx, "object_storage", operation, "success", duration,
		zap.String("key", key),
		zap.Duration("ttl", ttl),
	)

	return req.URL, nil
}

// ObjectExists checks that key is present in the bucket
func (s *StorageClient) ObjectExists(ctx context.Context, key string) (bool, error) {
	start := time.Now()
	operation := "headObject"

	_, err := s.s3Client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(key),
	})

	duration := metrics.MeasureDuration(start)

	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			metrics.StorageRequestDuration.WithLabelValues(operation, "not_found").Observe(duration)
			metrics.StorageRequestTotal.WithLabelValues(operation, "not_found").Inc()
			return false, nil
		}
		metrics.StorageRequestDuration.WithLabelValues(operation, "error").Observe(duration)
		metrics.StorageRequestTotal.WithLabelValues(operation, "error").Inc()
		logger.LogAPICall(ctx, "object_storage", operation, "error", duration,
			zap.Error(err),
			zap.String("key", key),
		)
		return false, fmt.Errorf("failed to check object: %w", err)
	}

	metrics.StorageRequestDuration.WithLabelValues(operation, "success").Observe(duration)
	metrics.StorageRequestTotal.WithLabelValues(operation, "success").Inc()
	return true, nil
}

// Bucket returns the bucket name
func (s *StorageClient) Bucket() string {
	return s.bucketName
}
