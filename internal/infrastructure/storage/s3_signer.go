package storage

import (
	"context"
	"fmt"
	"time"

	"mediagate/internal/core/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.uber.org/zap"
)

// S3Signer issues provider-signed GET URLs for storage-backed media
// (audio, images). The presigned URL proves integrity to the storage
// provider; principal binding is layered on top by the capability issuer.
type S3Signer struct {
	presign *s3.PresignClient
	bucket  string
	timeout time.Duration
	logger  *zap.SugaredLogger
}

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	AccessKey string
	SecretKey string
	Timeout   time.Duration
}

func NewS3Signer(ctx context.Context, cfg S3Config, logger *zap.SugaredLogger) (*S3Signer, error) {
	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, fmt.Errorf("storage credentials: %w", domain.ErrMissingSigningKey)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("failed to load storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Signer{
		presign: s3.NewPresignClient(client),
		bucket:  cfg.Bucket,
		timeout: cfg.Timeout,
		logger:  logger,
	}, nil
}

// SignGetURL produces a presigned GET URL for the given object locator.
// The call is bounded by the configured timeout: a slow provider fails
// closed rather than hanging a playback start.
func (s *S3Signer) SignGetURL(ctx context.Context, locator string, expires time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	req, err := s.presign.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(locator),
	}, s3.WithPresignExpires(expires))
	if err != nil {
		s.logger.Errorw("presign failed",
			"bucket", s.bucket,
			"key", locator,
			"error", err,
		)
		return "", fmt.Errorf("failed to presign object %s: %w", locator, err)
	}

	return req.URL, nil
}
