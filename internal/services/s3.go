package services

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/samriddhidvd/TechM-AI-Assistant/internal/config"
	"github.com/samriddhidvd/TechM-AI-Assistant/internal/utils/logger"
)

// S3Archiver keeps a raw copy of every fetched document in object
// storage, keyed by drive file ID and name. The ingest pipeline treats
// archival as best-effort.
type S3Archiver struct {
	client     *s3.Client
	bucketName string
	logger     *logger.Logger
}

func NewS3Archiver(cfg config.S3Config) (*S3Archiver, error) {
	log := logger.New("s3_archiver")

	if cfg.AccessKey == "" || cfg.SecretKey == "" {
		return nil, log.Error("S3 credentials are empty ❌", fmt.Errorf("accessKey or secretKey is empty"))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.TODO(),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)),
		awsconfig.WithRetryMode(aws.RetryModeStandard),
		awsconfig.WithRetryMaxAttempts(3),
	)
	if err != nil {
		return nil, log.Error("Unable to load SDK config ❌", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.%s", cfg.Region, cfg.Endpoint))
		}
	})

	// Verify credentials before the first real upload.
	_, err = client.ListObjectsV2(context.TODO(), &s3.ListObjectsV2Input{
		Bucket: aws.String(cfg.BucketName),
	})
	if err != nil {
		return nil, log.Error("Failed to verify S3 credentials ❌", err)
	}

	log.Success("S3 archiver initialized successfully ✅")

	return &S3Archiver{
		client:     client,
		bucketName: cfg.BucketName,
		logger:     log,
	}, nil
}

// Store uploads one raw document copy under the given key.
func (s *S3Archiver) Store(ctx context.Context, key string, data []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String("documents/" + key),
		Body:   bytes.NewReader(data),
	})
	if err != nil {
		return s.logger.Error("Failed to archive document ❌", err)
	}
	s.logger.Info("📦 Archived document copy: %s", key)
	return nil
}
