package media

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"go.uber.org/zap"

	"github.com/Devkz19/Take-Home-inventory/internal/config"
	"github.com/Devkz19/Take-Home-inventory/internal/models"
)

var (
	// ErrUpload wraps every failure to store a file remotely.
	ErrUpload = errors.New("image could not be uploaded")

	// ErrMissingObjectKey is returned by Remove for descriptors written
	// without an object key.
	ErrMissingObjectKey = errors.New("image descriptor has no object key")
)

// S3Store keeps product images in an S3-compatible bucket.
type S3Store struct {
	client *s3.Client
	cfg    config.MediaConfig
	log    *zap.Logger
}

func NewS3Store(ctx context.Context, cfg config.MediaConfig, log *zap.Logger) (*S3Store, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			"",
		)),
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithRetryMaxAttempts(1),
		awsconfig.WithRequestChecksumCalculation(aws.RequestChecksumCalculationWhenRequired),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &S3Store{
		client: client,
		cfg:    cfg,
		log:    log,
	}, nil
}

// EnsureBucket creates the configured bucket when it does not exist yet.
func (s *S3Store) EnsureBucket(ctx context.Context) error {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(s.cfg.Bucket),
	})
	if err == nil {
		s.log.Info("Bucket already exists", zap.String("bucket", s.cfg.Bucket))
		return nil
	}

	input := &s3.CreateBucketInput{Bucket: aws.String(s.cfg.Bucket)}
	// us-east-1 rejects an explicit location constraint
	if s.cfg.Region != "" && s.cfg.Region != "us-east-1" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.cfg.Region),
		}
	}

	if _, err := s.client.CreateBucket(ctx, input); err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", s.cfg.Bucket, err)
	}

	s.log.Info("Bucket created", zap.String("bucket", s.cfg.Bucket))
	return nil
}

// Upload stores file under the configured folder and describes the result.
func (s *S3Store) Upload(ctx context.Context, file *models.UploadedFile) (*models.ImageDescriptor, error) {
	key := path.Join(s.cfg.Folder, file.StoredName)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(file.Content),
		ContentType:   aws.String(file.ContentType),
		ContentLength: aws.Int64(int64(len(file.Content))),
	})
	if err != nil {
		s.log.Error("Failed to upload image",
			zap.String("key", key),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrUpload, err)
	}

	s.log.Info("Image uploaded",
		zap.String("key", key),
		zap.Int64("size", file.Size))

	return &models.ImageDescriptor{
		FileName:  file.OriginalName,
		FilePath:  s.objectURL(key),
		FileType:  file.ContentType,
		FileSize:  FormatFileSize(file.Size, 2),
		ObjectKey: key,
	}, nil
}

// Remove deletes the object behind image.
func (s *S3Store) Remove(ctx context.Context, image *models.ImageDescriptor) error {
	if image == nil || image.ObjectKey == "" {
		return ErrMissingObjectKey
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(image.ObjectKey),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", image.ObjectKey, err)
	}

	s.log.Info("Image removed", zap.String("key", image.ObjectKey))
	return nil
}

func (s *S3Store) objectURL(key string) string {
	return strings.TrimRight(s.cfg.PublicURL, "/") + "/" + key
}
