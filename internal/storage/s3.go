package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"trendgraph/internal/logger"
)

// S3API is the part of the S3 client the storage needs
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Client handles Amazon S3 storage operations
type S3Client struct {
	client S3API
	bucket string
	log    *logger.Logger
}

// NewS3Client creates a client from the default AWS configuration chain
func NewS3Client(ctx context.Context, bucket string) (*S3Client, error) {
	if bucket == "" {
		return nil, errors.New("S3 bucket name is required")
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3ClientWithAPI(s3.NewFromConfig(cfg), bucket), nil
}

// NewS3ClientWithAPI wraps an existing S3 client
func NewS3ClientWithAPI(api S3API, bucket string) *S3Client {
	return &S3Client{
		client: api,
		bucket: bucket,
		log:    logger.Component("s3").With(logger.Fields{"bucket": bucket}),
	}
}

// Close is a no-op; the SDK client holds no resources
func (s *S3Client) Close() error {
	return nil
}

// CreateDir is a no-op: S3 has no directories
func (s *S3Client) CreateDir(ctx context.Context, dirPath string) error {
	return nil
}

// StoreFile uploads a file with a content type derived from its name
func (s *S3Client) StoreFile(ctx context.Context, filePath string, fileData []byte) error {
	key := cleanKey(filePath)
	s.log.Debug("Storing file", logger.Fields{"key": key, "bytes": len(fileData)})

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         bytes.NewReader(fileData),
		ContentType:  aws.String(GetContentType(key)),
		CacheControl: aws.String("public, max-age=3600"),
	})
	if err != nil {
		return fmt.Errorf("failed to upload s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// GetFile downloads a file
func (s *S3Client) GetFile(ctx context.Context, filePath string) ([]byte, error) {
	key := cleanKey(filePath)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	var noKey *types.NoSuchKey
	if errors.As(err, &noKey) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filePath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to download s3://%s/%s: %w", s.bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read s3://%s/%s: %w", s.bucket, key, err)
	}
	return data, nil
}

// ListDir lists keys under dirPath, following continuation tokens
func (s *S3Client) ListDir(ctx context.Context, dirPath string, recursive bool) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(dirPrefix(dirPath)),
	}
	if !recursive {
		input.Delimiter = aws.String("/")
	}

	var keys []string
	for {
		result, err := s.client.ListObjectsV2(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		for _, obj := range result.Contents {
			keys = append(keys, aws.ToString(obj.Key))
		}
		if result.IsTruncated == nil || !*result.IsTruncated {
			break
		}
		input.ContinuationToken = result.NextContinuationToken
	}

	sort.Strings(keys)
	return keys, nil
}

// FileExists checks if an object exists
func (s *S3Client) FileExists(ctx context.Context, filePath string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(cleanKey(filePath)),
	})
	var notFound *types.NotFound
	if errors.As(err, &notFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to head s3://%s/%s: %w", s.bucket, filePath, err)
	}
	return true, nil
}
