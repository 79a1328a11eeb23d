package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client used by S3Store.
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store keeps each key as an object under prefix in bucket.
type S3Store struct {
	client     S3API
	bucketName string
	prefix     string
}

// NewS3Store creates a new S3Store instance
func NewS3Store(client S3API, bucketName, prefix string) *S3Store {
	return &S3Store{
		client:     client,
		bucketName: bucketName,
		prefix:     prefix,
	}
}

// NewS3StoreFromEnv builds the S3 client from the default AWS credential chain.
func NewS3StoreFromEnv(ctx context.Context, bucketName, prefix string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewS3Store(s3.NewFromConfig(cfg), bucketName, prefix), nil
}

func (s *S3Store) objectKey(key string) string {
	return s.prefix + key
}

// Get downloads the object for key. A missing object is reported as not found.
func (s *S3Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.objectKey(key)),
	})
	if err != nil {
		var noSuchKey *types.NoSuchKey
		if errors.As(err, &noSuchKey) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get object from S3: %w", err)
	}
	defer result.Body.Close()

	data, err := io.ReadAll(result.Body)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read object body: %w", err)
	}

	return data, true, nil
}

// Set uploads value as the object for key.
func (s *S3Store) Set(ctx context.Context, key string, value []byte) error {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(s.objectKey(key)),
		Body:   bytes.NewReader(value),
	})
	if err != nil {
		return fmt.Errorf("failed to store object in S3: %w", err)
	}

	return nil
}

// Close is a no-op.
func (s *S3Store) Close() error {
	return nil
}
