package instances

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3API is the subset of the S3 client used to fetch results and upload reports
type S3API interface {
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Client handles results logs stored in an AWS S3 bucket
type S3Client struct {
	api        S3API
	bucketName string
	endpoint   string
}

// NewS3Client creates a new S3 client
func NewS3Client(ctx context.Context, region, bucketName string) (*S3Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion(region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return NewS3ClientFromAPI(s3.NewFromConfig(cfg), bucketName, fmt.Sprintf("https://s3.%s.amazonaws.com", region)), nil
}

// NewS3ClientFromAPI wraps an existing S3 API implementation
func NewS3ClientFromAPI(api S3API, bucketName, endpoint string) *S3Client {
	return &S3Client{
		api:        api,
		bucketName: bucketName,
		endpoint:   endpoint,
	}
}

// OpenObject streams an object's body. The caller closes it.
func (c *S3Client) OpenObject(ctx context.Context, objectKey string) (io.ReadCloser, error) {
	input := &s3.GetObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(objectKey),
	}

	result, err := c.api.GetObject(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("failed to get object %s: %w", objectKey, err)
	}

	return result.Body, nil
}

// UploadObject uploads an object to the bucket
func (c *S3Client) UploadObject(ctx context.Context, objectKey string, data []byte) error {
	input := &s3.PutObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(objectKey),
		Body:   bytes.NewReader(data),
	}

	if _, err := c.api.PutObject(ctx, input); err != nil {
		return fmt.Errorf("failed to upload object: %w", err)
	}

	return nil
}

// ObjectExists checks if an object exists
func (c *S3Client) ObjectExists(ctx context.Context, objectKey string) (bool, error) {
	input := &s3.HeadObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(objectKey),
	}

	_, err := c.api.HeadObject(ctx, input)
	if err != nil {
		var noSuchKey *types.NoSuchKey
		var notFound *types.NotFound
		if errors.As(err, &noSuchKey) || errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check object existence: %w", err)
	}

	return true, nil
}

// GetObjectSize returns the size of an object
func (c *S3Client) GetObjectSize(ctx context.Context, objectKey string) (int64, error) {
	input := &s3.HeadObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(objectKey),
	}

	result, err := c.api.HeadObject(ctx, input)
	if err != nil {
		return 0, fmt.Errorf("failed to get object size: %w", err)
	}

	return aws.ToInt64(result.ContentLength), nil
}

// GetEndpoint returns the bucket endpoint
func (c *S3Client) GetEndpoint() string {
	return c.endpoint
}
