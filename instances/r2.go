package instances

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// R2Credentials holds the Cloudflare R2 account credentials
type R2Credentials struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
}

// R2CredentialsFromEnv reads R2_ACCOUNT_ID, R2_ACCESS_KEY_ID and R2_SECRET_ACCESS_KEY
func R2CredentialsFromEnv() (R2Credentials, error) {
	creds := R2Credentials{
		AccountID:       os.Getenv("R2_ACCOUNT_ID"),
		AccessKeyID:     os.Getenv("R2_ACCESS_KEY_ID"),
		SecretAccessKey: os.Getenv("R2_SECRET_ACCESS_KEY"),
	}
	if creds.AccountID == "" || creds.AccessKeyID == "" || creds.SecretAccessKey == "" {
		return creds, fmt.Errorf("R2 credentials not found in environment variables")
	}
	return creds, nil
}

// R2Endpoint returns the S3-compatible endpoint of an R2 account
func R2Endpoint(accountID string) string {
	return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", accountID)
}

// NewR2Client creates a client for a Cloudflare R2 bucket through its
// S3-compatible API
func NewR2Client(ctx context.Context, creds R2Credentials, bucketName string) (*S3Client, error) {
	endpoint := R2Endpoint(creds.AccountID)

	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(creds.AccessKeyID, creds.SecretAccessKey, "")),
		config.WithRegion("auto"), // R2 uses "auto" region
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	api := s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	return NewS3ClientFromAPI(api, bucketName, endpoint), nil
}
