package instances

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// Scheme identifies where a results log lives
type Scheme string

const (
	SchemeLocal Scheme = "file"
	SchemeS3    Scheme = "s3"
	SchemeR2    Scheme = "r2"
)

// Location is a parsed results log argument
type Location struct {
	Scheme Scheme
	Bucket string
	// Key is the object key, or the file path for local logs
	Key string
}

// ObjectStore is implemented by S3Client and used for remote results logs
type ObjectStore interface {
	OpenObject(ctx context.Context, objectKey string) (io.ReadCloser, error)
	ObjectExists(ctx context.Context, objectKey string) (bool, error)
	UploadObject(ctx context.Context, objectKey string, data []byte) error
	GetEndpoint() string
}

// ParseLocation parses a local path, s3://bucket/key or r2://bucket/key
func ParseLocation(arg string) (Location, error) {
	for _, scheme := range []Scheme{SchemeS3, SchemeR2} {
		prefix := string(scheme) + "://"
		if !strings.HasPrefix(arg, prefix) {
			continue
		}
		bucket, key, ok := strings.Cut(strings.TrimPrefix(arg, prefix), "/")
		if !ok || bucket == "" || key == "" {
			return Location{}, fmt.Errorf("invalid %s location %q, expected %sbucket/key", scheme, arg, prefix)
		}
		return Location{Scheme: scheme, Bucket: bucket, Key: key}, nil
	}
	return Location{Scheme: SchemeLocal, Key: arg}, nil
}

// Remote reports whether the location is in an object store
func (l Location) Remote() bool {
	return l.Scheme != SchemeLocal
}

func (l Location) String() string {
	if !l.Remote() {
		return l.Key
	}
	return fmt.Sprintf("%s://%s/%s", l.Scheme, l.Bucket, l.Key)
}

// NewObjectStore creates the client for a remote location
func NewObjectStore(ctx context.Context, l Location, region string) (ObjectStore, error) {
	switch l.Scheme {
	case SchemeS3:
		client, err := NewS3Client(ctx, region, l.Bucket)
		if err != nil {
			return nil, err
		}
		return client, nil
	case SchemeR2:
		creds, err := R2CredentialsFromEnv()
		if err != nil {
			return nil, err
		}
		client, err := NewR2Client(ctx, creds, l.Bucket)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("%s is not an object store location", l)
	}
}
