package store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"tapedeck/internal/shared"
)

// S3Store keeps artifacts in an S3 bucket. The local filesystem is only a
// staging area; Put uploads the finished file and removes the staging copy.
type S3Store struct {
	client     *s3.Client
	bucket     string
	prefix     string
	publicBase string
}

// NewS3Store builds an S3-backed store from the standard AWS credential
// chain and verifies the bucket is reachable. Callers treat an error here as
// a signal to start in degraded (local-only) mode rather than crash.
func NewS3Store(ctx context.Context, cfg shared.S3Config) (*S3Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 store: %w: bucket is required", shared.ErrInvalidConfig)
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s := &S3Store{
		client:     s3.NewFromConfig(awsCfg),
		bucket:     cfg.Bucket,
		prefix:     strings.Trim(cfg.Prefix, "/"),
		publicBase: strings.TrimRight(cfg.PublicBaseURL, "/"),
	}
	if s.publicBase == "" {
		s.publicBase = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}

	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(cfg.Bucket)}); err != nil {
		return nil, fmt.Errorf("s3 bucket %s unreachable: %w", cfg.Bucket, err)
	}
	return s, nil
}

// Exists reports whether the object is present in the bucket.
func (s *S3Store) Exists(ctx context.Context, location string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(location)),
	})
	if err != nil {
		var notFound *types.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("failed to head object: %w", err)
	}
	return true, nil
}

// Put uploads the staged file and deletes the local copy on success.
func (s *S3Store) Put(ctx context.Context, localPath, location string) (string, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to open staged artifact: %w", err)
	}
	defer f.Close()

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(location)),
		Body:        f,
		ContentType: aws.String("audio/mpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload artifact: %w", err)
	}

	f.Close()
	_ = os.Remove(localPath)
	return s.PublicURL(location), nil
}

// Open streams the object body from the bucket.
func (s *S3Store) Open(ctx context.Context, location string) (io.ReadCloser, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(location)),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get object: %w", err)
	}
	return out.Body, nil
}

// PublicURL returns the long-lived retrieval URL for location.
func (s *S3Store) PublicURL(location string) string {
	return s.publicBase + "/" + s.key(location)
}

func (s *S3Store) key(location string) string {
	if s.prefix == "" {
		return location
	}
	return s.prefix + "/" + location
}
