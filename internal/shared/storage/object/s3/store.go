package s3

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/bads1de/CareerRise/internal/shared/awsconf"
	"github.com/bads1de/CareerRise/internal/shared/storage/object"
)

type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// Options configures the S3 store.
type Options struct {
	Region          string
	Bucket          string
	Prefix          string
	PublicURL       string
	KMSKeyID        string
	AccessKeyID     string
	SecretAccessKey string
}

// Store implements ObjectStore using Amazon S3.
type Store struct {
	client    s3API
	bucket    string
	prefix    string
	publicURL string
	kmsKeyID  string
}

// New creates a new S3-backed object store.
func New(ctx context.Context, opts Options) (*Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket is required")
	}

	cfg, err := awsconf.Load(ctx, awsconf.Settings{
		Region:          opts.Region,
		AccessKeyID:     opts.AccessKeyID,
		SecretAccessKey: opts.SecretAccessKey,
	})
	if err != nil {
		return nil, err
	}

	return newWithClient(s3.NewFromConfig(cfg), opts.Bucket, opts.Prefix, publicURL(opts, cfg.Region), opts.KMSKeyID), nil
}

func newWithClient(client s3API, bucket, prefix, public, kmsKeyID string) *Store {
	return &Store{
		client:    client,
		bucket:    bucket,
		prefix:    normalizePrefix(prefix),
		publicURL: strings.TrimRight(public, "/"),
		kmsKeyID:  strings.TrimSpace(kmsKeyID),
	}
}

// Put uploads the reader contents to S3 and returns the object's public URL.
func (s *Store) Put(ctx context.Context, key string, contentType string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	objectKey := applyPrefix(s.prefix, key)
	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(objectKey),
		Body:        r,
		ContentType: aws.String(contentType),
	}
	if s.kmsKeyID != "" {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAwsKms
		input.SSEKMSKeyId = aws.String(s.kmsKeyID)
	} else {
		input.ServerSideEncryption = s3types.ServerSideEncryptionAes256
	}

	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("s3 put object bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	return s.publicURL + "/" + objectKey, nil
}

// Delete removes the object behind url.
func (s *Store) Delete(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	objectKey, err := object.KeyFromURL(s.publicURL, url)
	if err != nil {
		return err
	}
	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(objectKey),
	}); err != nil {
		return fmt.Errorf("s3 delete object bucket=%s key=%s: %w", s.bucket, objectKey, err)
	}
	return nil
}

func publicURL(opts Options, region string) string {
	if opts.PublicURL != "" {
		return opts.PublicURL
	}
	if region == "" {
		region = "us-east-1"
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, region)
}

func normalizePrefix(prefix string) string {
	return strings.Trim(strings.TrimSpace(prefix), "/")
}

func applyPrefix(prefix, key string) string {
	cleanPrefix := strings.Trim(prefix, "/")
	cleanKey := strings.TrimLeft(key, "/")
	if cleanPrefix == "" {
		return cleanKey
	}
	if cleanKey == "" {
		return cleanPrefix
	}
	return cleanPrefix + "/" + cleanKey
}

var _ object.ObjectStore = (*Store)(nil)
