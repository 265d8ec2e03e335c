// Package awsconf loads the AWS SDK configuration shared by S3 and SQS clients.
package awsconf

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

const DefaultRegion = "us-east-1"

// Settings selects the region and, optionally, static credentials.
// Without a key pair the default provider chain applies (env, profile, role).
type Settings struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
}

func (s Settings) loadOptions() []func(*awsconfig.LoadOptions) error {
	region := strings.TrimSpace(s.Region)
	if region == "" {
		region = DefaultRegion
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if s.AccessKeyID != "" && s.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AccessKeyID, s.SecretAccessKey, ""),
		))
	}
	return opts
}

// Load resolves an aws.Config for s.
func Load(ctx context.Context, s Settings) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, s.loadOptions()...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}
