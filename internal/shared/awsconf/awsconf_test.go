package awsconf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaultsRegion(t *testing.T) {
	cfg, err := Load(context.Background(), Settings{})
	require.NoError(t, err)
	require.Equal(t, DefaultRegion, cfg.Region)
}

func TestLoadStaticCredentials(t *testing.T) {
	cfg, err := Load(context.Background(), Settings{Region: "ap-northeast-1", AccessKeyID: "AKIDEXAMPLE", SecretAccessKey: "secret"})
	require.NoError(t, err)
	require.Equal(t, "ap-northeast-1", cfg.Region)

	creds, err := cfg.Credentials.Retrieve(context.Background())
	require.NoError(t, err)
	require.Equal(t, "AKIDEXAMPLE", creds.AccessKeyID)
	require.Equal(t, "secret", creds.SecretAccessKey)
}
