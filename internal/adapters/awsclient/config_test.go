package awsclient

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfig(t *testing.T) {
	t.Run("static credentials and endpoint", func(t *testing.T) {
		cfg := NewConfig(Config{
			Region:          "eu-west-1",
			AccessKeyID:     "AKID",
			SecretAccessKey: "SECRET",
			Endpoint:        "http://localhost:4566",
		})
		assert.Equal(t, "eu-west-1", cfg.Region)
		assert.Equal(t, "http://localhost:4566", aws.ToString(cfg.BaseEndpoint))
		require.NotNil(t, cfg.Credentials)
		creds, err := cfg.Credentials.Retrieve(context.Background())
		require.NoError(t, err)
		assert.Equal(t, "AKID", creds.AccessKeyID)
		assert.Equal(t, "SECRET", creds.SecretAccessKey)
	})

	t.Run("no credentials", func(t *testing.T) {
		cfg := NewConfig(Config{Region: "us-east-1"})
		assert.Nil(t, cfg.Credentials)
		assert.Nil(t, cfg.BaseEndpoint)
	})
}

func TestNew(t *testing.T) {
	clients := New(Config{Region: "us-east-1", AccessKeyID: "a", SecretAccessKey: "b"})
	assert.NotNil(t, clients.SQS)
	assert.NotNil(t, clients.SNS)
	assert.NotNil(t, clients.DynamoDB)
}
