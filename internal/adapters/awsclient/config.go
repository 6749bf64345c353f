// Package awsclient builds the AWS service clients from application config.
package awsclient

import (
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Config holds the settings shared by every AWS client.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
	// Endpoint overrides the service endpoint (e.g. LocalStack).
	Endpoint string
}

// Clients bundles the service clients the application uses.
type Clients struct {
	SQS      *sqs.Client
	SNS      *sns.Client
	DynamoDB *dynamodb.Client
}

// NewConfig returns an aws.Config. Static credentials are used when an access
// key is given; otherwise requests are sent unsigned, which only suits local emulators.
func NewConfig(cfg Config) aws.Config {
	awsCfg := aws.Config{Region: cfg.Region}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		)
	}
	if cfg.Endpoint != "" {
		awsCfg.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return awsCfg
}

// New builds every client from one aws.Config.
func New(cfg Config) *Clients {
	awsCfg := NewConfig(cfg)
	return &Clients{
		SQS:      sqs.NewFromConfig(awsCfg),
		SNS:      sns.NewFromConfig(awsCfg),
		DynamoDB: dynamodb.NewFromConfig(awsCfg),
	}
}
