// Package mainconfig centralizes AWS SDK initialization so every binary
// (API server, llmtest) shares the same LocalStack/production wiring.
package mainconfig

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"

	appconfig "github.com/dentalstack/intake-platform/internal/config"
)

// LoadAWSConfig builds the shared aws.Config. Static credentials from the
// environment win over the default chain, and AWS_ENDPOINT_OVERRIDE points
// the Bedrock and SES clients at LocalStack during development.
func LoadAWSConfig(ctx context.Context, cfg *appconfig.Config) (aws.Config, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.AWSRegion)}
	if hasStaticCredentials(cfg) {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AWSAccessKeyID, cfg.AWSSecretAccessKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, err
	}
	if cfg.AWSEndpointOverride != "" {
		awsCfg.EndpointResolverWithOptions = endpointOverride(cfg.AWSEndpointOverride, cfg.AWSRegion)
	}
	return awsCfg, nil
}

func hasStaticCredentials(cfg *appconfig.Config) bool {
	return strings.TrimSpace(cfg.AWSAccessKeyID) != "" &&
		strings.TrimSpace(cfg.AWSSecretAccessKey) != ""
}

func endpointOverride(endpoint, region string) aws.EndpointResolverWithOptions {
	return aws.EndpointResolverWithOptionsFunc(
		func(service, _ string, _ ...interface{}) (aws.Endpoint, error) {
			switch service {
			case bedrockruntime.ServiceID, sesv2.ServiceID:
				return aws.Endpoint{
					URL:           endpoint,
					PartitionID:   "aws",
					SigningRegion: region,
				}, nil
			default:
				return aws.Endpoint{}, &aws.EndpointNotFoundError{}
			}
		},
	)
}
