package s3

import (
	"context"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// GetAWSDefaultConfig returns the default AWS config based on environment variables,
// shared configuration and shared credentials files. Static keys, when given, take precedence.
func GetAWSDefaultConfig(accessKey, secretKey string) (aws.Config, error) {
	var optFns []func(*config.LoadOptions) error
	if accessKey != "" && secretKey != "" {
		optFns = append(optFns, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}
	return config.LoadDefaultConfig(context.Background(), optFns...)
}

// WithEndpoint points the client at an S3 compatible endpoint using path style addressing.
func WithEndpoint(endpoint string) func(*s3.Options) {
	return func(o *s3.Options) {
		if endpoint == "" {
			return
		}
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	}
}

func hasValidCredentials(config aws.Config) bool {
	if config.Credentials == nil {
		return false
	}
	credentials, err := config.Credentials.Retrieve(context.Background())
	if err != nil {
		return false
	}
	return credentials.HasKeys()
}

// sanitizeKey removes surrounding spaces, wildcards and slashes
func sanitizeKey(key string) string {
	return strings.Trim(strings.TrimSuffix(strings.TrimSpace(key), "*"), "/")
}
