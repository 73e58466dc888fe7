// Package awsutil builds aws.Config values for the archive and mailer clients.
package awsutil

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
)

// Options selects how credentials are resolved. Static keys win over a
// named profile; with neither, the default chain (env, IAM role) is used.
type Options struct {
	Region    string
	Profile   string
	AccessKey string
	SecretKey string
}

func (o Options) loadOptions() []func(*awsconfig.LoadOptions) error {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(o.Region)}
	switch {
	case o.AccessKey != "" && o.SecretKey != "":
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(o.AccessKey, o.SecretKey, "")))
	case o.Profile != "":
		opts = append(opts, awsconfig.WithSharedConfigProfile(o.Profile))
	}
	return opts
}

// LoadConfig resolves an aws.Config for the given options.
func LoadConfig(ctx context.Context, o Options) (aws.Config, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, o.loadOptions()...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("loading AWS config: %w", err)
	}
	return cfg, nil
}
