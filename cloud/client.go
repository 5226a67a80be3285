// Package cloud wraps the managed-platform services the pipeline delegates
// to: object storage for dataset partitions, the training service, the
// hosting/inference endpoint and the hyperparameter tuning service. The
// services themselves are opaque; these clients only shape requests, poll
// for terminal states and parse responses.
package cloud

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/sagemaker"
	"github.com/aws/aws-sdk-go-v2/service/sagemakerruntime"

	"github.com/mlopsbox/dmpipe/pkg/errors"
)

// Clients bundles the platform clients a full workflow run needs.
type Clients struct {
	S3        *s3.Client
	SageMaker *sagemaker.Client
	Runtime   *sagemakerruntime.Client
}

// NewClients builds the AWS service clients for the given region. An
// optional endpoint override with path-style addressing is supported for
// local object-storage doubles.
func NewClients(ctx context.Context, region, s3Endpoint string) (*Clients, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
	)
	if err != nil {
		return nil, errors.Wrap(err, "cloud: load aws config")
	}

	s3Opts := []func(*s3.Options){}
	if s3Endpoint != "" {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(s3Endpoint)
			o.UsePathStyle = true
		})
	}

	return &Clients{
		S3:        s3.NewFromConfig(cfg, s3Opts...),
		SageMaker: sagemaker.NewFromConfig(cfg),
		Runtime:   sagemakerruntime.NewFromConfig(cfg),
	}, nil
}
