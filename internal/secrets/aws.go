package secrets

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/smithy-go"
	"github.com/google/uuid"
)

// AWSStore implements Store against AWS Secrets Manager.
type AWSStore struct {
	client *secretsmanager.Client
}

// NewAWSStore creates a Secrets Manager backed store.
func NewAWSStore(ctx context.Context, region, profile string) (*AWSStore, error) {
	var cfg aws.Config
	var err error

	if profile != "" {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
			awsconfig.WithSharedConfigProfile(profile),
		)
	} else {
		cfg, err = awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	return &AWSStore{client: secretsmanager.NewFromConfig(cfg)}, nil
}

// Fetch retrieves the current secret value for a reference.
func (s *AWSStore) Fetch(ctx context.Context, ref string) (string, error) {
	out, err := s.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(ref),
	})
	if err != nil {
		return "", classifyAWSError(ref, err)
	}
	if out.SecretString == nil || *out.SecretString == "" {
		return "", fmt.Errorf("secret %s: %w", ref, ErrSecretNotFound)
	}
	return *out.SecretString, nil
}

// CreateOrUpdate writes a secret, creating it on first use. Labels become
// resource tags; they are only applied at creation time.
func (s *AWSStore) CreateOrUpdate(ctx context.Context, ref, value string, labels map[string]string) error {
	tags := make([]types.Tag, 0, len(labels))
	for k, v := range labels {
		tags = append(tags, types.Tag{Key: aws.String(k), Value: aws.String(v)})
	}

	_, err := s.client.CreateSecret(ctx, &secretsmanager.CreateSecretInput{
		Name:               aws.String(ref),
		SecretString:       aws.String(value),
		ClientRequestToken: aws.String(uuid.New().String()),
		Tags:               tags,
	})
	if err == nil {
		return nil
	}

	var exists *types.ResourceExistsException
	if !errors.As(err, &exists) {
		return classifyAWSError(ref, err)
	}

	_, err = s.client.PutSecretValue(ctx, &secretsmanager.PutSecretValueInput{
		SecretId:           aws.String(ref),
		SecretString:       aws.String(value),
		ClientRequestToken: aws.String(uuid.New().String()),
	})
	if err != nil {
		return classifyAWSError(ref, err)
	}
	return nil
}

func classifyAWSError(ref string, err error) error {
	var nf *types.ResourceNotFoundException
	if errors.As(err, &nf) {
		return fmt.Errorf("secret %s: %w", ref, ErrSecretNotFound)
	}
	var ae smithy.APIError
	if errors.As(err, &ae) && ae.ErrorCode() == "AccessDeniedException" {
		return fmt.Errorf("secret %s: %w", ref, ErrPermissionDenied)
	}
	return fmt.Errorf("secret %s: %w", ref, err)
}
