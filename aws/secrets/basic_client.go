package secrets

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/secretsmanager"
	"github.com/aws/aws-sdk-go/service/secretsmanager/secretsmanageriface"
)

// NewBasicClient returns a Secrets Manager client for region.
// An empty region falls back to the AWS SDK's own resolution (AWS_REGION, shared config).
func NewBasicClient(region string) (BasicClient, error) {
	awsConfig := aws.NewConfig()
	if region != "" {
		awsConfig.Region = aws.String(region)
	}
	sess, err := session.NewSessionWithOptions(session.Options{
		Config:            *awsConfig,
		SharedConfigState: session.SharedConfigEnable,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating AWS session: %w", err)
	}
	return NewBasicClientWithAPI(secretsmanager.New(sess)), nil
}

// NewBasicClientWithAPI wraps an existing Secrets Manager API client.
func NewBasicClientWithAPI(api secretsmanageriface.SecretsManagerAPI) BasicClient {
	return &basicClient{api: api}
}

type basicClient struct {
	api secretsmanageriface.SecretsManagerAPI
}

func (s *basicClient) GetSecretString(ctx context.Context, secretId string) (string, error) {
	res, err := s.api.GetSecretValueWithContext(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(secretId),
	})
	if err != nil {
		if aerr, ok := err.(awserr.Error); ok && aerr.Code() == secretsmanager.ErrCodeResourceNotFoundException {
			return "", fmt.Errorf("secret %q not found", secretId)
		}
		return "", fmt.Errorf("error fetching secret %q: %w", secretId, err)
	}
	if res.SecretString == nil {
		return "", fmt.Errorf("secret %q has no string value", secretId)
	}
	return aws.StringValue(res.SecretString), nil
}
