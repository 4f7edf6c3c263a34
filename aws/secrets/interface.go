package secrets

import "context"

// BasicClient fetches secret strings by id.
type BasicClient interface {
	GetSecretString(ctx context.Context, secretId string) (string, error)
}
