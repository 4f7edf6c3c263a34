package config

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ghodss/yaml"
	"github.com/mattn/go-isatty"
	"github.com/relloyd/shipetl/aws/secrets"
	"github.com/relloyd/shipetl/constants"
	"golang.org/x/term"
)

// Credential names passed to a CredentialProvider.
const (
	CredentialPostgres  = "PostgreSQL"
	CredentialSnowflake = "Snowflake"
)

var passwordSources = map[string]struct{}{
	constants.PasswordSourceEnv:        {},
	constants.PasswordSourcePrompt:     {},
	constants.PasswordSourceAwsSecrets: {},
}

// CredentialProvider supplies a password for the named store.
// An empty result with no error means the provider has nothing to offer.
type CredentialProvider interface {
	GetPassword(ctx context.Context, name string) (string, error)
}

// EnvCredentialProvider relies on passwords already read from the environment or config file.
type EnvCredentialProvider struct{}

func (EnvCredentialProvider) GetPassword(ctx context.Context, name string) (string, error) {
	return "", nil
}

// PromptCredentialProvider reads passwords from an interactive terminal without echo.
type PromptCredentialProvider struct {
	In  *os.File
	Out io.Writer
}

func (p *PromptCredentialProvider) GetPassword(ctx context.Context, name string) (string, error) {
	fd := p.In.Fd()
	if !isatty.IsTerminal(fd) && !isatty.IsCygwinTerminal(fd) {
		return "", fmt.Errorf("unable to prompt for the %v password: input is not a terminal", name)
	}
	_, _ = fmt.Fprintf(p.Out, "%v password: ", name)
	b, err := term.ReadPassword(int(fd))
	_, _ = fmt.Fprintln(p.Out)
	if err != nil {
		return "", fmt.Errorf("error reading the %v password: %w", name, err)
	}
	return string(b), nil
}

// AwsSecretsCredentialProvider fetches passwords from AWS Secrets Manager.
// A secret may hold the bare password or a JSON document with a "password" field.
type AwsSecretsCredentialProvider struct {
	Client    secrets.BasicClient
	SecretIds map[string]string // credential name => secret id
}

func (p *AwsSecretsCredentialProvider) GetPassword(ctx context.Context, name string) (string, error) {
	id := p.SecretIds[name]
	if id == "" {
		return "", nil
	}
	s, err := p.Client.GetSecretString(ctx, id)
	if err != nil {
		return "", err
	}
	return parseSecretPassword(s)
}

func parseSecretPassword(s string) (string, error) {
	if !strings.HasPrefix(strings.TrimSpace(s), "{") { // if the secret is not a JSON document...
		return s, nil
	}
	doc := struct {
		Password string `json:"password"`
	}{}
	if err := yaml.Unmarshal([]byte(s), &doc); err != nil {
		return "", fmt.Errorf("unable to parse secret document: %w", err)
	}
	if doc.Password == "" {
		return "", fmt.Errorf("secret document is missing a password field")
	}
	return doc.Password, nil
}

// NewCredentialProvider returns the provider selected by cfg.PasswordSource.
func NewCredentialProvider(cfg *AppConfig) (CredentialProvider, error) {
	switch cfg.PasswordSource {
	case constants.PasswordSourceEnv, "":
		return EnvCredentialProvider{}, nil
	case constants.PasswordSourcePrompt:
		return &PromptCredentialProvider{In: os.Stdin, Out: os.Stderr}, nil
	case constants.PasswordSourceAwsSecrets:
		c, err := secrets.NewBasicClient(cfg.AwsRegion)
		if err != nil {
			return nil, err
		}
		return &AwsSecretsCredentialProvider{
			Client: c,
			SecretIds: map[string]string{
				CredentialPostgres:  cfg.PgSecretId,
				CredentialSnowflake: cfg.SfSecretId,
			},
		}, nil
	default:
		return nil, &ValidationError{Problems: []string{fmt.Sprintf("unsupported password source %q", cfg.PasswordSource)}}
	}
}

// ResolvePasswords fills any blank password in cfg using p.
func ResolvePasswords(ctx context.Context, cfg *AppConfig, p CredentialProvider) error {
	targets := []struct {
		name string
		pw   *string
	}{
		{CredentialPostgres, &cfg.PostgresConnectionDetails.Password},
		{CredentialSnowflake, &cfg.SnowflakeConnectionDetails.Password},
	}
	for _, t := range targets {
		if *t.pw != "" {
			continue
		}
		pw, err := p.GetPassword(ctx, t.name)
		if err != nil {
			return &ValidationError{Problems: []string{err.Error()}}
		}
		*t.pw = pw
	}
	return nil
}
