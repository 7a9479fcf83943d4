// Package secrets loads bot secrets from AWS SSM Parameter Store.
package secrets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/nextlevelbuilder/goalkeeper/internal/config"
)

// ssmAPI is the part of *ssm.Client the store uses.
type ssmAPI interface {
	GetParameter(ctx context.Context, in *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Getter fetches a single decrypted parameter.
type Getter interface {
	GetParameter(ctx context.Context, name string) (string, error)
}

// ParamStore reads SecureString parameters.
type ParamStore struct {
	api ssmAPI
}

// NewParamStore wraps an SSM API.
func NewParamStore(api ssmAPI) (*ParamStore, error) {
	if api == nil {
		return nil, errors.New("secrets: ssm api must not be nil")
	}
	return &ParamStore{api: api}, nil
}

// NewParamStoreFromEnv builds a ParamStore from the default AWS credential chain
// (env vars, shared config, instance role).
func NewParamStoreFromEnv(ctx context.Context) (*ParamStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("secrets: load aws config: %w", err)
	}
	return NewParamStore(ssm.NewFromConfig(awsCfg))
}

// GetParameter returns the decrypted value of name.
func (p *ParamStore) GetParameter(ctx context.Context, name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", errors.New("secrets: parameter name is required")
	}

	withDecryption := true
	out, err := p.api.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           &name,
		WithDecryption: &withDecryption,
	})
	if err != nil {
		return "", fmt.Errorf("secrets: get parameter %q: %w", name, err)
	}
	if out == nil || out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("secrets: parameter %q has no value", name)
	}
	return *out.Parameter.Value, nil
}

// ResolveTelegramToken fills cfg.Token from the parameter store when the token
// is not already set and a parameter name is configured. An explicit token wins.
func ResolveTelegramToken(ctx context.Context, cfg *config.TelegramConfig, getter Getter) error {
	if cfg.Token != "" || cfg.TokenParameter == "" {
		return nil
	}
	token, err := getter.GetParameter(ctx, cfg.TokenParameter)
	if err != nil {
		return err
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return fmt.Errorf("secrets: parameter %q is empty", cfg.TokenParameter)
	}
	cfg.Token = token
	return nil
}
