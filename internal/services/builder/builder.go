// Package builder assembles request descriptors.
package builder

import (
	"fmt"

	"github.com/vadiminshakov/alpacamint/internal/domain"
	"github.com/vadiminshakov/alpacamint/internal/entity"
	"github.com/vadiminshakov/alpacamint/internal/services/sources"
)

type scriptLookup interface {
	Names() []string
}

// Options override parts of the default alpaca-balance request.
type Options struct {
	Source             string
	SecretsLocation    entity.Location
	ExpectedReturnType domain.ReturnType
	Args               []string
}

// AlpacaMintRequest is the request minting against the Alpaca portfolio value.
func AlpacaMintRequest(secrets entity.Secrets) entity.RequestConfig {
	return entity.RequestConfig{
		Source:             sources.AlpacaBalanceSource,
		CodeLocation:       entity.LocationInline,
		SecretsLocation:    entity.LocationDONHosted,
		CodeLanguage:       entity.CodeLanguageGo,
		ExpectedReturnType: domain.ReturnTypeUint256,
		Args:               []string{},
		Secrets:            secrets,
	}
}

// Build applies opts on top of AlpacaMintRequest and checks the source is
// known to scripts.
func Build(scripts scriptLookup, secrets entity.Secrets, opts Options) (entity.RequestConfig, error) {
	cfg := AlpacaMintRequest(secrets)
	if opts.Source != "" {
		cfg.Source = opts.Source
	}
	if opts.SecretsLocation != "" {
		cfg.SecretsLocation = opts.SecretsLocation
	}
	if opts.ExpectedReturnType != "" {
		cfg.ExpectedReturnType = opts.ExpectedReturnType
	}
	if opts.Args != nil {
		cfg.Args = opts.Args
	}

	if err := cfg.Validate(); err != nil {
		return entity.RequestConfig{}, err
	}
	if scripts != nil && !contains(scripts.Names(), cfg.Source) {
		return entity.RequestConfig{}, fmt.Errorf("unknown source %q, available: %v", cfg.Source, scripts.Names())
	}
	return cfg, nil
}

// ResolveSecrets fills the secret names of cfg from available. Names that
// are not available stay empty so scripts can report them.
func ResolveSecrets(cfg entity.RequestConfig, available entity.Secrets) entity.RequestConfig {
	if len(cfg.Secrets) == 0 {
		cfg.Secrets = available
		return cfg
	}

	resolved := make(entity.Secrets, len(cfg.Secrets))
	for name := range cfg.Secrets {
		resolved[name] = available[name]
	}
	cfg.Secrets = resolved
	return cfg
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
