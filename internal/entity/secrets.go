package entity

import (
	"sort"

	"github.com/pkg/errors"
	"github.com/vadiminshakov/alpacamint/internal/domain"
)

const (
	SecretAlpacaKey    = "alpacaKey"
	SecretAlpacaSecret = "alpacaSecret"
)

// Secrets is the bundle of named credentials handed to a script.
type Secrets map[string]string

// NewAlpacaSecrets builds the bundle consumed by the alpaca-balance script.
func NewAlpacaSecrets(key, secret string) Secrets {
	return Secrets{
		SecretAlpacaKey:    key,
		SecretAlpacaSecret: secret,
	}
}

// Require fails with domain.ErrMissingCredential on the first absent or empty name.
func (s Secrets) Require(names ...string) error {
	for _, name := range names {
		if s[name] == "" {
			return errors.Wrapf(domain.ErrMissingCredential, "%s is required", name)
		}
	}
	return nil
}

// Names returns the secret names in stable order.
func (s Secrets) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
