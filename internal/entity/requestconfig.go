package entity

import (
	"fmt"

	"github.com/vadiminshakov/alpacamint/internal/domain"
)

// Location tells the DON where to find a piece of the request.
type Location string

const (
	LocationInline    Location = "inline"
	LocationRemote    Location = "remote"
	LocationDONHosted Location = "don_hosted"
)

// CodeLanguage of the request source.
type CodeLanguage string

// CodeLanguageGo marks sources implemented as registered Go scripts.
const CodeLanguageGo CodeLanguage = "go"

// RequestConfig describes an off-chain data-fetch request.
type RequestConfig struct {
	// Source is the name of the script to execute.
	Source             string
	CodeLocation       Location
	SecretsLocation    Location
	CodeLanguage       CodeLanguage
	ExpectedReturnType domain.ReturnType
	Args               []string
	Secrets            Secrets
}

// Validate checks the descriptor is complete. Secret values are not checked
// here; scripts enforce the credentials they need.
func (c RequestConfig) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("request source is required")
	}
	if c.CodeLocation != LocationInline {
		return fmt.Errorf("unsupported code location %q, only %q is supported", c.CodeLocation, LocationInline)
	}
	switch c.SecretsLocation {
	case LocationInline, LocationRemote, LocationDONHosted:
	default:
		return fmt.Errorf("unsupported secrets location %q", c.SecretsLocation)
	}
	if c.CodeLanguage != CodeLanguageGo {
		return fmt.Errorf("unsupported code language %q", c.CodeLanguage)
	}
	if _, err := domain.ParseReturnType(string(c.ExpectedReturnType)); err != nil {
		return err
	}
	return nil
}
