package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/alpacamint/internal/domain"
	"github.com/vadiminshakov/alpacamint/internal/entity"
	"github.com/vadiminshakov/alpacamint/internal/services/sandbox"
	"github.com/vadiminshakov/alpacamint/internal/services/sources"
)

func testRegistry(t *testing.T) *sandbox.Registry {
	t.Helper()
	reg := sandbox.NewRegistry()
	require.NoError(t, sources.Register(reg, ""))
	require.NoError(t, reg.Register("echo", func(ctx context.Context, env sandbox.Env) ([]byte, error) { return nil, nil }))
	return reg
}

func TestAlpacaMintRequest(t *testing.T) {
	cfg := AlpacaMintRequest(entity.NewAlpacaSecrets("key", "secret"))
	require.NoError(t, cfg.Validate())
	assert.Equal(t, sources.AlpacaBalanceSource, cfg.Source)
	assert.Equal(t, entity.LocationInline, cfg.CodeLocation)
	assert.Equal(t, entity.LocationDONHosted, cfg.SecretsLocation)
	assert.Equal(t, domain.ReturnTypeUint256, cfg.ExpectedReturnType)
	assert.Empty(t, cfg.Args)
}

func TestBuild(t *testing.T) {
	reg := testRegistry(t)

	cfg, err := Build(reg, nil, Options{})
	require.NoError(t, err)
	assert.Equal(t, sources.AlpacaBalanceSource, cfg.Source)

	cfg, err = Build(reg, nil, Options{
		Source:             "echo",
		SecretsLocation:    entity.LocationInline,
		ExpectedReturnType: domain.ReturnTypeString,
		Args:               []string{"a"},
	})
	require.NoError(t, err)
	assert.Equal(t, "echo", cfg.Source)
	assert.Equal(t, entity.LocationInline, cfg.SecretsLocation)
	assert.Equal(t, domain.ReturnTypeString, cfg.ExpectedReturnType)
	assert.Equal(t, []string{"a"}, cfg.Args)

	_, err = Build(reg, nil, Options{Source: "unknown"})
	assert.Error(t, err)

	_, err = Build(reg, nil, Options{SecretsLocation: "s3"})
	assert.Error(t, err)
}

func TestResolveSecrets(t *testing.T) {
	env := entity.Secrets{entity.SecretAlpacaKey: "key", entity.SecretAlpacaSecret: "secret", "unused": "x"}

	cfg := AlpacaMintRequest(entity.Secrets{entity.SecretAlpacaKey: "", entity.SecretAlpacaSecret: ""})
	resolved := ResolveSecrets(cfg, env)
	assert.Equal(t, entity.NewAlpacaSecrets("key", "secret"), resolved.Secrets)

	partial := ResolveSecrets(cfg, entity.Secrets{entity.SecretAlpacaKey: "key"})
	assert.Equal(t, entity.NewAlpacaSecrets("key", ""), partial.Secrets)

	noNames := ResolveSecrets(AlpacaMintRequest(nil), env)
	assert.Equal(t, env, noNames.Secrets)
}
