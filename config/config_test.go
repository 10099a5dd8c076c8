package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vadiminshakov/alpacamint/internal/domain"
	"github.com/vadiminshakov/alpacamint/internal/entity"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{EnvAlpacaKey, EnvAlpacaSecret, EnvAlpacaBaseURL, EnvRPCURL} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func TestLoad_EnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte(
		"ALPACA_API_KEY=key\nALPACA_API_SECRET=secret\nSEPOLIA_RPC_URL=http://localhost:8545\n"), 0o600))

	cfg, err := Load(envFile, "")
	require.NoError(t, err)

	assert.Equal(t, "key", cfg.AlpacaKey)
	assert.Equal(t, "secret", cfg.AlpacaSecret)
	assert.Equal(t, "http://localhost:8545", cfg.RPCURL)
	assert.Empty(t, cfg.AlpacaBaseURL)
	assert.Equal(t, DefaultNetwork(), cfg.Network)
	assert.Equal(t, entity.NewAlpacaSecrets("key", "secret"), cfg.Secrets())
	assert.NoError(t, cfg.RequireRPC())
}

func TestLoad_ProcessEnvWins(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvAlpacaKey, "from-process")

	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, []byte("ALPACA_API_KEY=from-file\n"), 0o600))

	cfg, err := Load(envFile, "")
	require.NoError(t, err)
	assert.Equal(t, "from-process", cfg.AlpacaKey)
}

func TestLoad_MissingEnvFile(t *testing.T) {
	clearEnv(t)

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"), "")
	assert.Error(t, err)

	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("", "")
	require.NoError(t, err)
	assert.ErrorIs(t, cfg.RequireRPC(), domain.ErrMissingCredential)
	assert.ErrorIs(t, cfg.Secrets().Require(entity.SecretAlpacaKey), domain.ErrMissingCredential)
}

func TestLoad_NetworkFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	envFile := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envFile, nil, 0o600))

	networkFile := filepath.Join(dir, "network.yaml")
	require.NoError(t, os.WriteFile(networkFile, []byte(`
router_address: "0x6E2dc0F9DB014aE19888F539E59285D2Ea04244C"
don_id: fun-polygon-amoy-1
gateway_urls:
  - https://gateway.example/
slot_id: 2
expiration: 1h
`), 0o600))

	cfg, err := Load(envFile, networkFile)
	require.NoError(t, err)

	assert.Equal(t, common.HexToAddress("0x6E2dc0F9DB014aE19888F539E59285D2Ea04244C"), cfg.Network.RouterAddress)
	assert.Equal(t, "fun-polygon-amoy-1", cfg.Network.DonID)
	assert.Equal(t, []string{"https://gateway.example/"}, cfg.Network.GatewayURLs)
	assert.Equal(t, uint(2), cfg.Network.SlotID)
	assert.Equal(t, time.Hour, cfg.Network.Expiration)
}

func TestNetworkTmp_Parse(t *testing.T) {
	network, err := NetworkTmp{}.parse()
	require.NoError(t, err)
	assert.Equal(t, DefaultNetwork(), network)
	assert.Equal(t, 72*time.Hour, network.Expiration)

	tests := []struct {
		name string
		tmp  NetworkTmp
	}{
		{name: "bad router", tmp: NetworkTmp{RouterAddress: "0x1234"}},
		{name: "long don id", tmp: NetworkTmp{DonID: "fun-ethereum-sepolia-1-but-way-too-long"}},
		{name: "short expiration", tmp: NetworkTmp{Expiration: time.Minute}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.tmp.parse()
			assert.Error(t, err)
		})
	}
}
