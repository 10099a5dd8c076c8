package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vadiminshakov/alpacamint/internal/domain"
	"github.com/vadiminshakov/alpacamint/internal/entity"
)

const (
	EnvAlpacaKey     = "ALPACA_API_KEY"
	EnvAlpacaSecret  = "ALPACA_API_SECRET"
	EnvAlpacaBaseURL = "ALPACA_BASE_URL"
	EnvRPCURL        = "SEPOLIA_RPC_URL"

	DefaultEnvFile       = ".env"
	DefaultRouterAddress = "0xb83E47C2bC239B3bf370bc41e1459A34b41238D0"
	DefaultDonID         = "fun-ethereum-sepolia-1"
	DefaultExpiration    = 4320 * time.Minute
)

// DefaultGatewayURLs are the Sepolia testnet gateways.
var DefaultGatewayURLs = []string{
	"https://01.functions-gateway.testnet.chain.link/",
	"https://02.functions-gateway.testnet.chain.link/",
}

type Config struct {
	AlpacaKey     string
	AlpacaSecret  string
	AlpacaBaseURL string
	RPCURL        string
	Network       Network
}

// Network describes the DON the secrets are uploaded to.
type Network struct {
	RouterAddress common.Address
	DonID         string
	GatewayURLs   []string
	SlotID        uint
	Expiration    time.Duration
}

type NetworkTmp struct {
	RouterAddress string        `yaml:"router_address,omitempty"`
	DonID         string        `yaml:"don_id,omitempty"`
	GatewayURLs   []string      `yaml:"gateway_urls,omitempty"`
	SlotID        *uint         `yaml:"slot_id,omitempty"`
	Expiration    time.Duration `yaml:"expiration,omitempty"`
}

// DefaultNetwork is the Ethereum Sepolia DON.
func DefaultNetwork() Network {
	return Network{
		RouterAddress: common.HexToAddress(DefaultRouterAddress),
		DonID:         DefaultDonID,
		GatewayURLs:   append([]string(nil), DefaultGatewayURLs...),
		SlotID:        0,
		Expiration:    DefaultExpiration,
	}
}

// Load reads the environment once. envFile is loaded if it exists, a
// missing file is only an error when it is not the default one. An empty
// networkFile keeps DefaultNetwork.
func Load(envFile, networkFile string) (Config, error) {
	if envFile == "" {
		envFile = DefaultEnvFile
	}
	if err := godotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) || envFile != DefaultEnvFile {
			return Config{}, errors.Wrapf(err, "load env file %s", envFile)
		}
	}

	cfg := Config{
		AlpacaKey:     os.Getenv(EnvAlpacaKey),
		AlpacaSecret:  os.Getenv(EnvAlpacaSecret),
		AlpacaBaseURL: os.Getenv(EnvAlpacaBaseURL),
		RPCURL:        os.Getenv(EnvRPCURL),
		Network:       DefaultNetwork(),
	}

	if networkFile != "" {
		network, err := getYaml(networkFile)
		if err != nil {
			return Config{}, err
		}
		cfg.Network = network
	}

	return cfg, nil
}

// Secrets is the bundle built from the Alpaca credentials.
func (c Config) Secrets() entity.Secrets {
	return entity.NewAlpacaSecrets(c.AlpacaKey, c.AlpacaSecret)
}

// RequireRPC fails when the RPC endpoint is not configured.
func (c Config) RequireRPC() error {
	if c.RPCURL == "" {
		return errors.Wrapf(domain.ErrMissingCredential, "%s is required", EnvRPCURL)
	}
	return nil
}

func getYaml(path string) (Network, error) {
	var tmp NetworkTmp

	f, err := os.ReadFile(path)
	if err != nil {
		return Network{}, err
	}
	if err := yaml.Unmarshal(f, &tmp); err != nil {
		return Network{}, err
	}

	return tmp.parse()
}

func (t NetworkTmp) parse() (Network, error) {
	network := DefaultNetwork()

	if t.RouterAddress != "" {
		if !common.IsHexAddress(t.RouterAddress) {
			return Network{}, fmt.Errorf("incorrect 'router_address' param in yaml config: %s", t.RouterAddress)
		}
		network.RouterAddress = common.HexToAddress(t.RouterAddress)
	}
	if t.DonID != "" {
		if len(t.DonID) > 31 {
			return Network{}, fmt.Errorf("incorrect 'don_id' param in yaml config (max 31 bytes): %s", t.DonID)
		}
		network.DonID = t.DonID
	}
	if len(t.GatewayURLs) > 0 {
		network.GatewayURLs = t.GatewayURLs
	}
	if t.SlotID != nil {
		network.SlotID = *t.SlotID
	}
	if t.Expiration != 0 {
		if t.Expiration < 5*time.Minute {
			return Network{}, fmt.Errorf("incorrect 'expiration' param in yaml config (min 5m): %s", t.Expiration)
		}
		network.Expiration = t.Expiration
	}

	return network, nil
}
