// Package sources holds the request scripts executed by the DON.
package sources

import (
	"context"
	"encoding/json"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/vadiminshakov/alpacamint/internal/domain"
	"github.com/vadiminshakov/alpacamint/internal/entity"
	"github.com/vadiminshakov/alpacamint/internal/services/sandbox"
)

const (
	// AlpacaBalanceSource is the registered name of the balance script.
	AlpacaBalanceSource = "alpaca-balance"

	DefaultAlpacaBaseURL = "https://paper-api.alpaca.markets"

	// BalanceQueryTimeout bounds the single account request.
	BalanceQueryTimeout = 9 * time.Second

	alpacaKeyHeader    = "APCA-API-KEY-ID"
	alpacaSecretHeader = "APCA-API-SECRET-KEY"
	accountPath        = "/v2/account"
)

type httpRequester interface {
	MakeHTTPRequest(ctx context.Context, req entity.HTTPRequest) (*entity.HTTPResponse, error)
}

// AlpacaBalance reads the portfolio value of an Alpaca account and encodes it
// as an 18-decimal fixed-point uint256.
type AlpacaBalance struct {
	secrets entity.Secrets
	http    httpRequester
	baseURL string
	logger  *zap.Logger
}

// NewAlpacaBalance creates the balance fetcher. An empty baseURL selects the paper trading API.
func NewAlpacaBalance(secrets entity.Secrets, requester httpRequester, baseURL string, logger *zap.Logger) *AlpacaBalance {
	if baseURL == "" {
		baseURL = DefaultAlpacaBaseURL
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AlpacaBalance{
		secrets: secrets,
		http:    requester,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

type accountResponse struct {
	PortfolioValue *decimal.Decimal `json:"portfolio_value"`
}

// Balance fetches the portfolio value. Credentials are checked before any request is made.
func (a *AlpacaBalance) Balance(ctx context.Context) (decimal.Decimal, error) {
	if err := a.secrets.Require(entity.SecretAlpacaKey, entity.SecretAlpacaSecret); err != nil {
		return decimal.Zero, err
	}

	resp, err := a.http.MakeHTTPRequest(ctx, entity.HTTPRequest{
		URL:    a.baseURL + accountPath,
		Method: http.MethodGet,
		Headers: map[string]string{
			"accept":           "application/json",
			alpacaKeyHeader:    a.secrets[entity.SecretAlpacaKey],
			alpacaSecretHeader: a.secrets[entity.SecretAlpacaSecret],
		},
		Timeout: BalanceQueryTimeout,
	})
	if err != nil {
		if errors.Is(err, domain.ErrNetworkFailure) || errors.Is(err, domain.ErrLimitExceeded) {
			return decimal.Zero, err
		}
		return decimal.Zero, errors.Wrapf(domain.ErrNetworkFailure, "alpaca account request: %v", err)
	}
	if !resp.OK() {
		return decimal.Zero, errors.Wrapf(domain.ErrBadResponse, "alpaca returned status %d: %s", resp.StatusCode, string(resp.Data))
	}

	var account accountResponse
	if err := json.Unmarshal(resp.Data, &account); err != nil {
		return decimal.Zero, errors.Wrapf(domain.ErrBadResponse, "decode alpaca account: %v", err)
	}
	if account.PortfolioValue == nil {
		return decimal.Zero, errors.Wrap(domain.ErrBadResponse, "alpaca account has no portfolio_value")
	}

	return *account.PortfolioValue, nil
}

// Encoded fetches the balance and returns round(balance * 10^18).
func (a *AlpacaBalance) Encoded(ctx context.Context) (*big.Int, error) {
	balance, err := a.Balance(ctx)
	if err != nil {
		return nil, err
	}

	a.logger.Info("Alpaca balance: $" + balance.String())

	return domain.EncodeBalance(balance)
}

// Run returns the uint256 word delivered on-chain.
func (a *AlpacaBalance) Run(ctx context.Context) ([]byte, error) {
	encoded, err := a.Encoded(ctx)
	if err != nil {
		return nil, err
	}
	return domain.EncodeUint256(encoded)
}

// AlpacaBalanceScript adapts AlpacaBalance to the sandbox script signature.
func AlpacaBalanceScript(baseURL string) sandbox.Script {
	return func(ctx context.Context, env sandbox.Env) ([]byte, error) {
		return NewAlpacaBalance(env.Secrets, env.HTTP, baseURL, env.Logger).Run(ctx)
	}
}

// Register adds every known source to the registry.
func Register(reg *sandbox.Registry, alpacaBaseURL string) error {
	return reg.Register(AlpacaBalanceSource, AlpacaBalanceScript(alpacaBaseURL))
}
