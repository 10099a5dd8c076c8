// Package secrets encrypts secrets bundles and hosts them on the DON.
package secrets

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/alpacamint/internal/clients"
	"github.com/vadiminshakov/alpacamint/internal/entity"
)

const (
	// DefaultExpiration keeps uploaded secrets for three days.
	DefaultExpiration = 3 * 24 * time.Hour
	// MinExpiration is the shortest lifetime gateways accept.
	MinExpiration = 5 * time.Minute
)

type keyReader interface {
	CoordinatorAddress(ctx context.Context, donID string) (common.Address, error)
	DONPublicKey(ctx context.Context, coordinator common.Address) ([]byte, error)
	ThresholdPublicKey(ctx context.Context, coordinator common.Address) ([]byte, error)
}

type gatewaySender interface {
	Send(ctx context.Context, urls []string, msg clients.GatewayMessage) (clients.GatewayResult, error)
}

// Manager encrypts bundles for a DON and uploads them through its gateways.
type Manager struct {
	signer  *Signer
	router  keyReader
	gateway gatewaySender
	donID   string
	logger  *zap.Logger
	now     func() time.Time
	keys    *Keys
}

// NewManager creates a manager. Initialize must be called before encrypting.
func NewManager(signer *Signer, router keyReader, gateway gatewaySender, donID string, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		signer:  signer,
		router:  router,
		gateway: gateway,
		donID:   donID,
		logger:  logger,
		now:     time.Now,
	}
}

// Initialize fetches the DON encryption keys from chain.
func (m *Manager) Initialize(ctx context.Context) error {
	coordinator, err := m.router.CoordinatorAddress(ctx, m.donID)
	if err != nil {
		return errors.Wrap(err, "resolve coordinator")
	}
	donKey, err := m.router.DONPublicKey(ctx, coordinator)
	if err != nil {
		return errors.Wrap(err, "fetch don public key")
	}
	thresholdKey, err := m.router.ThresholdPublicKey(ctx, coordinator)
	if err != nil {
		return errors.Wrap(err, "fetch threshold public key")
	}

	m.keys = &Keys{DON: donKey, Threshold: thresholdKey}
	m.logger.Debug("secrets manager initialized",
		zap.String("don", m.donID),
		zap.String("coordinator", coordinator.Hex()),
		zap.String("owner", m.signer.Address().Hex()))
	return nil
}

// EncryptSecrets returns the 0x-hex ciphertext of bundle.
func (m *Manager) EncryptSecrets(bundle entity.Secrets) (string, error) {
	if m.keys == nil {
		return "", errors.New("secrets manager is not initialized")
	}
	return Encrypt(m.signer, *m.keys, bundle)
}

// UploadRequest describes where and for how long encrypted secrets are hosted.
type UploadRequest struct {
	EncryptedSecretsHexstring string
	GatewayURLs               []string
	SlotID                    uint
	Expiration                time.Duration
}

// UploadResult reports the DON answer. Success requires every responding
// node to acknowledge the upload.
type UploadResult struct {
	Success       bool
	Version       uint64
	Expiration    time.Time
	Gateway       string
	NodeResponses []entity.NodeResponse
}

type storageSignature struct {
	Address    string `json:"address"`
	SlotID     uint   `json:"slotid"`
	Payload    string `json:"payload"`
	Version    uint64 `json:"version"`
	Expiration int64  `json:"expiration"`
}

// UploadEncryptedSecretsToDON stores the ciphertext in req.SlotID. The
// version is the upload time in unix seconds.
func (m *Manager) UploadEncryptedSecretsToDON(ctx context.Context, req UploadRequest) (UploadResult, error) {
	if len(req.GatewayURLs) == 0 {
		return UploadResult{}, errors.New("at least one gateway url is required")
	}
	if req.Expiration < MinExpiration {
		return UploadResult{}, fmt.Errorf("expiration must be at least %s, got %s", MinExpiration, req.Expiration)
	}
	ciphertext, err := hexutil.Decode(req.EncryptedSecretsHexstring)
	if err != nil {
		return UploadResult{}, errors.Wrap(err, "decode encrypted secrets")
	}
	if len(ciphertext) == 0 {
		return UploadResult{}, errors.New("encrypted secrets are empty")
	}

	now := m.now()
	version := uint64(now.Unix())
	expiration := now.Add(req.Expiration)
	payload := base64.StdEncoding.EncodeToString(ciphertext)

	storageSig, err := m.signJSON(storageSignature{
		Address:    m.signer.Address().Hex(),
		SlotID:     req.SlotID,
		Payload:    payload,
		Version:    version,
		Expiration: expiration.UnixMilli(),
	})
	if err != nil {
		return UploadResult{}, err
	}

	body := clients.NewMessageBody(clients.MethodSecretsSet, m.donID, clients.SecretsSetPayload{
		SlotID:     req.SlotID,
		Version:    version,
		Payload:    payload,
		Expiration: expiration.UnixMilli(),
		Signature:  storageSig,
	})
	bodySig, err := m.signJSON(body)
	if err != nil {
		return UploadResult{}, err
	}

	res, err := m.gateway.Send(ctx, req.GatewayURLs, clients.NewGatewayMessage(body, bodySig))
	if err != nil {
		return UploadResult{}, err
	}

	success := len(res.NodeResponses) > 0
	for _, node := range res.NodeResponses {
		if !node.Success {
			success = false
			m.logger.Warn("node rejected secrets", zap.String("node", node.NodeAddress), zap.String("error", node.Error))
		}
	}

	return UploadResult{
		Success:       success,
		Version:       version,
		Expiration:    expiration,
		Gateway:       res.URL,
		NodeResponses: res.NodeResponses,
	}, nil
}

func (m *Manager) signJSON(v interface{}) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", errors.Wrap(err, "marshal signed payload")
	}
	return m.signer.SignMessage(raw)
}

// Owner is the address the uploaded secrets belong to.
func (m *Manager) Owner() common.Address {
	return m.signer.Address()
}

// DonID the manager uploads to.
func (m *Manager) DonID() string {
	return m.donID
}
