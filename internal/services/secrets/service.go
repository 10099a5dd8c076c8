package secrets

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/alpacamint/internal/domain"
	"github.com/vadiminshakov/alpacamint/internal/entity"
)

type uploadStore interface {
	Save(upload entity.SecretsUpload) error
}

// Options of a single upload.
type Options struct {
	GatewayURLs []string
	SlotID      uint
	Expiration  time.Duration
}

// Service runs the whole upload flow: initialize, encrypt, upload, record.
type Service struct {
	manager *Manager
	store   uploadStore
	logger  *zap.Logger
}

// NewService creates the upload flow. store may be nil to skip recording.
func NewService(manager *Manager, store uploadStore, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{manager: manager, store: store, logger: logger}
}

// Upload hosts bundle on the DON and returns the version requests should reference.
func (s *Service) Upload(ctx context.Context, bundle entity.Secrets, opts Options) (entity.SecretsUpload, error) {
	if len(bundle) == 0 {
		return entity.SecretsUpload{}, errors.Wrap(domain.ErrMissingCredential, "secrets bundle is empty")
	}
	if err := bundle.Require(bundle.Names()...); err != nil {
		return entity.SecretsUpload{}, err
	}

	if err := s.manager.Initialize(ctx); err != nil {
		return entity.SecretsUpload{}, err
	}

	encrypted, err := s.manager.EncryptSecrets(bundle)
	if err != nil {
		return entity.SecretsUpload{}, err
	}
	s.logger.Info("Encrypted secrets", zap.String("ciphertext", encrypted))

	result, err := s.manager.UploadEncryptedSecretsToDON(ctx, UploadRequest{
		EncryptedSecretsHexstring: encrypted,
		GatewayURLs:               opts.GatewayURLs,
		SlotID:                    opts.SlotID,
		Expiration:                opts.Expiration,
	})
	if err != nil {
		return entity.SecretsUpload{}, errors.Wrapf(domain.ErrUploadFailure, "%v", err)
	}
	if !result.Success {
		return entity.SecretsUpload{}, errors.Wrapf(domain.ErrUploadFailure, "gateway %s: %s", result.Gateway, nodeErrors(result))
	}

	upload := entity.SecretsUpload{
		Timestamp:     time.Unix(int64(result.Version), 0).UTC(),
		DonID:         s.manager.DonID(),
		Owner:         s.manager.Owner().Hex(),
		SlotID:        opts.SlotID,
		Version:       result.Version,
		Expiration:    result.Expiration.UTC(),
		Gateway:       result.Gateway,
		Success:       true,
		NodeResponses: result.NodeResponses,
	}

	s.logger.Info("Secrets uploaded successfully",
		zap.String("gateway", upload.Gateway),
		zap.Int("nodes", len(upload.NodeResponses)),
		zap.Uint64("version", upload.Version))

	if s.store != nil {
		if err := s.store.Save(upload); err != nil {
			// secrets are hosted already, a ledger failure is not an upload failure
			s.logger.Error("failed to record secrets upload", zap.Error(err))
		}
	}

	return upload, nil
}

func nodeErrors(result UploadResult) string {
	if len(result.NodeResponses) == 0 {
		return "no node responses"
	}
	msgs := make([]string, 0, len(result.NodeResponses))
	for _, node := range result.NodeResponses {
		if node.Success {
			continue
		}
		msg := node.NodeAddress + " rejected"
		if node.Error != "" {
			msg += ": " + node.Error
		}
		msgs = append(msgs, msg)
	}
	return strings.Join(msgs, "; ")
}
