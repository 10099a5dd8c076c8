package secrets

import (
	"crypto/ecdsa"
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/pkg/errors"
)

var privateKeyPattern = regexp.MustCompile(`^0x[0-9a-fA-F]{64}$`)

// ValidatePrivateKey accepts 0x-prefixed 32-byte hex keys only.
func ValidatePrivateKey(s string) error {
	if !privateKeyPattern.MatchString(s) {
		return fmt.Errorf("private key must be 0x followed by 64 hex characters")
	}
	return nil
}

// Signer signs gateway messages on behalf of the secrets owner.
type Signer struct {
	key     *ecdsa.PrivateKey
	address common.Address
}

// NewSigner parses a hex private key, with or without the 0x prefix.
func NewSigner(privateKeyHex string) (*Signer, error) {
	key := strings.TrimSpace(privateKeyHex)
	if len(key) >= 2 && (key[:2] == "0x" || key[:2] == "0X") {
		key = key[2:]
	}

	privateKey, err := crypto.HexToECDSA(key)
	if err != nil {
		return nil, errors.Wrap(err, "parse private key")
	}

	return &Signer{key: privateKey, address: crypto.PubkeyToAddress(privateKey.PublicKey)}, nil
}

// Address of the owner.
func (s *Signer) Address() common.Address {
	return s.address
}

// SignMessage produces an EIP-191 personal signature with v in {27, 28}.
func (s *Signer) SignMessage(msg []byte) (string, error) {
	sig, err := crypto.Sign(accounts.TextHash(msg), s.key)
	if err != nil {
		return "", errors.Wrap(err, "sign message")
	}
	sig[crypto.RecoveryIDOffset] += 27
	return hexutil.Encode(sig), nil
}

// RecoverSigner returns the address that produced a SignMessage signature.
func RecoverSigner(msg []byte, signature string) (common.Address, error) {
	sig, err := hexutil.Decode(signature)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "decode signature")
	}
	if len(sig) != crypto.SignatureLength {
		return common.Address{}, fmt.Errorf("signature must be %d bytes, got %d", crypto.SignatureLength, len(sig))
	}
	if sig[crypto.RecoveryIDOffset] >= 27 {
		sig[crypto.RecoveryIDOffset] -= 27
	}

	pub, err := crypto.SigToPub(accounts.TextHash(msg), sig)
	if err != nil {
		return common.Address{}, errors.Wrap(err, "recover public key")
	}
	return crypto.PubkeyToAddress(*pub), nil
}
