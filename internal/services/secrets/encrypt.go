package secrets

import (
	"crypto/ecdsa"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/crypto/ecies"
	"github.com/pkg/errors"
	"github.com/smartcontractkit/tdh2/go/tdh2/tdh2easy"

	"github.com/vadiminshakov/alpacamint/internal/entity"
)

// donKeyEncryptedSlot is the entry under which nodes look up the
// DON-key ciphertext after threshold decryption.
const donKeyEncryptedSlot = "0x0"

// signedSecrets binds the bundle to its owner before encryption.
// Message is the JSON bundle, Signature its EIP-191 signature.
type signedSecrets struct {
	Message   string `json:"message"`
	Signature string `json:"signature"`
}

// Keys are the DON public keys used to encrypt a bundle.
type Keys struct {
	// DON is the secp256k1 key of the inner ECIES layer.
	DON []byte
	// Threshold is the serialized TDH2 key of the outer layer.
	Threshold []byte
}

// Encrypt signs the bundle with signer, encrypts it to the DON key and
// threshold-encrypts the result so that a quorum of nodes is needed to read
// it. The ciphertext is 0x-hex encoded.
func Encrypt(signer *Signer, keys Keys, bundle entity.Secrets) (string, error) {
	if len(bundle) == 0 {
		return "", errors.New("secrets bundle is empty")
	}

	donKey, err := parseDONKey(keys.DON)
	if err != nil {
		return "", err
	}
	var thresholdKey tdh2easy.PublicKey
	if err := thresholdKey.Unmarshal(keys.Threshold); err != nil {
		return "", errors.Wrap(err, "parse threshold public key")
	}

	message, err := json.Marshal(bundle)
	if err != nil {
		return "", errors.Wrap(err, "marshal secrets")
	}
	signature, err := signer.SignMessage(message)
	if err != nil {
		return "", err
	}
	signed, err := json.Marshal(signedSecrets{Message: string(message), Signature: signature})
	if err != nil {
		return "", errors.Wrap(err, "marshal signed secrets")
	}

	donCiphertext, err := ecies.Encrypt(rand.Reader, ecies.ImportECDSAPublic(donKey), signed, nil, nil)
	if err != nil {
		return "", errors.Wrap(err, "encrypt secrets to don key")
	}
	donKeyEncrypted, err := json.Marshal(map[string]string{
		donKeyEncryptedSlot: base64.StdEncoding.EncodeToString(donCiphertext),
	})
	if err != nil {
		return "", errors.Wrap(err, "marshal don key encrypted secrets")
	}

	cipher, err := tdh2easy.Encrypt(&thresholdKey, donKeyEncrypted)
	if err != nil {
		return "", errors.Wrap(err, "threshold encrypt secrets")
	}
	raw, err := cipher.Marshal()
	if err != nil {
		return "", errors.Wrap(err, "marshal threshold ciphertext")
	}

	return hexutil.Encode(raw), nil
}

// parseDONKey accepts both the 64-byte form returned by the coordinator and
// the 65-byte uncompressed form.
func parseDONKey(key []byte) (*ecdsa.PublicKey, error) {
	if len(key) == 64 {
		key = append([]byte{0x04}, key...)
	}
	pub, err := crypto.UnmarshalPubkey(key)
	if err != nil {
		return nil, errors.Wrap(err, "parse don public key")
	}
	return pub, nil
}
