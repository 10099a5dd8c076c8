package secrets

import (
	"testing"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testPrivateKey = "0x4c0883a69102937d6231471b5dbb6204fe5129617082792ae468d01a3f362318"

func TestValidatePrivateKey(t *testing.T) {
	tests := []struct {
		name  string
		input string
		valid bool
	}{
		{name: "valid", input: testPrivateKey, valid: true},
		{name: "uppercase hex", input: "0x4C0883A69102937D6231471B5DBB6204FE5129617082792AE468D01A3F362318", valid: true},
		{name: "missing prefix", input: testPrivateKey[2:], valid: false},
		{name: "too short", input: testPrivateKey[:65], valid: false},
		{name: "non hex", input: "0x" + "zz" + testPrivateKey[4:], valid: false},
		{name: "empty", input: "", valid: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePrivateKey(tt.input)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestNewSigner(t *testing.T) {
	withPrefix, err := NewSigner(testPrivateKey)
	require.NoError(t, err)
	withoutPrefix, err := NewSigner(testPrivateKey[2:])
	require.NoError(t, err)

	assert.Equal(t, withPrefix.Address(), withoutPrefix.Address())
	assert.Equal(t, "0x2c7536E3605D9C16a7a3D7b1898e529396a65c23", withPrefix.Address().Hex())

	_, err = NewSigner("0x1234")
	assert.Error(t, err)
}

func TestSigner_SignMessage(t *testing.T) {
	signer, err := NewSigner(testPrivateKey)
	require.NoError(t, err)

	msg := []byte(`{"alpacaKey":"key"}`)
	sig, err := signer.SignMessage(msg)
	require.NoError(t, err)

	raw := mustDecodeHex(t, sig)
	require.Len(t, raw, crypto.SignatureLength)
	assert.Contains(t, []byte{27, 28}, raw[crypto.RecoveryIDOffset])

	recovered, err := RecoverSigner(msg, sig)
	require.NoError(t, err)
	assert.Equal(t, signer.Address(), recovered)

	other, err := RecoverSigner([]byte("tampered"), sig)
	require.NoError(t, err)
	assert.NotEqual(t, signer.Address(), other)
}
