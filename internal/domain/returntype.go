package domain

import (
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/pkg/errors"
)

// ReturnType names how the bytes returned by a script are interpreted on-chain.
type ReturnType string

const (
	ReturnTypeUint256 ReturnType = "uint256"
	ReturnTypeInt256  ReturnType = "int256"
	ReturnTypeString  ReturnType = "string"
	ReturnTypeBytes   ReturnType = "bytes"
)

// ParseReturnType validates s against the known return types.
func ParseReturnType(s string) (ReturnType, error) {
	switch rt := ReturnType(strings.ToLower(strings.TrimSpace(s))); rt {
	case ReturnTypeUint256, ReturnTypeInt256, ReturnTypeString, ReturnTypeBytes:
		return rt, nil
	default:
		return "", fmt.Errorf("unsupported return type %q", s)
	}
}

func (t ReturnType) String() string {
	return string(t)
}

// DecodeResult renders a 0x-prefixed script result the way the consumer contract reads it.
func (t ReturnType) DecodeResult(hexResult string) (string, error) {
	if !strings.HasPrefix(hexResult, "0x") && !strings.HasPrefix(hexResult, "0X") {
		hexResult = "0x" + hexResult
	}
	raw, err := hexutil.Decode(hexResult)
	if err != nil {
		return "", errors.Wrap(err, "decode result hex")
	}

	switch t {
	case ReturnTypeUint256:
		return decodeWord(raw, uint256Type)
	case ReturnTypeInt256:
		return decodeWord(raw, int256Type)
	case ReturnTypeString:
		if !utf8.Valid(raw) {
			return "", errors.New("result is not valid UTF-8")
		}
		return string(raw), nil
	case ReturnTypeBytes:
		return hexutil.Encode(raw), nil
	default:
		return "", fmt.Errorf("unsupported return type %q", string(t))
	}
}

func decodeWord(raw []byte, typ abi.Type) (string, error) {
	if len(raw) != 32 {
		return "", fmt.Errorf("%s result must be 32 bytes, got %d", typ.String(), len(raw))
	}

	values, err := abi.Arguments{{Type: typ}}.Unpack(raw)
	if err != nil {
		return "", errors.Wrapf(err, "unpack %s", typ.String())
	}
	v, ok := values[0].(*big.Int)
	if !ok {
		return "", fmt.Errorf("unexpected %s value %T", typ.String(), values[0])
	}

	return v.String(), nil
}
