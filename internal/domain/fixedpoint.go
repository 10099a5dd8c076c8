package domain

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/holiman/uint256"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

// FixedPointDecimals is the scale of on-chain token-style amounts.
const FixedPointDecimals = 18

// EncodeBalance scales balance by 10^18 and rounds it to the nearest integer.
// Ties are rounded half away from zero, so for the accepted non-negative
// inputs the rule is round-half-up. The result always fits into uint256.
func EncodeBalance(balance decimal.Decimal) (*big.Int, error) {
	if balance.IsNegative() {
		return nil, errors.Wrapf(ErrInvalidBalance, "negative balance %s", balance.String())
	}

	scaled := balance.Shift(FixedPointDecimals).Round(0)
	value, overflow := uint256.FromBig(scaled.BigInt())
	if overflow {
		return nil, errors.Wrapf(ErrInvalidBalance, "balance %s overflows uint256", balance.String())
	}

	return value.ToBig(), nil
}

var (
	uint256Type, _ = abi.NewType("uint256", "", nil)
	int256Type, _  = abi.NewType("int256", "", nil)
	stringType, _  = abi.NewType("string", "", nil)
	bytesType, _   = abi.NewType("bytes", "", nil)
)

// EncodeUint256 packs v into a single 32-byte big-endian word.
func EncodeUint256(v *big.Int) ([]byte, error) {
	if v == nil {
		return nil, errors.New("nil uint256 value")
	}
	packed, err := abi.Arguments{{Type: uint256Type}}.Pack(v)
	if err != nil {
		return nil, errors.Wrap(err, "pack uint256")
	}

	return packed, nil
}

// EncodeInt256 packs v into a single 32-byte two's complement word.
func EncodeInt256(v *big.Int) ([]byte, error) {
	if v == nil {
		return nil, errors.New("nil int256 value")
	}
	packed, err := abi.Arguments{{Type: int256Type}}.Pack(v)
	if err != nil {
		return nil, errors.Wrap(err, "pack int256")
	}

	return packed, nil
}

