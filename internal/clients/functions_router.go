package clients

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/pkg/errors"
)

// functionsABI is the subset of the router and coordinator ABIs needed to
// locate the DON encryption keys.
const functionsABI = `[
	{"inputs":[{"internalType":"bytes32","name":"id","type":"bytes32"}],"name":"getContractById","outputs":[{"internalType":"address","name":"","type":"address"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"getDONPublicKey","outputs":[{"internalType":"bytes","name":"","type":"bytes"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"getThresholdPublicKey","outputs":[{"internalType":"bytes","name":"","type":"bytes"}],"stateMutability":"view","type":"function"}
]`

type contractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// FunctionsRouter reads DON metadata from the on-chain functions router and its coordinator.
type FunctionsRouter struct {
	caller contractCaller
	router common.Address
	abi    abi.ABI
}

// NewFunctionsRouter binds the router at address to caller.
func NewFunctionsRouter(caller contractCaller, router common.Address) (*FunctionsRouter, error) {
	parsed, err := abi.JSON(strings.NewReader(functionsABI))
	if err != nil {
		return nil, errors.Wrap(err, "parse functions abi")
	}
	return &FunctionsRouter{caller: caller, router: router, abi: parsed}, nil
}

// DialFunctionsRouter connects to rpcURL and binds the router. The returned
// func closes the RPC connection.
func DialFunctionsRouter(ctx context.Context, rpcURL string, router common.Address) (*FunctionsRouter, func(), error) {
	if rpcURL == "" {
		return nil, nil, errors.New("rpc url is required")
	}
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, nil, errors.Wrap(err, "dial rpc")
	}

	r, err := NewFunctionsRouter(client, router)
	if err != nil {
		client.Close()
		return nil, nil, err
	}
	return r, client.Close, nil
}

// DonIDToBytes32 right-pads the DON ID the way ethers formatBytes32String does.
func DonIDToBytes32(donID string) ([32]byte, error) {
	var id [32]byte
	if donID == "" {
		return id, errors.New("don id is required")
	}
	if len(donID) > 31 {
		return id, fmt.Errorf("don id %q is longer than 31 bytes", donID)
	}
	copy(id[:], donID)
	return id, nil
}

// CoordinatorAddress resolves the coordinator serving donID.
func (r *FunctionsRouter) CoordinatorAddress(ctx context.Context, donID string) (common.Address, error) {
	id, err := DonIDToBytes32(donID)
	if err != nil {
		return common.Address{}, err
	}

	out, err := r.call(ctx, r.router, "getContractById", id)
	if err != nil {
		return common.Address{}, err
	}
	addr, ok := out[0].(common.Address)
	if !ok {
		return common.Address{}, fmt.Errorf("unexpected getContractById output %T", out[0])
	}
	if addr == (common.Address{}) {
		return common.Address{}, fmt.Errorf("no coordinator registered for don %q", donID)
	}
	return addr, nil
}

// DONPublicKey returns the key the DON uses for the outer encryption layer.
func (r *FunctionsRouter) DONPublicKey(ctx context.Context, coordinator common.Address) ([]byte, error) {
	return r.callBytes(ctx, coordinator, "getDONPublicKey")
}

// ThresholdPublicKey returns the key used for the inner encryption layer.
func (r *FunctionsRouter) ThresholdPublicKey(ctx context.Context, coordinator common.Address) ([]byte, error) {
	return r.callBytes(ctx, coordinator, "getThresholdPublicKey")
}

func (r *FunctionsRouter) callBytes(ctx context.Context, to common.Address, method string) ([]byte, error) {
	out, err := r.call(ctx, to, method)
	if err != nil {
		return nil, err
	}
	b, ok := out[0].([]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected %s output %T", method, out[0])
	}
	if len(b) == 0 {
		return nil, fmt.Errorf("%s returned an empty key", method)
	}
	return b, nil
}

func (r *FunctionsRouter) call(ctx context.Context, to common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := r.abi.Pack(method, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "pack %s", method)
	}

	raw, err := r.caller.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, errors.Wrapf(err, "call %s on %s", method, to.Hex())
	}

	out, err := r.abi.Unpack(method, raw)
	if err != nil {
		return nil, errors.Wrapf(err, "unpack %s", method)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return out, nil
}
