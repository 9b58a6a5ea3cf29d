package query

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ContractReader issues one read-only call and returns the unpacked outputs.
// util/reader.EthReader talks to the nodes, Client adds the shared cache on
// top of any ContractReader.
type ContractReader interface {
	Call(
		ctx context.Context,
		target common.Address,
		a *abi.ABI,
		method string,
		args ...interface{},
	) ([]interface{}, error)
}

// BalanceReader reads native ETH balances.
type BalanceReader interface {
	GetBalance(ctx context.Context, address common.Address) (*big.Int, error)
}

// RPCError is a failed read. It stays attached to the slot or field that
// issued it.
type RPCError struct {
	Target common.Address
	Method string
	Err    error
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("couldn't read %s on %s: %s", e.Method, e.Target.Hex(), e.Err)
}

func (e *RPCError) Unwrap() error {
	return e.Err
}

// One calls method and converts its single output to T. Tuples and tuple
// arrays are converted field by field, so T can be a named struct whose
// fields match the abi component names.
func One[T any](
	ctx context.Context,
	r ContractReader,
	target common.Address,
	a *abi.ABI,
	method string,
	args ...interface{},
) (T, error) {
	var zero T
	out, err := r.Call(ctx, target, a, method, args...)
	if err != nil {
		return zero, err
	}
	if len(out) != 1 {
		return zero, fmt.Errorf("%s returned %d values, expected 1", method, len(out))
	}
	return convert[T](method, out[0])
}

func convert[T any](method string, v interface{}) (result T, err error) {
	if typed, ok := v.(T); ok {
		return typed, nil
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("couldn't convert %s output %T to %T: %v", method, v, result, r)
		}
	}()
	return *abi.ConvertType(v, new(T)).(*T), nil
}

var errNoBalanceReader = fmt.Errorf("reader can't read native balances")

// Nth converts the i-th output of a multi value call.
func Nth[T any](method string, out []interface{}, i int) (T, error) {
	var zero T
	if i >= len(out) {
		return zero, fmt.Errorf("%s returned %d values, expected at least %d", method, len(out), i+1)
	}
	return convert[T](method, out[i])
}
