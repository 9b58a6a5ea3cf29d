package txcoord

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	pscommon "github.com/tranvictor/petshop/common"
)

// Kind tells how the raw text of an Arg is parsed.
type Kind string

const (
	KindUint256    Kind = "uint256"
	KindAddress    Kind = "address"
	KindString     Kind = "string"
	KindBool       Kind = "bool"
	KindUint256CSV Kind = "uint256[]"
	// KindEther is a decimal amount of a 18 decimals token, parsed to wei.
	KindEther Kind = "ether"
)

// Arg is one user supplied argument, still in its raw text form.
type Arg struct {
	Name string
	Kind Kind
	Raw  string
}

// Intent describes a write the user asked for. Invalidates lists the cache
// prefixes whose data the write may change.
type Intent struct {
	Action      string
	Target      common.Address
	ABI         *abi.ABI
	Method      string
	Args        []Arg
	Value       *Arg
	Invalidates []string
}

// Call is a validated intent, ready to be signed.
type Call struct {
	ID     string
	Action string
	To     common.Address
	Data   []byte
	Value  *big.Int
}

func (in Intent) invalid(field, format string, args ...interface{}) error {
	return &ValidationError{
		Action: in.Action,
		Field:  field,
		Reason: fmt.Sprintf(format, args...),
	}
}

// Parse converts the raw text of a to the go value abi.Pack expects.
func (a Arg) Parse() (interface{}, error) {
	raw := strings.TrimSpace(a.Raw)
	switch a.Kind {
	case KindUint256:
		return pscommon.StringToUint256(raw)
	case KindAddress:
		return pscommon.ParseAddress(raw)
	case KindString:
		if raw == "" {
			return nil, fmt.Errorf("must not be empty")
		}
		return raw, nil
	case KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("%q is not a boolean", a.Raw)
		}
		return b, nil
	case KindUint256CSV:
		return pscommon.StringsToUint256s(raw)
	case KindEther:
		return pscommon.DecimalStringToBig(raw, 18)
	}
	return nil, fmt.Errorf("unsupported kind %q", a.Kind)
}

// Pack validates every argument and encodes the calldata. All failures are
// *ValidationError.
func (in Intent) Pack() (Call, error) {
	if in.Action == "" {
		return Call{}, &ValidationError{Reason: "action is empty"}
	}
	if in.Target == (common.Address{}) {
		return Call{}, in.invalid("target", "contract address is not configured")
	}
	if in.ABI == nil {
		return Call{}, in.invalid("abi", "missing")
	}
	method, found := in.ABI.Methods[in.Method]
	if !found {
		return Call{}, in.invalid("method", "%s is not in the abi", in.Method)
	}
	if len(in.Args) != len(method.Inputs) {
		return Call{}, in.invalid("args", "%s takes %d arguments, got %d", in.Method, len(method.Inputs), len(in.Args))
	}
	params := make([]interface{}, len(in.Args))
	for i, arg := range in.Args {
		v, err := arg.Parse()
		if err != nil {
			return Call{}, in.invalid(arg.Name, "%s", err)
		}
		params[i] = v
	}
	data, err := in.ABI.Pack(in.Method, params...)
	if err != nil {
		return Call{}, in.invalid("args", "%s", err)
	}

	value := big.NewInt(0)
	if in.Value != nil {
		if !method.IsPayable() {
			return Call{}, in.invalid(in.Value.Name, "%s is not payable", in.Method)
		}
		v, err := in.Value.Parse()
		if err != nil {
			return Call{}, in.invalid(in.Value.Name, "%s", err)
		}
		amount, ok := v.(*big.Int)
		if !ok {
			return Call{}, in.invalid(in.Value.Name, "value must be an amount")
		}
		if amount.Sign() == 0 {
			return Call{}, in.invalid(in.Value.Name, "must be greater than zero")
		}
		value = amount
	}
	return Call{
		Action: in.Action,
		To:     in.Target,
		Data:   data,
		Value:  value,
	}, nil
}
