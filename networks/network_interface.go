package networks

import (
	"time"
)

type Network interface {
	GetName() string
	GetChainID() int64
	GetNativeTokenSymbol() string
	GetNativeTokenDecimal() uint64
	GetBlockTime() time.Duration

	GetNodes() map[string]string
	GetExplorerURL() string
	GetContracts() ContractTable
}
