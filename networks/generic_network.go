package networks

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

type GenericNetworkConfig struct {
	Name               string            `json:"name"`
	ChainID            int64             `json:"chain_id"`
	NativeTokenSymbol  string            `json:"native_token_symbol"`
	NativeTokenDecimal uint64            `json:"native_token_decimal"`
	BlockTime          uint64            `json:"block_time"`
	Nodes              map[string]string `json:"nodes"`
	ExplorerURL        string            `json:"explorer_url"`
	Contracts          ContractTable     `json:"contracts"`
}

// GenericNetwork is a network fully described by its config, no node or
// contract is hardcoded outside of it.
type GenericNetwork struct {
	config GenericNetworkConfig
}

func NewGenericNetwork(config GenericNetworkConfig) *GenericNetwork {
	return &GenericNetwork{config: config}
}

func NewNetworkFromJSON(content []byte) (Network, error) {
	networkConfig := GenericNetworkConfig{}
	if err := json.Unmarshal(content, &networkConfig); err != nil {
		return nil, fmt.Errorf("failed to unmarshal network config: %w", err)
	}
	if len(networkConfig.Nodes) == 0 {
		return nil, fmt.Errorf("network %s has no node", networkConfig.Name)
	}
	return NewGenericNetwork(networkConfig), nil
}

func (gn *GenericNetwork) GetName() string {
	return gn.config.Name
}

func (gn *GenericNetwork) GetChainID() int64 {
	return gn.config.ChainID
}

func (gn *GenericNetwork) GetNativeTokenSymbol() string {
	return gn.config.NativeTokenSymbol
}

func (gn *GenericNetwork) GetNativeTokenDecimal() uint64 {
	return gn.config.NativeTokenDecimal
}

func (gn *GenericNetwork) GetBlockTime() time.Duration {
	return time.Duration(gn.config.BlockTime) * time.Second
}

func (gn *GenericNetwork) GetNodes() map[string]string {
	return gn.config.Nodes
}

func (gn *GenericNetwork) GetExplorerURL() string {
	return gn.config.ExplorerURL
}

func (gn *GenericNetwork) GetContracts() ContractTable {
	return gn.config.Contracts
}

// TxURL links a tx hash on the network explorer, empty when there is none.
func TxURL(n Network, hash string) string {
	base := strings.TrimRight(n.GetExplorerURL(), "/")
	if base == "" {
		return ""
	}
	return fmt.Sprintf("%s/tx/%s", base, hash)
}
