package networks

import (
	"fmt"
	"sync"

	gethcommon "github.com/ethereum/go-ethereum/common"

	"github.com/tranvictor/petshop/common"
	"github.com/tranvictor/petshop/config"
)

const EphemeryName = "ephemery"

var (
	cachedNetwork Network
	mu            sync.Mutex
)

// CurrentNetwork lazily builds the network from config. It must be called
// after flags and the config file are applied.
func CurrentNetwork() (Network, error) {
	mu.Lock()
	defer mu.Unlock()
	if cachedNetwork != nil {
		return cachedNetwork, nil
	}
	n, err := FromConfig()
	if err != nil {
		return nil, err
	}
	cachedNetwork = n
	return cachedNetwork, nil
}

// SetNetwork overrides the current network, used by tests and by
// --network-file.
func SetNetwork(n Network) {
	mu.Lock()
	defer mu.Unlock()
	cachedNetwork = n
}

func FromConfig() (Network, error) {
	nodes := config.GetNodes()
	if len(nodes) == 0 {
		return nil, fmt.Errorf("no node configured, set %s", config.RPCNodesKey)
	}
	contracts := ContractTable{}
	fields := []struct {
		key  string
		dest *gethcommon.Address
	}{
		{config.CustomTokenKey, &contracts.CustomToken},
		{config.CustomPetKey, &contracts.CustomPet},
		{config.ExchangeKey, &contracts.Exchange},
		{config.TradeFactoryKey, &contracts.TradeFactory},
		{config.ViewerKey, &contracts.Viewer},
		{config.CommitteeKey, &contracts.Committee},
		{config.ProposalFactoryKey, &contracts.ProposalFactory},
	}
	for _, f := range fields {
		raw := config.GetString(f.key)
		if raw == "" {
			continue
		}
		addr, err := common.ParseAddress(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.key, err)
		}
		*f.dest = addr
	}
	return NewGenericNetwork(GenericNetworkConfig{
		Name:               EphemeryName,
		ChainID:            config.GetInt64(config.ChainIDKey),
		NativeTokenSymbol:  "ETH",
		NativeTokenDecimal: 18,
		BlockTime:          12,
		Nodes:              nodes,
		ExplorerURL:        config.GetString(config.ExplorerURLKey),
		Contracts:          contracts,
	}), nil
}
