package networks_test

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/petshop/config"
	"github.com/tranvictor/petshop/networks"
)

var committee = common.HexToAddress("0x0000000000000000000000000000000000000120")

func TestFromConfig(t *testing.T) {
	config.Reset()
	defer config.Reset()
	config.Set(config.RPCNodesKey, "http://a,http://b")
	config.Set(config.CommitteeKey, committee.Hex())

	n, err := networks.FromConfig()
	require.NoError(t, err)
	assert.Equal(t, networks.EphemeryName, n.GetName())
	assert.Len(t, n.GetNodes(), 2)
	assert.Equal(t, committee, n.GetContracts().Committee)
	assert.Equal(t, common.Address{}, n.GetContracts().ProposalFactory)
	assert.Equal(t, 12*time.Second, n.GetBlockTime())
}

func TestFromConfigRejectsBadInput(t *testing.T) {
	config.Reset()
	defer config.Reset()

	config.Set(config.ViewerKey, "0x12")
	_, err := networks.FromConfig()
	assert.ErrorContains(t, err, config.ViewerKey)

	config.Reset()
	config.Set(config.RPCNodesKey, "")
	_, err = networks.FromConfig()
	assert.ErrorContains(t, err, "no node")
}

func TestNewNetworkFromJSON(t *testing.T) {
	n, err := networks.NewNetworkFromJSON([]byte(`{
		"name": "devnet",
		"chain_id": 1337,
		"native_token_symbol": "ETH",
		"native_token_decimal": 18,
		"block_time": 2,
		"nodes": {"local": "http://127.0.0.1:8545"},
		"explorer_url": "https://explorer.test/",
		"contracts": {"committee": "0x0000000000000000000000000000000000000120"}
	}`))
	require.NoError(t, err)
	assert.Equal(t, int64(1337), n.GetChainID())
	assert.Equal(t, committee, n.GetContracts().Committee)
	assert.Equal(t, "https://explorer.test/tx/0xabc", networks.TxURL(n, "0xabc"))

	networks.SetNetwork(n)
	current, err := networks.CurrentNetwork()
	require.NoError(t, err)
	assert.Equal(t, "devnet", current.GetName())

	_, err = networks.NewNetworkFromJSON([]byte(`{"name": "empty"}`))
	assert.ErrorContains(t, err, "no node")
	_, err = networks.NewNetworkFromJSON([]byte(`{`))
	assert.Error(t, err)
}

func TestTxURLWithoutExplorer(t *testing.T) {
	n := networks.NewGenericNetwork(networks.GenericNetworkConfig{Nodes: map[string]string{"a": "http://a"}})
	assert.Equal(t, "", networks.TxURL(n, "0xabc"))
}

func TestRequire(t *testing.T) {
	addr, err := networks.Require("committee", committee)
	require.NoError(t, err)
	assert.Equal(t, committee, addr)

	_, err = networks.Require("committee", common.Address{})
	assert.True(t, errors.Is(err, networks.ErrContractNotConfigured))
	assert.ErrorContains(t, err, "committee")
}
