package config

import (
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

const (
	// RPCNodesKey is a comma separated list of node urls, every read is fanned out to all of them
	RPCNodesKey = "RPC_NODES"
	// ChainIDKey is the chain id used to sign transactions
	ChainIDKey = "CHAIN_ID"
	// ExplorerURLKey is the block explorer used to print tx links
	ExplorerURLKey = "EXPLORER_URL"
	// CustomTokenKey is the CT ERC20 contract
	CustomTokenKey = "CONTRACT_CUSTOM_TOKEN"
	// CustomPetKey is the CP ERC721 enumerable contract
	CustomPetKey = "CONTRACT_CUSTOM_PET"
	// ExchangeKey is the ETH <-> CT exchange contract
	ExchangeKey = "CONTRACT_EXCHANGE"
	// TradeFactoryKey is the contract creating p2p trades
	TradeFactoryKey = "CONTRACT_TRADE_FACTORY"
	// ViewerKey is the read helper aggregating pets and trades per user
	ViewerKey = "CONTRACT_VIEWER"
	// CommitteeKey is the staking committee contract
	CommitteeKey = "CONTRACT_COMMITTEE"
	// ProposalFactoryKey is the governance proposal factory
	ProposalFactoryKey = "CONTRACT_PROPOSAL_FACTORY"
	// OwnedPollIntervalKey is how often owned pets are re-discovered
	OwnedPollIntervalKey = "OWNED_POLL_INTERVAL"
	// ViewerPollIntervalKey is how often the viewer aggregates are refreshed
	ViewerPollIntervalKey = "VIEWER_POLL_INTERVAL"
	// ProposalPollIntervalKey is how often proposal lists are refreshed
	ProposalPollIntervalKey = "PROPOSAL_POLL_INTERVAL"
	// TradePollIntervalKey is how often trade details are refreshed
	TradePollIntervalKey = "TRADE_POLL_INTERVAL"
	// ReadTimeoutKey bounds a single node call
	ReadTimeoutKey = "READ_TIMEOUT"
	// ReadRateLimitKey caps per-collection item queries per second, 0 disables it
	ReadRateLimitKey = "READ_RATE_LIMIT"
	// ReadConcurrencyKey caps the item queries of one collection in flight at once
	ReadConcurrencyKey = "READ_CONCURRENCY"
	// MaxCollectionSizeKey is the largest count a collection is discovered for
	MaxCollectionSizeKey = "MAX_COLLECTION_SIZE"
	// TxPollIntervalKey is how often a broadcasted tx is checked
	TxPollIntervalKey = "TX_POLL_INTERVAL"
	// TxLostAfterKey is how long a tx may stay unseen by every node before it is reported lost
	TxLostAfterKey = "TX_LOST_AFTER"
	// ExtraGasKey is added on top of the estimated gas limit
	ExtraGasKey = "EXTRA_GAS"
	// LogLevelKey are the different logging levels. For reference on the values https://godoc.org/github.com/sirupsen/logrus#Level
	LogLevelKey = "LOG_LEVEL"
	// PinningAPIKeyKey is the credential of the metadata pinning service, it is only forwarded
	PinningAPIKeyKey = "PINNING_API_KEY"
	// KeystoreKey is the keystore file used to sign
	KeystoreKey = "KEYSTORE"
	// FromKey is the acting address when no keystore is given
	FromKey = "FROM"
)

var vip *viper.Viper

func init() {
	vip = viper.New()
	vip.SetEnvPrefix("PETSHOP")
	vip.AutomaticEnv()
	setDefaults(vip)
}

func setDefaults(v *viper.Viper) {
	v.SetDefault(RPCNodesKey, "https://otter.bordel.wtf/erigon")
	v.SetDefault(ChainIDKey, 39438155)
	v.SetDefault(ExplorerURLKey, "https://explorer.ephemery.dev")
	v.SetDefault(CustomTokenKey, "0x6649E782bB5EcBF1C9F979E789c82Eb94Cdf02a4")
	v.SetDefault(CustomPetKey, "0x4fB609EE829751bA212F11E2B60b99Ad0FF1b772")
	v.SetDefault(ExchangeKey, "0x10045DE72c17a0799dF471EF4229160eA5C35C12")
	v.SetDefault(TradeFactoryKey, "0x3Be14C82F9951b2B6221B7A30e50F031CB0CA8d2")
	v.SetDefault(ViewerKey, "0x12aA9244081eAC654C6C0Af4C2795a3810e32627")
	v.SetDefault(CommitteeKey, "")
	v.SetDefault(ProposalFactoryKey, "")
	v.SetDefault(OwnedPollIntervalKey, 2*time.Second)
	v.SetDefault(ViewerPollIntervalKey, 5*time.Second)
	v.SetDefault(ProposalPollIntervalKey, 2*time.Second)
	v.SetDefault(TradePollIntervalKey, 5*time.Second)
	v.SetDefault(ReadTimeoutKey, 4*time.Second)
	v.SetDefault(ReadRateLimitKey, 0)
	v.SetDefault(ReadConcurrencyKey, 16)
	v.SetDefault(MaxCollectionSizeKey, 10000)
	v.SetDefault(TxPollIntervalKey, 5*time.Second)
	v.SetDefault(TxLostAfterKey, 3*time.Minute)
	v.SetDefault(ExtraGasKey, 250000)
	v.SetDefault(LogLevelKey, int(log.InfoLevel))
	v.SetDefault(PinningAPIKeyKey, "")
	v.SetDefault(KeystoreKey, "")
	v.SetDefault(FromKey, "")
}

// LoadFile merges a yaml, json or toml config file on top of the defaults.
// Env vars still take precedence.
func LoadFile(path string) error {
	if path == "" {
		return nil
	}
	vip.SetConfigFile(path)
	if err := vip.ReadInConfig(); err != nil {
		return fmt.Errorf("couldn't read config file %s: %w", path, err)
	}
	return nil
}

// Reset restores the defaults, it is meant for tests.
func Reset() {
	vip = viper.New()
	vip.SetEnvPrefix("PETSHOP")
	vip.AutomaticEnv()
	setDefaults(vip)
}

// GetString ...
func GetString(key string) string {
	return vip.GetString(key)
}

// GetInt ...
func GetInt(key string) int {
	return vip.GetInt(key)
}

// GetInt64 ...
func GetInt64(key string) int64 {
	return vip.GetInt64(key)
}

// GetDuration ...
func GetDuration(key string) time.Duration {
	return vip.GetDuration(key)
}

// Set a value for the given key
func Set(key string, value interface{}) {
	vip.Set(key, value)
}

// IsSet returns whether the give key is set
func IsSet(key string) bool {
	return vip.IsSet(key)
}

// GetNodes returns the configured node urls keyed by a short name.
func GetNodes() map[string]string {
	nodes := map[string]string{}
	for i, url := range strings.Split(GetString(RPCNodesKey), ",") {
		url = strings.TrimSpace(url)
		if url == "" {
			continue
		}
		nodes[fmt.Sprintf("node-%d", i)] = url
	}
	return nodes
}

// GetLogLevel maps LOG_LEVEL onto a logrus level, out of range values fall back to info.
func GetLogLevel() log.Level {
	lvl := GetInt(LogLevelKey)
	if lvl < int(log.PanicLevel) || lvl > int(log.TraceLevel) {
		return log.InfoLevel
	}
	return log.Level(lvl)
}
