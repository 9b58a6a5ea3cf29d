package dapp

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const customTokenJSON = `[
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"uint256"}]}
]`

const customPetJSON = `[
{"type":"function","name":"balanceOf","stateMutability":"view","inputs":[{"name":"owner","type":"address"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"tokenOfOwnerByIndex","stateMutability":"view","inputs":[{"name":"owner","type":"address"},{"name":"index","type":"uint256"}],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"tokenURI","stateMutability":"view","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[{"name":"","type":"string"}]},
{"type":"function","name":"mint","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"uri","type":"string"}],"outputs":[]},
{"type":"function","name":"burn","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]}
]`

const exchangeJSON = `[
{"type":"function","name":"k","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"exchangeETHToCT","stateMutability":"payable","inputs":[],"outputs":[]},
{"type":"function","name":"exchangeCTToETH","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]}
]`

const tradeJSON = `[
{"type":"function","name":"seller","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"buyer","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address"}]},
{"type":"function","name":"expiration","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"priceCT","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256"}]},
{"type":"function","name":"active","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"getDepositedCPs","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"uint256[]"}]},
{"type":"function","name":"confirm","stateMutability":"nonpayable","inputs":[],"outputs":[]},
{"type":"function","name":"cancel","stateMutability":"nonpayable","inputs":[],"outputs":[]},
{"type":"function","name":"expire","stateMutability":"nonpayable","inputs":[],"outputs":[]},
{"type":"function","name":"depositCP","stateMutability":"nonpayable","inputs":[{"name":"tokenIds","type":"uint256[]"}],"outputs":[]}
]`

const tradeFactoryJSON = `[
{"type":"function","name":"createTrade","stateMutability":"nonpayable","inputs":[{"name":"buyer","type":"address"},{"name":"duration","type":"uint256"},{"name":"priceCT","type":"uint256"}],"outputs":[{"name":"","type":"address"}]}
]`

const viewerJSON = `[
{"type":"function","name":"getOwnedCPs","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"tokenIds","type":"uint256[]"},{"name":"tokenURIs","type":"string[]"}]},
{"type":"function","name":"getUserAllTrades","stateMutability":"view","inputs":[{"name":"user","type":"address"}],"outputs":[{"name":"","type":"address[]"}]}
]`

const committeeJSON = `[
{"type":"function","name":"getMembers","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"tuple[]","components":[{"name":"member","type":"address"},{"name":"amount","type":"uint256"}]}]},
{"type":"function","name":"isMember","stateMutability":"view","inputs":[{"name":"account","type":"address"}],"outputs":[{"name":"","type":"bool"}]},
{"type":"function","name":"join","stateMutability":"payable","inputs":[],"outputs":[]},
{"type":"function","name":"addStake","stateMutability":"payable","inputs":[],"outputs":[]},
{"type":"function","name":"removeStake","stateMutability":"nonpayable","inputs":[{"name":"amount","type":"uint256"}],"outputs":[]}
]`

const proposalFactoryJSON = `[
{"type":"function","name":"getActiveProposals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]},
{"type":"function","name":"getHistoricalProposals","stateMutability":"view","inputs":[],"outputs":[{"name":"","type":"address[]"}]},
{"type":"function","name":"createAdjustKProposal","stateMutability":"nonpayable","inputs":[{"name":"newK","type":"uint256"}],"outputs":[]},
{"type":"function","name":"createMintCPProposal","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"tokenURI","type":"string"}],"outputs":[]},
{"type":"function","name":"createBurnCPProposal","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"}],"outputs":[]},
{"type":"function","name":"createChangeVotingTimeProposal","stateMutability":"nonpayable","inputs":[{"name":"newTime","type":"uint256"}],"outputs":[]},
{"type":"function","name":"createToggleStoreProposal","stateMutability":"nonpayable","inputs":[],"outputs":[]},
{"type":"function","name":"createToggleStoreBuyingProposal","stateMutability":"nonpayable","inputs":[],"outputs":[]},
{"type":"function","name":"createToggleStoreSellingProposal","stateMutability":"nonpayable","inputs":[],"outputs":[]},
{"type":"function","name":"createListCPProposal","stateMutability":"nonpayable","inputs":[{"name":"tokenId","type":"uint256"},{"name":"price","type":"uint256"}],"outputs":[]},
{"type":"function","name":"createExtractProposal","stateMutability":"nonpayable","inputs":[{"name":"to","type":"address"},{"name":"assetType","type":"string"},{"name":"amountOrId","type":"uint256"}],"outputs":[]}
]`

const proposalJSON = `[
{"type":"function","name":"getProposalInfo","stateMutability":"view","inputs":[],"outputs":[{"name":"_initiator","type":"address"},{"name":"_startTime","type":"uint256"},{"name":"_endTime","type":"uint256"},{"name":"_proposalType","type":"string"},{"name":"_yesWeight","type":"uint256"},{"name":"_noWeight","type":"uint256"},{"name":"_executed","type":"bool"}]},
{"type":"function","name":"vote","stateMutability":"nonpayable","inputs":[{"name":"support","type":"bool"}],"outputs":[]},
{"type":"function","name":"endProposal","stateMutability":"nonpayable","inputs":[],"outputs":[]}
]`

var (
	CustomTokenABI     = mustParse("CustomToken", customTokenJSON)
	CustomPetABI       = mustParse("CustomPet", customPetJSON)
	ExchangeABI        = mustParse("Exchange", exchangeJSON)
	TradeABI           = mustParse("Trade", tradeJSON)
	TradeFactoryABI    = mustParse("TradeFactory", tradeFactoryJSON)
	ViewerABI          = mustParse("Viewer", viewerJSON)
	CommitteeABI       = mustParse("Committee", committeeJSON)
	ProposalFactoryABI = mustParse("ProposalFactory", proposalFactoryJSON)
	ProposalABI        = mustParse("Proposal", proposalJSON)
)

func mustParse(name, content string) *abi.ABI {
	a, err := abi.JSON(strings.NewReader(content))
	if err != nil {
		panic(fmt.Sprintf("couldn't parse %s abi: %s", name, err))
	}
	return &a
}
