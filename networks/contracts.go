package networks

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// ContractTable is the deployment address of every contract the client
// talks to. A zero address means the contract is not deployed on the
// network and commands depending on it refuse to run.
type ContractTable struct {
	CustomToken     common.Address `json:"custom_token"`
	CustomPet       common.Address `json:"custom_pet"`
	Exchange        common.Address `json:"exchange"`
	TradeFactory    common.Address `json:"trade_factory"`
	Viewer          common.Address `json:"viewer"`
	Committee       common.Address `json:"committee"`
	ProposalFactory common.Address `json:"proposal_factory"`
}

var ErrContractNotConfigured = fmt.Errorf("contract address is not configured")

// Require returns addr or an error naming the missing contract.
func Require(name string, addr common.Address) (common.Address, error) {
	if addr == (common.Address{}) {
		return addr, fmt.Errorf("%s: %w", name, ErrContractNotConfigured)
	}
	return addr, nil
}
