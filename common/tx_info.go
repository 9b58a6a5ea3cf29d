package common

import (
	"github.com/ethereum/go-ethereum/core/types"
)

// Status values reported by the reader and the tx monitor.
const (
	TxStatusError    = "error"
	TxStatusNotFound = "notfound"
	TxStatusPending  = "pending"
	TxStatusDone     = "done"
	TxStatusReverted = "reverted"
	TxStatusLost     = "lost"
)

type TxInfo struct {
	Status  string
	Hash    string
	Tx      *types.Transaction
	Receipt *types.Receipt
}

// Final reports whether no further status change is expected.
func (ti TxInfo) Final() bool {
	switch ti.Status {
	case TxStatusDone, TxStatusReverted, TxStatusLost:
		return true
	}
	return false
}
