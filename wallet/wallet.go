// Package wallet turns validated calls into signed, broadcasted
// transactions and waits for them to be mined.
package wallet

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	log "github.com/sirupsen/logrus"

	pscommon "github.com/tranvictor/petshop/common"
	"github.com/tranvictor/petshop/txcoord"
)

// NodeReader is the part of reader.EthReader needed to build a tx.
type NodeReader interface {
	GetPendingNonce(ctx context.Context, address common.Address) (uint64, error)
	CheckDynamicFeeTxAvailable(ctx context.Context) (bool, error)
	SuggestedGasSettings(ctx context.Context) (maxGasPriceGwei, maxTipGwei float64, err error)
	EstimateExactGas(ctx context.Context, from, to common.Address, value *big.Int, data []byte) (uint64, error)
}

type Signer interface {
	Address() common.Address
	SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error)
}

type Broadcaster interface {
	BroadcastTx(ctx context.Context, tx *types.Transaction) (common.Hash, error)
}

// Wallet implements txcoord.Sender and txcoord.ReceiptWaiter.
type Wallet struct {
	reader      NodeReader
	signer      Signer
	broadcaster Broadcaster
	waiter      txcoord.ReceiptWaiter
	chainID     int64
	extraGas    uint64
	logger      *log.Entry
}

func New(
	reader NodeReader,
	signer Signer,
	broadcaster Broadcaster,
	waiter txcoord.ReceiptWaiter,
	chainID int64,
	extraGas uint64,
) *Wallet {
	return &Wallet{
		reader:      reader,
		signer:      signer,
		broadcaster: broadcaster,
		waiter:      waiter,
		chainID:     chainID,
		extraGas:    extraGas,
		logger:      log.WithFields(log.Fields{"component": "wallet", "from": signer.Address().Hex()}),
	}
}

func (w *Wallet) Address() common.Address {
	return w.signer.Address()
}

// Build prepares the unsigned tx of call: pending nonce, fee settings and
// the estimated gas limit plus the configured extra gas.
func (w *Wallet) Build(ctx context.Context, call txcoord.Call) (*types.Transaction, error) {
	from := w.signer.Address()
	nonce, err := w.reader.GetPendingNonce(ctx, from)
	if err != nil {
		return nil, fmt.Errorf("couldn't get nonce: %w", err)
	}
	dynamic, err := w.reader.CheckDynamicFeeTxAvailable(ctx)
	if err != nil {
		return nil, fmt.Errorf("couldn't check fee market: %w", err)
	}
	priceGwei, tipGwei, err := w.reader.SuggestedGasSettings(ctx)
	if err != nil {
		return nil, fmt.Errorf("couldn't get gas settings: %w", err)
	}
	gas, err := w.reader.EstimateExactGas(ctx, from, call.To, call.Value, call.Data)
	if err != nil {
		return nil, fmt.Errorf("couldn't estimate gas: %w", err)
	}
	txType := pscommon.TxTypeLegacy
	if dynamic {
		txType = pscommon.TxTypeDynamicFee
	}
	w.logger.WithFields(log.Fields{
		"id":     call.ID,
		"nonce":  nonce,
		"gas":    gas + w.extraGas,
		"price":  priceGwei,
		"tip":    tipGwei,
		"txType": txType,
	}).Debug("built tx")
	return pscommon.BuildExactTx(
		nonce,
		call.To,
		call.Value,
		gas+w.extraGas,
		priceGwei,
		tipGwei,
		call.Data,
		txType,
		w.chainID,
	), nil
}

func (w *Wallet) Send(ctx context.Context, call txcoord.Call) (common.Hash, error) {
	tx, err := w.Build(ctx, call)
	if err != nil {
		return common.Hash{}, err
	}
	signed, err := w.signer.SignTx(tx, big.NewInt(w.chainID))
	if err != nil {
		return common.Hash{}, err
	}
	return w.broadcaster.BroadcastTx(ctx, signed)
}

func (w *Wallet) Wait(ctx context.Context, hash common.Hash) (pscommon.TxInfo, error) {
	return w.waiter.Wait(ctx, hash)
}
