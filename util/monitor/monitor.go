package monitor

import (
	"context"
	"time"

	"github.com/andres-erbsen/clock"
	"github.com/ethereum/go-ethereum/common"
	log "github.com/sirupsen/logrus"

	pscommon "github.com/tranvictor/petshop/common"
)

const (
	DefaultInterval  = 5 * time.Second
	DefaultLostAfter = 3 * time.Minute
)

// TxInfoReader is the part of reader.EthReader the monitor needs.
type TxInfoReader interface {
	TxInfoFromHash(ctx context.Context, hash common.Hash) (pscommon.TxInfo, error)
}

// TxMonitor polls the nodes until a tx is mined or considered lost. A tx is
// lost when no node has ever seen it lostAfter after the first check.
type TxMonitor struct {
	reader    TxInfoReader
	clock     clock.Clock
	interval  time.Duration
	lostAfter time.Duration
	logger    *log.Entry
}

func NewGenericTxMonitor(r TxInfoReader, clk clock.Clock, interval, lostAfter time.Duration) *TxMonitor {
	if clk == nil {
		clk = clock.New()
	}
	if interval <= 0 {
		interval = DefaultInterval
	}
	if lostAfter <= 0 {
		lostAfter = DefaultLostAfter
	}
	return &TxMonitor{
		reader:    r,
		clock:     clk,
		interval:  interval,
		lostAfter: lostAfter,
		logger:    log.WithField("component", "monitor"),
	}
}

func (tm *TxMonitor) periodicCheck(ctx context.Context, hash common.Hash, info chan<- pscommon.TxInfo) {
	defer close(info)
	ticker := tm.clock.Ticker(tm.interval)
	defer ticker.Stop()
	startTime := tm.clock.Now()
	isOnNode := false
	logger := tm.logger.WithField("hash", hash.Hex())
	for {
		var t time.Time
		select {
		case <-ctx.Done():
			return
		case t = <-ticker.C:
		}
		txinfo, err := tm.reader.TxInfoFromHash(ctx, hash)
		if err != nil {
			logger.WithError(err).Debug("couldn't check tx, retrying")
			continue
		}
		switch txinfo.Status {
		case pscommon.TxStatusNotFound:
			if t.Sub(startTime) > tm.lostAfter && !isOnNode {
				txinfo.Status = pscommon.TxStatusLost
				info <- txinfo
				return
			}
		case pscommon.TxStatusPending:
			isOnNode = true
		case pscommon.TxStatusReverted, pscommon.TxStatusDone:
			info <- txinfo
			return
		}
	}
}

// MakeWaitChannel starts watching hash. The channel yields the final info
// once and is closed, it is closed without a value when ctx ends first.
func (tm *TxMonitor) MakeWaitChannel(ctx context.Context, hash common.Hash) <-chan pscommon.TxInfo {
	result := make(chan pscommon.TxInfo, 1)
	go tm.periodicCheck(ctx, hash, result)
	return result
}

// Wait blocks until hash is done, reverted or lost.
func (tm *TxMonitor) Wait(ctx context.Context, hash common.Hash) (pscommon.TxInfo, error) {
	info, ok := <-tm.MakeWaitChannel(ctx, hash)
	if !ok {
		return pscommon.TxInfo{Hash: hash.Hex(), Status: pscommon.TxStatusError}, ctx.Err()
	}
	return info, nil
}
