package cmd

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/ethereum/go-ethereum/common"

	cmdutil "github.com/tranvictor/petshop/cmd/util"
	"github.com/tranvictor/petshop/dapp"
	"github.com/tranvictor/petshop/identity"
)

// checkTradeAction reads trade and refuses action when the acting address
// may not do it right now.
func checkTradeAction(ctx context.Context, app *cmdutil.App, trade common.Address, action dapp.TradeAction) error {
	acting := app.Acting()
	if acting == nil {
		return identity.ErrNotConnected
	}
	agg := app.Dapp.TradeAggregator()
	defer agg.Close()
	agg.SetAddresses([]common.Address{trade})
	if err := agg.Refresh(ctx); err != nil {
		return fmt.Errorf("couldn't read trade %s: %w", trade.Hex(), err)
	}
	detail, _ := agg.Detail(trade)
	if !detail.Loaded {
		return fmt.Errorf("couldn't read trade %s", trade.Hex())
	}
	role := dapp.TradeRole(detail, acting)
	if !slices.Contains(detail.Record.AvailableActions(role, time.Now()), action) {
		return fmt.Errorf("%s can't %s trade %s as %s (phase %s)",
			acting.Hex(), action, trade.Hex(), role, detail.Record.Phase(time.Now()))
	}
	return nil
}
