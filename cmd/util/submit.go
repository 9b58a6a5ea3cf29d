package util

import (
	"context"
	"errors"
	"fmt"

	"github.com/andres-erbsen/clock"
	"github.com/ethereum/go-ethereum/common"

	pscommon "github.com/tranvictor/petshop/common"
	"github.com/tranvictor/petshop/config"
	"github.com/tranvictor/petshop/networks"
	"github.com/tranvictor/petshop/txcoord"
	"github.com/tranvictor/petshop/ui"
	"github.com/tranvictor/petshop/util/addrbook"
	"github.com/tranvictor/petshop/util/broadcaster"
	"github.com/tranvictor/petshop/util/monitor"
	"github.com/tranvictor/petshop/wallet"
)

var ErrAborted = errors.New("aborted")

// Coordinator builds the write side the first time a command signs:
// keystore, broadcaster to every node, receipt monitor and wallet.
func (a *App) Coordinator() (*txcoord.Coordinator, error) {
	a.coordOnce.Do(func() {
		signer, err := a.Signer()
		if err != nil {
			a.coordErr = err
			return
		}
		bc := broadcaster.NewGenericBroadcaster(a.Network.GetNodes(), config.GetDuration(config.ReadTimeoutKey))
		mon := monitor.NewGenericTxMonitor(
			a.Reader,
			clock.New(),
			config.GetDuration(config.TxPollIntervalKey),
			config.GetDuration(config.TxLostAfterKey),
		)
		w := wallet.New(a.Reader, signer, bc, mon, a.Network.GetChainID(), uint64(config.GetInt64(config.ExtraGasKey)))
		a.coord = txcoord.New(w, w, a.Store)
	})
	return a.coord, a.coordErr
}

// Send validates in, shows what is about to be signed and, once the user
// agrees, submits it and follows it until it is mined.
func (a *App) Send(ctx context.Context, in txcoord.Intent, yes bool) error {
	if _, err := in.Pack(); err != nil {
		return err
	}
	c, err := a.Coordinator()
	if err != nil {
		return err
	}
	from, _ := a.Identity.Connected()
	return SubmitIntent(ctx, a.UI, a.Network, c, from, in, yes)
}

// SubmitIntent is the interactive part of Send.
func SubmitIntent(
	ctx context.Context,
	u ui.UI,
	n networks.Network,
	c *txcoord.Coordinator,
	from common.Address,
	in txcoord.Intent,
	yes bool,
) error {
	call, err := in.Pack()
	if err != nil {
		return err
	}
	book := addrbook.FromContracts(n.GetContracts())
	u.Section("Confirm tx data before signing")
	rows := [][2]string{
		{"Action", in.Action},
		{"From", from.Hex()},
		{"To", addrbook.Label(book, call.To)},
		{"Method", in.Method},
	}
	for _, arg := range in.Args {
		rows = append(rows, [2]string{"  " + arg.Name, arg.Raw})
	}
	if call.Value.Sign() > 0 {
		rows = append(rows, [2]string{"Value", pscommon.BigToDecimalString(call.Value, n.GetNativeTokenDecimal()) + " " + n.GetNativeTokenSymbol()})
	}
	u.KeyValue(rows)
	if !yes && !u.Confirm("Sign and broadcast?", false) {
		return ErrAborted
	}

	cancel := c.OnChange(func(action string, s txcoord.Status) {
		if action != in.Action || s.State != txcoord.Pending || s.Hash == (common.Hash{}) {
			return
		}
		if url := networks.TxURL(n, s.Hash.Hex()); url != "" {
			u.Critical("Broadcasted: %s", url)
		} else {
			u.Critical("Broadcasted: %s", s.Hash.Hex())
		}
	})
	defer cancel()

	stop := u.Spinner("Waiting for the tx to be mined...")
	state, err := c.Submit(ctx, in)
	stop()
	if err != nil {
		return fmt.Errorf("%s: %w", in.Action, err)
	}
	u.Success("%s: %s", in.Action, state)
	return nil
}
