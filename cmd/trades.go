package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	cmdutil "github.com/tranvictor/petshop/cmd/util"
	pscommon "github.com/tranvictor/petshop/common"
	"github.com/tranvictor/petshop/dapp"
	"github.com/tranvictor/petshop/txcoord"
)

func readTrades(ctx context.Context, app *cmdutil.App, args []string) (*dapp.TradeBoard, error) {
	owner, err := app.Owner(args)
	if err != nil {
		return nil, err
	}
	board := app.Dapp.NewTradeBoard()
	board.SetOwner(owner)
	stop := app.UI.Spinner("Reading trades...")
	// per trade failures stay in their row
	_ = board.Refresh(ctx)
	stop()
	return board, nil
}

var tradesCmd = &cobra.Command{
	Use:   "trades [owner]",
	Short: "List the trades of owner with their details, the role of owner and what it can do",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cmdutil.AppFrom(cmd)
		if err != nil {
			return err
		}
		board, err := readTrades(cmd.Context(), app, args)
		if err != nil {
			return err
		}
		defer board.Close()
		owner, _ := app.Owner(args)
		now := time.Now()
		view := board.Snapshot(now)
		return render(app, view, tradeBoardText(view, owner, now))
	},
}

var tradeCmd = &cobra.Command{
	Use:   "trade",
	Short: "Create a trade or act on one",
}

var tradeCreateCmd = &cobra.Command{
	Use:   "create <buyer> <duration-seconds> <price-ct>",
	Short: "Create a trade selling your deposited pets to buyer",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(cmd, func(d *dapp.Dapp) (txcoord.Intent, error) {
			return d.CreateTrade(args[0], args[1], args[2]), nil
		})
	},
}

// tradeActionCmd checks the action is available to the acting address
// before anything is signed.
func tradeActionCmd(action dapp.TradeAction, short string) *cobra.Command {
	return &cobra.Command{
		Use:   string(action) + " <trade>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := cmdutil.AppFrom(cmd)
			if err != nil {
				return err
			}
			trade, err := pscommon.ParseAddress(args[0])
			if err != nil {
				return err
			}
			if err := checkTradeAction(cmd.Context(), app, trade, action); err != nil {
				return err
			}
			return send(cmd, func(d *dapp.Dapp) (txcoord.Intent, error) {
				return d.TradeAction(trade, action)
			})
		},
	}
}

var tradeDepositCmd = &cobra.Command{
	Use:   "deposit <trade> <token-ids>",
	Short: "Deposit pets into a trade you sell, ids are comma separated",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cmdutil.AppFrom(cmd)
		if err != nil {
			return err
		}
		trade, err := pscommon.ParseAddress(args[0])
		if err != nil {
			return err
		}
		if err := checkTradeAction(cmd.Context(), app, trade, dapp.ActionDeposit); err != nil {
			return err
		}
		return send(cmd, func(d *dapp.Dapp) (txcoord.Intent, error) {
			return d.DepositPets(trade, args[1])
		})
	},
}

func init() {
	tradeCmd.AddCommand(
		tradeCreateCmd,
		tradeActionCmd(dapp.ActionConfirm, "Confirm a trade you buy, paying its price in CT"),
		tradeActionCmd(dapp.ActionCancel, "Cancel a trade you sell and get the pets back"),
		tradeActionCmd(dapp.ActionExpire, "Close a trade past its expiration"),
		tradeDepositCmd,
	)
	AddCommonFlagsToTransactionalCmds(tradeCmd)
	rootCmd.AddCommand(tradesCmd, tradeCmd)
}
