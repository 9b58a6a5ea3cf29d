package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	cmdutil "github.com/tranvictor/petshop/cmd/util"
	"github.com/tranvictor/petshop/dapp"
	"github.com/tranvictor/petshop/networks"
	"github.com/tranvictor/petshop/txcoord"
)

var exchangeCmd = &cobra.Command{
	Use:   "exchange",
	Short: "Show the CT price and your balances, or swap ETH and CT",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cmdutil.AppFrom(cmd)
		if err != nil {
			return err
		}
		view, err := app.Dapp.Exchange(cmd.Context(), app.Acting())
		if errors.Is(err, networks.ErrContractNotConfigured) {
			return err
		}
		if rerr := render(app, view, exchangeText(view)); rerr != nil {
			return rerr
		}
		return err
	},
}

var exchangeBuyCmd = &cobra.Command{
	Use:   "buy <ct>",
	Short: "Buy ct CT paying ct * k wei",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cmdutil.AppFrom(cmd)
		if err != nil {
			return err
		}
		k, err := app.Dapp.K(cmd.Context())
		if err != nil {
			return err
		}
		return send(cmd, func(d *dapp.Dapp) (txcoord.Intent, error) {
			return d.BuyCT(args[0], k)
		})
	},
}

var exchangeSellCmd = &cobra.Command{
	Use:   "sell <ct>",
	Short: "Sell ct CT for ETH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(cmd, func(d *dapp.Dapp) (txcoord.Intent, error) {
			return d.SellCT(args[0])
		})
	},
}

func init() {
	exchangeCmd.AddCommand(exchangeBuyCmd, exchangeSellCmd)
	AddCommonFlagsToTransactionalCmds(exchangeCmd)
	rootCmd.AddCommand(exchangeCmd)
}
