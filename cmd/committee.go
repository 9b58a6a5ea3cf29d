package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	cmdutil "github.com/tranvictor/petshop/cmd/util"
	"github.com/tranvictor/petshop/dapp"
	"github.com/tranvictor/petshop/networks"
	"github.com/tranvictor/petshop/txcoord"
)

var committeeCmd = &cobra.Command{
	Use:   "committee",
	Short: "Show the committee members, or join it and manage your stake",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cmdutil.AppFrom(cmd)
		if err != nil {
			return err
		}
		view, err := app.Dapp.Committee(cmd.Context(), app.Acting())
		if errors.Is(err, networks.ErrContractNotConfigured) {
			return err
		}
		if rerr := render(app, view, committeeText(view)); rerr != nil {
			return rerr
		}
		return err
	},
}

func stakeCmd(use, short string, build func(d *dapp.Dapp, eth string) txcoord.Intent) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <eth>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, func(d *dapp.Dapp) (txcoord.Intent, error) {
				return build(d, args[0]), nil
			})
		},
	}
}

func init() {
	committeeCmd.AddCommand(
		stakeCmd("join", "Join the committee staking eth", (*dapp.Dapp).JoinCommittee),
		stakeCmd("add-stake", "Stake more eth", (*dapp.Dapp).AddStake),
		stakeCmd("remove-stake", "Withdraw part of your stake", (*dapp.Dapp).RemoveStake),
	)
	AddCommonFlagsToTransactionalCmds(committeeCmd)
	rootCmd.AddCommand(committeeCmd)
}
