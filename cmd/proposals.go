package cmd

import (
	"github.com/spf13/cobra"

	cmdutil "github.com/tranvictor/petshop/cmd/util"
	pscommon "github.com/tranvictor/petshop/common"
	"github.com/tranvictor/petshop/dapp"
	"github.com/tranvictor/petshop/txcoord"
	"github.com/tranvictor/petshop/ui"
)

var proposalsCmd = &cobra.Command{
	Use:   "proposals",
	Short: "List active then historical proposals with their votes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cmdutil.AppFrom(cmd)
		if err != nil {
			return err
		}
		board := app.Dapp.NewProposalBoard()
		defer board.Close()
		board.SetActing(app.Acting())
		stop := app.UI.Spinner("Reading proposals...")
		_ = board.Refresh(cmd.Context())
		stop()
		view := board.Snapshot()
		return render(app, view, proposalBoardText(view))
	},
}

var proposalCmd = &cobra.Command{
	Use:   "proposal",
	Short: "Vote on, end or create governance proposals",
}

var proposalVoteCmd = &cobra.Command{
	Use:   "vote <proposal> <yes|no>",
	Short: "Vote on an active proposal, committee members only",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		proposal, err := pscommon.ParseAddress(args[0])
		if err != nil {
			return err
		}
		return send(cmd, func(d *dapp.Dapp) (txcoord.Intent, error) {
			return d.Vote(proposal, args[1]), nil
		})
	},
}

var proposalEndCmd = &cobra.Command{
	Use:   "end <proposal>",
	Short: "End a proposal and execute it if it passed",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		proposal, err := pscommon.ParseAddress(args[0])
		if err != nil {
			return err
		}
		return send(cmd, func(d *dapp.Dapp) (txcoord.Intent, error) {
			return d.EndProposal(proposal), nil
		})
	},
}

var proposalCreateCmd = &cobra.Command{
	Use:   "create <kind> [args...]",
	Short: "Create a proposal, see 'proposal kinds' for the kinds and their args",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(cmd, func(d *dapp.Dapp) (txcoord.Intent, error) {
			return d.CreateProposal(args[0], args[1:])
		})
	},
}

var proposalKindsCmd = &cobra.Command{
	Use:   "kinds",
	Short: "List the proposal kinds",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cmdutil.AppFrom(cmd)
		if err != nil {
			return err
		}
		return render(app, dapp.ProposalKinds, func(u ui.UI) {
			rows := make([][]string, len(dapp.ProposalKinds))
			for i, k := range dapp.ProposalKinds {
				rows[i] = []string{k.Usage(), k.Description}
			}
			u.Table([]string{"USAGE", "DESCRIPTION"}, rows)
		})
	},
}

func init() {
	proposalCmd.AddCommand(proposalVoteCmd, proposalEndCmd, proposalCreateCmd, proposalKindsCmd)
	AddCommonFlagsToTransactionalCmds(proposalCmd)
	rootCmd.AddCommand(proposalsCmd, proposalCmd)
}
