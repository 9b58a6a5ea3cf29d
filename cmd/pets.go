package cmd

import (
	"github.com/spf13/cobra"

	cmdutil "github.com/tranvictor/petshop/cmd/util"
	"github.com/tranvictor/petshop/dapp"
	"github.com/tranvictor/petshop/txcoord"
)

var petsCmd = &cobra.Command{
	Use:   "pets [owner]",
	Short: "List the pets of owner, one balanceOf then one query per pet",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cmdutil.AppFrom(cmd)
		if err != nil {
			return err
		}
		owner, err := app.Owner(args)
		if err != nil {
			return err
		}
		f, err := app.Dapp.OwnedPets()
		if err != nil {
			return err
		}
		defer f.Close()
		f.SetOwner(owner)
		stop := app.UI.Spinner("Reading pets...")
		// failures are reported per pet by the snapshot
		_ = f.Refresh(cmd.Context())
		stop()
		v := newAssetsView(f.Snapshot())
		return render(app, v, v.text)
	},
}

var ownedCmd = &cobra.Command{
	Use:   "owned [owner]",
	Short: "List the pets of owner with a single Viewer call",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cmdutil.AppFrom(cmd)
		if err != nil {
			return err
		}
		owner, err := app.Owner(args)
		if err != nil {
			return err
		}
		if owner == nil {
			v := assetsView{}
			return render(app, v, v.text)
		}
		pets, err := app.Dapp.ViewerOwnedPets(cmd.Context(), *owner)
		if err != nil {
			return err
		}
		n := uint64(len(pets))
		v := assetsView{Owner: owner, Count: &n, Pets: pets}
		return render(app, v, v.text)
	},
}

var petCmd = &cobra.Command{
	Use:   "pet",
	Short: "Mint or burn pets",
}

var petMintCmd = &cobra.Command{
	Use:   "mint <to> <uri>",
	Short: "Mint a pet with the metadata uri to an address",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(cmd, func(d *dapp.Dapp) (txcoord.Intent, error) {
			return d.MintPet(args[0], args[1]), nil
		})
	},
}

var petBurnCmd = &cobra.Command{
	Use:   "burn <token-id>",
	Short: "Burn a pet",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return send(cmd, func(d *dapp.Dapp) (txcoord.Intent, error) {
			return d.BurnPet(args[0]), nil
		})
	},
}

func init() {
	petCmd.AddCommand(petMintCmd, petBurnCmd)
	AddCommonFlagsToTransactionalCmds(petCmd)
	rootCmd.AddCommand(petsCmd, ownedCmd, petCmd)
}
