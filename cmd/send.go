package cmd

import (
	"github.com/spf13/cobra"

	cmdutil "github.com/tranvictor/petshop/cmd/util"
	"github.com/tranvictor/petshop/dapp"
	"github.com/tranvictor/petshop/txcoord"
)

// send builds the intent of a write command and submits it.
func send(cmd *cobra.Command, build func(d *dapp.Dapp) (txcoord.Intent, error)) error {
	app, err := cmdutil.AppFrom(cmd)
	if err != nil {
		return err
	}
	in, err := build(app.Dapp)
	if err != nil {
		return err
	}
	return app.Send(cmd.Context(), in, yes)
}
