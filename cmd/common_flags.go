package cmd

import (
	"github.com/spf13/cobra"
)

var (
	yes      bool
	extraGas uint64
)

func AddCommonFlagsToTransactionalCmds(c *cobra.Command) {
	c.PersistentFlags().
		BoolVarP(&yes, "yes", "y", false, "Sign and broadcast without asking for confirmation.")
	c.PersistentFlags().
		Uint64VarP(&extraGas, "extragas", "G", 250000, "Extra gas limit added on top of the node estimate.")
}
