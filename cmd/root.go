// Copyright © 2018 Victor Tran
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"errors"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cmdutil "github.com/tranvictor/petshop/cmd/util"
	pscommon "github.com/tranvictor/petshop/common"
	"github.com/tranvictor/petshop/config"
	"github.com/tranvictor/petshop/networks"
	"github.com/tranvictor/petshop/ui"
	"github.com/tranvictor/petshop/util/account"
	"github.com/tranvictor/petshop/util/reader"
)

var (
	configFile  string
	networkFile string
	nodes       []string
	from        string
	keystore    string
	output      string
	logLevel    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "petshop",
	Short: "Read and trade pets, CT and governance proposals of the petshop dapp",
	Long: fmt.Sprintf(`petshop is a command line client of the petshop contracts: CustomPet
pets, the CustomToken (CT) exchange, peer to peer trades, the staking
committee and its proposals.

Reads go to every configured node at once and the first answer wins. They
are cached until a transaction of yours changes them. Writes are signed
with a keystore and broadcasted to every node.

By default petshop talks to the Ephemery testnet. Every setting can be
given as an env var prefixed with PETSHOP_ or in a --config file, e.g.:
	%s: comma separated node urls
	%s: the keystore used to sign
	%s, %s, ...: contract addresses`,
		"PETSHOP_"+config.RPCNodesKey,
		"PETSHOP_"+config.KeystoreKey,
		"PETSHOP_"+config.CustomPetKey,
		"PETSHOP_"+config.CommitteeKey,
	),
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func applyFlags(cmd *cobra.Command) error {
	if err := config.LoadFile(configFile); err != nil {
		return err
	}
	if len(nodes) > 0 {
		config.Set(config.RPCNodesKey, strings.Join(nodes, ","))
	}
	if from != "" {
		config.Set(config.FromKey, from)
	}
	if keystore != "" {
		config.Set(config.KeystoreKey, keystore)
	}
	if cmd.Flags().Changed("extragas") {
		config.Set(config.ExtraGasKey, extraGas)
	}
	level := config.GetLogLevel()
	if logLevel != "" {
		lvl, err := log.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		level = lvl
	}
	log.SetLevel(level)
	log.SetOutput(os.Stderr)
	return nil
}

// setup builds the App every command runs against.
func setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == versionCmd.Name() {
		return nil
	}
	if err := applyFlags(cmd); err != nil {
		return err
	}
	format, err := ui.ParseFormat(output)
	if err != nil {
		return err
	}
	if networkFile != "" {
		content, err := os.ReadFile(networkFile)
		if err != nil {
			return fmt.Errorf("couldn't read network file: %w", err)
		}
		custom, err := networks.NewNetworkFromJSON(content)
		if err != nil {
			return err
		}
		networks.SetNetwork(custom)
	}
	n, err := networks.CurrentNetwork()
	if err != nil {
		return err
	}
	r := reader.NewEthReaderGeneric(n.GetNodes(), config.GetDuration(config.ReadTimeoutKey))
	app := cmdutil.NewApp(n, r, ui.NewTerminalUI(), format)
	app.Keystore = config.GetString(config.KeystoreKey)

	if app.Keystore != "" {
		addr, err := account.KeystoreAddress(app.Keystore)
		if err != nil {
			return err
		}
		app.Identity.Connect(addr)
	}
	if raw := config.GetString(config.FromKey); raw != "" {
		addr, err := pscommon.ParseAddress(raw)
		if err != nil {
			return fmt.Errorf("couldn't use %s as the acting address: %w", raw, err)
		}
		app.Identity.Connect(addr)
	}
	log.WithFields(log.Fields{
		"network": n.GetName(),
		"nodes":   len(n.GetNodes()),
	}).Debug("petshop initialized")
	cmd.SetContext(cmdutil.WithApp(cmd.Context(), app))
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringVar(&networkFile, "network-file", "", "json description of the network: nodes, chain id, explorer and contracts")
	rootCmd.PersistentFlags().StringArrayVar(&nodes, "node", nil, "node url, repeat it to read from several nodes")
	rootCmd.PersistentFlags().StringVarP(&from, "from", "f", "", "acting address when no keystore is unlocked")
	rootCmd.PersistentFlags().StringVarP(&keystore, "keystore", "k", "", "keystore file used to sign transactions")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "text", "output format: text, json or yaml")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "logrus level, overrides "+config.LogLevelKey)

	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, cmdutil.ErrAborted) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
