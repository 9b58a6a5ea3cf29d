package util

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	"github.com/tranvictor/petshop/config"
	"github.com/tranvictor/petshop/dapp"
	"github.com/tranvictor/petshop/identity"
	"github.com/tranvictor/petshop/networks"
	"github.com/tranvictor/petshop/query"
	"github.com/tranvictor/petshop/txcoord"
	"github.com/tranvictor/petshop/ui"
	"github.com/tranvictor/petshop/util/account"
	"github.com/tranvictor/petshop/util/cache"
	"github.com/tranvictor/petshop/util/reader"
)

// App is everything a command needs, built once by the root pre-run hook.
// Commands retrieve it with AppFrom instead of reading config globals.
type App struct {
	Network  networks.Network
	Reader   *reader.EthReader
	Store    *cache.Store
	Client   *query.Client
	Dapp     *dapp.Dapp
	Identity *identity.Resolver
	UI       ui.UI
	Format   ui.Format

	// Keystore is the file signing writes, empty for read only use.
	Keystore string

	signerOnce sync.Once
	signer     *account.Account
	signerErr  error

	coordOnce sync.Once
	coord     *txcoord.Coordinator
	coordErr  error
}

// NewApp wires the read side on top of r. The wallet is only unlocked when
// a command signs, see Signer.
func NewApp(n networks.Network, r *reader.EthReader, u ui.UI, format ui.Format) *App {
	store := cache.New()
	client := query.NewClient(r, store)
	d := dapp.New(client, n.GetContracts(),
		dapp.WithRateLimit(config.GetInt(config.ReadRateLimitKey)),
		dapp.WithCollectionLimits(
			config.GetInt(config.ReadConcurrencyKey),
			uint64(config.GetInt64(config.MaxCollectionSizeKey)),
		),
	)
	return &App{
		Network:  n,
		Reader:   r,
		Store:    store,
		Client:   client,
		Dapp:     d,
		Identity: identity.NewResolver(),
		UI:       u,
		Format:   format,
	}
}

type appKey struct{}

func WithApp(ctx context.Context, app *App) context.Context {
	return context.WithValue(ctx, appKey{}, app)
}

// AppFrom retrieves the App attached to cmd by the root pre-run hook.
func AppFrom(cmd *cobra.Command) (*App, error) {
	app, ok := cmd.Context().Value(appKey{}).(*App)
	if !ok {
		return nil, fmt.Errorf("%s: app is not initialized", cmd.Name())
	}
	return app, nil
}

// Signer unlocks the keystore once, asking for its password, and connects
// its address.
func (a *App) Signer() (*account.Account, error) {
	a.signerOnce.Do(func() {
		if a.Keystore == "" {
			a.signerErr = fmt.Errorf("signing needs a keystore, set --keystore or %s", config.KeystoreKey)
			return
		}
		pw, err := a.UI.AskSecret(fmt.Sprintf("Password of %s", a.Keystore))
		if err != nil {
			a.signerErr = err
			return
		}
		a.signer, a.signerErr = account.NewKeystoreAccount(a.Keystore, pw)
		if a.signerErr == nil {
			a.Identity.Connect(a.signer.Address())
		}
	})
	return a.signer, a.signerErr
}

// Owner resolves the optional [owner] argument of a read command. nil means
// nobody is connected.
func (a *App) Owner(args []string) (*common.Address, error) {
	explicit := ""
	if len(args) > 0 {
		explicit = args[0]
	}
	return a.Identity.Owner(explicit)
}

// Acting returns the connected address, nil when there is none.
func (a *App) Acting() *common.Address {
	addr, ok := a.Identity.Connected()
	if !ok {
		return nil
	}
	return &addr
}
