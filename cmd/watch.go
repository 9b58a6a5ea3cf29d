package cmd

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/andres-erbsen/clock"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cmdutil "github.com/tranvictor/petshop/cmd/util"
	"github.com/tranvictor/petshop/config"
	"github.com/tranvictor/petshop/dapp"
	"github.com/tranvictor/petshop/metrics"
	"github.com/tranvictor/petshop/poller"
	"github.com/tranvictor/petshop/query"
)

var metricsAddr string

// view is one watched aggregate: refresh re-reads it, show prints the
// latest snapshot.
type view struct {
	name     string
	interval time.Duration
	deps     []string
	refresh  func(ctx context.Context) error
	show     func() error
	close    func()
}

func serveMetrics(addr string) func() {
	if addr == "" {
		return func() {}
	}
	srv := &http.Server{Addr: addr, Handler: metrics.Handler(), ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).WithField("addr", addr).Error("metrics server stopped")
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// watch polls v until SIGINT or SIGTERM, printing it after every poll.
func watch(cmd *cobra.Command, v view) error {
	app, err := cmdutil.AppFrom(cmd)
	if err != nil {
		return err
	}
	defer v.close()
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer serveMetrics(metricsAddr)()

	p := poller.New(clock.New(), app.Store)
	defer p.Close()
	p.Subscribe(v.name, func(ctx context.Context) error {
		err := v.refresh(query.Fresh(ctx))
		if ctx.Err() != nil {
			return err
		}
		if showErr := v.show(); showErr != nil {
			return showErr
		}
		return err
	},
		poller.Every(v.interval),
		poller.Background(true),
		poller.DependsOn(v.deps...),
		poller.Immediate(),
	)
	<-ctx.Done()
	p.Close()
	if err := metrics.DumpSummary(); err != nil {
		log.WithError(err).Debug("couldn't gather metrics")
	}
	return nil
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Keep a view up to date, printing it after every poll until interrupted",
}

var watchPetsCmd = &cobra.Command{
	Use:   "pets [owner]",
	Short: "Watch the pets of owner",
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
		f.SetOwner(owner)
		return watch(cmd, view{
			name:     "pets",
			interval: config.GetDuration(config.OwnedPollIntervalKey),
			deps:     app.Dapp.PetsReadDeps(),
			refresh:  f.Refresh,
			show: func() error {
				v := newAssetsView(f.Snapshot())
				return render(app, v, v.text)
			},
			close: f.Close,
		})
	},
}

var watchTradesCmd = &cobra.Command{
	Use:   "trades [owner]",
	Short: "Watch the trades of owner",
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
		board := app.Dapp.NewTradeBoard()
		board.SetOwner(owner)
		return watch(cmd, view{
			name:     "trades",
			interval: config.GetDuration(config.TradePollIntervalKey),
			deps:     app.Dapp.TradesReadDeps(),
			refresh:  board.Refresh,
			show: func() error {
				now := time.Now()
				v := board.Snapshot(now)
				return render(app, v, tradeBoardText(v, owner, now))
			},
			close: board.Close,
		})
	},
}

var watchProposalsCmd = &cobra.Command{
	Use:   "proposals",
	Short: "Watch the proposals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cmdutil.AppFrom(cmd)
		if err != nil {
			return err
		}
		board := app.Dapp.NewProposalBoard()
		board.SetActing(app.Acting())
		return watch(cmd, view{
			name:     "proposals",
			interval: config.GetDuration(config.ProposalPollIntervalKey),
			deps:     app.Dapp.ProposalsReadDeps(),
			refresh:  board.Refresh,
			show: func() error {
				v := board.Snapshot()
				return render(app, v, proposalBoardText(v))
			},
			close: board.Close,
		})
	},
}

var watchCommitteeCmd = &cobra.Command{
	Use:   "committee",
	Short: "Watch the committee members",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := cmdutil.AppFrom(cmd)
		if err != nil {
			return err
		}
		var latest dapp.CommitteeView
		var mu sync.Mutex
		return watch(cmd, view{
			name:     "committee",
			interval: config.GetDuration(config.ViewerPollIntervalKey),
			deps:     app.Dapp.CommitteeReadDeps(),
			refresh: func(ctx context.Context) error {
				v, err := app.Dapp.Committee(ctx, app.Acting())
				mu.Lock()
				latest = v
				mu.Unlock()
				return err
			},
			show: func() error {
				mu.Lock()
				v := latest
				mu.Unlock()
				return render(app, v, committeeText(v))
			},
			close: func() {},
		})
	},
}

func init() {
	watchCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address, e.g. :9090")
	watchCmd.AddCommand(watchPetsCmd, watchTradesCmd, watchProposalsCmd, watchCommitteeCmd)
	rootCmd.AddCommand(watchCmd)
}
