package cmd

import (
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"

	cmdutil "github.com/tranvictor/petshop/cmd/util"
	pscommon "github.com/tranvictor/petshop/common"
	"github.com/tranvictor/petshop/collection"
	"github.com/tranvictor/petshop/dapp"
	"github.com/tranvictor/petshop/query"
	"github.com/tranvictor/petshop/ui"
)

func loading(u ui.UI) string {
	return u.Style(ui.StyledText{Text: "loading...", Severity: ui.SeverityWarn})
}

func failed(u ui.UI, msg string) string {
	return u.Style(ui.StyledText{Text: msg, Severity: ui.SeverityError})
}

// orFailed shows errMsg in place of value when the read failed.
func orFailed(u ui.UI, value, errMsg string) string {
	if errMsg != "" {
		return failed(u, errMsg)
	}
	return value
}

func optString(u ui.UI, o query.Optional[string]) string {
	if v, ok := o.Get(); ok {
		return v
	}
	return loading(u)
}

func ether(v *big.Int) string {
	return pscommon.BigToDecimalString(v, 18)
}

func optEther(u ui.UI, o query.Optional[*big.Int], unit string) string {
	if v, ok := o.Get(); ok {
		return ether(v) + " " + unit
	}
	return loading(u)
}

func bigString(v *big.Int) string {
	if v == nil {
		return "-"
	}
	return v.String()
}

func joinActions[A ~string](actions []A) string {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = string(a)
	}
	return strings.Join(names, ",")
}

func addr(a common.Address) string {
	return pscommon.ShortHex(a)
}

func render(app *cmdutil.App, v interface{}, text func(ui.UI)) error {
	return ui.Render(app.UI, app.Format, v, text)
}

func noOwner(u ui.UI) {
	u.Warn("No wallet connected, pass an owner address, --from or --keystore.")
}

// assetsView is the printable form of a pet listing.
type assetsView struct {
	Owner   *common.Address `json:"owner" yaml:"owner"`
	Count   *uint64         `json:"count,omitempty" yaml:"count,omitempty"`
	Pets    []dapp.Asset    `json:"pets" yaml:"pets"`
	Pending int             `json:"pending" yaml:"pending"`
	Loading bool            `json:"loading" yaml:"loading"`
	Error   string          `json:"error,omitempty" yaml:"error,omitempty"`
}

func newAssetsView(res collection.Result[dapp.Asset]) assetsView {
	v := assetsView{Owner: res.Owner, Pets: res.Items, Loading: res.Loading}
	if n, ok := res.Count.Get(); ok {
		v.Count = &n
	}
	for _, s := range res.Slots {
		if s.State == collection.SlotPending {
			v.Pending++
		}
	}
	if res.Err != nil {
		v.Error = res.Err.Error()
	}
	return v
}

func (v assetsView) text(u ui.UI) {
	if v.Owner == nil {
		noOwner(u)
		return
	}
	u.Section("Pets of " + v.Owner.Hex())
	rows := make([][]string, 0, len(v.Pets))
	for _, p := range v.Pets {
		rows = append(rows, []string{p.TokenID.String(), optString(u, p.MetadataURI)})
	}
	if len(rows) > 0 {
		u.Table([]string{"ID", "URI"}, rows)
	}
	switch {
	case v.Count == nil && v.Loading:
		u.Info("Counting pets %s", loading(u))
	case v.Count != nil:
		u.Info("%d pet(s), %d still loading", *v.Count, v.Pending)
	}
	if v.Error != "" {
		u.Error("%s", v.Error)
	}
}

func tradeRows(u ui.UI, view dapp.TradeBoardView, now time.Time) [][][]string {
	groups := map[dapp.TradePhase][][]string{}
	order := []dapp.TradePhase{dapp.PhaseOpen, dapp.PhaseExpirable, dapp.PhaseClosed}
	var pending [][]string
	for _, r := range view.Rows {
		role := r.Role
		if r.RoleLoading {
			role = loading(u)
		}
		actions := joinActions(r.Actions)
		if r.Trade == nil {
			status := loading(u)
			if r.Error != "" {
				status = failed(u, r.Error)
			}
			pending = append(pending, []string{addr(r.Address), role, status, "", "", ""})
			continue
		}
		t := r.Trade
		phase := t.Phase(now)
		groups[phase] = append(groups[phase], []string{
			addr(r.Address),
			role,
			string(phase),
			t.PriceCT.String() + " CT",
			t.Expiration.Local().Format(time.DateTime),
			actions,
		})
	}
	out := [][][]string{}
	for _, p := range order {
		if len(groups[p]) > 0 {
			out = append(out, groups[p])
		}
	}
	if len(pending) > 0 {
		out = append(out, pending)
	}
	return out
}

func tradeBoardText(view dapp.TradeBoardView, owner *common.Address, now time.Time) func(ui.UI) {
	return func(u ui.UI) {
		if owner == nil {
			noOwner(u)
			return
		}
		u.Section("Trades of " + owner.Hex())
		if groups := tradeRows(u, view, now); len(groups) > 0 {
			u.TableWithGroups([]string{"TRADE", "ROLE", "PHASE", "PRICE", "EXPIRATION", "ACTIONS"}, groups)
		} else if !view.Loading {
			u.Info("No trade.")
		}
		if view.Loading {
			u.Warn("Some trades are still loading.")
		}
		if view.Error != "" {
			u.Error("%s", view.Error)
		}
	}
}

func proposalBoardText(view dapp.ProposalBoardView) func(ui.UI) {
	return func(u ui.UI) {
		u.Section("Proposals")
		rows := [][]string{}
		for _, r := range view.Rows {
			status := "historical"
			if r.Active {
				status = u.Style(ui.StyledText{Text: "active", Severity: ui.SeveritySuccess})
			}
			actions := joinActions(r.Actions)
			if !r.Loaded {
				info := loading(u)
				if r.Error != "" {
					info = failed(u, r.Error)
				}
				rows = append(rows, []string{addr(r.Address), status, info, "", "", actions})
				continue
			}
			rows = append(rows, []string{
				addr(r.Address),
				status,
				r.Kind,
				fmt.Sprintf("%s / %s", ether(r.YesWeight), ether(r.NoWeight)),
				r.EndTime.Local().Format(time.DateTime),
				actions,
			})
		}
		if len(rows) > 0 {
			u.Table([]string{"PROPOSAL", "STATUS", "KIND", "YES / NO", "ENDS", "ACTIONS"}, rows)
		} else if !view.Loading {
			u.Info("No proposal.")
		}
		if member, ok := view.IsMember.Get(); ok {
			u.Info("Committee member: %t", member)
		}
		if view.Error != "" {
			u.Error("%s", view.Error)
		}
	}
}

func committeeText(view dapp.CommitteeView) func(ui.UI) {
	return func(u ui.UI) {
		u.Section("Committee")
		rows := make([][]string, len(view.Members))
		for i, m := range view.Members {
			rows[i] = []string{m.Address.Hex(), ether(m.StakedAmount) + " ETH"}
		}
		switch {
		case len(rows) > 0:
			u.Table([]string{"MEMBER", "STAKE"}, rows)
		case view.MembersError != "":
			u.Error("Couldn't read the members: %s", view.MembersError)
		default:
			u.Info("No member.")
		}
		if member, ok := view.IsMember.Get(); ok {
			u.Info("You are a member: %t", member)
		} else if view.IsMemberError != "" {
			u.Warn("Couldn't read your membership: %s", view.IsMemberError)
		}
	}
}

func exchangeText(view dapp.ExchangeView) func(ui.UI) {
	return func(u ui.UI) {
		u.Section("Exchange")
		u.KeyValue([][2]string{
			{"k", orFailed(u, bigString(view.K)+" wei per CT", view.KError)},
			{"CT balance", orFailed(u, optEther(u, view.CTBalance, "CT"), view.CTBalanceError)},
			{"ETH balance", orFailed(u, optEther(u, view.ETHBalance, "ETH"), view.ETHBalanceError)},
		})
	}
}
