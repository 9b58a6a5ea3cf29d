package ui_test

import (
	"bytes"
	"math/big"
	"strings"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tranvictor/petshop/ui"
)

type row struct {
	Owner  common.Address `json:"owner" yaml:"owner"`
	Amount *big.Int       `json:"amount" yaml:"amount"`
	Status ui.StyledText  `json:"status" yaml:"status"`
}

func TestRenderFormats(t *testing.T) {
	v := row{
		Owner:  common.HexToAddress("0x000000000000000000000000000000000000a11c"),
		Amount: big.NewInt(42),
		Status: ui.StyledText{Text: "loading", Severity: ui.SeverityWarn},
	}

	r := ui.NewRecordingUI()
	require.NoError(t, ui.Render(r, ui.FormatJSON, v, nil))
	assert.JSONEq(t, `{"owner":"0x000000000000000000000000000000000000a11c","amount":42,"status":"loading"}`, r.Output())

	r = ui.NewRecordingUI()
	require.NoError(t, ui.Render(r, ui.FormatYAML, v, nil))
	assert.Regexp(t, `amount: "?42"?`, r.Output())
	assert.Contains(t, r.Output(), "status: loading")

	r = ui.NewRecordingUI()
	require.NoError(t, ui.Render(r, ui.FormatText, v, func(u ui.UI) {
		u.Info("amount %s", v.Amount)
	}))
	assert.Equal(t, []string{"amount 42"}, r.Messages("Info"))
	assert.Empty(t, r.Output())
}

func TestParseFormat(t *testing.T) {
	f, err := ui.ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, ui.FormatText, f)
	f, err = ui.ParseFormat(" YAML")
	require.NoError(t, err)
	assert.Equal(t, ui.FormatYAML, f)
	_, err = ui.ParseFormat("xml")
	assert.Error(t, err)
}

func TestWriterUITable(t *testing.T) {
	var out bytes.Buffer
	u := ui.NewWriterUI(&out, strings.NewReader(""))
	u.TableWithGroups([]string{"ID", "ROLE"}, [][][]string{
		{{"1", "seller"}},
		{{"22", "buyer"}},
	})
	lines := strings.Split(strings.TrimRight(out.String(), "\n"), "\n")
	require.Len(t, lines, 7)
	assert.Equal(t, "│ ID │ ROLE   │", lines[1])
	assert.Equal(t, "│ 22 │ buyer  │", lines[5])
	assert.Equal(t, lines[2], lines[4])
}

func TestWriterUIPrompts(t *testing.T) {
	var out bytes.Buffer
	u := ui.NewWriterUI(&out, strings.NewReader("maybe\nY\nhunter2\n"))
	assert.True(t, u.Confirm("broadcast?", false))
	assert.Contains(t, out.String(), "please enter y or n")

	secret, err := u.AskSecret("password")
	require.NoError(t, err)
	assert.Equal(t, "hunter2", secret)

	out.Reset()
	u.Indent().KeyValue([][2]string{{"k", "1"}, {"balance", "2"}})
	assert.Equal(t, "  k        1\n  balance  2\n", out.String())
}

func TestRecordingUIIsSafeForConcurrentUse(t *testing.T) {
	r := ui.NewRecordingUI("", "n", "secret")
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.Indent().Warn("poll failed")
		}()
	}
	wg.Wait()
	assert.Len(t, r.Messages("Warn"), 10)

	assert.True(t, r.Confirm("sign?", true))
	assert.False(t, r.Confirm("sign?", true))
	s, err := r.AskSecret("password")
	require.NoError(t, err)
	assert.Equal(t, "secret", s)
	assert.False(t, r.HasMessage("secret"))
	assert.Panics(t, func() { r.Confirm("again?", true) })
}
