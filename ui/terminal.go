package ui

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/logrusorgru/aurora"
	runewidth "github.com/mattn/go-runewidth"
	indent "github.com/openconfig/goyang/pkg/indent"
	"golang.org/x/term"
)

const (
	indentUnit   = "  "
	sectionWidth = 50
	promptPrefix = "> "
)

// TerminalUI writes to stdout and reads from stdin. Colours and the
// spinner are only used when stdout is a terminal.
type TerminalUI struct {
	indentLevel int
	mu          *sync.Mutex
	out         io.Writer
	in          *bufio.Reader
	inFd        int
	tty         bool
	au          aurora.Aurora
}

func NewTerminalUI() *TerminalUI {
	tty := term.IsTerminal(int(os.Stdout.Fd()))
	return &TerminalUI{
		mu:   &sync.Mutex{},
		out:  os.Stdout,
		in:   bufio.NewReader(os.Stdin),
		inFd: int(os.Stdin.Fd()),
		tty:  tty,
		au:   aurora.NewAurora(tty),
	}
}

// NewWriterUI is a colourless TerminalUI on out and in, for piping.
func NewWriterUI(out io.Writer, in io.Reader) *TerminalUI {
	return &TerminalUI{
		mu:   &sync.Mutex{},
		out:  out,
		in:   bufio.NewReader(in),
		inFd: -1,
		au:   aurora.NewAurora(false),
	}
}

func (u *TerminalUI) prefix() string {
	return strings.Repeat(indentUnit, u.indentLevel)
}

func (u *TerminalUI) writeLines(lines ...string) {
	u.mu.Lock()
	defer u.mu.Unlock()
	p := u.prefix()
	for _, l := range lines {
		fmt.Fprintf(u.out, "%s%s\n", p, l)
	}
}

func (u *TerminalUI) Style(t StyledText) string {
	switch t.Severity {
	case SeveritySuccess:
		return u.au.Green(t.Text).String()
	case SeverityWarn:
		return u.au.Yellow(t.Text).String()
	case SeverityError:
		return u.au.Red(t.Text).String()
	case SeverityCritical:
		return u.au.Bold(t.Text).String()
	default:
		return t.Text
	}
}

func (u *TerminalUI) Info(format string, args ...any) {
	u.writeLines(fmt.Sprintf(format, args...))
}

func (u *TerminalUI) Success(format string, args ...any) {
	u.writeLines(u.au.Green(fmt.Sprintf(format, args...)).String())
}

func (u *TerminalUI) Warn(format string, args ...any) {
	u.writeLines(u.au.Yellow(fmt.Sprintf(format, args...)).String())
}

func (u *TerminalUI) Error(format string, args ...any) {
	u.writeLines(u.au.Red(fmt.Sprintf(format, args...)).String())
}

func (u *TerminalUI) Critical(format string, args ...any) {
	u.writeLines(u.au.Bold(fmt.Sprintf(format, args...)).String())
}

// Section prints
//
//	===== Trades of 0xAbc..1234 =====
//
// between blank lines.
func (u *TerminalUI) Section(title string) {
	titled := " " + title + " "
	bars := sectionWidth - runewidth.StringWidth(titled)
	if bars < 6 {
		bars = 6
	}
	left := bars / 2
	u.writeLines("", strings.Repeat("=", left)+titled+strings.Repeat("=", bars-left), "")
}

func (u *TerminalUI) KeyValue(rows [][2]string) {
	maxLabel := 0
	for _, r := range rows {
		if w := runewidth.StringWidth(r[0]); w > maxLabel {
			maxLabel = w
		}
	}
	lines := make([]string, len(rows))
	for i, r := range rows {
		lines[i] = runewidth.FillRight(r[0], maxLabel) + "  " + r[1]
	}
	u.writeLines(lines...)
}

func (u *TerminalUI) Table(headers []string, rows [][]string) {
	u.TableWithGroups(headers, [][][]string{rows})
}

// TableWithGroups computes column widths over every group so they all
// align. Cells may carry colours from Style.
func (u *TerminalUI) TableWithGroups(headers []string, groups [][][]string) {
	if len(groups) == 0 {
		return
	}
	ncols := len(headers)
	for _, g := range groups {
		for _, r := range g {
			if len(r) > ncols {
				ncols = len(r)
			}
		}
	}
	cellWidth := func(s string) int {
		return runewidth.StringWidth(ansi.Strip(s))
	}
	widths := make([]int, ncols)
	for i, h := range headers {
		widths[i] = cellWidth(h)
	}
	for _, group := range groups {
		for _, row := range group {
			for i := 0; i < len(row); i++ {
				if w := cellWidth(row[i]); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}

	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	if !u.tty {
		borderStyle = lipgloss.NewStyle()
	}
	border := func(s string) string { return borderStyle.Render(s) }
	dashes := make([]string, ncols)
	for i, w := range widths {
		dashes[i] = strings.Repeat("─", w+2)
	}
	line := func(l, m, r string) string {
		return border(l + strings.Join(dashes, m) + r)
	}
	renderRow := func(cells []string) string {
		parts := make([]string, ncols)
		for i := range parts {
			val := ""
			if i < len(cells) {
				val = cells[i]
			}
			if pad := widths[i] - cellWidth(val); pad > 0 {
				val += strings.Repeat(" ", pad)
			}
			parts[i] = " " + val + " "
		}
		return border("│") + strings.Join(parts, border("│")) + border("│")
	}

	lines := []string{line("┌", "┬", "┐")}
	if len(headers) > 0 {
		lines = append(lines, renderRow(headers), line("├", "┼", "┤"))
	}
	for gi, group := range groups {
		if gi > 0 {
			lines = append(lines, line("├", "┼", "┤"))
		}
		for _, row := range group {
			lines = append(lines, renderRow(row))
		}
	}
	lines = append(lines, line("└", "┴", "┘"))
	u.writeLines(lines...)
}

func (u *TerminalUI) Spinner(msg string) func() {
	if !u.tty {
		u.writeLines(msg)
		return func() {}
	}
	s := spinner.New(spinner.CharSets[14], 80*time.Millisecond, spinner.WithWriter(u.out))
	s.Suffix = " " + msg
	s.Start()
	return func() {
		s.Stop()
		// the spinner leaves the cursor on its line
		fmt.Fprintln(u.out)
	}
}

func (u *TerminalUI) readLine() string {
	text, _ := u.in.ReadString('\n')
	return strings.TrimRight(text, "\r\n")
}

func (u *TerminalUI) Confirm(prompt string, defaultYes bool) bool {
	options := "[Y/n]"
	if !defaultYes {
		options = "[y/N]"
	}
	u.Info("%s %s", prompt, options)
	for {
		u.mu.Lock()
		fmt.Fprintf(u.out, "%s%s", u.prefix(), promptPrefix)
		u.mu.Unlock()
		switch strings.ToLower(strings.TrimSpace(u.readLine())) {
		case "":
			return defaultYes
		case "y", "yes":
			return true
		case "n", "no":
			return false
		}
		u.Error("please enter y or n")
	}
}

// AskSecret disables echo when stdin is a terminal, otherwise it reads a
// plain line so passwords can be piped in.
func (u *TerminalUI) AskSecret(prompt string) (string, error) {
	u.mu.Lock()
	fmt.Fprintf(u.out, "%s%s: ", u.prefix(), prompt)
	u.mu.Unlock()
	if u.inFd < 0 || !term.IsTerminal(u.inFd) {
		return u.readLine(), nil
	}
	secret, err := term.ReadPassword(u.inFd)
	fmt.Fprintln(u.out)
	if err != nil {
		return "", fmt.Errorf("couldn't read %s: %w", prompt, err)
	}
	return string(secret), nil
}

func (u *TerminalUI) Indent() UI {
	child := *u
	child.indentLevel++
	return &child
}

func (u *TerminalUI) Writer() io.Writer {
	if u.indentLevel == 0 {
		return u.out
	}
	return indent.NewWriter(u.out, u.prefix())
}
