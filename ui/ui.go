// Package ui is everything petshop prints to, or reads from, the user.
package ui

import (
	"encoding/json"
	"io"
)

// Severity is the visual weight of a piece of inline text.
type Severity uint8

const (
	SeverityInfo    Severity = iota // plain
	SeveritySuccess                 // green, resolved and positive
	SeverityWarn                    // yellow, still loading
	SeverityError                   // red, failed
	SeverityCritical                // bold, review before signing
)

// StyledText pairs a plain string with a Severity. It marshals to the
// plain string so json and yaml output never carry escape codes.
type StyledText struct {
	Text     string
	Severity Severity
}

func (s StyledText) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Text)
}

func (s StyledText) MarshalYAML() (interface{}, error) {
	return s.Text, nil
}

// UI abstracts the terminal so commands can be tested against a
// RecordingUI. Output methods are safe for concurrent use, a watch command
// prints from poller goroutines.
type UI interface {
	// Style returns t coloured by its severity, or plain when colours are
	// off.
	Style(t StyledText) string

	Info(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)
	// Error prints a failure. It doesn't exit.
	Error(format string, args ...any)
	// Critical is for what the user signs or just broadcasted.
	Critical(format string, args ...any)

	// Section prints a separator centred around title.
	Section(title string)
	// KeyValue prints label / value pairs with the values aligned.
	KeyValue(rows [][2]string)
	Table(headers []string, rows [][]string)
	// TableWithGroups draws a divider between groups of rows.
	TableWithGroups(headers []string, groups [][][]string)

	// Spinner shows msg until the returned function is called.
	Spinner(msg string) func()

	// Confirm asks a yes/no question, an empty answer picks the default.
	Confirm(prompt string, defaultYes bool) bool
	// AskSecret reads a line without echoing it.
	AskSecret(prompt string) (string, error)

	// Indent returns a child UI one level deeper sharing the same streams.
	Indent() UI
	// Writer prefixes every line with the current indentation.
	Writer() io.Writer
}
