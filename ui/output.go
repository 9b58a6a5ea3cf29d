package ui

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format is how a command prints its result.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatText:
		return FormatText, nil
	case FormatJSON, FormatYAML:
		return f, nil
	}
	return "", fmt.Errorf("unsupported output format %q, expected text, json or yaml", s)
}

// Render writes v as json or yaml to u.Writer(). For FormatText it calls
// text, which prints with the UI's own methods.
func Render(u UI, f Format, v interface{}, text func(UI)) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(u.Writer())
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case FormatYAML:
		enc := yaml.NewEncoder(u.Writer())
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	text(u)
	return nil
}
