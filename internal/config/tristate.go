package config

import (
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// TriState is an on/off switch whose "auto" value follows the environment.
type TriState string

const (
	Auto TriState = "auto"
	On   TriState = "on"
	Off  TriState = "off"
)

// Resolve returns the effective value; auto (or unset) means isDev.
func (t TriState) Resolve(isDev bool) bool {
	switch t {
	case On:
		return true
	case Off:
		return false
	default:
		return isDev
	}
}

// ParseTriState accepts auto/on/off and the usual boolean spellings.
func ParseTriState(raw string) (TriState, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "auto":
		return Auto, nil
	case "on", "true", "yes", "1":
		return On, nil
	case "off", "false", "no", "0":
		return Off, nil
	default:
		return "", fmt.Errorf("invalid tri-state value %q (want auto, on or off)", raw)
	}
}

func (t *TriState) UnmarshalText(text []byte) error {
	v, err := ParseTriState(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// UnmarshalYAML lets YAML booleans (minify: true) stand in for on/off.
func (t *TriState) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: tri-state must be a scalar", node.Line)
	}
	return t.UnmarshalText([]byte(node.Value))
}

func (t TriState) String() string {
	if t == "" {
		return string(Auto)
	}
	return string(t)
}

// Set and Type let a TriState back a command-line flag.
func (t *TriState) Set(raw string) error { return t.UnmarshalText([]byte(raw)) }

func (t *TriState) Type() string { return "auto|on|off" }
