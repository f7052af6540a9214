package config

import "fmt"

// Format names the serialization a job document is written in.
// FormatYAML is the only one fetchd decodes; the type exists as the
// extension point for a second structured format without reshaping
// DecodeJobDocument's signature.
type Format string

const FormatYAML Format = "yaml"

// ParseFormat validates a declared format name, defaulting to YAML
// when unset since every shipped job document is YAML today.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case "", FormatYAML:
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("config: unsupported document format %q", name)
	}
}
