package config

import "fmt"

// MissingKeyError is returned when a required config key is absent after
// merging all layers.
type MissingKeyError struct {
	KeyPath     string
	SearchOrder []string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("config: missing required key %q (searched: %v)", e.KeyPath, e.SearchOrder)
}

// ParseError wraps a YAML parse failure with the offending file path.
type ParseError struct {
	Path string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("config: parse %s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }
