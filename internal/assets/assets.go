package assets

import _ "embed"

// DefaultModifiers is the bonus policy used when MODIFIERS_FILE is not set.
//
//go:embed modifiers.yaml
var DefaultModifiers []byte
