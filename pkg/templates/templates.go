// Package templates provides embedded YAML configuration templates.
package templates

import _ "embed"

// ConfigYAML contains the default colldb.yaml template for application
// configuration.
//
//go:embed config.yaml
var ConfigYAML string
