// Package svdcodegen generates Go register access code from CMSIS-SVD
// device descriptions. The generator lives under internal/ and the command
// under cmd/svdcodegen.
package svdcodegen

import (
	_ "embed"
	"strings"
)

//go:embed VERSION
var version string

// Version is the generator release stamped into generated file headers.
func Version() string { return strings.TrimSpace(version) }
