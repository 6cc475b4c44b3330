package codegen

import (
	"go/token"
	"strings"

	"github.com/iancoleman/strcase"
)

// TypeName is the type-name form of a hardware identifier: GPIOA -> Gpioa.
func TypeName(s string) string { return strcase.ToCamel(s) }

// FieldName is the field-name form of a hardware identifier: PIN0 -> pin_0.
func FieldName(s string) string { return strcase.ToSnake(s) }

// bits is the raw-value accessor every printer emits on a register type.
var reserved = map[string]bool{"bits": true}

// accessorName returns the getter name for a field, suffixed with "_" when
// it would collide with a keyword or a printer-owned identifier.
func accessorName(field string) string {
	name := FieldName(field)
	if token.IsKeyword(name) || reserved[name] {
		name += "_"
	}
	return name
}

// respace collapses every run of whitespace to a single space.
func respace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
