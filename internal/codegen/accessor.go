package codegen

import (
	"fmt"

	"github.com/embed-rs/svd-codegen/internal/svd"
)

// genReadMethods emits a getter for every field that is not write-only.
func genReadMethods(r placed, raw Width) (ReadMethods, error) {
	m := ReadMethods{Type: TypeName(r.Name), Raw: raw}
	for _, f := range r.Fields {
		if !f.Access.CanRead() {
			continue
		}
		a, err := fieldAccessor(r, f, accessorName(f.Name))
		if err != nil {
			return m, err
		}
		m.Getters = append(m.Getters, Getter{a})
	}
	return m, nil
}

// genWriteMethods emits the reset constructor, when a reset value is known,
// and a setter for every field that is not read-only.
func genWriteMethods(r placed, raw Width, d svd.Defaults) (WriteMethods, []Warning, error) {
	m := WriteMethods{Type: TypeName(r.Name), Raw: raw}
	var warnings []Warning
	if v, ok := resetValue(r.Register, d); ok {
		if v > raw.Max() {
			warnings = append(warnings, Warning{
				Register: r.Name,
				Msg:      fmt.Sprintf("reset value 0x%x does not fit in %d bits, truncated", v, raw.Bits()),
			})
			v &= raw.Max()
		}
		m.Reset = &ResetValue{Value: v}
	}
	for _, f := range r.Fields {
		if !f.Access.CanWrite() {
			continue
		}
		a, err := fieldAccessor(r, f, "set_"+FieldName(f.Name))
		if err != nil {
			return m, warnings, err
		}
		m.Setters = append(m.Setters, Setter{a})
	}
	return m, warnings, nil
}

func fieldAccessor(r placed, f svd.Field, name string) (Accessor, error) {
	off, width := f.BitRange.Offset, f.BitRange.Width
	a := Accessor{
		Name:   name,
		Field:  f.Name,
		Offset: off,
		Width:  width,
	}
	if width == 0 || width > 32 {
		return a, &Error{
			Register: r.Name,
			Field:    f.Name,
			Err:      ErrUnsupportedWidth,
			Detail:   fmt.Sprintf("field is %d bits", width),
		}
	}
	if uint64(off)+uint64(width) > uint64(r.size) {
		return a, &Error{
			Register: r.Name,
			Field:    f.Name,
			Err:      ErrFieldRange,
			Detail:   fmt.Sprintf("bits %d:%d in a %d-bit register", off, off+width-1, r.size),
		}
	}
	a.Doc = bitsDoc(off, width, f.Description)
	if width > 1 {
		a.Value, _ = ResolveWidth(width)
	}
	return a, nil
}

// bitsDoc is "Bit N" or "Bits N:M", followed by the field description.
func bitsDoc(off, width uint32, description string) string {
	var doc string
	if width == 1 {
		doc = fmt.Sprintf("Bit %d", off)
	} else {
		doc = fmt.Sprintf("Bits %d:%d", off, off+width-1)
	}
	if d := respace(description); d != "" {
		doc += " - " + d
	}
	return doc
}
