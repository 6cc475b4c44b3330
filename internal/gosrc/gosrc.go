package gosrc

import (
	"fmt"
	"go/format"
	"path"
	"sort"
	"strings"

	"github.com/iancoleman/strcase"

	"github.com/embed-rs/svd-codegen/internal/codegen"
	"github.com/embed-rs/svd-codegen/internal/svd"
)

type Config struct {
	Package string
	Header  []string
	// ImportRoot is the import path under which every peripheral lives in
	// a package of its own. When empty, derived peripherals refer to their
	// base type in the same package.
	ImportRoot string
}

// Render generates a Go source file for the given units. When more than one
// unit lays out a register block, register type names are prefixed with the
// peripheral type name (Tim2Cr1) so registers shared between peripherals do
// not collide.
func Render(cfg Config, units ...*codegen.Unit) ([]byte, error) {
	var buf strings.Builder
	header := cfg.Header
	if len(header) == 0 {
		header = []string{"Code generated by svdcodegen. DO NOT EDIT."}
	}
	for _, line := range header {
		fmt.Fprintf(&buf, "// %s\n", line)
	}
	pkg := cfg.Package
	if pkg == "" {
		pkg = "registers"
	}
	fmt.Fprintf(&buf, "\npackage %s\n", pkg)

	if imports := aliasImports(cfg, units); len(imports) > 0 {
		buf.WriteString("\nimport (\n")
		for _, imp := range imports {
			fmt.Fprintf(&buf, "\t%q\n", imp)
		}
		buf.WriteString(")\n")
	}

	qualify := blocks(units) > 1
	for _, u := range units {
		var prefix string
		for _, f := range u.Fragments {
			switch f := f.(type) {
			case codegen.TypeAlias:
				writeAlias(&buf, cfg, f)
			case codegen.PeripheralStruct:
				if qualify {
					prefix = f.Name
				}
				writeStruct(&buf, f, prefix)
			case codegen.RegisterType:
				writeRegister(&buf, f, prefix)
			case codegen.ReadMethods:
				writeGetters(&buf, f, prefix)
			case codegen.WriteMethods:
				writeSetters(&buf, f, prefix)
			default:
				return nil, fmt.Errorf("gosrc: unexpected fragment %T", f)
			}
		}
	}

	src := []byte(buf.String())
	out, err := format.Source(src)
	if err != nil {
		return src, fmt.Errorf("gosrc: formatting generated source: %w", err)
	}
	return out, nil
}

// blocks counts the units that lay out registers rather than alias another
// peripheral.
func blocks(units []*codegen.Unit) int {
	n := 0
	for _, u := range units {
		for _, f := range u.Fragments {
			if _, ok := f.(codegen.PeripheralStruct); ok {
				n++
			}
		}
	}
	return n
}

func aliasImports(cfg Config, units []*codegen.Unit) []string {
	if cfg.ImportRoot == "" {
		return nil
	}
	seen := make(map[string]bool)
	var out []string
	for _, u := range units {
		for _, f := range u.Fragments {
			a, ok := f.(codegen.TypeAlias)
			if !ok {
				continue
			}
			imp := path.Join(cfg.ImportRoot, a.Namespace)
			if !seen[imp] {
				seen[imp] = true
				out = append(out, imp)
			}
		}
	}
	sort.Strings(out)
	return out
}

func writeAlias(buf *strings.Builder, cfg Config, a codegen.TypeAlias) {
	target := a.Target
	if cfg.ImportRoot != "" {
		target = a.Namespace + "." + a.Target
	}
	writeBase(buf, a.Name, a.Peripheral, a.BaseAddress)
	fmt.Fprintf(buf, "\n// %s is the %s peripheral, laid out like %s.\n", a.Name, a.Peripheral, target)
	fmt.Fprintf(buf, "type %s = %s\n", a.Name, target)
}

func writeBase(buf *strings.Builder, name, peripheral string, addr uint64) {
	fmt.Fprintf(buf, "\n// %sBase is the base address of %s.\n", name, peripheral)
	fmt.Fprintf(buf, "const %sBase = 0x%08x\n", name, addr)
}

func writeStruct(buf *strings.Builder, s codegen.PeripheralStruct, prefix string) {
	writeBase(buf, s.Name, s.Peripheral, s.BaseAddress)
	fmt.Fprintf(buf, "\n// %s is the register block of %s.\n", s.Name, s.Peripheral)
	writeDoc(buf, s.Doc)
	fmt.Fprintf(buf, "type %s struct {\n", s.Name)
	for _, f := range s.Fields {
		if f.IsPadding() {
			fmt.Fprintf(buf, "\t%s [%d]byte\n", f.Name, f.Size)
			continue
		}
		fmt.Fprintf(buf, "\t%s %s // %s\n", exported(f.Name), prefix+f.Type, f.Comment)
	}
	buf.WriteString("}\n")
}

func writeRegister(buf *strings.Builder, r codegen.RegisterType, prefix string) {
	r.Name = prefix + r.Name
	fmt.Fprintf(buf, "\n// %s holds the bits of the %s register (%s).\n", r.Name, r.Register, r.Access)
	writeDoc(buf, r.Doc)
	fmt.Fprintf(buf, "type %s struct {\n\tbits %s\n}\n", r.Name, goType(r.Raw))
	fmt.Fprintf(buf, "\n// Bits returns the raw value of %s.\n", r.Register)
	fmt.Fprintf(buf, "func (r %s) Bits() %s {\n\treturn r.bits\n}\n", r.Name, goType(r.Raw))
}

func writeGetters(buf *strings.Builder, m codegen.ReadMethods, prefix string) {
	m.Type = prefix + m.Type
	for _, g := range m.Getters {
		name := exported(g.Name)
		fmt.Fprintf(buf, "\n// %s returns %s\n", name, g.Doc)
		if g.IsBit() {
			fmt.Fprintf(buf, "func (r %s) %s() bool {\n", m.Type, name)
			fmt.Fprintf(buf, "\treturn r.bits&(1<<%d) != 0\n}\n", g.Offset)
			continue
		}
		fmt.Fprintf(buf, "func (r %s) %s() %s {\n", m.Type, name, goType(g.Value))
		fmt.Fprintf(buf, "\treturn %s((r.bits >> %d) & %#x)\n}\n", goType(g.Value), g.Offset, g.Mask())
	}
}

func writeSetters(buf *strings.Builder, m codegen.WriteMethods, prefix string) {
	m.Type = prefix + m.Type
	if m.Reset != nil {
		fmt.Fprintf(buf, "\n// Reset%s returns %s at its reset value.\n", m.Type, m.Type)
		fmt.Fprintf(buf, "func Reset%s() %s {\n\treturn %s{bits: %#x}\n}\n", m.Type, m.Type, m.Type, m.Reset.Value)
	}
	for _, s := range m.Setters {
		name := exported(s.Name)
		fmt.Fprintf(buf, "\n// %s sets %s\n", name, s.Doc)
		if s.IsBit() {
			fmt.Fprintf(buf, "func (r *%s) %s(value bool) *%s {\n", m.Type, name, m.Type)
			fmt.Fprintf(buf, "\tif value {\n\t\tr.bits |= 1 << %d\n\t} else {\n\t\tr.bits &^= 1 << %d\n\t}\n", s.Offset, s.Offset)
			buf.WriteString("\treturn r\n}\n")
			continue
		}
		fmt.Fprintf(buf, "func (r *%s) %s(value %s) *%s {\n", m.Type, name, goType(s.Value), m.Type)
		fmt.Fprintf(buf, "\tr.bits &^= %#x << %d\n", s.Mask(), s.Offset)
		fmt.Fprintf(buf, "\tr.bits |= %s(value&%#x) << %d\n", goType(m.Raw), s.Mask(), s.Offset)
		buf.WriteString("\treturn r\n}\n")
	}
}

func writeDoc(buf *strings.Builder, doc string) {
	if doc == "" {
		return
	}
	fmt.Fprintf(buf, "//\n// %s\n", doc)
}

func goType(w codegen.Width) string {
	if w == codegen.WidthNone {
		return "bool"
	}
	return fmt.Sprintf("uint%d", w.Bits())
}

// exported turns a field-form name into an exported Go identifier. Exported
// names cannot be keywords, so the disambiguating underscore is only kept
// where the name would shadow the Bits method.
func exported(name string) string {
	id := strcase.ToCamel(name)
	if id == "Bits" && strings.HasSuffix(name, "_") {
		id += "_"
	}
	return id
}

// BaseAddresses renders a const block with the base address of every
// peripheral of the device.
func BaseAddresses(pkg string, d svd.Device) ([]byte, error) {
	var buf strings.Builder
	fmt.Fprintf(&buf, "package %s\n\nconst (\n", pkg)
	for _, p := range d.Peripherals {
		fmt.Fprintf(&buf, "\t%s = 0x%08x\n", strings.ToUpper(p.Name), p.BaseAddress)
	}
	buf.WriteString(")\n")
	return format.Source([]byte(buf.String()))
}
