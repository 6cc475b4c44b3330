// Package listing prints generated layouts and device summaries as plain
// text tables.
package listing

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/embed-rs/svd-codegen/internal/codegen"
	"github.com/embed-rs/svd-codegen/internal/svd"
)

// Layout writes the register map of every unit, followed by the accessors
// of each register.
func Layout(w io.Writer, units ...*codegen.Unit) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	for _, u := range units {
		for _, f := range u.Fragments {
			switch f := f.(type) {
			case codegen.TypeAlias:
				fmt.Fprintf(tw, "%s\t@ 0x%08x\t= %s\n", f.Peripheral, f.BaseAddress, f.Target)
			case codegen.PeripheralStruct:
				fmt.Fprintf(tw, "%s\t@ 0x%08x\t%s\n", f.Peripheral, f.BaseAddress, f.Doc)
				for _, sf := range f.Fields {
					if sf.IsPadding() {
						fmt.Fprintf(tw, "  0x%03x\t%d\t%s\t\t\n", sf.Offset, sf.Size, sf.Name)
						continue
					}
					fmt.Fprintf(tw, "  0x%03x\t%d\t%s\t%s\t%s\n", sf.Offset, sf.Size, sf.Name, sf.Access.Short(), sf.Comment)
				}
			case codegen.RegisterType:
				fmt.Fprintf(tw, "%s\t%s\t%s\t\t\n", f.Name, f.Raw, f.Access.Short())
			case codegen.ReadMethods:
				for _, g := range f.Getters {
					fmt.Fprintf(tw, "  %s\t%s\t%s\n", g.Name, valueType(g.Accessor), g.Doc)
				}
			case codegen.WriteMethods:
				if f.Reset != nil {
					fmt.Fprintf(tw, "  reset\t%#x\t\n", f.Reset.Value)
				}
				for _, s := range f.Setters {
					fmt.Fprintf(tw, "  %s\t%s\t%s\n", s.Name, valueType(s.Accessor), s.Doc)
				}
			}
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}

func valueType(a codegen.Accessor) string {
	if a.IsBit() {
		return "bool"
	}
	return a.Value.String()
}

// Peripherals writes one line per peripheral of the device.
func Peripherals(w io.Writer, d svd.Device) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "NAME\tBASE\tREGS\tDERIVED\tDESCRIPTION\n")
	for _, p := range d.Peripherals {
		derived := "-"
		if p.DerivedFrom != "" {
			derived = p.DerivedFrom
		}
		fmt.Fprintf(tw, "%s\t0x%08x\t%d\t%s\t%s\n", p.Name, p.BaseAddress, len(p.Registers), derived, fixSpaces(p.Description))
	}
	return tw.Flush()
}

func fixSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
