package codegen

import (
	"errors"
	"fmt"

	"github.com/embed-rs/svd-codegen/internal/svd"
)

// placed is a register that made it into the peripheral layout, with its
// resolved size and access.
type placed struct {
	svd.Register
	size   uint32
	access svd.Access
}

// layout is the running state of one peripheral's layout: the first byte
// past the last placed register and the number of reserved gaps so far.
type layout struct {
	offset   uint64
	reserved int
}

// pad returns the reserved field filling the gap up to offset, if any.
func (l layout) pad(offset uint64) (StructField, layout, bool) {
	if offset == l.offset {
		return StructField{}, l, false
	}
	f := StructField{
		Name:   fmt.Sprintf("_reserved%d", l.reserved),
		Offset: l.offset,
		Size:   offset - l.offset,
	}
	l.reserved++
	return f, l, true
}

func (l layout) advance(r svd.Register, size uint32) layout {
	l.offset = r.AddressOffset + (uint64(size)+7)/8
	return l
}

// Generate produces the fragments for one peripheral.
//
// Registers must be supplied in non-decreasing address order; they are not
// sorted here. A register starting inside the previous one is skipped with a
// warning. Every other problem is fatal for the peripheral and reported as
// an *Error.
func Generate(p svd.Peripheral, d svd.Defaults) (*Unit, error) {
	u := &Unit{Peripheral: p.Name}
	if p.DerivedFrom != "" {
		u.Fragments = []Fragment{TypeAlias{
			Name:        TypeName(p.Name),
			Peripheral:  p.Name,
			Namespace:   FieldName(p.DerivedFrom),
			Target:      TypeName(p.DerivedFrom),
			BaseAddress: p.BaseAddress,
		}}
		return u, nil
	}

	st := PeripheralStruct{
		Name:        TypeName(p.Name),
		Peripheral:  p.Name,
		Doc:         respace(p.Description),
		BaseAddress: p.BaseAddress,
	}
	var regs []placed
	var lay layout
	for _, r := range p.Registers {
		if r.AddressOffset < lay.offset {
			u.Warnings = append(u.Warnings, Warning{
				Peripheral: p.Name,
				Register:   r.Name,
				Msg: fmt.Sprintf("overlaps with another register at offset 0x%x (layout reaches 0x%x), ignoring",
					r.AddressOffset, lay.offset),
			})
			continue
		}
		gap, next, ok := lay.pad(r.AddressOffset)
		if ok {
			st.Fields = append(st.Fields, gap)
		}
		lay = next

		access, err := registerAccess(r, d)
		if err != nil {
			return nil, inPeripheral(p, err)
		}
		size, err := registerSize(r, d)
		if err != nil {
			return nil, inPeripheral(p, err)
		}
		st.Fields = append(st.Fields, StructField{
			Name:    FieldName(r.Name),
			Type:    TypeName(r.Name),
			Offset:  r.AddressOffset,
			Size:    (uint64(size) + 7) / 8,
			Access:  access,
			Comment: offsetComment(r),
		})
		lay = lay.advance(r, size)
		regs = append(regs, placed{Register: r, size: size, access: access})
	}
	u.Fragments = append(u.Fragments, st)

	for _, r := range regs {
		rt, err := genRegister(r)
		if err != nil {
			return nil, inPeripheral(p, err)
		}
		rm, err := genReadMethods(r, rt.Raw)
		if err != nil {
			return nil, inPeripheral(p, err)
		}
		wm, warnings, err := genWriteMethods(r, rt.Raw, d)
		if err != nil {
			return nil, inPeripheral(p, err)
		}
		for _, w := range warnings {
			w.Peripheral = p.Name
			u.Warnings = append(u.Warnings, w)
		}
		u.Fragments = append(u.Fragments, rt, rm, wm)
	}
	return u, nil
}

func offsetComment(r svd.Register) string {
	c := fmt.Sprintf("0x%02x", r.AddressOffset)
	if d := respace(r.Description); d != "" {
		c += " - " + d
	}
	return c
}

func inPeripheral(p svd.Peripheral, err error) error {
	var e *Error
	if errors.As(err, &e) {
		e.Peripheral = p.Name
	}
	return err
}
