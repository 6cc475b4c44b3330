package codegen

import "github.com/embed-rs/svd-codegen/internal/svd"

// Fragment is one unit of generated output. Printers switch on the concrete
// type; the order of fragments in a Unit is the order of declarations.
type Fragment interface{ isFragment() }

// Unit is everything generated for one peripheral.
type Unit struct {
	Peripheral string
	Fragments  []Fragment
	Warnings   []Warning
}

// TypeAlias binds a derived peripheral to the type of the peripheral it is
// derived from. Namespace is the field-name form of that peripheral.
type TypeAlias struct {
	Name        string
	Peripheral  string
	Namespace   string
	Target      string
	BaseAddress uint64
}

func (TypeAlias) isFragment() {}

// PeripheralStruct is the register block of a peripheral laid out at its
// base address.
type PeripheralStruct struct {
	Name        string
	Peripheral  string
	Doc         string
	BaseAddress uint64
	Fields      []StructField
}

func (PeripheralStruct) isFragment() {}

// StructField is a register slot or a reserved gap in a peripheral layout.
// Reserved gaps have no Type.
type StructField struct {
	Name    string
	Type    string
	Offset  uint64
	Size    uint64 // bytes
	Access  svd.Access
	Comment string
}

func (f StructField) IsPadding() bool { return f.Type == "" }

// RegisterType wraps the raw bits of one register.
type RegisterType struct {
	Name     string
	Register string
	Doc      string
	Size     uint32 // bits
	Raw      Width
	Access   svd.Access
}

func (RegisterType) isFragment() {}

// ReadMethods are the getters of one register type.
type ReadMethods struct {
	Type    string
	Raw     Width
	Getters []Getter
}

func (ReadMethods) isFragment() {}

// WriteMethods are the reset constructor and setters of one register type.
type WriteMethods struct {
	Type    string
	Raw     Width
	Reset   *ResetValue
	Setters []Setter
}

func (WriteMethods) isFragment() {}

// ResetValue is the raw value a register holds after reset.
type ResetValue struct {
	Value uint64
}

// Accessor describes the bits one getter or setter covers. Value is the
// representation of a multi-bit field; single-bit fields are booleans and
// leave it as WidthNone.
type Accessor struct {
	Name   string
	Field  string
	Doc    string
	Offset uint32
	Width  uint32
	Value  Width
}

func (a Accessor) IsBit() bool  { return a.Width == 1 }
func (a Accessor) Mask() uint64 { return mask[uint64](a.Width) }

// Getter reads one field.
type Getter struct{ Accessor }

// Read extracts the field from raw register bits. Single-bit fields read
// as 0 or 1.
func (g Getter) Read(raw uint64) uint64 {
	if g.IsBit() {
		if raw&(1<<g.Offset) != 0 {
			return 1
		}
		return 0
	}
	return (raw >> g.Offset) & g.Mask()
}

// Setter replaces one field, leaving the other bits alone.
type Setter struct{ Accessor }

// Write returns raw with the field replaced by value. Bits outside the
// field are left as they were.
func (s Setter) Write(raw, value uint64) uint64 {
	if s.IsBit() {
		if value != 0 {
			return raw | 1<<s.Offset
		}
		return raw &^ (1 << s.Offset)
	}
	raw &^= s.Mask() << s.Offset
	raw |= (value & s.Mask()) << s.Offset
	return raw
}
