package svd

import (
	"fmt"
	"strings"

	"golang.org/x/exp/slices"
)

// Access is the access mode of a register or field.
type Access int

const (
	AccessUnspecified Access = iota
	ReadOnly
	WriteOnly
	ReadWrite
)

// ParseAccess accepts the SVD spellings and the short r/w/rw forms.
// The empty string yields AccessUnspecified.
func ParseAccess(s string) (Access, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return AccessUnspecified, nil
	case "read-only", "r":
		return ReadOnly, nil
	case "write-only", "writeonce", "w":
		return WriteOnly, nil
	case "read-write", "read-writeonce", "rw":
		return ReadWrite, nil
	default:
		return AccessUnspecified, fmt.Errorf("unknown access %q", s)
	}
}

func (a Access) String() string {
	switch a {
	case ReadOnly:
		return "read-only"
	case WriteOnly:
		return "write-only"
	case ReadWrite:
		return "read-write"
	default:
		return "unspecified"
	}
}

func (a Access) Short() string {
	switch a {
	case ReadOnly:
		return "r"
	case WriteOnly:
		return "w"
	case ReadWrite:
		return "rw"
	default:
		return "-"
	}
}

func (a Access) CanRead() bool  { return a != WriteOnly }
func (a Access) CanWrite() bool { return a != ReadOnly }

// Defaults are the device-wide register properties used when a register
// leaves them out.
type Defaults struct {
	Size       *uint32
	ResetValue *uint64
	Access     Access
}

type Device struct {
	Name        string
	Description string
	Defaults    Defaults
	Peripherals []Peripheral
}

type Peripheral struct {
	Name        string
	BaseAddress uint64
	Description string
	DerivedFrom string
	Registers   []Register
}

type Register struct {
	Name          string
	AddressOffset uint64
	Description   string
	Size          *uint32
	Access        Access
	ResetValue    *uint64
	Fields        []Field
}

type Field struct {
	Name        string
	Description string
	BitRange    BitRange
	Access      Access
}

type BitRange struct {
	Offset uint32
	Width  uint32
}

func (b BitRange) String() string {
	if b.Width == 1 {
		return fmt.Sprintf("[%d]", b.Offset)
	}
	return fmt.Sprintf("[%d:%d]", b.Offset+b.Width-1, b.Offset)
}

// Lookup finds a peripheral by its exact name.
func (d Device) Lookup(name string) (Peripheral, bool) {
	i := slices.IndexFunc(d.Peripherals, func(p Peripheral) bool {
		return p.Name == name
	})
	if i < 0 {
		return Peripheral{}, false
	}
	return d.Peripherals[i], true
}

// Select returns, in document order, the peripherals whose name contains
// pattern, ignoring case. An empty pattern selects every peripheral.
func (d Device) Select(pattern string) []Peripheral {
	pattern = strings.ToLower(pattern)
	var out []Peripheral
	for _, p := range d.Peripherals {
		if strings.Contains(strings.ToLower(p.Name), pattern) {
			out = append(out, p)
		}
	}
	return out
}
