package svd

import (
	"cmp"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/exp/slices"
)

type xmlProps struct {
	Size       string `xml:"size"`
	Access     string `xml:"access"`
	ResetValue string `xml:"resetValue"`
}

type xmlDim struct {
	Dim          string `xml:"dim"`
	DimIncrement string `xml:"dimIncrement"`
	DimIndex     string `xml:"dimIndex"`
}

type xmlDevice struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	xmlProps
	Peripherals []xmlPeripheral `xml:"peripherals>peripheral"`
}

type xmlPeripheral struct {
	DerivedFrom string `xml:"derivedFrom,attr"`
	Name        string `xml:"name"`
	Description string `xml:"description"`
	BaseAddress string `xml:"baseAddress"`
	xmlProps
	Registers []xmlRegister `xml:"registers>register"`
}

type xmlRegister struct {
	xmlDim
	Name          string `xml:"name"`
	Description   string `xml:"description"`
	AddressOffset string `xml:"addressOffset"`
	xmlProps
	Fields []xmlField `xml:"fields>field"`
}

type xmlField struct {
	Name        string `xml:"name"`
	Description string `xml:"description"`
	BitOffset   string `xml:"bitOffset"`
	BitWidth    string `xml:"bitWidth"`
	LSB         string `xml:"lsb"`
	MSB         string `xml:"msb"`
	BitRange    string `xml:"bitRange"`
	Access      string `xml:"access"`
}

// Parse loads a CMSIS-SVD document into a Device. Registers of every
// peripheral come back sorted by address offset.
func Parse(src []byte) (Device, error) {
	var x xmlDevice
	if err := xml.Unmarshal(src, &x); err != nil {
		return Device{}, fmt.Errorf("svd: %w", err)
	}
	d := Device{
		Name:        strings.TrimSpace(x.Name),
		Description: strings.TrimSpace(x.Description),
	}
	var err error
	if d.Defaults, err = parseProps(x.xmlProps); err != nil {
		return d, fmt.Errorf("device %s: %w", d.Name, err)
	}
	for _, xp := range x.Peripherals {
		p, err := parsePeripheral(xp)
		if err != nil {
			return d, err
		}
		d.Peripherals = append(d.Peripherals, p)
	}
	return d, nil
}

func parsePeripheral(xp xmlPeripheral) (Peripheral, error) {
	p := Peripheral{
		Name:        strings.TrimSpace(xp.Name),
		Description: xp.Description,
		DerivedFrom: strings.TrimSpace(xp.DerivedFrom),
	}
	base, err := parseUint(xp.BaseAddress)
	if err != nil {
		return p, fmt.Errorf("peripheral %s: baseAddress: %w", p.Name, err)
	}
	p.BaseAddress = base
	inherited, err := parseProps(xp.xmlProps)
	if err != nil {
		return p, fmt.Errorf("peripheral %s: %w", p.Name, err)
	}
	for _, xr := range xp.Registers {
		regs, err := parseRegister(xr, inherited)
		if err != nil {
			return p, fmt.Errorf("peripheral %s: %w", p.Name, err)
		}
		p.Registers = append(p.Registers, regs...)
	}
	slices.SortStableFunc(p.Registers, func(a, b Register) int {
		return cmp.Compare(a.AddressOffset, b.AddressOffset)
	})
	return p, nil
}

// parseRegister returns one register, or several when the register is a
// dim array.
func parseRegister(xr xmlRegister, inherited Defaults) ([]Register, error) {
	name := strings.TrimSpace(xr.Name)
	r := Register{Name: name, Description: xr.Description}
	off, err := parseUint(xr.AddressOffset)
	if err != nil {
		return nil, fmt.Errorf("register %s: addressOffset: %w", name, err)
	}
	r.AddressOffset = off
	props, err := parseProps(xr.xmlProps)
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	r.Size, r.ResetValue, r.Access = props.Size, props.ResetValue, props.Access
	if r.Size == nil {
		r.Size = inherited.Size
	}
	if r.ResetValue == nil {
		r.ResetValue = inherited.ResetValue
	}
	if r.Access == AccessUnspecified {
		r.Access = inherited.Access
	}
	for _, xf := range xr.Fields {
		f, err := parseField(xf)
		if err != nil {
			return nil, fmt.Errorf("register %s: %w", name, err)
		}
		r.Fields = append(r.Fields, f)
	}

	if strings.TrimSpace(xr.Dim) == "" {
		return []Register{r}, nil
	}
	dim, err := parseUint(xr.Dim)
	if err != nil {
		return nil, fmt.Errorf("register %s: dim: %w", name, err)
	}
	incr, err := parseUint(xr.DimIncrement)
	if err != nil {
		return nil, fmt.Errorf("register %s: dimIncrement: %w", name, err)
	}
	indices, err := dimIndices(xr.DimIndex, int(dim))
	if err != nil {
		return nil, fmt.Errorf("register %s: %w", name, err)
	}
	out := make([]Register, 0, len(indices))
	for i, idx := range indices {
		elem := r
		elem.Name = strings.ReplaceAll(strings.ReplaceAll(name, "[%s]", idx), "%s", idx)
		elem.AddressOffset = r.AddressOffset + uint64(i)*incr
		elem.Fields = slices.Clone(r.Fields)
		out = append(out, elem)
	}
	return out, nil
}

func parseField(xf xmlField) (Field, error) {
	f := Field{Name: strings.TrimSpace(xf.Name), Description: xf.Description}
	var err error
	if f.Access, err = ParseAccess(xf.Access); err != nil {
		return f, fmt.Errorf("field %s: %w", f.Name, err)
	}
	if f.BitRange, err = parseBitRange(xf); err != nil {
		return f, fmt.Errorf("field %s: %w", f.Name, err)
	}
	return f, nil
}

func parseBitRange(xf xmlField) (BitRange, error) {
	switch {
	case strings.TrimSpace(xf.BitOffset) != "":
		off, err := parseUint(xf.BitOffset)
		if err != nil {
			return BitRange{}, fmt.Errorf("bitOffset: %w", err)
		}
		width := uint64(1)
		if strings.TrimSpace(xf.BitWidth) != "" {
			if width, err = parseUint(xf.BitWidth); err != nil {
				return BitRange{}, fmt.Errorf("bitWidth: %w", err)
			}
		}
		return BitRange{Offset: uint32(off), Width: uint32(width)}, nil
	case strings.TrimSpace(xf.LSB) != "" || strings.TrimSpace(xf.MSB) != "":
		lsb, err := parseUint(xf.LSB)
		if err != nil {
			return BitRange{}, fmt.Errorf("lsb: %w", err)
		}
		msb, err := parseUint(xf.MSB)
		if err != nil {
			return BitRange{}, fmt.Errorf("msb: %w", err)
		}
		return makeBitRange(msb, lsb)
	case strings.TrimSpace(xf.BitRange) != "":
		s := strings.TrimSpace(xf.BitRange)
		s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
		parts := strings.SplitN(s, ":", 2)
		if len(parts) != 2 {
			return BitRange{}, fmt.Errorf("invalid bitRange %q", xf.BitRange)
		}
		msb, err := parseUint(parts[0])
		if err != nil {
			return BitRange{}, fmt.Errorf("bitRange: %w", err)
		}
		lsb, err := parseUint(parts[1])
		if err != nil {
			return BitRange{}, fmt.Errorf("bitRange: %w", err)
		}
		return makeBitRange(msb, lsb)
	default:
		return BitRange{}, fmt.Errorf("no bit range")
	}
}

func makeBitRange(msb, lsb uint64) (BitRange, error) {
	if msb < lsb {
		return BitRange{}, fmt.Errorf("msb %d < lsb %d", msb, lsb)
	}
	return BitRange{Offset: uint32(lsb), Width: uint32(msb - lsb + 1)}, nil
}

func parseProps(x xmlProps) (Defaults, error) {
	var d Defaults
	if strings.TrimSpace(x.Size) != "" {
		v, err := parseUint(x.Size)
		if err != nil {
			return d, fmt.Errorf("size: %w", err)
		}
		size := uint32(v)
		d.Size = &size
	}
	if strings.TrimSpace(x.ResetValue) != "" {
		v, err := parseUint(x.ResetValue)
		if err != nil {
			return d, fmt.Errorf("resetValue: %w", err)
		}
		d.ResetValue = &v
	}
	var err error
	d.Access, err = ParseAccess(x.Access)
	return d, err
}

// dimIndices expands a dimIndex of the form "0-3" or "A,B,C". An empty
// dimIndex counts from zero.
func dimIndices(s string, dim int) ([]string, error) {
	s = strings.TrimSpace(s)
	var out []string
	switch {
	case s == "":
		for i := 0; i < dim; i++ {
			out = append(out, strconv.Itoa(i))
		}
	case strings.Contains(s, "-"):
		parts := strings.SplitN(s, "-", 2)
		lo, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("dimIndex %q: %w", s, err)
		}
		hi, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			return nil, fmt.Errorf("dimIndex %q: %w", s, err)
		}
		if n := hi - lo + 1; n != dim {
			return nil, fmt.Errorf("dimIndex %q names %d elements, dim is %d", s, max(n, 0), dim)
		}
		out = make([]string, 0, dim)
		for i := lo; i <= hi; i++ {
			out = append(out, strconv.Itoa(i))
		}
	default:
		for _, idx := range strings.Split(s, ",") {
			out = append(out, strings.TrimSpace(idx))
		}
	}
	if len(out) != dim {
		return nil, fmt.Errorf("dimIndex %q names %d elements, dim is %d", s, len(out), dim)
	}
	return out, nil
}

// parseUint accepts decimal, 0x hex and #-prefixed binary.
func parseUint(s string) (uint64, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "#") {
		return strconv.ParseUint(s[1:], 2, 64)
	}
	if strings.HasPrefix(s, "0X") {
		s = "0x" + s[2:]
	}
	if strings.HasPrefix(s, "0x") {
		return strconv.ParseUint(s[2:], 16, 64)
	}
	return strconv.ParseUint(s, 10, 64)
}
