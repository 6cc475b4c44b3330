package codegen

import (
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/embed-rs/svd-codegen/internal/svd"
)

func u32(v uint32) *uint32 { return &v }
func u64(v uint64) *uint64 { return &v }

func gpioa() svd.Peripheral {
	return svd.Peripheral{
		Name:        "gpioa",
		BaseAddress: 0x40020000,
		Registers: []svd.Register{
			{Name: "MODER", AddressOffset: 0x00, Size: u32(32), Access: svd.ReadWrite},
			{
				Name: "IDR", AddressOffset: 0x10, Size: u32(32), Access: svd.ReadOnly,
				Fields: []svd.Field{
					{Name: "pin0", BitRange: svd.BitRange{Offset: 0, Width: 1}, Access: svd.ReadOnly},
				},
			},
		},
	}
}

func structOf(t *testing.T, u *Unit) PeripheralStruct {
	t.Helper()
	if len(u.Fragments) == 0 {
		t.Fatal("no fragments")
	}
	s, ok := u.Fragments[0].(PeripheralStruct)
	if !ok {
		t.Fatalf("first fragment is %T, want PeripheralStruct", u.Fragments[0])
	}
	return s
}

func TestGenerateGPIOA(t *testing.T) {
	u, err := Generate(gpioa(), svd.Defaults{})
	if err != nil {
		t.Fatal(err)
	}
	if len(u.Warnings) != 0 {
		t.Fatalf("warnings: %v", u.Warnings)
	}
	s := structOf(t, u)
	want := []StructField{
		{Name: "moder", Type: "Moder", Offset: 0, Size: 4, Access: svd.ReadWrite, Comment: "0x00"},
		{Name: "_reserved0", Offset: 4, Size: 12},
		{Name: "idr", Type: "Idr", Offset: 0x10, Size: 4, Access: svd.ReadOnly, Comment: "0x10"},
	}
	if !reflect.DeepEqual(s.Fields, want) {
		t.Fatalf("fields = %+v\nwant %+v", s.Fields, want)
	}
	if s.Name != "Gpioa" || s.BaseAddress != 0x40020000 {
		t.Fatalf("struct = %+v", s)
	}

	// struct, then type/read/write per register
	if len(u.Fragments) != 1+3*2 {
		t.Fatalf("got %d fragments", len(u.Fragments))
	}
	idrRead := u.Fragments[5].(ReadMethods)
	if len(idrRead.Getters) != 1 {
		t.Fatalf("IDR getters = %+v", idrRead.Getters)
	}
	g := idrRead.Getters[0]
	if !g.IsBit() || g.Offset != 0 || g.Name != "pin_0" || g.Doc != "Bit 0" {
		t.Fatalf("pin0 getter = %+v", g)
	}
	idrWrite := u.Fragments[6].(WriteMethods)
	if len(idrWrite.Setters) != 0 || idrWrite.Reset != nil {
		t.Fatalf("IDR should have no write accessors: %+v", idrWrite)
	}
}

func TestGeneratePadding(t *testing.T) {
	cases := []struct {
		name    string
		offsets []uint64
		pads    []uint64
	}{
		{"contiguous", []uint64{0, 4, 8}, nil},
		{"one gap", []uint64{0, 8}, []uint64{4}},
		{"leading gap", []uint64{0x20}, []uint64{0x20}},
		{"two gaps", []uint64{0, 6, 0x40}, []uint64{2, 0x36}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := svd.Peripheral{Name: "p"}
			for i, off := range tc.offsets {
				p.Registers = append(p.Registers, svd.Register{
					Name: string(rune('A' + i)), AddressOffset: off, Access: svd.ReadWrite,
				})
			}
			u, err := Generate(p, svd.Defaults{Size: u32(32)})
			if err != nil {
				t.Fatal(err)
			}
			var pads []uint64
			var names []string
			for _, f := range structOf(t, u).Fields {
				if f.IsPadding() {
					pads = append(pads, f.Size)
					names = append(names, f.Name)
				}
			}
			if !reflect.DeepEqual(pads, tc.pads) {
				t.Fatalf("pads = %v, want %v", pads, tc.pads)
			}
			for i, n := range names {
				if want := "_reserved" + string(rune('0'+i)); n != want {
					t.Errorf("padding %d named %q, want %q", i, n, want)
				}
			}
		})
	}
}

func TestGenerateOverlap(t *testing.T) {
	p := svd.Peripheral{
		Name: "p",
		Registers: []svd.Register{
			{Name: "A", AddressOffset: 0, Size: u32(32), Access: svd.ReadWrite},
			{Name: "B", AddressOffset: 2, Size: u32(32), Access: svd.ReadWrite},
			{Name: "C", AddressOffset: 8, Size: u32(32), Access: svd.ReadWrite},
		},
	}
	u, err := Generate(p, svd.Defaults{})
	if err != nil {
		t.Fatal(err)
	}
	if len(u.Warnings) != 1 || u.Warnings[0].Register != "B" {
		t.Fatalf("warnings = %v", u.Warnings)
	}
	if msg := u.Warnings[0].String(); !strings.Contains(msg, "p.B") || !strings.Contains(msg, "0x2") {
		t.Errorf("warning %q should name the register and its offset", msg)
	}
	var names []string
	var pads []uint64
	for _, f := range structOf(t, u).Fields {
		names = append(names, f.Name)
		if f.IsPadding() {
			pads = append(pads, f.Size)
		}
	}
	if want := []string{"a", "_reserved0", "c"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("fields = %v, want %v", names, want)
	}
	// C continues from A's end, not B's.
	if !reflect.DeepEqual(pads, []uint64{4}) {
		t.Fatalf("pads = %v, want [4]", pads)
	}
	for _, f := range u.Fragments[1:] {
		if rt, ok := f.(RegisterType); ok && rt.Register == "B" {
			t.Fatal("skipped register B still got a type")
		}
	}
}

func TestGenerateDerived(t *testing.T) {
	p := gpioa()
	p.Name = "GPIOB"
	p.DerivedFrom = "GPIOA"
	// registers that would fail are never looked at
	p.Registers = append(p.Registers, svd.Register{Name: "BAD", AddressOffset: 0x40})
	u, err := Generate(p, svd.Defaults{})
	if err != nil {
		t.Fatal(err)
	}
	want := []Fragment{TypeAlias{
		Name:        "Gpiob",
		Peripheral:  "GPIOB",
		Namespace:   "gpioa",
		Target:      "Gpioa",
		BaseAddress: 0x40020000,
	}}
	if !reflect.DeepEqual(u.Fragments, want) {
		t.Fatalf("fragments = %+v", u.Fragments)
	}
}

func TestGenerateFatal(t *testing.T) {
	cases := []struct {
		name     string
		reg      svd.Register
		want     error
		register string
		field    string
	}{
		{
			name:     "no size",
			reg:      svd.Register{Name: "R", Access: svd.ReadWrite},
			want:     ErrUnresolvableSize,
			register: "R",
		},
		{
			name:     "64-bit register",
			reg:      svd.Register{Name: "R", Size: u32(64), Access: svd.ReadWrite},
			want:     ErrUnsupportedWidth,
			register: "R",
		},
		{
			name:     "no access and no fields",
			reg:      svd.Register{Name: "R", Size: u32(32)},
			want:     ErrMissingFields,
			register: "R",
		},
		{
			name: "ambiguous access",
			reg: svd.Register{Name: "R", Size: u32(32), Fields: []svd.Field{
				{Name: "A", BitRange: svd.BitRange{Offset: 0, Width: 1}, Access: svd.ReadOnly},
				{Name: "B", BitRange: svd.BitRange{Offset: 1, Width: 1}, Access: svd.WriteOnly},
			}},
			want:     ErrAmbiguousAccess,
			register: "R",
		},
		{
			name: "zero-width field",
			reg: svd.Register{Name: "R", Size: u32(32), Access: svd.ReadWrite, Fields: []svd.Field{
				{Name: "F", BitRange: svd.BitRange{Offset: 0, Width: 0}},
			}},
			want:     ErrUnsupportedWidth,
			register: "R",
			field:    "F",
		},
		{
			name: "field past register",
			reg: svd.Register{Name: "R", Size: u32(16), Access: svd.ReadWrite, Fields: []svd.Field{
				{Name: "F", BitRange: svd.BitRange{Offset: 12, Width: 8}},
			}},
			want:     ErrFieldRange,
			register: "R",
			field:    "F",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := svd.Peripheral{Name: "p", Registers: []svd.Register{tc.reg}}
			u, err := Generate(p, svd.Defaults{})
			if u != nil {
				t.Fatalf("fatal error still produced a unit: %+v", u)
			}
			if !errors.Is(err, tc.want) {
				t.Fatalf("err = %v, want %v", err, tc.want)
			}
			var e *Error
			if !errors.As(err, &e) {
				t.Fatalf("err %T is not *Error", err)
			}
			if e.Peripheral != "p" || e.Register != tc.register || e.Field != tc.field {
				t.Fatalf("error names %s.%s.%s", e.Peripheral, e.Register, e.Field)
			}
		})
	}
}

// An overlapping register is skipped before its size is looked at, so a
// missing size there is not fatal.
func TestGenerateOverlapBeforeSize(t *testing.T) {
	p := svd.Peripheral{
		Name: "p",
		Registers: []svd.Register{
			{Name: "A", AddressOffset: 0, Size: u32(32), Access: svd.ReadWrite},
			{Name: "B", AddressOffset: 1},
		},
	}
	u, err := Generate(p, svd.Defaults{})
	if err != nil {
		t.Fatal(err)
	}
	if len(u.Warnings) != 1 {
		t.Fatalf("warnings = %v", u.Warnings)
	}
}

func TestGenerateDefaults(t *testing.T) {
	p := svd.Peripheral{
		Name:        "uart",
		Description: "Universal\n\t  asynchronous   receiver",
		Registers: []svd.Register{
			{Name: "DR", AddressOffset: 0, Description: "data\n   register", Access: svd.ReadWrite},
			{Name: "BRR", AddressOffset: 2, Size: u32(16), ResetValue: u64(0x1234), Access: svd.ReadWrite},
		},
	}
	d := svd.Defaults{Size: u32(16), ResetValue: u64(0xff)}
	u, err := Generate(p, d)
	if err != nil {
		t.Fatal(err)
	}
	s := structOf(t, u)
	if s.Doc != "Universal asynchronous receiver" {
		t.Errorf("doc = %q", s.Doc)
	}
	if s.Fields[0].Comment != "0x00 - data register" {
		t.Errorf("comment = %q", s.Fields[0].Comment)
	}
	if len(s.Fields) != 2 {
		t.Errorf("16-bit registers at 0 and 2 need no padding: %+v", s.Fields)
	}
	dr := u.Fragments[1].(RegisterType)
	if dr.Raw != Width16 || dr.Size != 16 || dr.Doc != "data register" {
		t.Errorf("DR type = %+v", dr)
	}
	if w := u.Fragments[3].(WriteMethods); w.Reset == nil || w.Reset.Value != 0xff {
		t.Errorf("DR reset should come from the defaults: %+v", w.Reset)
	}
	if w := u.Fragments[6].(WriteMethods); w.Reset == nil || w.Reset.Value != 0x1234 {
		t.Errorf("BRR reset = %+v", w.Reset)
	}
}

func TestGenerateOddSize(t *testing.T) {
	p := svd.Peripheral{
		Name: "p",
		Registers: []svd.Register{
			{Name: "A", AddressOffset: 0, Size: u32(12), Access: svd.ReadWrite},
			{Name: "B", AddressOffset: 4, Size: u32(8), Access: svd.ReadWrite},
		},
	}
	u, err := Generate(p, svd.Defaults{})
	if err != nil {
		t.Fatal(err)
	}
	s := structOf(t, u)
	// 12 bits occupy two bytes, leaving a two byte gap before B
	if s.Fields[0].Size != 2 || !s.Fields[1].IsPadding() || s.Fields[1].Size != 2 || s.Fields[1].Offset != 2 {
		t.Fatalf("fields = %+v", s.Fields)
	}
}

func TestGenerateResetTruncated(t *testing.T) {
	p := svd.Peripheral{
		Name: "p",
		Registers: []svd.Register{
			{Name: "A", AddressOffset: 0, Size: u32(8), ResetValue: u64(0x1ff), Access: svd.ReadWrite},
		},
	}
	u, err := Generate(p, svd.Defaults{})
	if err != nil {
		t.Fatal(err)
	}
	if len(u.Warnings) != 1 || u.Warnings[0].Peripheral != "p" {
		t.Fatalf("warnings = %v", u.Warnings)
	}
	if w := u.Fragments[3].(WriteMethods); w.Reset.Value != 0xff {
		t.Fatalf("reset = %#x", w.Reset.Value)
	}
}

func TestGenerateDefaultAccess(t *testing.T) {
	p := svd.Peripheral{
		Name: "P",
		Registers: []svd.Register{
			{Name: "CR"},
			{Name: "DR", AddressOffset: 4, Access: svd.WriteOnly},
			{Name: "SR", AddressOffset: 8, Fields: fieldsWith(svd.ReadOnly)},
		},
	}
	u, err := Generate(p, svd.Defaults{Size: u32(32), Access: svd.ReadWrite})
	if err != nil {
		t.Fatal(err)
	}
	var got []svd.Access
	for _, f := range structOf(t, u).Fields {
		got = append(got, f.Access)
	}
	// the register's own mode wins, and the default comes before the fields
	if want := []svd.Access{svd.ReadWrite, svd.WriteOnly, svd.ReadWrite}; !reflect.DeepEqual(got, want) {
		t.Fatalf("access = %v, want %v", got, want)
	}

	_, err = Generate(p, svd.Defaults{Size: u32(32)})
	if !errors.Is(err, ErrMissingFields) {
		t.Fatalf("without a default, err = %v, want ErrMissingFields", err)
	}
}
