package codegen

import (
	"reflect"
	"testing"

	"github.com/embed-rs/svd-codegen/internal/svd"
)

func TestAccessorRoundTrip(t *testing.T) {
	patterns := []uint64{0, 0xffffffff, 0xa5a5a5a5, 0x12345678}
	for width := uint32(1); width <= 32; width++ {
		for off := uint32(0); off+width <= 32; off++ {
			a := Accessor{Offset: off, Width: width}
			g, s := Getter{a}, Setter{a}
			m := a.Mask()
			for _, raw := range patterns {
				for _, v := range []uint64{0, 1, m, m >> 1, 0x5555555555 & m} {
					out := s.Write(raw, v)
					if got := g.Read(out); got != v {
						t.Fatalf("bits %d+%d: read(write(%#x, %#x)) = %#x", off, width, raw, v, got)
					}
					outside := ^(m << off) & 0xffffffff
					if out&outside != raw&outside {
						t.Fatalf("bits %d+%d: write(%#x, %#x) = %#x touched other bits", off, width, raw, v, out)
					}
				}
			}
		}
	}
}

func TestSetterTruncatesValue(t *testing.T) {
	s := Setter{Accessor{Offset: 4, Width: 2}}
	if got := s.Write(0, 0xff); got != 0x30 {
		t.Fatalf("got %#x, want 0x30", got)
	}
	b := Setter{Accessor{Offset: 3, Width: 1}}
	if got := b.Write(0, 2); got != 0x8 {
		t.Fatalf("any nonzero value sets a bit, got %#x", got)
	}
	if got := b.Write(0xff, 0); got != 0xf7 {
		t.Fatalf("zero clears a bit, got %#x", got)
	}
}

func TestAccessorDocs(t *testing.T) {
	cases := []struct {
		off, width uint32
		desc       string
		want       string
	}{
		{0, 1, "", "Bit 0"},
		{7, 1, "Enable", "Bit 7 - Enable"},
		{4, 4, "", "Bits 4:7"},
		{0, 32, "Capture\n        value", "Bits 0:31 - Capture value"},
	}
	for _, tc := range cases {
		if got := bitsDoc(tc.off, tc.width, tc.desc); got != tc.want {
			t.Errorf("bitsDoc(%d, %d, %q) = %q, want %q", tc.off, tc.width, tc.desc, got, tc.want)
		}
	}
}

func TestAccessorNames(t *testing.T) {
	cases := map[string]string{
		"PIN0": "pin_0",
		"EN":   "en",
		"TYPE": "type_",
		"func": "func_",
		"BITS": "bits_",
		"CR1":  "cr_1",
	}
	for in, want := range cases {
		if got := accessorName(in); got != want {
			t.Errorf("accessorName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestAccessorsFollowFieldAccess(t *testing.T) {
	r := placed{
		Register: svd.Register{
			Name: "CSR",
			Fields: []svd.Field{
				{Name: "RO", BitRange: svd.BitRange{Offset: 0, Width: 1}, Access: svd.ReadOnly},
				{Name: "WO", BitRange: svd.BitRange{Offset: 1, Width: 3}, Access: svd.WriteOnly},
				{Name: "RW", BitRange: svd.BitRange{Offset: 4, Width: 9}, Access: svd.ReadWrite},
				{Name: "ANY", BitRange: svd.BitRange{Offset: 13, Width: 19}},
			},
		},
		size:   32,
		access: svd.ReadWrite,
	}
	rm, err := genReadMethods(r, Width32)
	if err != nil {
		t.Fatal(err)
	}
	wm, warnings, err := genWriteMethods(r, Width32, svd.Defaults{})
	if err != nil || len(warnings) != 0 {
		t.Fatalf("%v %v", err, warnings)
	}
	var getters, setters []string
	var values []Width
	for _, g := range rm.Getters {
		getters = append(getters, g.Name)
		values = append(values, g.Value)
	}
	for _, s := range wm.Setters {
		setters = append(setters, s.Name)
	}
	if want := []string{"ro", "rw", "any"}; !reflect.DeepEqual(getters, want) {
		t.Errorf("getters = %v, want %v", getters, want)
	}
	if want := []string{"set_wo", "set_rw", "set_any"}; !reflect.DeepEqual(setters, want) {
		t.Errorf("setters = %v, want %v", setters, want)
	}
	if want := []Width{WidthNone, Width16, Width32}; !reflect.DeepEqual(values, want) {
		t.Errorf("value widths = %v, want %v", values, want)
	}
	if wm.Setters[0].Value != Width8 {
		t.Errorf("3-bit setter takes %v", wm.Setters[0].Value)
	}
	if wm.Reset != nil {
		t.Errorf("no reset value was declared, got %+v", wm.Reset)
	}
	if rm.Type != "Csr" || wm.Type != "Csr" {
		t.Errorf("types = %s, %s", rm.Type, wm.Type)
	}
}
