package codegen

import (
	"fmt"

	"golang.org/x/exp/constraints"
)

// Width is the smallest unsigned integer representation that holds a
// register or field.
type Width uint8

const (
	WidthNone Width = 0
	Width8    Width = 8
	Width16   Width = 16
	Width32   Width = 32
)

// ResolveWidth maps a bit count in 1..32 to its enclosing Width.
func ResolveWidth(bits uint32) (Width, error) {
	switch {
	case bits >= 1 && bits <= 8:
		return Width8, nil
	case bits >= 9 && bits <= 16:
		return Width16, nil
	case bits >= 17 && bits <= 32:
		return Width32, nil
	default:
		return WidthNone, fmt.Errorf("%w: %d bits", ErrUnsupportedWidth, bits)
	}
}

func (w Width) Bits() uint32 { return uint32(w) }

func (w Width) String() string {
	if w == WidthNone {
		return "bool"
	}
	return fmt.Sprintf("u%d", uint8(w))
}

// Max is the largest value representable in w.
func (w Width) Max() uint64 { return mask[uint64](uint32(w)) }

// mask returns width low bits set.
func mask[T constraints.Unsigned](width uint32) T {
	if width >= 64 {
		return ^T(0)
	}
	return T(1)<<width - 1
}
