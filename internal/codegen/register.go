package codegen

import (
	"fmt"

	"github.com/embed-rs/svd-codegen/internal/svd"
)

// registerSize is the register's bit width, falling back to the defaults.
func registerSize(r svd.Register, d svd.Defaults) (uint32, error) {
	switch {
	case r.Size != nil:
		return *r.Size, nil
	case d.Size != nil:
		return *d.Size, nil
	}
	return 0, &Error{
		Register: r.Name,
		Err:      ErrUnresolvableSize,
		Detail:   "neither the register nor the defaults declare a size",
	}
}

func resetValue(r svd.Register, d svd.Defaults) (uint64, bool) {
	switch {
	case r.ResetValue != nil:
		return *r.ResetValue, true
	case d.ResetValue != nil:
		return *d.ResetValue, true
	}
	return 0, false
}

// genRegister describes the wrapper type holding a register's raw bits.
func genRegister(r placed) (RegisterType, error) {
	raw, err := ResolveWidth(r.size)
	if err != nil {
		return RegisterType{}, &Error{
			Register: r.Name,
			Err:      ErrUnsupportedWidth,
			Detail:   fmt.Sprintf("register is %d bits", r.size),
		}
	}
	return RegisterType{
		Name:     TypeName(r.Name),
		Register: r.Name,
		Doc:      respace(r.Description),
		Size:     r.size,
		Raw:      raw,
		Access:   r.access,
	}, nil
}
