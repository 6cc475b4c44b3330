package codegen

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnresolvableSize = errors.New("unresolvable register size")
	ErrUnsupportedWidth = errors.New("unsupported bit width")
	ErrAmbiguousAccess  = errors.New("ambiguous access")
	ErrMissingFields    = errors.New("missing fields")
	ErrFieldRange       = errors.New("field outside register")
)

// Error is a fatal generation error. It names the offending peripheral,
// register and field (when known) and wraps one of the sentinel errors.
type Error struct {
	Peripheral string
	Register   string
	Field      string
	Detail     string
	Err        error
}

func (e *Error) Error() string {
	path := []string{e.Peripheral}
	if e.Register != "" {
		path = append(path, e.Register)
	}
	if e.Field != "" {
		path = append(path, e.Field)
	}
	msg := strings.Join(path, ".") + ": " + e.Err.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Warning is a recoverable condition. Generation continues past it.
type Warning struct {
	Peripheral string
	Register   string
	Msg        string
}

func (w Warning) String() string {
	return fmt.Sprintf("%s.%s: %s", w.Peripheral, w.Register, w.Msg)
}
