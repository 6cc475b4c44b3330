package codegen

import (
	"fmt"
	"strings"

	"github.com/embed-rs/svd-codegen/internal/svd"
)

// ResolveAccess returns the register's access mode, inferring it from the
// fields when the register does not declare one. A field without its own
// mode is readable, so it counts as read-only here.
func ResolveAccess(r svd.Register) (svd.Access, error) {
	if r.Access != svd.AccessUnspecified {
		return r.Access, nil
	}
	if len(r.Fields) == 0 {
		return svd.AccessUnspecified, &Error{
			Register: r.Name,
			Err:      ErrMissingFields,
			Detail:   "no access mode and no fields to infer one from",
		}
	}
	modes := make([]svd.Access, len(r.Fields))
	for i, f := range r.Fields {
		modes[i] = f.Access
		if modes[i] == svd.AccessUnspecified {
			modes[i] = svd.ReadOnly
		}
	}
	switch {
	case allAre(modes, svd.ReadOnly):
		return svd.ReadOnly, nil
	case allAre(modes, svd.WriteOnly):
		return svd.WriteOnly, nil
	case anyIs(modes, svd.ReadWrite):
		return svd.ReadWrite, nil
	}
	seen := make([]string, len(r.Fields))
	for i, f := range r.Fields {
		seen[i] = fmt.Sprintf("%s=%s", f.Name, f.Access)
	}
	return svd.AccessUnspecified, &Error{
		Register: r.Name,
		Err:      ErrAmbiguousAccess,
		Detail:   strings.Join(seen, ", "),
	}
}

// registerAccess is the register's own mode, else the default mode, else
// the mode inferred from its fields.
func registerAccess(r svd.Register, d svd.Defaults) (svd.Access, error) {
	if r.Access == svd.AccessUnspecified && d.Access != svd.AccessUnspecified {
		return d.Access, nil
	}
	return ResolveAccess(r)
}

func allAre(modes []svd.Access, want svd.Access) bool {
	for _, m := range modes {
		if m != want {
			return false
		}
	}
	return true
}

func anyIs(modes []svd.Access, want svd.Access) bool {
	for _, m := range modes {
		if m == want {
			return true
		}
	}
	return false
}
