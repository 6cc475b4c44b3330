package testutil

import (
	"bytes"
	"fmt"
	"go/ast"
	"go/importer"
	"go/parser"
	"go/printer"
	"go/token"
	"go/types"
	"strings"
)

// Source is a generated Go file reduced to what matters for comparison:
// the package name and every top-level declaration printed on one line,
// without comments.
type Source struct {
	Package string
	Decls   []string
}

func ParseSource(data []byte) (Source, error) {
	var s Source
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "generated.go", data, 0)
	if err != nil {
		return s, err
	}
	s.Package = f.Name.Name
	for _, decl := range f.Decls {
		var buf bytes.Buffer
		if err := printer.Fprint(&buf, fset, decl); err != nil {
			return s, err
		}
		s.Decls = append(s.Decls, strings.Join(strings.Fields(buf.String()), " "))
	}
	return s, nil
}

// DeclName is the name a summarised declaration introduces, with methods
// qualified by their receiver type: "Idr.Pin0".
func DeclName(decl string) string {
	fields := strings.Fields(decl)
	if len(fields) < 2 {
		return decl
	}
	switch fields[0] {
	case "type", "const", "var":
		return fields[1]
	case "func":
		if strings.HasPrefix(fields[1], "(") && len(fields) >= 4 {
			recv := strings.TrimPrefix(strings.TrimSuffix(fields[2], ")"), "*")
			return recv + "." + strings.SplitN(fields[3], "(", 2)[0]
		}
		return strings.SplitN(fields[1], "(", 2)[0]
	}
	return decl
}

// Find returns the declaration introducing name.
func (s Source) Find(name string) (string, bool) {
	for _, d := range s.Decls {
		if DeclName(d) == name {
			return d, true
		}
	}
	return "", false
}

// CompareSource compares two summarised files and returns a human-readable
// diff, or "" when they match.
func CompareSource(got, want Source) string {
	if got.Package != want.Package {
		return fmt.Sprintf("package mismatch: got %s want %s", got.Package, want.Package)
	}
	var buf bytes.Buffer
	mismatches := 0
	n := len(got.Decls)
	if len(want.Decls) > n {
		n = len(want.Decls)
	}
	for i := 0; i < n; i++ {
		var g, w string
		if i < len(got.Decls) {
			g = got.Decls[i]
		}
		if i < len(want.Decls) {
			w = want.Decls[i]
		}
		if g == w {
			continue
		}
		mismatches++
		fmt.Fprintf(&buf, "  decl[%d]:\n    got:  %s\n    want: %s\n", i, g, w)
		if mismatches >= 10 {
			fmt.Fprintf(&buf, "  ... (%d+ mismatches, truncated)\n", mismatches)
			break
		}
	}
	if mismatches == 0 {
		return ""
	}
	return fmt.Sprintf("%d declaration mismatches (got %d decls, want %d):\n%s",
		mismatches, len(got.Decls), len(want.Decls), buf.String())
}

// TypeCheck parses and type-checks a self-contained generated file.
func TypeCheck(data []byte) error {
	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, "generated.go", data, parser.ParseComments)
	if err != nil {
		return err
	}
	conf := types.Config{Importer: importer.Default()}
	_, err = conf.Check(f.Name.Name, fset, []*ast.File{f}, nil)
	return err
}
