package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/shlex"
)

// expandArgs replaces every @file argument with the shell-quoted words of
// that file. Response files do not nest.
func expandArgs(args []string) ([]string, error) {
	out := make([]string, 0, len(args))
	for _, arg := range args {
		if len(arg) < 2 || arg[0] != '@' {
			out = append(out, arg)
			continue
		}
		data, err := os.ReadFile(arg[1:])
		if err != nil {
			return nil, fmt.Errorf("response file: %w", err)
		}
		words, err := shlex.Split(string(data))
		if err != nil {
			return nil, fmt.Errorf("response file %s: %w", arg[1:], err)
		}
		out = append(out, words...)
	}
	return out, nil
}

// parseInterspersed sets the flags of fs from args, accepting them before,
// after or between positional arguments, and returns the positional ones.
// Everything after "--" is positional.
func parseInterspersed(fs *flag.FlagSet, args []string) ([]string, error) {
	rest := make([]string, 0, len(args))
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			rest = append(rest, args[i+1:]...)
			break
		}
		if !strings.HasPrefix(arg, "-") || arg == "-" {
			rest = append(rest, arg)
			continue
		}
		name, value, hasValue := strings.Cut(strings.TrimLeft(arg, "-"), "=")
		f := fs.Lookup(name)
		if f == nil {
			return nil, fmt.Errorf("%s: unknown flag -%s", fs.Name(), name)
		}
		if !hasValue {
			if b, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && b.IsBoolFlag() {
				value = "true"
			} else {
				if i+1 >= len(args) {
					return nil, errors.New("missing value for -" + name)
				}
				i++
				value = args[i]
			}
		}
		if err := fs.Set(name, value); err != nil {
			return nil, fmt.Errorf("invalid value %q for -%s: %w", value, name, err)
		}
	}
	return rest, nil
}
