package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/bradleyjkemp/memviz"

	svdcodegen "github.com/embed-rs/svd-codegen"
	"github.com/embed-rs/svd-codegen/internal/codegen"
	"github.com/embed-rs/svd-codegen/internal/gosrc"
	"github.com/embed-rs/svd-codegen/internal/listing"
	"github.com/embed-rs/svd-codegen/internal/svd"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	args, err := expandArgs(args)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	if len(args) < 1 {
		usage(stderr)
		return 2
	}

	switch args[0] {
	case "build":
		err = cmdBuild(args[1:], stdout, stderr)
	case "layout":
		err = cmdLayout(args[1:], stdout, stderr)
	case "peripherals":
		err = cmdPeripherals(args[1:], stdout)
	case "version":
		fmt.Fprintln(stdout, svdcodegen.Version())
	case "help", "-h", "--help":
		usage(stdout)
	default:
		fmt.Fprintln(stderr, "unknown command:", args[0])
		usage(stderr)
		return 2
	}
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
	return 0
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "svdcodegen - register access code from CMSIS-SVD")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  svdcodegen build <file.svd> [pattern] [-o file.go] [-p package] [-i import-root]")
	fmt.Fprintln(w, "  svdcodegen layout <file.svd> [pattern]")
	fmt.Fprintln(w, "  svdcodegen peripherals <file.svd> [-go] [-p package]")
	fmt.Fprintln(w, "  svdcodegen version")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "build and layout also take -default-size, -default-access, -default-reset")
	fmt.Fprintln(w, "and -dump file.dot. Any argument @file is replaced by the words in file.")
}

type options struct {
	out        string
	pkg        string
	importRoot string
	dump       string
	goConsts   bool

	defaultSize   uint
	defaultAccess string
	defaultReset  string
}

func defaultFlags(fs *flag.FlagSet, o *options) {
	fs.UintVar(&o.defaultSize, "default-size", 0, "register size in bits when the document declares none")
	fs.StringVar(&o.defaultAccess, "default-access", "", "register access when the document declares none")
	fs.StringVar(&o.defaultReset, "default-reset", "", "register reset value when the document declares none")
	fs.StringVar(&o.dump, "dump", "", "write a graphviz dump of the generated model")
}

func cmdBuild(args []string, stdout, stderr io.Writer) error {
	var o options
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.StringVar(&o.out, "o", "", "output Go file (default stdout)")
	fs.StringVar(&o.pkg, "p", "", "package name")
	fs.StringVar(&o.importRoot, "i", "", "import path of the per-peripheral packages derived peripherals alias")
	defaultFlags(fs, &o)
	rest, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	path, pattern, err := inputArgs("build", rest)
	if err != nil {
		return err
	}
	d, err := load(path, o)
	if err != nil {
		return err
	}
	sel := d.Select(pattern)
	if len(sel) == 0 {
		return fmt.Errorf("no peripheral matches %q", pattern)
	}
	pkg := o.pkg
	if pkg == "" && len(sel) == 1 {
		pkg = codegen.FieldName(sel[0].Name)
	}
	if o.importRoot == "" {
		if sel, err = withBases(d, sel); err != nil {
			return err
		}
	}

	units, err := generate(d, sel, stderr)
	if err != nil {
		return err
	}
	if err := dump(o.dump, units); err != nil {
		return err
	}
	src, err := gosrc.Render(gosrc.Config{
		Package:    pkg,
		Header:     []string{fmt.Sprintf("Code generated by svdcodegen %s from %s. DO NOT EDIT.", svdcodegen.Version(), filepath.Base(path))},
		ImportRoot: o.importRoot,
	}, units...)
	if err != nil {
		return err
	}
	if o.out == "" {
		_, err = stdout.Write(src)
		return err
	}
	return os.WriteFile(o.out, src, 0644)
}

func cmdLayout(args []string, stdout, stderr io.Writer) error {
	var o options
	fs := flag.NewFlagSet("layout", flag.ContinueOnError)
	defaultFlags(fs, &o)
	rest, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	path, pattern, err := inputArgs("layout", rest)
	if err != nil {
		return err
	}
	d, err := load(path, o)
	if err != nil {
		return err
	}
	sel := d.Select(pattern)
	if len(sel) == 0 {
		return fmt.Errorf("no peripheral matches %q", pattern)
	}
	units, err := generate(d, sel, stderr)
	if err != nil {
		return err
	}
	if err := dump(o.dump, units); err != nil {
		return err
	}
	return listing.Layout(stdout, units...)
}

func cmdPeripherals(args []string, stdout io.Writer) error {
	var o options
	fs := flag.NewFlagSet("peripherals", flag.ContinueOnError)
	fs.BoolVar(&o.goConsts, "go", false, "print the base addresses as Go constants")
	fs.StringVar(&o.pkg, "p", "registers", "package name for -go")
	rest, err := parseInterspersed(fs, args)
	if err != nil {
		return err
	}
	if len(rest) != 1 {
		return errors.New("peripherals requires a single .svd input")
	}
	d, err := load(rest[0], o)
	if err != nil {
		return err
	}
	if !o.goConsts {
		return listing.Peripherals(stdout, d)
	}
	src, err := gosrc.BaseAddresses(o.pkg, d)
	if err != nil {
		return err
	}
	_, err = stdout.Write(src)
	return err
}

func inputArgs(cmd string, rest []string) (path, pattern string, err error) {
	switch len(rest) {
	case 1:
		return rest[0], "", nil
	case 2:
		return rest[0], rest[1], nil
	}
	return "", "", fmt.Errorf("%s requires a .svd input and an optional peripheral pattern", cmd)
}

func load(path string, o options) (svd.Device, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return svd.Device{}, err
	}
	d, err := svd.Parse(data)
	if err != nil {
		return d, fmt.Errorf("%s: %w", path, err)
	}
	if err := applyDefaults(&d, o); err != nil {
		return d, err
	}
	return d, nil
}

// applyDefaults fills the device defaults the document leaves unset from the
// command line.
func applyDefaults(d *svd.Device, o options) error {
	if d.Defaults.Size == nil && o.defaultSize != 0 {
		size := uint32(o.defaultSize)
		d.Defaults.Size = &size
	}
	if d.Defaults.ResetValue == nil && o.defaultReset != "" {
		v, err := strconv.ParseUint(o.defaultReset, 0, 64)
		if err != nil {
			return fmt.Errorf("-default-reset: %w", err)
		}
		d.Defaults.ResetValue = &v
	}
	if d.Defaults.Access == svd.AccessUnspecified && o.defaultAccess != "" {
		a, err := svd.ParseAccess(o.defaultAccess)
		if err != nil {
			return fmt.Errorf("-default-access: %w", err)
		}
		d.Defaults.Access = a
	}
	return nil
}

// withBases adds, ahead of each derived peripheral, the peripheral it is
// derived from when the selection does not already contain it.
func withBases(d svd.Device, sel []svd.Peripheral) ([]svd.Peripheral, error) {
	seen := make(map[string]bool, len(sel))
	for _, p := range sel {
		seen[p.Name] = true
	}
	out := make([]svd.Peripheral, 0, len(sel))
	for _, p := range sel {
		if p.DerivedFrom != "" && !seen[p.DerivedFrom] {
			base, ok := d.Lookup(p.DerivedFrom)
			if !ok {
				return nil, fmt.Errorf("%s is derived from unknown peripheral %s", p.Name, p.DerivedFrom)
			}
			seen[base.Name] = true
			out = append(out, base)
		}
		out = append(out, p)
	}
	return out, nil
}

// generate runs every selected peripheral through the generator. Warnings
// go to stderr as they come; fatal errors are reported per peripheral and
// no output is produced if any occurred.
func generate(d svd.Device, sel []svd.Peripheral, stderr io.Writer) ([]*codegen.Unit, error) {
	var units []*codegen.Unit
	failed := 0
	for _, p := range sel {
		u, err := codegen.Generate(p, d.Defaults)
		if err != nil {
			fmt.Fprintln(stderr, "error:", err)
			failed++
			continue
		}
		for _, w := range u.Warnings {
			fmt.Fprintln(stderr, "warning:", w)
		}
		units = append(units, u)
	}
	if failed > 0 {
		return nil, fmt.Errorf("%d of %d peripherals failed", failed, len(sel))
	}
	return units, nil
}

func dump(path string, units []*codegen.Unit) error {
	if path == "" {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	memviz.Map(f, &units)
	return f.Close()
}
