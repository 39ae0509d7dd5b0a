package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/ngernest/flat-bril/flat"
	"github.com/ngernest/flat-bril/manifest"
)

// runRun loads an image and interprets one of its functions.
func runRun(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Verbose output")
	useMmap := fs.Bool("mmap", false, "Memory-map the image instead of reading it")
	entry := fs.String("entry", "", "Entry function (default from manifest, else 'main')")
	if err := fs.Parse(args); err != nil {
		return err
	}
	configureLogging(*verbose)

	path := fs.Arg(0)
	rawArgs := fs.Args()
	if len(rawArgs) > 0 {
		rawArgs = rawArgs[1:]
	}
	entryName := *entry

	if path == "" || entryName == "" {
		m, err := manifest.FindAndLoad(".")
		if err != nil {
			return err
		}
		if m != nil {
			if path == "" {
				path = m.OutputPath()
			}
			if entryName == "" {
				entryName = m.Run.Entry
			}
			if len(rawArgs) == 0 {
				rawArgs = m.Run.Args
			}
		}
	}
	if path == "" {
		return fmt.Errorf("run: no image path given and no %s found", manifestHint)
	}
	if entryName == "" {
		entryName = "main"
	}

	var img *flat.Image
	if *useMmap {
		mi, err := flat.MapImage(path)
		if err != nil {
			return err
		}
		defer mi.Close()
		img = mi.Image
		log.Infof("mapped %s (%d functions)", path, img.NumFunctions())
	} else {
		var err error
		if img, err = flat.LoadImage(path); err != nil {
			return err
		}
		log.Infof("loaded %s (%d functions)", path, img.NumFunctions())
	}

	view, ok := img.Lookup(entryName)
	if !ok {
		return fmt.Errorf("run: no function named %q in %s", entryName, path)
	}
	vals, err := bindEntryArgs(view, rawArgs)
	if err != nil {
		return err
	}

	interp := flat.NewInterp(img, os.Stdout)
	result, err := interp.Run(entryName, vals)
	if err != nil {
		return err
	}
	if result.Kind != flat.ValueNull && *verbose {
		fmt.Printf("%s returned %s\n", entryName, result.Text())
	}
	return nil
}

// bindEntryArgs validates command-line arguments against the entry
// function's declared parameter list, failing fast on arity or type
// mismatch, before interpretation starts.
func bindEntryArgs(v *flat.View, raw []string) ([]flat.Value, error) {
	if len(raw) != v.NumParams() {
		return nil, fmt.Errorf("%s declares %d parameters, got %d arguments",
			v.Name(), v.NumParams(), len(raw))
	}
	vals := make([]flat.Value, len(raw))
	for i, arg := range raw {
		name, t, err := v.Param(i)
		if err != nil {
			return nil, err
		}
		switch t {
		case flat.TypeInt:
			n, err := strconv.ParseInt(arg, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("parameter %s wants an int, got %q", name, arg)
			}
			vals[i] = flat.IntValue(n)
		case flat.TypeBool:
			b, err := strconv.ParseBool(arg)
			if err != nil {
				return nil, fmt.Errorf("parameter %s wants a bool, got %q", name, arg)
			}
			vals[i] = flat.BoolValue(b)
		default:
			return nil, fmt.Errorf("parameter %s has no usable type", name)
		}
	}
	return vals, nil
}
