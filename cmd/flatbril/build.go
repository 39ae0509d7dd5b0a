package main

import (
	"flag"
	"fmt"

	"github.com/ngernest/flat-bril/bril"
	"github.com/ngernest/flat-bril/flat"
	"github.com/ngernest/flat-bril/manifest"
)

const manifestHint = manifest.ManifestName

// runBuild flattens a Bril JSON program and writes a binary image.
func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	verbose := fs.Bool("v", false, "Verbose output")
	output := fs.String("o", "", "Output image path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	configureLogging(*verbose)

	input := fs.Arg(0)
	out := *output

	// Manifest-driven defaults for whatever the flags leave open.
	if input == "" || out == "" {
		m, err := manifest.FindAndLoad(".")
		if err != nil {
			return err
		}
		if m != nil {
			if input == "" {
				input = m.SourcePath()
			}
			if out == "" {
				out = m.OutputPath()
			}
		}
	}
	if out == "" {
		out = "out.fbril"
	}

	data, err := readInput(input)
	if err != nil {
		return err
	}
	prog, err := bril.ParseProgram(data)
	if err != nil {
		return err
	}

	stores, err := flattenAll(prog)
	if err != nil {
		return err
	}
	if err := flat.SaveImage(out, stores); err != nil {
		return err
	}
	log.Infof("wrote %s (%d functions)", out, len(stores))

	if *verbose {
		img, err := flat.LoadImage(out)
		if err != nil {
			return err
		}
		cs := flat.NewContentStore()
		cs.IndexImage(img)
		for _, fd := range cs.All() {
			fmt.Printf("%s  %s (%d bytes)\n", fd.Hash, fd.Name, fd.Size)
		}
	}
	return nil
}

// flattenAll flattens every function of a program, in order.
func flattenAll(prog *bril.Program) ([]*flat.Store, error) {
	stores := make([]*flat.Store, 0, len(prog.Functions))
	for i := range prog.Functions {
		s, err := flat.Flatten(&prog.Functions[i])
		if err != nil {
			return nil, err
		}
		stores = append(stores, s)
	}
	return stores, nil
}
