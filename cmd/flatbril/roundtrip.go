package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/ngernest/flat-bril/bril"
	"github.com/ngernest/flat-bril/flat"
)

// runRoundtrip flattens and unflattens a Bril JSON program and prints the
// reconstructed JSON. Conformance checking drives this: the output should
// be structurally equal to the input.
func runRoundtrip(args []string) error {
	fs := flag.NewFlagSet("roundtrip", flag.ExitOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	data, err := readInput(fs.Arg(0))
	if err != nil {
		return err
	}
	prog, err := bril.ParseProgram(data)
	if err != nil {
		return err
	}

	out := &bril.Program{Functions: make([]bril.Function, 0, len(prog.Functions))}
	for i := range prog.Functions {
		store, err := flat.Flatten(&prog.Functions[i])
		if err != nil {
			return err
		}
		fn, err := flat.UnflattenStore(store)
		if err != nil {
			return err
		}
		out.Functions = append(out.Functions, *fn)
	}

	rendered, err := bril.EncodeProgram(out)
	if err != nil {
		return err
	}
	fmt.Println(string(rendered))
	return nil
}

// runExport converts a Bril JSON program to canonical CBOR.
func runExport(args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	output := fs.String("o", "", "Output CBOR path (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	data, err := readInput(fs.Arg(0))
	if err != nil {
		return err
	}
	prog, err := bril.ParseProgram(data)
	if err != nil {
		return err
	}
	wire, err := bril.MarshalProgramCBOR(prog)
	if err != nil {
		return err
	}
	return writeOutput(*output, wire)
}

// runImport converts a CBOR program back to JSON.
func runImport(args []string) error {
	fs := flag.NewFlagSet("import", flag.ExitOnError)
	output := fs.String("o", "", "Output JSON path (default stdout)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	data, err := readInput(fs.Arg(0))
	if err != nil {
		return err
	}
	prog, err := bril.UnmarshalProgramCBOR(data)
	if err != nil {
		return err
	}
	rendered, err := bril.EncodeProgram(prog)
	if err != nil {
		return err
	}
	return writeOutput(*output, append(rendered, '\n'))
}

// writeOutput writes to a file, or stdout when no path is given.
func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
