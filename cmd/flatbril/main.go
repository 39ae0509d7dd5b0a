// flatbril CLI - flatten Bril programs into binary images and run them
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/tliron/commonlog"

	_ "github.com/tliron/commonlog/simple"
)

var log = commonlog.GetLogger("flatbril")

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: flatbril <command> [options] [args...]\n\n")
	fmt.Fprintf(os.Stderr, "Commands:\n")
	fmt.Fprintf(os.Stderr, "  build      flatten a Bril JSON program and write a binary image\n")
	fmt.Fprintf(os.Stderr, "  run        load an image and interpret a function\n")
	fmt.Fprintf(os.Stderr, "  roundtrip  flatten and unflatten a program, emitting JSON\n")
	fmt.Fprintf(os.Stderr, "  export     convert a Bril JSON program to canonical CBOR\n")
	fmt.Fprintf(os.Stderr, "  import     convert a CBOR program back to JSON\n")
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  flatbril build prog.json -o prog.fbril\n")
	fmt.Fprintf(os.Stderr, "  flatbril run prog.fbril 42          # entry args after the image\n")
	fmt.Fprintf(os.Stderr, "  flatbril run -mmap prog.fbril true\n")
	fmt.Fprintf(os.Stderr, "  flatbril roundtrip < prog.json\n")
	fmt.Fprintf(os.Stderr, "\nWith a %s in the working directory, build and run take their\n", manifestHint)
	fmt.Fprintf(os.Stderr, "input, output, entry, and default arguments from it.\n")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "build":
		err = runBuild(args)
	case "run":
		err = runRun(args)
	case "roundtrip":
		err = runRoundtrip(args)
	case "export":
		err = runExport(args)
	case "import":
		err = runImport(args)
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "flatbril: unknown command %q\n\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// configureLogging raises log verbosity for -v runs.
func configureLogging(verbose bool) {
	if verbose {
		commonlog.Configure(1, nil)
	} else {
		commonlog.Configure(0, nil)
	}
}

// readInput reads a source file, falling back to stdin when no path is given.
func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}
