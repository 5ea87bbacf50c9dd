// Command sicdump shows every stage of compiling one source file: tokens,
// parse tree, symbols, pending patch actions and the final listing.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"

	"sicc/pkg/ast"
	"sicc/pkg/diag"
	"sicc/pkg/session"
	"sicc/pkg/utils"
)

func main() {
	os.Exit(run(os.Args[1:], afero.NewOsFs(), os.Stdout, os.Stderr))
}

func run(args []string, fs afero.Fs, stdout, stderr io.Writer) int {
	fl := flag.NewFlagSet("sicdump", flag.ContinueOnError)
	fl.SetOutput(stderr)
	logLevel := fl.String("log-level", "ERROR", "logging level: DEBUG, INFO, WARN, ERROR or FATAL")
	if err := fl.Parse(args); err != nil {
		return 2
	}
	if fl.NArg() != 1 {
		fmt.Fprintln(stderr, "usage: sicdump [--log-level LEVEL] <file>")
		return 2
	}
	logger, _, err := utils.SetupLogger(*logLevel, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	f, err := utils.ReadSource(fs, fl.Arg(0))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if full, _, err := utils.GetPathInfo(f.Name); err == nil {
		fmt.Fprintf(stdout, "Source (%s):\n%s\n", full, f.Text)
	}

	s := session.New(session.WithLogger(logger))
	defer s.Close()
	img, cerr := s.Compile(utils.FrontEndFor(f.Name), f)

	// Every stage that completed is shown, even when a later one failed.
	tokens := s.Tokens()
	fmt.Fprintf(stdout, "Tokens (%d)\n", len(tokens))
	for _, tok := range tokens {
		fmt.Fprintln(stdout, " ", tok)
	}
	fmt.Fprintln(stdout)

	if root := s.Tree(); root != nil {
		fmt.Fprintln(stdout, "Tree")
		fmt.Fprint(stdout, ast.Dump(root))
		fmt.Fprintln(stdout)
	}

	if ctx := s.Context(); ctx != nil && ctx.Symbols.Len() > 0 {
		fmt.Fprint(stdout, ctx.Symbols)
		fmt.Fprintln(stdout)
	}

	if u := s.Unpatched(); u != nil {
		fmt.Fprintf(stdout, "Actions (%d)\n", len(u.Actions))
		for _, a := range u.Actions {
			fmt.Fprintln(stdout, " ", a)
		}
		fmt.Fprintln(stdout)
	}

	if cerr != nil {
		_ = diag.Render(stderr, cerr, f)
		return 1
	}
	fmt.Fprintln(stdout, "Listing")
	fmt.Fprint(stdout, img.Listing())
	return 0
}
