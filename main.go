package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/ccoveille/go-safecast"
	"github.com/pkg/errors"
	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"go.uber.org/zap"

	"sicc/pkg/compiler"
	"sicc/pkg/diag"
	"sicc/pkg/image"
	"sicc/pkg/session"
	"sicc/pkg/source"
	"sicc/pkg/utils"
)

func main() {
	os.Exit(run(os.Args[1:], afero.NewOsFs(), os.Stdout, os.Stderr))
}

type config struct {
	in       string
	out      string
	format   string
	base     string
	logLevel string
	listing  bool
}

// run is the whole CLI. Exit codes: 0 success, 1 compilation or I/O
// failure, 2 bad usage.
func run(args []string, fs afero.Fs, stdout, stderr io.Writer) int {
	var cfg config
	fl := flag.NewFlagSet("sicc", flag.ContinueOnError)
	fl.SetOutput(stderr)
	fl.Usage = func() {
		fmt.Fprintln(stderr, "usage: sicc -i <file> [flags]")
		fl.PrintDefaults()
	}
	fl.StringVarP(&cfg.in, "in", "i", "", "input source file (.sicl for SICL, anything else is assembly)")
	fl.StringVarP(&cfg.out, "out", "o", "", "output file path (default: input with the format's extension)")
	fl.StringVar(&cfg.format, "format", "bin", "output format: bin (raw program bytes) or obj (CBOR object file)")
	fl.StringVar(&cfg.base, "base", "0x0000", "load address of the program")
	fl.StringVar(&cfg.logLevel, "log-level", "INFO", "logging level: DEBUG, INFO, WARN, ERROR or FATAL")
	fl.BoolVar(&cfg.listing, "listing", false, "print a disassembly listing to stdout")
	if err := fl.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(stderr, err)
		return 2
	}

	if cfg.in == "" {
		fmt.Fprintln(stderr, "nothing to do: provide -i <file>")
		fl.Usage()
		return 2
	}
	format, err := image.ParseFormat(cfg.format)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	base, err := parseAddress(cfg.base)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	logger, _, err := utils.SetupLogger(cfg.logLevel, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}
	defer func() { _ = logger.Sync() }()

	f, err := utils.ReadSource(fs, cfg.in)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	img, err := compile(f, base, logger)
	if err != nil {
		_ = diag.Render(stderr, err, f)
		return 1
	}

	output := cfg.out
	if output == "" {
		output = utils.DefaultOutputPath(cfg.in, format.String())
	}
	if err := utils.EnsureDir(fs, output); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	if err := img.Save(fs, output, format); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logger.Debug("Image written",
		zap.String("path", output),
		zap.Stringer("format", format),
		zap.Int("size", img.Size()))
	if cfg.listing {
		fmt.Fprint(stdout, img.Listing())
	}
	fmt.Fprintf(stdout, "%s %d bytes -> %s\n", verb(f.Name), img.Size(), output)
	return 0
}

func compile(f *source.File, base uint16, logger *zap.Logger) (*image.Image, error) {
	s := session.New(session.WithBase(base), session.WithLogger(logger))
	defer s.Close()
	return s.Compile(utils.FrontEndFor(f.Name), f)
}

func verb(path string) string {
	if _, ok := utils.FrontEndFor(path).(*compiler.Compiler); ok {
		return "compiled"
	}
	return "assembled"
}

// parseAddress accepts decimal, 0x hex, 0o octal or 0b binary.
func parseAddress(s string) (uint16, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid base address %q", s)
	}
	addr, err := safecast.ToUint16(v)
	if err != nil {
		return 0, errors.Errorf("base address %s does not fit in 16 bits", s)
	}
	return addr, nil
}
