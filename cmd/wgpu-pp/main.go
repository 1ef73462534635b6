package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/rs/zerolog"
	"go.uber.org/multierr"

	wgpupp "github.com/mbullington/wgpu-pp"
)

// stringList collects repeatable flag values.
type stringList []string

func (s *stringList) String() string { return strings.Join(*s, ",") }

func (s *stringList) Set(v string) error {
	*s = append(*s, v)
	return nil
}

// parseDefineFlag splits a -D argument: NAME=value defines NAME as
// value, bare NAME defines it as 1.
func parseDefineFlag(s string) (name, value string) {
	if i := strings.IndexByte(s, '='); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, "1"
}

func main() {
	var (
		includeDirs stringList
		defines     stringList
		output      = flag.String("o", "", "write expanded text to file (single input only)")
		validator   = flag.String("validate", "", "validator command run with expanded text on stdin")
		verbose     = flag.Bool("v", false, "log directive and include events to stderr")
	)
	flag.Var(&includeDirs, "I", "include search directory (repeatable)")
	flag.Var(&defines, "D", "predefine object macro NAME[=value] (repeatable)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] shader.wgsl...\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	files := flag.Args()
	if len(files) == 0 {
		flag.Usage()
		os.Exit(2)
	}
	if *output != "" && len(files) != 1 {
		fmt.Fprintln(os.Stderr, "-o requires exactly one input file")
		os.Exit(2)
	}

	log := logr.Discard()
	if *verbose {
		zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
		zerologr.SetMaxV(1)
		log = zerologr.New(&zl)
	}

	opts := []wgpupp.Option{
		wgpupp.WithLogr(log),
		wgpupp.WithIncludeDirs(includeDirs...),
	}
	for _, d := range defines {
		name, value := parseDefineFlag(d)
		opts = append(opts, wgpupp.WithDefine(name, value))
	}
	if *validator != "" {
		parts := strings.Fields(*validator)
		opts = append(opts, wgpupp.WithValidator(wgpupp.CommandValidator{
			Path: parts[0],
			Args: parts[1:],
		}))
	}

	var errs error
	for _, file := range files {
		text, err := wgpupp.PreprocessFile(file, "", opts...)
		if err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		if *output != "" {
			if err := os.WriteFile(*output, []byte(text), 0o644); err != nil {
				errs = multierr.Append(errs, err)
			}
			continue
		}
		fmt.Print(text)
	}
	if errs != nil {
		for _, err := range multierr.Errors(errs) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}
