package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/MotleyCoderDev/wasm2brs/brs"
	"github.com/MotleyCoderDev/wasm2brs/config"
	"github.com/MotleyCoderDev/wasm2brs/loader"
)

func main() {
	var (
		wasmFile    = flag.String("wasm", "", "Path to the wasm module")
		outFile     = flag.String("o", "", "Output .brs file (default stdout)")
		prefix      = flag.String("prefix", "", "Prefix for module-owned global identifiers")
		configFile  = flag.String("config", "", "Configuration file (default: nearest "+config.FileName+")")
		noValidate  = flag.Bool("no-validate", false, "Skip wazero validation")
		verbose     = flag.Bool("v", false, "Debug logging")
		list        = flag.Bool("list", false, "List generated functions and advisories instead of code")
		interactive = flag.Bool("i", false, "Interactive mode with TUI")
	)
	flag.Parse()

	if *wasmFile == "" {
		fmt.Fprintln(os.Stderr, "Usage: wasm2brs -wasm <file.wasm> [-o out.brs] [-prefix name] [-config file] [-no-validate] [-v]")
		fmt.Fprintln(os.Stderr, "       wasm2brs -wasm <file.wasm> -list")
		fmt.Fprintln(os.Stderr, "       wasm2brs -wasm <file.wasm> -i  (interactive mode)")
		os.Exit(1)
	}

	log := newLogger(*verbose)
	defer func() { _ = log.Sync() }()
	brs.SetLogger(log)
	loader.SetLogger(log)

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	// Flags given on the command line override the file.
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "o":
			cfg.Output.File = *outFile
		case "prefix":
			cfg.Output.Prefix = *prefix
		case "no-validate":
			cfg.Validate.Enabled = !*noValidate
		}
	})

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(*wasmFile, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(*wasmFile, cfg, *list); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// newLogger logs to stderr, human readable on a terminal and JSON otherwise.
func newLogger(verbose bool) *zap.Logger {
	var cfg zap.Config
	if term.IsTerminal(int(os.Stderr.Fd())) {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	level := zap.InfoLevel
	if verbose {
		level = zap.DebugLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg, err := config.FindAndLoad(".")
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default()
	}
	return cfg, nil
}

// convert loads the module and generates it into memory.
func convert(ctx context.Context, wasmFile string, cfg *config.Config) ([]byte, *brs.Report, error) {
	m, err := loader.LoadFile(ctx, wasmFile, loader.Options{SkipValidation: !cfg.Validate.Enabled})
	if err != nil {
		return nil, nil, err
	}
	var buf bytes.Buffer
	report, err := brs.Generate(&buf, m, cfg.Options())
	if err != nil {
		return nil, nil, err
	}
	return buf.Bytes(), report, nil
}

func run(wasmFile string, cfg *config.Config, listOnly bool) error {
	code, report, err := convert(context.Background(), wasmFile, cfg)
	if err != nil {
		return err
	}

	if listOnly {
		printReport(os.Stdout, report)
		return nil
	}

	if cfg.Output.File == "" {
		_, err = os.Stdout.Write(code)
		return err
	}
	if err := os.WriteFile(cfg.Output.File, code, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func printReport(w io.Writer, report *brs.Report) {
	fmt.Fprintf(w, "Functions: %d\n", len(report.Functions))
	for _, f := range report.Functions {
		mark := " "
		if len(report.AdvisoriesFor(f.Name)) > 0 {
			mark = "!"
		}
		fmt.Fprintf(w, "%s %-40s instrs=%-6d labels=%-4d variables=%d\n", mark, f.Name, f.Instrs, f.Labels, f.Variables())
	}
	if len(report.Advisories) > 0 {
		fmt.Fprintf(w, "\nAdvisories:\n")
		for _, a := range report.Advisories {
			fmt.Fprintf(w, "  %s\n", a)
		}
	}
}
