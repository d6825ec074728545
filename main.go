// Command darkvm runs DarkVM programs: load a .dark source file, lex and
// link it, then either execute it directly or drop into the interactive
// debugger.
package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hacker007/darkvm/config"
	"github.com/hacker007/darkvm/debugger"
	"github.com/hacker007/darkvm/internal/code"
	"github.com/hacker007/darkvm/internal/dverr"
	"github.com/hacker007/darkvm/internal/lexer"
	"github.com/hacker007/darkvm/internal/trace"
	"github.com/hacker007/darkvm/internal/vm"
)

// Version information - can be overridden at build time with:
// go build -ldflags "-X main.Version=v1.2.3"
var (
	Version = "dev"
	Commit  = "unknown"
)

func main() {
	fs := flag.NewFlagSet("darkvm", flag.ContinueOnError)

	var (
		showVersion  = fs.Bool("version", false, "show version information")
		showHelp     = fs.Bool("help", false, "show help information")
		showTime     = fs.Bool("t", false, "show execution time")
		showTimeLong = fs.Bool("show-time", false, "show execution time")
		showMachine  = fs.Bool("m", false, "show final operand stack and call frames")
		showMachineL = fs.Bool("show-machine", false, "show final operand stack and call frames")
		debugMode    = fs.Bool("debug", false, "start in the interactive debugger (TUI)")
		configPath   = fs.String("config", "", "path to a config.toml (default: per-OS config dir)")
		tracePath    = fs.String("trace", "", "write a newline-delimited JSON execution trace to this file")
	)

	if err := fs.Parse(os.Args[1:]); err != nil {
		reportDriverError(dverr.NewNoPos(dverr.UnrecognizedArgument, "%v", err))
		os.Exit(1)
	}

	if *showVersion {
		fmt.Printf("darkvm %s (%s)\n", Version, Commit)
		os.Exit(0)
	}

	if *showHelp || fs.NArg() == 0 {
		printHelp()
		if *showHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	sourcePath := fs.Arg(0)
	if filepath.Ext(sourcePath) != ".dark" {
		reportDriverError(dverr.NewNoPos(dverr.UnrecognizedArgument, "expected a .dark source file, got %q", sourcePath))
		os.Exit(1)
	}

	contents, err := os.ReadFile(sourcePath) // #nosec G304 -- user-specified source path
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot read %s: %v\n", sourcePath, err)
		os.Exit(1)
	}
	source := string(contents)

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	tokens, err := lexer.New().Lex(source)
	if err != nil {
		reportError(source, err)
		os.Exit(1)
	}

	program, err := code.Load(tokens)
	if err != nil {
		reportError(source, err)
		os.Exit(1)
	}

	opts := []vm.Option{vm.WithMaxCallDepth(cfg.Execution.MaxCallDepth)}

	var traceFile *os.File
	if *tracePath != "" {
		traceFile, err = os.Create(*tracePath) // #nosec G304 -- user-specified trace output path
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating trace file: %v\n", err)
			os.Exit(1)
		}
		defer traceFile.Close()
		opts = append(opts, vm.WithTracer(trace.New(traceFile)))
	}

	machine := vm.New(program, opts...)

	if *debugMode {
		dbg := debugger.NewDebugger(machine, source)
		if err := debugger.RunTUI(dbg); err != nil {
			fmt.Fprintf(os.Stderr, "Debugger error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	start := time.Now()
	result, runErr := machine.Run()
	elapsed := time.Since(start)

	if runErr != nil {
		reportError(source, runErr)
		if *showMachine || *showMachineL {
			dumpMachine(machine)
		}
		os.Exit(1)
	}

	if result != nil {
		fmt.Println(result.String())
	}

	if *showTime || *showTimeLong {
		fmt.Fprintf(os.Stderr, "execution time: %s\n", elapsed)
	}
	if *showMachine || *showMachineL {
		dumpMachine(machine)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Load()
	}
	return config.LoadFrom(path)
}

// reportError renders a positioned or unpositioned dverr.Error against
// source for diagnostics raised while lexing, loading, or running a
// program.
func reportError(source string, err error) {
	dverrErr, ok := err.(*dverr.Error)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}
	fmt.Fprintf(os.Stderr, "Error [%s]: %s\n", dverrErr.Kind, dverr.Render(source, dverrErr))
}

// reportDriverError renders a driver-level error with no source text to
// point into (bad flags, bad file extension).
func reportDriverError(err *dverr.Error) {
	fmt.Fprintf(os.Stderr, "Error [%s]: %s\n", err.Kind, err.Message)
}

// dumpMachine prints the final operand stack (top first) and call frame
// stack (innermost first).
func dumpMachine(machine *vm.VM) {
	fmt.Fprintln(os.Stderr, "\noperand stack:")
	items := machine.Operand.Items()
	if len(items) == 0 {
		fmt.Fprintln(os.Stderr, "  (empty)")
	}
	for i := len(items) - 1; i >= 0; i-- {
		fmt.Fprintf(os.Stderr, "  [%d] %s\n", i, items[i].String())
	}

	fmt.Fprintln(os.Stderr, "\ncall frames:")
	for i := len(machine.Frames) - 1; i >= 0; i-- {
		f := machine.Frames[i]
		fmt.Fprintf(os.Stderr, "  #%d %s (returns to %d)\n", len(machine.Frames)-1-i, f.Name, f.CallerIndex)
	}
}

func printHelp() {
	fmt.Printf(`darkvm %s

Usage: darkvm [options] <source.dark>

Options:
  -help             show this help message
  -version          show version information
  -debug            start in the interactive debugger (TUI)
  -t, -show-time    show execution time
  -m, -show-machine show final operand stack and call frames
  -config PATH      path to a config.toml (default: per-OS config dir)
  -trace PATH       write a newline-delimited JSON execution trace to PATH

Examples:
  darkvm program.dark
  darkvm -debug program.dark
  darkvm -trace run.ndjson -m program.dark
`, Version)
}
