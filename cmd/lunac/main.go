// Command lunac is the checker's command-line driver: it wires session
// configuration, the standard-library loader, and the phase orchestrator
// together and renders the resulting diagnostics, the way cmd/ailang
// wires its own interpreter pipeline — rebuilt here on Cobra subcommands
// instead of the teacher's flag-based dispatch.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lunac-lang/lunac/internal/astiface"
	"github.com/lunac-lang/lunac/internal/config"
	"github.com/lunac-lang/lunac/internal/diag"
	"github.com/lunac-lang/lunac/internal/modresolve"
	"github.com/lunac-lang/lunac/internal/phase"
	"github.com/lunac-lang/lunac/internal/source"
	"github.com/lunac-lang/lunac/internal/stdlib"
	"github.com/lunac-lang/lunac/internal/tenv"
)

// Version info, set by ldflags during build.
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Parser is the source grammar implementation this binary checks with.
// spec.md §6 treats the parser as an external collaborator the core
// never implements; a concrete distribution of this driver sets it
// (e.g. from an init() in a sibling file pulled in by a build tag).
// Left nil here, `lunac check` reports a clear error instead of
// pretending to parse.
var Parser astiface.Parser

func main() {
	root := &cobra.Command{
		Use:   "lunac",
		Short: "Static type checker for the lunac scripting dialect",
	}
	root.AddCommand(newCheckCmd(), newVersionCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", red("error"), err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("lunac %s\n", bold(Version))
			if Commit != "unknown" {
				fmt.Printf("commit: %s\n", Commit)
			}
			if BuildTime != "unknown" {
				fmt.Printf("built:  %s\n", BuildTime)
			}
		},
	}
}

func newCheckCmd() *cobra.Command {
	var (
		configPath string
		jsonOutput bool
		noStdlib   bool
	)
	cmd := &cobra.Command{
		Use:   "check <entry-file>",
		Short: "Type-check a module and everything it imports",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := config.Default()
			if configPath != "" {
				loaded, err := config.Load(configPath)
				if err != nil {
					return err
				}
				opts = loaded
			}
			if noStdlib {
				opts.NoStdlib = true
			}
			return runCheck(args[0], opts, jsonOutput)
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "", "path to a lunac.yaml configuration file")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "emit diagnostics as a JSON array instead of colored text")
	cmd.Flags().BoolVar(&noStdlib, "no-stdlib", false, "skip loading the ambient standard library")
	return cmd
}

func runCheck(entry string, opts config.Options, jsonOutput bool) error {
	if Parser == nil {
		return fmt.Errorf("no source parser registered in this build of lunac (see astiface.Parser)")
	}

	in := source.NewInterner()
	sink := diag.NewCollectingSink(opts.MaxErrors)
	fs := osFileSystem{}
	resolver := modresolve.NewResolver(fs, nil)
	reg := modresolve.NewRegistry()

	orch := phase.New(reg, resolver, fs, Parser, opts, sink, in)
	if err := orch.Bootstrap(loaderFunc(stdlib.Load)); err != nil {
		return fmt.Errorf("loading standard library: %w", err)
	}

	entryPath := fs.Canonicalize(entry)
	if !fs.Exists(entryPath) {
		return fmt.Errorf("entry file not found: %s", entry)
	}
	if _, err := orch.Discover(entryPath); err != nil {
		return err
	}
	orch.CheckAll()

	diags := sink.SortedByPosition()
	if jsonOutput {
		encoded, err := diag.EncodeAll(diags)
		if err != nil {
			return err
		}
		fmt.Println(string(encoded))
	} else {
		renderDiagnostics(diags)
	}

	if sink.ErrorCount() > 0 {
		os.Exit(1)
	}
	return nil
}

func renderDiagnostics(diags []*diag.Diagnostic) {
	if len(diags) == 0 {
		fmt.Println(green("no issues found"))
		return
	}
	for _, d := range diags {
		label := red(string(d.Severity))
		if d.Severity == diag.SeverityWarning {
			label = yellow(string(d.Severity))
		}
		fmt.Printf("%s: %s [%s] %s\n", label, d.Span.String(), d.Kind, d.Message)
	}
}

// loaderFunc adapts a bare Load function to astiface.StdlibLoader.
type loaderFunc func(*tenv.Env) error

func (f loaderFunc) Load(env *tenv.Env) error { return f(env) }

// osFileSystem is astiface.FileSystem backed by the real filesystem.
type osFileSystem struct{}

func (osFileSystem) Read(path string) ([]byte, error) { return os.ReadFile(path) }

func (osFileSystem) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func (osFileSystem) Canonicalize(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return filepath.Clean(path)
	}
	return filepath.Clean(abs)
}
