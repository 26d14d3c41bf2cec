package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lunac-lang/lunac/internal/diag"
	"github.com/lunac-lang/lunac/internal/source"
	"github.com/lunac-lang/lunac/internal/tenv"
)

func TestCheckCommandMetadata(t *testing.T) {
	cmd := newCheckCmd()
	if cmd.Use != "check <entry-file>" {
		t.Errorf("Use = %q, want %q", cmd.Use, "check <entry-file>")
	}
	if cmd.Args == nil {
		t.Error("expected an Args validator requiring exactly one entry file")
	}
}

func TestVersionCommandMetadata(t *testing.T) {
	cmd := newVersionCmd()
	if cmd.Use != "version" {
		t.Errorf("Use = %q, want %q", cmd.Use, "version")
	}
}

func TestOSFileSystemRoundTrips(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.luna")
	if err := os.WriteFile(path, []byte("function f() end"), 0o644); err != nil {
		t.Fatal(err)
	}

	fs := osFileSystem{}
	if !fs.Exists(path) {
		t.Error("expected Exists to report true for a written file")
	}
	body, err := fs.Read(path)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(body) != "function f() end" {
		t.Errorf("Read = %q", body)
	}
}

func TestOSFileSystemMissingFile(t *testing.T) {
	fs := osFileSystem{}
	if fs.Exists("/nonexistent/lunac-test-fixture.luna") {
		t.Error("expected Exists to report false for a missing file")
	}
}

func TestOSFileSystemCanonicalizeIsAbsolute(t *testing.T) {
	fs := osFileSystem{}
	got := fs.Canonicalize("./main.luna")
	if !filepath.IsAbs(got) {
		t.Errorf("Canonicalize(%q) = %q, want an absolute path", "./main.luna", got)
	}
}

func TestLoaderFuncAdaptsBareFunction(t *testing.T) {
	called := false
	var f loaderFunc = func(env *tenv.Env) error {
		called = true
		return nil
	}
	env := tenv.New(diag.NewCollectingSink(0), source.NewInterner(), 10)
	if err := f.Load(env); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !called {
		t.Error("expected the wrapped function to run")
	}
}

func TestRenderDiagnosticsHandlesEmpty(t *testing.T) {
	// renderDiagnostics writes to stdout; this just confirms it doesn't
	// panic on the empty-diagnostics path.
	renderDiagnostics(nil)
}
