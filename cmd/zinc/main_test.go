package main

import (
	"bytes"
	"os"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

const addOneSource = "fn main() -> field {\n    2 + 3\n}\n"

func withMemFs(t *testing.T) {
	t.Helper()
	prev := fsys
	fsys = afero.NewMemMapFs()
	t.Cleanup(func() { fsys = prev })
}

// withRepoRoot chdirs to the module root so config.Load's relative
// "cmd/config" search path resolves, mirroring cmd/config's own tests.
func withRepoRoot(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	if err := os.Chdir("../.."); err != nil {
		t.Fatalf("chdir: %v", err)
	}
	viper.Reset()
	t.Cleanup(func() {
		_ = os.Chdir(wd)
	})
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	rootCmd := newRootCmd()
	buf := &bytes.Buffer{}
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestCheckAcceptsValidSource(t *testing.T) {
	withMemFs(t)
	afero.WriteFile(fsys, "add.zn", []byte(addOneSource), 0o644)

	out, err := execute(t, "check", "add.zn")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if out != "ok\n" {
		t.Fatalf("expected ok, got %q", out)
	}
}

func TestCheckRejectsMissingMain(t *testing.T) {
	withMemFs(t)
	afero.WriteFile(fsys, "bad.zn", []byte("fn helper() -> u8 { 1 }\n"), 0o644)

	if _, err := execute(t, "check", "bad.zn"); err == nil {
		t.Fatalf("expected an error for a module with no main function")
	}
}

func TestBuildWritesBytecodeFile(t *testing.T) {
	withMemFs(t)
	afero.WriteFile(fsys, "add.zn", []byte(addOneSource), 0o644)

	if _, err := execute(t, "build", "add.zn", "-o", "add.znb"); err != nil {
		t.Fatalf("build: %v", err)
	}
	data, err := afero.ReadFile(fsys, "add.znb")
	if err != nil {
		t.Fatalf("expected a bytecode file to be written: %v", err)
	}
	if len(data) == 0 {
		t.Fatalf("expected non-empty bytecode output")
	}
}

func TestRunPrintsOutput(t *testing.T) {
	withRepoRoot(t)
	withMemFs(t)
	afero.WriteFile(fsys, "add.zn", []byte(addOneSource), 0o644)

	out, err := execute(t, "run", "add.zn")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	want := "out[0] = 5\nstorage_root = 4385404322074818210943638662162606736798379792394742150902287443549264542017\n"
	if out != want {
		t.Fatalf("expected out[0] = 5 and the empty storage root, got %q", out)
	}
}

func TestDumpBytecodeListsMain(t *testing.T) {
	withMemFs(t)
	afero.WriteFile(fsys, "add.zn", []byte(addOneSource), 0o644)

	out, err := execute(t, "dump-bytecode", "add.zn")
	if err != nil {
		t.Fatalf("dump-bytecode: %v", err)
	}
	if !bytes.Contains([]byte(out), []byte("fn main")) {
		t.Fatalf("expected output to list main, got %q", out)
	}
}

func TestDumpBytecodeYAMLFormat(t *testing.T) {
	withMemFs(t)
	afero.WriteFile(fsys, "add.zn", []byte(addOneSource), 0o644)

	out, err := execute(t, "dump-bytecode", "add.zn", "--format", "yaml")
	if err != nil {
		t.Fatalf("dump-bytecode: %v", err)
	}
	if !bytes.Contains([]byte(out), []byte("name: main")) {
		t.Fatalf("expected yaml output to name main, got %q", out)
	}
}
