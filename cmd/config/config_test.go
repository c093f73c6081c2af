package config

import (
	"os"
	"testing"

	"github.com/spf13/viper"

	"zinc/internal/testutil"
)

func TestLoadConfigDefault(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(".."); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	LoadConfig("")
	if AppConfig.Compiler.ID != "zinc-compiler" {
		t.Fatalf("unexpected compiler id: %s", AppConfig.Compiler.ID)
	}
}

func TestLoadConfigOverride(t *testing.T) {
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(".."); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	LoadConfig("development")
	if AppConfig.VM.MaxLoopIterations != 10000 {
		t.Fatalf("expected MaxLoopIterations 10000, got %d", AppConfig.VM.MaxLoopIterations)
	}
	if !AppConfig.Compiler.AllowDbg {
		t.Fatalf("expected development override to allow dbg!")
	}
}

func TestLoadConfigSandbox(t *testing.T) {
	sb, err := testutil.NewSandbox()
	if err != nil {
		t.Fatalf("NewSandbox failed: %v", err)
	}
	defer sb.Cleanup()

	if err := os.Mkdir(sb.Path("config"), 0700); err != nil {
		t.Fatalf("Mkdir failed: %v", err)
	}

	data := []byte("compiler:\n  id: sandbox-compiler\n  max_integer_bitlength: 64\n")
	if err := sb.WriteFile("config/default.yaml", data, 0600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Getwd failed: %v", err)
	}
	defer os.Chdir(wd)
	viper.Reset()

	if err := os.Chdir(sb.Root); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	LoadConfig("")

	if AppConfig.Compiler.ID != "sandbox-compiler" {
		t.Fatalf("expected compiler id sandbox-compiler, got %s", AppConfig.Compiler.ID)
	}
	if AppConfig.Compiler.MaxIntegerBitlength != 64 {
		t.Fatalf("expected MaxIntegerBitlength 64, got %d", AppConfig.Compiler.MaxIntegerBitlength)
	}
}
