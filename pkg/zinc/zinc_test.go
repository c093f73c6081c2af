package zinc

import "testing"

func TestCompileAndRunAddition(t *testing.T) {
	program, err := Compile("add.zn", []byte("fn main() -> field {\n    2 + 3\n}\n"))
	if err != nil {
		t.Fatalf("compile: %v", err)
	}
	result, err := Run(program, RunOptions{WitnessMode: true})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(result.OutputInts) != 1 {
		t.Fatalf("expected one output, got %d", len(result.OutputInts))
	}
	if result.OutputInts[0].Int64() != 5 {
		t.Fatalf("expected 5, got %s", result.OutputInts[0].String())
	}
}

func TestCompileRejectsMissingMain(t *testing.T) {
	if _, err := Compile("bad.zn", []byte("fn helper() -> u8 { 1 }\n")); err == nil {
		t.Fatalf("expected an error for a module with no main function")
	}
}

func TestCompileRejectsSyntaxError(t *testing.T) {
	if _, err := Compile("bad.zn", []byte("fn main( {\n")); err == nil {
		t.Fatalf("expected a syntax error")
	}
}
