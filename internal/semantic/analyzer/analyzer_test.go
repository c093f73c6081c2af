package analyzer

import (
	"testing"

	"zinc/internal/bytecode"
	"zinc/internal/parser"
)

func compile(t *testing.T, src string) *bytecode.Program {
	t.Helper()
	module, err := parser.Parse("test.zn", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	program, err := New().AnalyzeModule(module)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	return program
}

func TestAnalyzeModuleRequiresMain(t *testing.T) {
	module, err := parser.Parse("test.zn", []byte("fn helper() -> u8 { 1 }\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := New().AnalyzeModule(module); err == nil {
		t.Fatalf("expected an error for a module with no main function")
	}
}

func TestAnalyzeModuleLowersArithmetic(t *testing.T) {
	program := compile(t, "fn main() -> field {\n    2 + 3\n}\n")

	main, ok := program.Methods["main"]
	if !ok {
		t.Fatalf("expected a main method entry")
	}
	if main.OutputSize != 1 {
		t.Fatalf("expected main to produce one output, got %d", main.OutputSize)
	}

	foundAdd := false
	for _, ins := range program.Instructions[main.EntryAddr:] {
		if ins.Op == bytecode.OpAdd {
			foundAdd = true
		}
		if ins.Op == bytecode.OpReturn {
			break
		}
	}
	if !foundAdd {
		t.Fatalf("expected an Add instruction in main's lowered body")
	}
}

func TestAnalyzeModuleResolvesCallSites(t *testing.T) {
	program := compile(t, "fn double(x: u8) -> u8 {\n    x + x\n}\n\nfn main() -> u8 {\n    double(5)\n}\n")

	doubleEntry := program.Methods["double"].EntryAddr
	mainEntry := program.Methods["main"].EntryAddr

	found := false
	for _, ins := range program.Instructions[mainEntry:] {
		if ins.Op == bytecode.OpCall {
			found = true
			if ins.CallAddress != doubleEntry {
				t.Fatalf("expected call to resolve to double's entry %d, got %d", doubleEntry, ins.CallAddress)
			}
		}
	}
	if !found {
		t.Fatalf("expected a Call instruction in main's lowered body")
	}
}

func TestAnalyzeModuleLowersConstantFolding(t *testing.T) {
	program := compile(t, "const LIMIT: u8 = 2 + 3;\n\nfn main() -> u8 {\n    LIMIT\n}\n")

	main := program.Methods["main"]
	var pushed *bytecode.Instruction
	for i := range program.Instructions[main.EntryAddr:] {
		ins := &program.Instructions[main.EntryAddr+i]
		if ins.Op == bytecode.OpPush {
			pushed = ins
			break
		}
	}
	if pushed == nil {
		t.Fatalf("expected a Push instruction for the folded constant")
	}
	if pushed.Value.Int64() != 5 {
		t.Fatalf("expected folded constant value 5, got %s", pushed.Value.String())
	}
}

func TestAnalyzeModuleLowersLoopWithBoundedIterations(t *testing.T) {
	program := compile(t, "fn main() -> u8 {\n    let mut acc = 0;\n    for i in 0..4 {\n        acc = acc + 1;\n    }\n    acc\n}\n")

	main := program.Methods["main"]
	found := false
	for _, ins := range program.Instructions[main.EntryAddr:] {
		if ins.Op == bytecode.OpLoopBegin {
			found = true
			if ins.Iterations != 4 {
				t.Fatalf("expected 4 iterations, got %d", ins.Iterations)
			}
		}
	}
	if !found {
		t.Fatalf("expected a LoopBegin instruction")
	}
}

func TestAnalyzeModuleLowersStdlibCall(t *testing.T) {
	program := compile(t, "fn main() -> field {\n    std::ff::invert(3)\n}\n")

	main := program.Methods["main"]
	found := false
	for _, ins := range program.Instructions[main.EntryAddr:] {
		if ins.Op == bytecode.OpCallLibrary {
			found = true
			if ins.InputSize != 1 || ins.OutputSize != 1 {
				t.Fatalf("expected ff::invert arity 1/1, got %d/%d", ins.InputSize, ins.OutputSize)
			}
		}
	}
	if !found {
		t.Fatalf("expected a CallLibrary instruction for std::ff::invert")
	}
}

func TestAnalyzeModuleRejectsUnknownLibraryPath(t *testing.T) {
	module, err := parser.Parse("test.zn", []byte("fn main() -> field {\n    std::nope::here(3)\n}\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := New().AnalyzeModule(module); err == nil {
		t.Fatalf("expected an error for an unknown stdlib path")
	}
}

func TestAnalyzeModuleLowersConditional(t *testing.T) {
	program := compile(t, "fn main() -> u8 {\n    if true {\n        1\n    } else {\n        2\n    }\n}\n")

	main := program.Methods["main"]
	sawIf, sawElse, sawEndIf := false, false, false
	for _, ins := range program.Instructions[main.EntryAddr:] {
		switch ins.Op {
		case bytecode.OpIf:
			sawIf = true
		case bytecode.OpElse:
			sawElse = true
		case bytecode.OpEndIf:
			sawEndIf = true
		}
	}
	if !sawIf || !sawElse || !sawEndIf {
		t.Fatalf("expected If/Else/EndIf instructions, got if=%v else=%v endif=%v", sawIf, sawElse, sawEndIf)
	}
}
