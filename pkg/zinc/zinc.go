// Package zinc is the public facade over the compiler and VM: Compile
// turns source text into a Program, Run executes a Program against
// concrete inputs. Both cmd/zinc and cmd/zincd depend on this package
// rather than reaching into internal/ directly.
package zinc

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"zinc/internal/bytecode"
	"zinc/internal/diagnostics"
	"zinc/internal/parser"
	"zinc/internal/semantic/analyzer"
	"zinc/internal/source"
	"zinc/internal/vm/core"
	"zinc/internal/vm/gadgets"
	"zinc/internal/vm/storage"
)

// Program wraps a lowered bytecode.Program with the source file name it
// was compiled from, enough context for diagnostics rendered later.
type Program struct {
	File  string
	inner *bytecode.Program
}

// Compile parses and lowers Zinc source text into a runnable Program.
// Any Diagnostic returned can be rendered with diagnostics.Render.
func Compile(file string, src []byte) (*Program, error) {
	module, err := parser.Parse(file, src)
	if err != nil {
		return nil, err
	}
	prog, err := analyzer.New().AnalyzeModule(module)
	if err != nil {
		return nil, err
	}
	return &Program{File: file, inner: prog}, nil
}

// Bytecode exposes the lowered program for inspection (dump-bytecode,
// serialization) without leaking the internal package.
func (p *Program) Bytecode() *bytecode.Program { return p.inner }

// StorageConfig selects the contract storage gadget's shape; Run
// treats Depth 0 as depth 1 and a nil Hasher as Keccak256.
type StorageConfig struct {
	Depth  int
	Hasher storage.Hasher
}

// RunOptions configures one execution of a compiled Program.
type RunOptions struct {
	Inputs      []*big.Int
	WitnessMode bool
	Storage     StorageConfig
}

// RunResult carries a finished execution's outputs both as raw field
// elements and as decoded big.Ints, for callers that don't need the
// field representation directly.
type RunResult struct {
	Outputs    []gadgets.Scalar
	OutputInts []*big.Int

	// StorageRoot is the contract storage gadget's Merkle root after
	// this run's final StorageStore, decimal-encoded like OutputInts.
	StorageRoot *big.Int
}

// Run executes p against concrete inputs; concrete values are
// synthesized throughout only when opts.WitnessMode is set.
func Run(p *Program, opts RunOptions) (*RunResult, error) {
	depth := opts.Storage.Depth
	hasher := opts.Storage.Hasher
	if depth == 0 {
		depth = 1
	}
	if hasher == nil {
		hasher = storage.Keccak256Hasher{}
	}
	st := storage.New(depth, hasher)

	vm := core.New(p.inner, st, opts.WitnessMode)
	loc := source.Location{File: p.File}

	seeds := make([]gadgets.Scalar, len(opts.Inputs))
	for i, v := range opts.Inputs {
		var e fr.Element
		e.SetBigInt(v)
		seeds[i] = gadgets.NewConstant(e, nil)
	}
	vm.SeedInputs(seeds)

	outputs, err := vm.Run(loc)
	if err != nil {
		return nil, err
	}

	ints := make([]*big.Int, len(outputs))
	for i, s := range outputs {
		var v fr.Element = s.Value
		ints[i] = v.BigInt(new(big.Int))
	}
	root := st.Root()
	return &RunResult{Outputs: outputs, OutputInts: ints, StorageRoot: root.BigInt(new(big.Int))}, nil
}

// RenderError formats any error returned by Compile/Run, falling back
// to its plain message when it is not a diagnostics.Diagnostic.
func RenderError(err error) string {
	if d, ok := err.(diagnostics.Diagnostic); ok {
		return diagnostics.Render(d)
	}
	return err.Error()
}
