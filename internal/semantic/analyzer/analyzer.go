// Package analyzer lowers a parsed module into a bytecode.Program: name
// resolution and type checking happen in the same pass as instruction
// emission, following zinc-compiler's single-pass bytecode generator
// rather than building a separate typed IR first.
package analyzer

import (
	"math/big"

	"zinc/internal/ast"
	"zinc/internal/bytecode"
	"zinc/internal/diagnostics"
	"zinc/internal/semantic/scope"
	"zinc/internal/semantic/types"
	"zinc/internal/source"
)

// function accumulates one fn's lowered body before it is laid into the
// final program at a known address.
type function struct {
	name       string
	entry      int // not set during lowering; entry addresses are computed when the program is laid out
	inputSize  int
	outputSize int
	returnType *types.Type // resolved once every top-level type is known, before any body is lowered
	instrs     []bytecode.Instruction
	isMutable  bool
	localCount int
}

// nextLocalSlot allocates the next frame-local data-stack offset for a
// let binding or loop variable, starting after this function's own
// parameters.
func (fn *function) nextLocalSlot() int {
	slot := fn.inputSize + fn.localCount
	fn.localCount++
	return slot
}

// callSite records a Call instruction awaiting its callee's final
// address, indexed by position within one function's own instruction
// slice.
type callSite struct {
	funcIndex int
	instrIdx  int
	callee    string
}

// Analyzer holds the state threaded through one module's lowering.
type Analyzer struct {
	arena   *scope.Arena
	current scope.ID

	functions []*function
	byName    map[string]int // function name -> index into functions
	callSites []callSite

	globalsCount int
	constValues  map[string]*big.Int

	cur *function // function currently being lowered
}

// New creates an analyzer with a fresh root scope.
func New() *Analyzer {
	arena, root := scope.NewArena()
	return &Analyzer{arena: arena, current: root, byName: map[string]int{}, constValues: map[string]*big.Int{}}
}

// AnalyzeModule lowers every item in module and returns the assembled
// program, with "main" as the required entry point.
func (a *Analyzer) AnalyzeModule(module *ast.Module) (*bytecode.Program, error) {
	for i := range module.Statements {
		if err := a.declareTopLevel(&module.Statements[i]); err != nil {
			return nil, err
		}
	}
	// Resolving every fn's return type only after all top-level types are
	// declared lets one fn's signature name a struct/enum/contract
	// declared later in the same file.
	for i := range module.Statements {
		stmt := &module.Statements[i]
		if stmt.Kind == ast.StmtFn {
			if err := a.resolveFunctionSignature(stmt); err != nil {
				return nil, err
			}
		}
	}
	for i := range module.Statements {
		stmt := &module.Statements[i]
		if stmt.Kind == ast.StmtFn {
			if err := a.lowerFunction(stmt); err != nil {
				return nil, err
			}
		}
	}

	mainIdx, ok := a.byName["main"]
	if !ok {
		return nil, diagnostics.NewSemanticError(diagnostics.UndeclaredItem, source.Location{}, "no `main` function declared")
	}

	program := bytecode.NewProgram(nil)
	program.Instructions = append(program.Instructions,
		bytecode.Instruction{Op: bytecode.OpCall, InputSize: a.functions[mainIdx].inputSize},
		bytecode.Instruction{Op: bytecode.OpExit, OutputSize: a.functions[mainIdx].outputSize},
	)

	entries := make([]int, len(a.functions))
	for i, fn := range a.functions {
		entries[i] = len(program.Instructions)
		program.Instructions = append(program.Instructions, fn.instrs...)
		program.Methods[fn.name] = bytecode.Method{
			Name: fn.name, EntryAddr: entries[i], InputSize: fn.inputSize, OutputSize: fn.outputSize, IsMutable: fn.isMutable,
		}
	}
	program.Instructions[0].CallAddress = entries[mainIdx]

	for _, cs := range a.callSites {
		calleeIdx, ok := a.byName[cs.callee]
		if !ok {
			return nil, diagnostics.NewSemanticError(diagnostics.UndeclaredItem, source.Location{}, "call to undeclared function "+cs.callee)
		}
		// instrIdx was recorded relative to the function's own slice;
		// translate to the final program offset via entries[funcIndex].
		program.Instructions[entries[cs.funcIndex]+cs.instrIdx].CallAddress = entries[calleeIdx]
	}

	return program, nil
}

func (a *Analyzer) declareTopLevel(stmt *ast.Statement) error {
	switch stmt.Kind {
	case ast.StmtFn:
		a.byName[stmt.Name] = len(a.functions)
		a.functions = append(a.functions, &function{name: stmt.Name})
		return nil
	case ast.StmtConst:
		t, err := a.resolveType(stmt.Binding.Type)
		if err != nil {
			return err
		}
		val, err := a.foldConstant(stmt.Value)
		if err != nil {
			return err
		}
		offset := a.globalsCount
		a.globalsCount++
		a.constValues[stmt.Binding.Pattern.Name] = val
		return a.arena.Declare(a.current, scope.Item{
			Kind: scope.ItemConstant, Name: stmt.Binding.Pattern.Name, Type: t, Offset: offset, IsGlobal: true,
		})
	case ast.StmtTypeAlias:
		return a.declareTypeAlias(stmt)
	case ast.StmtStruct:
		return a.declareStruct(stmt, false)
	case ast.StmtContract:
		return a.declareStruct(stmt, true)
	case ast.StmtEnum:
		return a.declareEnum(stmt)
	case ast.StmtModule:
		return a.declareModule(stmt)
	case ast.StmtUse:
		// std::... callees are resolved by fully qualified name at each
		// call site (see lowerLibraryCall), so a use item needs no scope
		// entry of its own.
		return nil
	}
	return nil
}

// resolveFunctionSignature fills in a previously-declared fn's return
// type, looked up by name since declareTopLevel only reserved its slot.
func (a *Analyzer) resolveFunctionSignature(stmt *ast.Statement) error {
	fn := a.functions[a.byName[stmt.Name]]
	rt, err := a.resolveType(stmt.ReturnType)
	if err != nil {
		return err
	}
	fn.returnType = rt
	return nil
}

func (a *Analyzer) declareTypeAlias(stmt *ast.Statement) error {
	target, err := a.resolveType(stmt.AliasType)
	if err != nil {
		return err
	}
	t := &types.Type{Kind: types.Alias, Name: stmt.AliasName, Target: target}
	return a.arena.Declare(a.current, scope.Item{Kind: scope.ItemTypeAlias, Name: stmt.AliasName, Type: t})
}

// declareStruct lowers a struct or contract declaration. A contract also
// gets a nested storage scope, one ItemVariable per field, addressed by
// flattened offset and marked IsStorage so a later `Name::field` access
// lowers to OpStorageLoad/OpStorageStore instead of the data stack;
// there is no `impl`/`self` in the grammar, so a contract's fields are
// the only thing reachable off its name.
func (a *Analyzer) declareStruct(stmt *ast.Statement, isContract bool) error {
	fields := make([]types.StructureField, len(stmt.Fields))
	for i, f := range stmt.Fields {
		ft, err := a.resolveType(f.Type)
		if err != nil {
			return err
		}
		fields[i] = types.StructureField{Name: f.Name, Type: ft, IsPublic: f.IsPublic, IsExternal: f.IsExternal}
	}
	if !isContract {
		t := &types.Type{Kind: types.Structure, Name: stmt.Name, Fields: fields}
		return a.arena.Declare(a.current, scope.Item{Kind: scope.ItemTypeAlias, Name: stmt.Name, Type: t})
	}

	t := &types.Type{Kind: types.Contract, Name: stmt.Name, Fields: fields}
	storageScope := a.arena.Child(a.current)
	offset := 0
	for _, field := range fields {
		width := types.FlattenedWidth(field.Type)
		if err := a.arena.Declare(storageScope, scope.Item{
			Kind: scope.ItemVariable, Name: field.Name, Type: field.Type,
			Offset: offset, IsMutable: true, IsGlobal: true, IsStorage: true,
		}); err != nil {
			return err
		}
		offset += width
	}
	return a.arena.Declare(a.current, scope.Item{
		Kind: scope.ItemModule, Name: stmt.Name, Type: t, ModuleScope: storageScope,
	})
}

// declareEnum assigns each variant without an explicit value the next
// value after its predecessor, starting at 0, matching the surface
// syntax's `Name = value` arms being optional.
func (a *Analyzer) declareEnum(stmt *ast.Statement) error {
	variants := make([]types.EnumerationVariant, len(stmt.EnumVariants))
	next := big.NewInt(0)
	for i, v := range stmt.EnumVariants {
		val := new(big.Int).Set(next)
		if v.Value != nil {
			folded, err := a.foldConstant(v.Value)
			if err != nil {
				return err
			}
			val = folded
		}
		variants[i] = types.EnumerationVariant{Name: v.Name, Value: val}
		next = new(big.Int).Add(val, big.NewInt(1))
	}
	t := &types.Type{Kind: types.Enumeration, Name: stmt.Name, Variants: variants}
	return a.arena.Declare(a.current, scope.Item{Kind: scope.ItemTypeAlias, Name: stmt.Name, Type: t})
}

// declareModule declares every item nested inside a `mod name { ... }`
// block into a child scope, reachable afterwards as `name::item`. A
// module body may not nest a fn: the analyzer's function table is flat,
// with no call-site syntax for a module-qualified function.
func (a *Analyzer) declareModule(stmt *ast.Statement) error {
	moduleScope := a.arena.Child(a.current)
	prevScope := a.current
	a.current = moduleScope
	for i := range stmt.ModuleBody {
		body := &stmt.ModuleBody[i]
		if body.Kind == ast.StmtFn {
			a.current = prevScope
			return diagnostics.NewSemanticError(diagnostics.TypeMismatch, body.Location, "functions nested inside a module are not supported")
		}
		if err := a.declareTopLevel(body); err != nil {
			a.current = prevScope
			return err
		}
	}
	a.current = prevScope
	return a.arena.Declare(a.current, scope.Item{Kind: scope.ItemModule, Name: stmt.ModuleName, ModuleScope: moduleScope})
}

// foldConstant evaluates expr, which must reduce entirely to literals
// and previously folded constants.
func (a *Analyzer) foldConstant(expr *ast.Expression) (*big.Int, error) {
	if expr == nil {
		return big.NewInt(0), nil
	}
	switch expr.Kind {
	case ast.ExprLiteralInteger:
		v := new(big.Int)
		base := 10
		if expr.IntIsHex {
			base = 16
		}
		v.SetString(expr.IntDigits, base)
		return v, nil
	case ast.ExprBinary:
		l, err := a.foldConstant(expr.Left)
		if err != nil {
			return nil, err
		}
		r, err := a.foldConstant(expr.Right)
		if err != nil {
			return nil, err
		}
		out := new(big.Int)
		switch expr.Operator {
		case ast.OpAdd:
			out.Add(l, r)
		case ast.OpSub:
			out.Sub(l, r)
		case ast.OpMul:
			out.Mul(l, r)
		default:
			return nil, diagnostics.NewSemanticError(diagnostics.NonConstantArraySize, expr.Location, "operator cannot be constant-folded")
		}
		return out, nil
	default:
		return nil, diagnostics.NewSemanticError(diagnostics.NonConstantArraySize, expr.Location, "expression is not a compile-time constant")
	}
}

func (a *Analyzer) resolveType(node *ast.TypeNode) (*types.Type, error) {
	if node == nil {
		return types.TypeUnit, nil
	}
	switch node.Variant.Kind {
	case ast.TypeUnit:
		return types.TypeUnit, nil
	case ast.TypeBool:
		return types.TypeBoolean, nil
	case ast.TypeIntegerUnsigned:
		return &types.Type{Kind: types.IntegerUnsigned, Bitlength: node.Variant.Bitlength}, nil
	case ast.TypeIntegerSigned:
		return &types.Type{Kind: types.IntegerSigned, Bitlength: node.Variant.Bitlength}, nil
	case ast.TypeField:
		return types.TypeField, nil
	case ast.TypeArray:
		elem, err := a.resolveType(node.Variant.Element)
		if err != nil {
			return nil, err
		}
		size, err := a.foldConstant(&node.Variant.Size)
		if err != nil {
			return nil, err
		}
		return &types.Type{Kind: types.Array, ArrayElement: elem, ArraySize: int(size.Int64())}, nil
	case ast.TypeTuple:
		elems := make([]*types.Type, len(node.Variant.Elements))
		for i, e := range node.Variant.Elements {
			t, err := a.resolveType(e)
			if err != nil {
				return nil, err
			}
			elems[i] = t
		}
		return &types.Type{Kind: types.Tuple, TupleElements: elems}, nil
	case ast.TypeNamed:
		name := ""
		if len(node.Variant.Name) > 0 {
			name = node.Variant.Name[len(node.Variant.Name)-1]
		}
		item, ok := a.arena.Resolve(a.current, name)
		if !ok || item.Type == nil {
			return nil, diagnostics.NewSemanticError(diagnostics.UndeclaredItem, node.Location, name)
		}
		return item.Type, nil
	default:
		return nil, diagnostics.NewSemanticError(diagnostics.CastToInvalidType, node.Location, "unsupported type annotation")
	}
}
