package analyzer

import (
	"zinc/internal/ast"
	"zinc/internal/bytecode"
	"zinc/internal/semantic/scope"
	"zinc/internal/semantic/types"
)

// lowerFunction compiles one fn declaration's parameters and body into
// its function record's instruction slice.
func (a *Analyzer) lowerFunction(stmt *ast.Statement) error {
	fn := a.functions[a.byName[stmt.Name]]
	fn.isMutable = !stmt.IsConstFn
	prevScope := a.current
	a.current = a.arena.Child(prevScope)
	prevCur := a.cur
	a.cur = fn
	defer func() { a.current = prevScope; a.cur = prevCur }()

	offset := 0
	for _, p := range stmt.Parameters {
		t, err := a.resolveType(p.Type)
		if err != nil {
			return err
		}
		if err := a.arena.Declare(a.current, scope.Item{
			Kind: scope.ItemVariable, Name: p.Pattern.Name, Type: t, Offset: offset, IsMutable: p.Pattern.IsMutable,
		}); err != nil {
			return err
		}
		offset++
	}
	fn.inputSize = offset

	result, err := a.lowerExpression(stmt.Body)
	if err != nil {
		return err
	}

	outputSize := types.FlattenedWidth(result.Type)
	a.emit(bytecode.Instruction{Op: bytecode.OpReturn, OutputSize: outputSize})
	fn.outputSize = outputSize
	return nil
}

// emit appends one instruction to the function currently being
// lowered.
func (a *Analyzer) emit(ins bytecode.Instruction) {
	a.cur.instrs = append(a.cur.instrs, ins)
}

// emitCall appends a Call instruction whose address is unresolved until
// every function's final address is known, recording it for a later
// patch pass.
func (a *Analyzer) emitCall(callee string, inputSize int) {
	idx := len(a.cur.instrs)
	a.emit(bytecode.Instruction{Op: bytecode.OpCall, InputSize: inputSize})
	a.callSites = append(a.callSites, callSite{funcIndex: a.byName[a.cur.name], instrIdx: idx, callee: callee})
}
