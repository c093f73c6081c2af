package analyzer

import (
	"math/big"

	"zinc/internal/ast"
	"zinc/internal/bytecode"
	"zinc/internal/diagnostics"
	"zinc/internal/semantic/element"
	"zinc/internal/semantic/scope"
	"zinc/internal/semantic/types"
	"zinc/internal/source"
	"zinc/internal/stdlib"
)

// lowerExpression visits expr, emitting instructions into the function
// currently being lowered and returning the resulting element.
func (a *Analyzer) lowerExpression(expr *ast.Expression) (element.Element, error) {
	switch expr.Kind {
	case ast.ExprLiteralBoolean:
		a.emit(bytecode.PushBool(expr.BoolValue))
		return element.NewConstantBool(expr.BoolValue), nil
	case ast.ExprLiteralInteger:
		return a.lowerIntegerLiteral(expr)
	case ast.ExprIdentifier:
		return a.lowerIdentifier(expr)
	case ast.ExprBinary:
		return a.lowerBinary(expr)
	case ast.ExprUnary:
		return a.lowerUnary(expr)
	case ast.ExprBlock:
		return a.lowerBlock(expr)
	case ast.ExprConditional:
		return a.lowerConditional(expr)
	case ast.ExprCall:
		return a.lowerCall(expr)
	case ast.ExprIndex, ast.ExprField:
		place, err := a.resolvePlace(expr, true)
		if err != nil {
			return element.Element{}, err
		}
		return a.loadPlace(place, expr.Location)
	case ast.ExprPath:
		return a.lowerPath(expr)
	case ast.ExprTuple:
		return a.lowerTuple(expr)
	case ast.ExprArray:
		return a.lowerArray(expr)
	case ast.ExprStructure:
		return a.lowerStructure(expr)
	case ast.ExprMatch:
		return a.lowerMatch(expr)
	default:
		return element.Element{}, diagnostics.NewSemanticError(diagnostics.TypeMismatch, expr.Location, "expression form not supported by this lowering pass")
	}
}

func (a *Analyzer) lowerIntegerLiteral(expr *ast.Expression) (element.Element, error) {
	v := new(big.Int)
	base := 10
	if expr.IntIsHex {
		base = 16
	}
	if _, ok := v.SetString(expr.IntDigits, base); !ok {
		return element.Element{}, diagnostics.NewSemanticError(diagnostics.LiteralTooLarge, expr.Location, expr.IntDigits)
	}
	bits := types.MinimalUnsignedBitlength(v)
	var t *types.Type
	tag := bytecode.ScalarUnsigned
	if bits == 0 {
		if v.Cmp(types.FieldModulusLimit) >= 0 {
			return element.Element{}, diagnostics.NewSemanticError(diagnostics.LiteralTooLarge, expr.Location, expr.IntDigits)
		}
		t = types.TypeField
		tag = bytecode.ScalarField
		bits = types.FieldBitlength
	} else {
		t = &types.Type{Kind: types.IntegerUnsigned, Bitlength: bits}
	}
	a.emit(bytecode.Push(v, tag, bits))
	return element.NewConstantInt(v, t), nil
}

func (a *Analyzer) lowerIdentifier(expr *ast.Expression) (element.Element, error) {
	if val, ok := a.constValues[expr.Name]; ok {
		item, _ := a.arena.Resolve(a.current, expr.Name)
		bits := types.MinimalUnsignedBitlength(val)
		tag := bytecode.ScalarUnsigned
		if bits == 0 {
			bits = types.FieldBitlength
			tag = bytecode.ScalarField
		}
		a.emit(bytecode.Push(val, tag, bits))
		return element.NewConstantInt(val, item.Type), nil
	}
	item, ok := a.arena.Resolve(a.current, expr.Name)
	if !ok {
		return element.Element{}, diagnostics.NewSemanticError(diagnostics.UndeclaredItem, expr.Location, expr.Name)
	}
	sc := bytecode.ScopeLocal
	if item.IsGlobal {
		sc = bytecode.ScopeGlobal
	}
	a.emit(bytecode.Instruction{Op: bytecode.OpLoad, Scope: sc, Offset: item.Offset})
	place := element.Place{Name: expr.Name, IsGlobal: item.IsGlobal, IsMutable: item.IsMutable, Offset: item.Offset, Type: item.Type}
	return element.NewPlace(place), nil
}

func (a *Analyzer) lowerBinary(expr *ast.Expression) (element.Element, error) {
	if expr.Operator == ast.OpAssign {
		return a.lowerAssignment(expr)
	}
	if expr.Operator == ast.OpCast {
		return a.lowerCast(expr)
	}
	left, err := a.lowerExpression(expr.Left)
	if err != nil {
		return element.Element{}, err
	}
	right, err := a.lowerExpression(expr.Right)
	if err != nil {
		return element.Element{}, err
	}
	resultType, err := element.ResultType(expr.Operator, left.Type, right.Type, expr.Location)
	if err != nil {
		return element.Element{}, err
	}
	a.emit(bytecode.Instruction{Op: binaryOpcode(expr.Operator), Bitlength: types.Bitlength(left.Type)})
	return element.NewValue(resultType), nil
}

func binaryOpcode(op ast.Operator) bytecode.Opcode {
	switch op {
	case ast.OpAdd:
		return bytecode.OpAdd
	case ast.OpSub:
		return bytecode.OpSub
	case ast.OpMul:
		return bytecode.OpMul
	case ast.OpDiv:
		return bytecode.OpDiv
	case ast.OpRem:
		return bytecode.OpRem
	case ast.OpEq:
		return bytecode.OpEq
	case ast.OpNe:
		return bytecode.OpNe
	case ast.OpLt:
		return bytecode.OpLt
	case ast.OpLe:
		return bytecode.OpLe
	case ast.OpGt:
		return bytecode.OpGt
	case ast.OpGe:
		return bytecode.OpGe
	case ast.OpAnd:
		return bytecode.OpAnd
	case ast.OpOr:
		return bytecode.OpOr
	case ast.OpXor:
		return bytecode.OpXor
	case ast.OpBitAnd:
		return bytecode.OpBitAnd
	case ast.OpBitOr:
		return bytecode.OpBitOr
	case ast.OpBitXor:
		return bytecode.OpBitXor
	case ast.OpShiftLeft:
		return bytecode.OpShiftLeft
	case ast.OpShiftRight:
		return bytecode.OpShiftRight
	default:
		return bytecode.OpNoOp
	}
}

func (a *Analyzer) lowerUnary(expr *ast.Expression) (element.Element, error) {
	operand, err := a.lowerExpression(expr.Operand)
	if err != nil {
		return element.Element{}, err
	}
	op := expr.Operator
	if op == ast.OpNot && types.IsInteger(operand.Type) {
		op = ast.OpBitNot
	}
	resultType, err := element.UnaryResultType(op, operand.Type, expr.Location)
	if err != nil {
		return element.Element{}, err
	}
	switch op {
	case ast.OpNeg:
		a.emit(bytecode.Instruction{Op: bytecode.OpNeg})
	case ast.OpNot:
		a.emit(bytecode.Instruction{Op: bytecode.OpNot})
	case ast.OpBitNot:
		a.emit(bytecode.Instruction{Op: bytecode.OpBitNot, Bitlength: types.Bitlength(operand.Type)})
	}
	return element.NewValue(resultType), nil
}

// lowerAssignment handles `place = value` for an identifier, a field/
// tuple-index projection, a constant-indexed array element, or a
// contract storage path. Compound forms (+=, etc.) reach the analyzer
// as their own operators and are rejected by element.ResultType; they
// are not rewritten into a plain assignment.
func (a *Analyzer) lowerAssignment(expr *ast.Expression) (element.Element, error) {
	place, err := a.resolvePlace(expr.Left, false)
	if err != nil {
		return element.Element{}, err
	}
	if !place.IsMutable {
		return element.Element{}, diagnostics.NewSemanticError(diagnostics.MutationOfImmutable, expr.Location, place.Name)
	}
	return a.assignPlace(place, expr.Right, expr.Location)
}

// resolvePlace walks expr's access chain down to its root identifier or
// storage path, accumulating field/tuple/array projections as it
// unwinds. allowDynamic permits a runtime-computed array index, which
// is only safe for a read: see projectIndex.
func (a *Analyzer) resolvePlace(expr *ast.Expression, allowDynamic bool) (element.Place, error) {
	switch expr.Kind {
	case ast.ExprIdentifier:
		item, ok := a.arena.Resolve(a.current, expr.Name)
		if !ok {
			return element.Place{}, diagnostics.NewSemanticError(diagnostics.UndeclaredItem, expr.Location, expr.Name)
		}
		return element.Place{
			Name: expr.Name, IsGlobal: item.IsGlobal, IsMutable: item.IsMutable,
			IsStorage: item.IsStorage, Offset: item.Offset, Type: item.Type,
		}, nil
	case ast.ExprPath:
		return a.resolveStoragePlace(expr)
	case ast.ExprField:
		base, err := a.resolvePlace(expr.Left, allowDynamic)
		if err != nil {
			return element.Place{}, err
		}
		return a.projectField(base, expr)
	case ast.ExprIndex:
		base, err := a.resolvePlace(expr.Left, allowDynamic)
		if err != nil {
			return element.Place{}, err
		}
		return a.projectIndex(base, expr, allowDynamic)
	default:
		return element.Place{}, diagnostics.NewSemanticError(diagnostics.MutationOfImmutable, expr.Location, "expression is not an assignable place")
	}
}

// resolveStoragePlace resolves a qualified `Contract::field` path to the
// storage-backed place a contract declaration registered for it.
func (a *Analyzer) resolveStoragePlace(expr *ast.Expression) (element.Place, error) {
	item, err := a.arena.ResolvePath(a.current, expr.Path)
	if err != nil {
		return element.Place{}, diagnostics.NewSemanticError(diagnostics.UndeclaredItem, expr.Location, joinPath(expr.Path))
	}
	return element.Place{
		Name: joinPath(expr.Path), IsGlobal: true, IsMutable: item.IsMutable,
		IsStorage: item.IsStorage, Offset: item.Offset, Type: item.Type,
	}, nil
}

// projectField extends base by one `.field` or `.N` step. Field names
// index a Structure/Contract by declared field; a bare numeric suffix
// indexes a Tuple by position.
func (a *Analyzer) projectField(base element.Place, expr *ast.Expression) (element.Place, error) {
	t := types.Resolve(base.Type)
	if t == nil {
		return element.Place{}, diagnostics.NewSemanticError(diagnostics.WrongAccessorKind, expr.Location, "field access on an untyped place")
	}
	switch t.Kind {
	case types.Structure, types.Contract:
		if expr.Name == "" {
			return element.Place{}, diagnostics.NewSemanticError(diagnostics.WrongAccessorKind, expr.Location, "numeric field access requires a tuple operand")
		}
		offset := 0
		for i := range t.Fields {
			if t.Fields[i].Name == expr.Name {
				proj := element.Projection{
					Kind: element.ProjectField, FieldName: expr.Name, StaticOffset: offset, IsStatic: true,
					ElementType: t.Fields[i].Type, ElementCount: types.FlattenedWidth(t.Fields[i].Type),
				}
				return element.AppendProjection(base, proj), nil
			}
			offset += types.FlattenedWidth(t.Fields[i].Type)
		}
		return element.Place{}, diagnostics.NewSemanticError(diagnostics.UndeclaredItem, expr.Location, expr.Name)
	case types.Tuple:
		if expr.Name != "" {
			return element.Place{}, diagnostics.NewSemanticError(diagnostics.WrongAccessorKind, expr.Location, "named field access requires a struct or contract operand")
		}
		if expr.TupleIndex < 0 || expr.TupleIndex >= len(t.TupleElements) {
			return element.Place{}, diagnostics.NewSemanticError(diagnostics.OutOfRangeAccess, expr.Location, "tuple index out of range")
		}
		offset := 0
		for i := 0; i < expr.TupleIndex; i++ {
			offset += types.FlattenedWidth(t.TupleElements[i])
		}
		elemType := t.TupleElements[expr.TupleIndex]
		proj := element.Projection{
			Kind: element.ProjectTupleIndex, TupleIndex: expr.TupleIndex, StaticOffset: offset, IsStatic: true,
			ElementType: elemType, ElementCount: types.FlattenedWidth(elemType),
		}
		return element.AppendProjection(base, proj), nil
	default:
		return element.Place{}, diagnostics.NewSemanticError(diagnostics.IndexingPrimitive, expr.Location, "field access requires a struct, contract or tuple operand")
	}
}

// projectIndex extends base by one `[index]` step. A compile-time-
// constant index folds to a static offset the same way field access
// does. A runtime index is only accepted for a read (allowDynamic) and
// only once per access chain: the VM addresses at most one by-index
// offset per Load/Store, so `a[i][j]` with two non-constant indices is
// rejected rather than silently mis-addressed.
func (a *Analyzer) projectIndex(base element.Place, expr *ast.Expression, allowDynamic bool) (element.Place, error) {
	t := types.Resolve(base.Type)
	if t == nil || t.Kind != types.Array {
		return element.Place{}, diagnostics.NewSemanticError(diagnostics.IndexingPrimitive, expr.Location, "index access requires an array operand")
	}
	width := types.FlattenedWidth(t.ArrayElement)
	if idx, err := a.foldConstant(expr.Right); err == nil {
		i := int(idx.Int64())
		if i < 0 || i >= t.ArraySize {
			return element.Place{}, diagnostics.NewSemanticError(diagnostics.OutOfRangeAccess, expr.Location, "array index out of bounds")
		}
		proj := element.Projection{
			Kind: element.ProjectArrayIndex, StaticOffset: i * width, IsStatic: true,
			ElementType: t.ArrayElement, ElementCount: width,
		}
		return element.AppendProjection(base, proj), nil
	}
	if !allowDynamic {
		return element.Place{}, diagnostics.NewSemanticError(diagnostics.NonConstantArraySize, expr.Location, "assignment to an array element requires a compile-time-constant index")
	}
	if base.Dynamic {
		return element.Place{}, diagnostics.NewSemanticError(diagnostics.NonConstantArraySize, expr.Location, "at most one runtime-computed index is supported per access chain")
	}
	idxVal, err := a.lowerExpression(expr.Right)
	if err != nil {
		return element.Place{}, err
	}
	if !types.IsInteger(idxVal.Type) {
		return element.Place{}, diagnostics.NewSemanticError(diagnostics.TypeMismatch, expr.Location, "array index must be an integer")
	}
	if width > 1 {
		a.emit(bytecode.Push(big.NewInt(int64(width)), bytecode.ScalarUnsigned, types.FieldBitlength))
		a.emit(bytecode.Instruction{Op: bytecode.OpMul})
	}
	return element.AppendDynamicProjection(base, t.ArrayElement, width), nil
}

// loadPlace emits the Load/StorageLoad needed to push place's current
// value. Aggregate-typed contract storage fields are not supported:
// only a scalar field, the only shape the S6-style storage scenarios in
// the language need, can be read this way.
func (a *Analyzer) loadPlace(place element.Place, loc source.Location) (element.Element, error) {
	width := types.FlattenedWidth(place.Type)
	if place.IsStorage {
		if width != 1 {
			return element.Element{}, diagnostics.NewSemanticError(diagnostics.TypeMismatch, loc, "only scalar contract storage fields can be read")
		}
		a.emit(bytecode.Push(big.NewInt(int64(place.Offset)), bytecode.ScalarUnsigned, types.FieldBitlength))
		a.emit(bytecode.Instruction{Op: bytecode.OpStorageLoad, StorageAddr: place.Offset, StorageSize: 1})
		return element.NewPlace(place), nil
	}
	sc := bytecode.ScopeLocal
	if place.IsGlobal {
		sc = bytecode.ScopeGlobal
	}
	ins := bytecode.Instruction{Op: bytecode.OpLoad, Scope: sc, Offset: place.Offset}
	if place.Dynamic {
		ins.Addressing = bytecode.AddressingByIndex
	}
	if width > 1 {
		ins.Shape = bytecode.ShapeSequence
		ins.Count = width
	}
	a.emit(ins)
	return element.NewPlace(place), nil
}

// assignPlace lowers rhsExpr and stores it into place. A storage
// field's index is pushed before the value so it ends up beneath it on
// the evaluation stack, matching OpStorageStore's pop order (value,
// then index); a dynamic (by-index) place is never reached here since
// resolvePlace is always called with allowDynamic=false for an
// assignment target.
func (a *Analyzer) assignPlace(place element.Place, rhsExpr *ast.Expression, loc source.Location) (element.Element, error) {
	width := types.FlattenedWidth(place.Type)
	if place.IsStorage && width != 1 {
		return element.Element{}, diagnostics.NewSemanticError(diagnostics.TypeMismatch, loc, "only scalar contract storage fields can be written")
	}
	if place.IsStorage {
		a.emit(bytecode.Push(big.NewInt(int64(place.Offset)), bytecode.ScalarUnsigned, types.FieldBitlength))
	}
	value, err := a.lowerExpression(rhsExpr)
	if err != nil {
		return element.Element{}, err
	}
	if !types.Equal(place.Type, value.Type) {
		return element.Element{}, diagnostics.NewSemanticError(diagnostics.TypeMismatch, loc, "assignment type mismatch")
	}
	if place.IsStorage {
		a.emit(bytecode.Instruction{Op: bytecode.OpStorageStore, StorageAddr: place.Offset, StorageSize: 1})
		return element.NewValue(value.Type), nil
	}
	ins := bytecode.Instruction{Op: bytecode.OpStore, Offset: place.Offset}
	if place.IsGlobal {
		ins.Scope = bytecode.ScopeGlobal
	}
	if width > 1 {
		ins.Shape = bytecode.ShapeSequence
		ins.Count = width
	}
	a.emit(ins)
	return element.NewValue(value.Type), nil
}

// lowerCast implements the `as` operator: the cast is legal only when
// CanCast permits it, and since casting is widening-only the VM's
// execCast needs no value transformation, only a range check against
// the wider width and a type relabel.
func (a *Analyzer) lowerCast(expr *ast.Expression) (element.Element, error) {
	operand, err := a.lowerExpression(expr.Left)
	if err != nil {
		return element.Element{}, err
	}
	target, err := a.resolveType(expr.Right.TypeNode)
	if err != nil {
		return element.Element{}, err
	}
	if !types.CanCast(operand.Type, target) {
		return element.Element{}, diagnostics.NewSemanticError(diagnostics.CastToInvalidType, expr.Location,
			"cannot cast "+operand.Type.String()+" to "+target.String())
	}
	ins := bytecode.Instruction{Op: bytecode.OpCast, TargetBitlength: types.Bitlength(target)}
	switch types.Resolve(target).Kind {
	case types.Field:
		ins.TargetIsField = true
	case types.IntegerSigned:
		ins.TargetSigned = true
	}
	a.emit(ins)
	return element.NewValue(target), nil
}

// lowerPath lowers a bare `a::b::c` expression: either a qualified
// enum variant constant, or a load off a contract's storage namespace.
func (a *Analyzer) lowerPath(expr *ast.Expression) (element.Element, error) {
	if variant, ok, err := a.tryEnumVariant(expr); err != nil {
		return element.Element{}, err
	} else if ok {
		return variant, nil
	}
	place, err := a.resolveStoragePlace(expr)
	if err != nil {
		return element.Element{}, err
	}
	return a.loadPlace(place, expr.Location)
}

// tryEnumVariant recognizes a two-segment path naming an enum variant
// and pushes its constant value; any other shape returns ok=false so
// the caller falls through to storage-path resolution.
func (a *Analyzer) tryEnumVariant(expr *ast.Expression) (element.Element, bool, error) {
	if len(expr.Path) != 2 {
		return element.Element{}, false, nil
	}
	item, ok := a.arena.Resolve(a.current, expr.Path[0])
	if !ok || item.Type == nil {
		return element.Element{}, false, nil
	}
	enumType := types.Resolve(item.Type)
	if enumType == nil || enumType.Kind != types.Enumeration {
		return element.Element{}, false, nil
	}
	for _, v := range enumType.Variants {
		if v.Name == expr.Path[1] {
			bits := types.MinimalUnsignedBitlength(v.Value)
			tag := bytecode.ScalarUnsigned
			if bits == 0 {
				bits = types.FieldBitlength
				tag = bytecode.ScalarField
			}
			a.emit(bytecode.Push(v.Value, tag, bits))
			return element.NewConstantInt(v.Value, item.Type), true, nil
		}
	}
	return element.Element{}, false, diagnostics.NewSemanticError(diagnostics.UndeclaredItem, expr.Location, joinPath(expr.Path))
}

// lowerTuple lowers a tuple literal's elements in declared order; an
// empty Elements slice is the unit value `()`.
func (a *Analyzer) lowerTuple(expr *ast.Expression) (element.Element, error) {
	if len(expr.Elements) == 0 {
		return element.NewValue(types.TypeUnit), nil
	}
	elemTypes := make([]*types.Type, len(expr.Elements))
	for i, el := range expr.Elements {
		v, err := a.lowerExpression(el)
		if err != nil {
			return element.Element{}, err
		}
		elemTypes[i] = v.Type
	}
	return element.NewValue(&types.Type{Kind: types.Tuple, TupleElements: elemTypes}), nil
}

// lowerArray lowers an array literal `[a, b, c]` or a repeat-form
// literal `[value; size]`, whose size must fold to a compile-time
// constant. The repeat form re-lowers the fill expression once per
// slot, unrolled at compile time like the rest of this pass's
// constant-bound constructs.
func (a *Analyzer) lowerArray(expr *ast.Expression) (element.Element, error) {
	if expr.ArraySize != nil {
		size, err := a.foldConstant(expr.ArraySize)
		if err != nil {
			return element.Element{}, diagnostics.NewSemanticError(diagnostics.NonConstantArraySize, expr.Location, "array repeat size must be constant")
		}
		n := int(size.Int64())
		if n < 0 || len(expr.Elements) != 1 {
			return element.Element{}, diagnostics.NewSemanticError(diagnostics.TypeMismatch, expr.Location, "array repeat form needs a non-negative size and exactly one fill value")
		}
		var elemType *types.Type
		for i := 0; i < n; i++ {
			v, err := a.lowerExpression(expr.Elements[0])
			if err != nil {
				return element.Element{}, err
			}
			elemType = v.Type
		}
		return element.NewValue(&types.Type{Kind: types.Array, ArrayElement: elemType, ArraySize: n}), nil
	}
	var elemType *types.Type
	for _, el := range expr.Elements {
		v, err := a.lowerExpression(el)
		if err != nil {
			return element.Element{}, err
		}
		if elemType != nil && !types.Equal(elemType, v.Type) {
			return element.Element{}, diagnostics.NewSemanticError(diagnostics.TypeMismatch, expr.Location, "array elements must share the same type")
		}
		elemType = v.Type
	}
	return element.NewValue(&types.Type{Kind: types.Array, ArrayElement: elemType, ArraySize: len(expr.Elements)}), nil
}

// lowerStructure lowers a `Name { field: value, ... }` literal,
// re-ordering the written fields to the struct's declared field order
// so the emitted values land at the offsets projectField computed for
// that declaration.
func (a *Analyzer) lowerStructure(expr *ast.Expression) (element.Element, error) {
	name := ""
	switch expr.Left.Kind {
	case ast.ExprIdentifier:
		name = expr.Left.Name
	case ast.ExprPath:
		name = expr.Left.Path[len(expr.Left.Path)-1]
	default:
		return element.Element{}, diagnostics.NewSemanticError(diagnostics.TypeMismatch, expr.Location, "structure literal requires a named type")
	}
	item, ok := a.arena.Resolve(a.current, name)
	if !ok || item.Type == nil || types.Resolve(item.Type).Kind != types.Structure {
		return element.Element{}, diagnostics.NewSemanticError(diagnostics.UndeclaredItem, expr.Location, name)
	}
	structType := types.Resolve(item.Type)
	for _, field := range structType.Fields {
		idx := -1
		for i, fname := range expr.FieldNames {
			if fname == field.Name {
				idx = i
				break
			}
		}
		if idx < 0 {
			return element.Element{}, diagnostics.NewSemanticError(diagnostics.TypeMismatch, expr.Location, "missing field "+field.Name+" in structure literal")
		}
		v, err := a.lowerExpression(expr.Elements[idx])
		if err != nil {
			return element.Element{}, err
		}
		if !types.Equal(field.Type, v.Type) {
			return element.Element{}, diagnostics.NewSemanticError(diagnostics.TypeMismatch, expr.Location, "field "+field.Name+" type mismatch")
		}
	}
	return element.NewValue(item.Type), nil
}

// lowerMatch desugars `match scrutinee { pattern => expr, ... }` into a
// linear if/else-if chain keyed on equality against the scrutinee,
// stored once into a fresh local so it is only evaluated a single time.
// Only literal, identifier-binding and wildcard patterns are supported;
// tuple/structure destructuring patterns are not. Exhaustiveness is
// enforced statically by requiring the final arm be `_` or a binding.
func (a *Analyzer) lowerMatch(expr *ast.Expression) (element.Element, error) {
	scrut, err := a.lowerExpression(expr.Condition)
	if err != nil {
		return element.Element{}, err
	}
	tmpOffset := a.cur.nextLocalSlot()
	a.emit(bytecode.Instruction{Op: bytecode.OpStore, Scope: bytecode.ScopeLocal, Offset: tmpOffset})
	return a.lowerMatchArm(expr.Branches, 0, tmpOffset, scrut.Type, expr.Location)
}

func (a *Analyzer) lowerMatchArm(arms []ast.MatchArm, i int, scrutOffset int, scrutType *types.Type, loc source.Location) (element.Element, error) {
	if i >= len(arms) {
		return element.Element{}, diagnostics.NewSemanticError(diagnostics.TypeMismatch, loc, "match expression is not exhaustive: the last arm must be `_` or a variable binding")
	}
	arm := arms[i]
	switch arm.Pattern.Kind {
	case ast.PatternWildcard:
		return a.lowerExpression(arm.Expression)
	case ast.PatternIdentifier:
		prevScope := a.current
		a.current = a.arena.Child(prevScope)
		if err := a.arena.Declare(a.current, scope.Item{
			Kind: scope.ItemVariable, Name: arm.Pattern.Name, Type: scrutType, Offset: scrutOffset, IsMutable: arm.Pattern.IsMutable,
		}); err != nil {
			a.current = prevScope
			return element.Element{}, err
		}
		val, err := a.lowerExpression(arm.Expression)
		a.current = prevScope
		return val, err
	case ast.PatternLiteral:
		a.emit(bytecode.Instruction{Op: bytecode.OpLoad, Scope: bytecode.ScopeLocal, Offset: scrutOffset})
		lit, err := a.lowerExpression(arm.Pattern.Literal)
		if err != nil {
			return element.Element{}, err
		}
		if !types.Equal(scrutType, lit.Type) {
			return element.Element{}, diagnostics.NewSemanticError(diagnostics.TypeMismatch, arm.Pattern.Location, "match arm type mismatch")
		}
		a.emit(bytecode.Instruction{Op: bytecode.OpEq})
		a.emit(bytecode.Instruction{Op: bytecode.OpIf})
		thenVal, err := a.lowerExpression(arm.Expression)
		if err != nil {
			return element.Element{}, err
		}
		merge := bytecode.Instruction{Op: bytecode.OpStore, Scope: bytecode.ScopeLocal, Shape: bytecode.ShapeSequence, Count: types.FlattenedWidth(thenVal.Type)}
		if merge.Count > 0 {
			merge.Offset = a.cur.nextLocalSlot()
			a.cur.localCount += merge.Count - 1
			a.emit(merge)
		}
		a.emit(bytecode.Instruction{Op: bytecode.OpElse})
		elseVal, err := a.lowerMatchArm(arms, i+1, scrutOffset, scrutType, loc)
		if err != nil {
			return element.Element{}, err
		}
		if !types.Equal(thenVal.Type, elseVal.Type) {
			return element.Element{}, diagnostics.NewSemanticError(diagnostics.TypeMismatch, arm.Expression.Location, "match arms must share the same type")
		}
		if merge.Count > 0 {
			a.emit(merge)
		}
		a.emit(bytecode.Instruction{Op: bytecode.OpEndIf})
		if merge.Count > 0 {
			merge.Op = bytecode.OpLoad
			a.emit(merge)
		}
		return element.NewValue(thenVal.Type), nil
	default:
		return element.Element{}, diagnostics.NewSemanticError(diagnostics.TypeMismatch, arm.Pattern.Location, "tuple/structure destructuring in match arms is not supported")
	}
}

// lowerBlock compiles a sequence of statements followed by an optional
// tail expression, whose value becomes the block's result.
func (a *Analyzer) lowerBlock(expr *ast.Expression) (element.Element, error) {
	prevScope := a.current
	a.current = a.arena.Child(prevScope)
	defer func() { a.current = prevScope }()

	for i := range expr.Statements {
		if err := a.lowerStatement(&expr.Statements[i]); err != nil {
			return element.Element{}, err
		}
	}
	if expr.Tail != nil {
		return a.lowerExpression(expr.Tail)
	}
	return element.NewValue(types.TypeUnit), nil
}

func (a *Analyzer) lowerStatement(stmt *ast.Statement) error {
	switch stmt.Kind {
	case ast.StmtLet:
		return a.lowerLet(stmt)
	case ast.StmtExpression:
		_, err := a.lowerExpression(stmt.Expr)
		return err
	case ast.StmtFor:
		return a.lowerFor(stmt)
	case ast.StmtConst, ast.StmtTypeAlias, ast.StmtStruct, ast.StmtEnum, ast.StmtContract, ast.StmtModule, ast.StmtUse:
		return a.declareTopLevel(stmt)
	case ast.StmtFn:
		return diagnostics.NewSemanticError(diagnostics.TypeMismatch, stmt.Location, "nested function declarations are not supported")
	default:
		return diagnostics.NewSemanticError(diagnostics.TypeMismatch, stmt.Location, "statement form not supported by this lowering pass")
	}
}

func (a *Analyzer) lowerLet(stmt *ast.Statement) error {
	value, err := a.lowerExpression(stmt.Value)
	if err != nil {
		return err
	}
	declaredType := value.Type
	if stmt.Binding.Type != nil {
		declaredType, err = a.resolveType(stmt.Binding.Type)
		if err != nil {
			return err
		}
	}
	offset := a.cur.nextLocalSlot()
	if err := a.arena.Declare(a.current, scope.Item{
		Kind: scope.ItemVariable, Name: stmt.Binding.Pattern.Name, Type: declaredType, Offset: offset, IsMutable: stmt.Binding.Pattern.IsMutable,
	}); err != nil {
		return err
	}
	a.emit(bytecode.Instruction{Op: bytecode.OpStore, Scope: bytecode.ScopeLocal, Offset: offset})
	return nil
}

// lowerFor compiles a `for i in start..end { body }` loop with a
// compile-time-constant bound into LoopBegin/LoopEnd with an explicit
// loop-variable increment each pass, per the VM's bounded-iteration
// semantics.
func (a *Analyzer) lowerFor(stmt *ast.Statement) error {
	start, err := a.foldConstant(stmt.RangeStart)
	if err != nil {
		return diagnostics.NewSemanticError(diagnostics.NonConstantLoopBound, stmt.Location, "loop start must be constant")
	}
	end, err := a.foldConstant(stmt.RangeEnd)
	if err != nil {
		return diagnostics.NewSemanticError(diagnostics.NonConstantLoopBound, stmt.Location, "loop end must be constant")
	}
	count := new(big.Int).Sub(end, start)
	if stmt.RangeIsIncl {
		count.Add(count, big.NewInt(1))
	}
	iterations := int(count.Int64())
	if iterations < 0 {
		iterations = 0
	}

	prevScope := a.current
	a.current = a.arena.Child(prevScope)
	defer func() { a.current = prevScope }()

	varOffset := a.cur.nextLocalSlot()
	bitlength := types.MinimalUnsignedBitlength(end)
	if bitlength == 0 {
		bitlength = types.FieldBitlength
	}
	varType := &types.Type{Kind: types.IntegerUnsigned, Bitlength: bitlength}
	if err := a.arena.Declare(a.current, scope.Item{
		Kind: scope.ItemVariable, Name: stmt.LoopVariable, Type: varType, Offset: varOffset,
	}); err != nil {
		return err
	}

	a.emit(bytecode.Push(start, bytecode.ScalarUnsigned, bitlength))
	a.emit(bytecode.Instruction{Op: bytecode.OpStore, Scope: bytecode.ScopeLocal, Offset: varOffset})
	a.emit(bytecode.Instruction{Op: bytecode.OpLoopBegin, Iterations: iterations})

	if _, err := a.lowerExpression(stmt.Body); err != nil {
		return err
	}

	a.emit(bytecode.Instruction{Op: bytecode.OpLoad, Scope: bytecode.ScopeLocal, Offset: varOffset})
	a.emit(bytecode.Push(big.NewInt(1), bytecode.ScalarUnsigned, bitlength))
	a.emit(bytecode.Instruction{Op: bytecode.OpAdd})
	a.emit(bytecode.Instruction{Op: bytecode.OpStore, Scope: bytecode.ScopeLocal, Offset: varOffset})
	a.emit(bytecode.Instruction{Op: bytecode.OpLoopEnd})
	return nil
}

// lowerConditional compiles `if cond { then } else { else }` using the
// VM's If/Else/EndIf branch-merge instructions; both arms execute with
// their stores masked by the active condition, and the expression's
// value is whichever arm's tail was live.
func (a *Analyzer) lowerConditional(expr *ast.Expression) (element.Element, error) {
	cond, err := a.lowerExpression(expr.Condition)
	if err != nil {
		return element.Element{}, err
	}
	if cond.Type == nil || cond.Type.Kind != types.Boolean {
		return element.Element{}, diagnostics.NewSemanticError(diagnostics.TypeMismatch, expr.Location, "if condition must be bool")
	}
	a.emit(bytecode.Instruction{Op: bytecode.OpIf})
	thenVal, err := a.lowerExpression(expr.ThenBranch)
	if err != nil {
		return element.Element{}, err
	}
	merge := bytecode.Instruction{Op: bytecode.OpStore, Scope: bytecode.ScopeLocal, Shape: bytecode.ShapeSequence}
	if expr.ElseBranch != nil && types.FlattenedWidth(thenVal.Type) > 0 {
		merge.Count = types.FlattenedWidth(thenVal.Type)
		merge.Offset = a.cur.nextLocalSlot()
		a.cur.localCount += merge.Count - 1
		a.emit(merge)
	}
	if expr.ElseBranch != nil {
		a.emit(bytecode.Instruction{Op: bytecode.OpElse})
		if _, err := a.lowerExpression(expr.ElseBranch); err != nil {
			return element.Element{}, err
		}
		if merge.Count > 0 {
			a.emit(merge)
		}
	}
	a.emit(bytecode.Instruction{Op: bytecode.OpEndIf})
	if merge.Count > 0 {
		merge.Op = bytecode.OpLoad
		a.emit(merge)
	}
	return element.NewValue(thenVal.Type), nil
}

// lowerCall handles the `dbg!`/`require!` intrinsics, `std::...`
// library functions resolved through the stdlib manifest, and
// dispatches every other callee to a user-defined function.
func (a *Analyzer) lowerCall(expr *ast.Expression) (element.Element, error) {
	if expr.Left.Kind == ast.ExprPath {
		return a.lowerLibraryCall(expr, expr.Left.Path)
	}
	if expr.Left.Kind != ast.ExprIdentifier {
		return element.Element{}, diagnostics.NewSemanticError(diagnostics.TypeMismatch, expr.Location, "call target must be a function name")
	}
	name := expr.Left.Name
	switch name {
	case "dbg":
		for _, arg := range expr.Elements {
			if _, err := a.lowerExpression(arg); err != nil {
				return element.Element{}, err
			}
			a.emit(bytecode.Instruction{Op: bytecode.OpPop})
		}
		a.emit(bytecode.Instruction{Op: bytecode.OpDbg, IsDebug: true})
		return element.NewValue(types.TypeUnit), nil
	case "require":
		if len(expr.Elements) == 0 {
			return element.Element{}, diagnostics.NewSemanticError(diagnostics.TypeMismatch, expr.Location, "require! needs a condition argument")
		}
		cond, err := a.lowerExpression(expr.Elements[0])
		if err != nil {
			return element.Element{}, err
		}
		if cond.Type == nil || cond.Type.Kind != types.Boolean {
			return element.Element{}, diagnostics.NewSemanticError(diagnostics.TypeMismatch, expr.Location, "require! condition must be bool")
		}
		message := ""
		if len(expr.Elements) > 1 && expr.Elements[1].Kind == ast.ExprLiteralString {
			message = string(expr.Elements[1].StringValue)
		}
		a.emit(bytecode.Instruction{Op: bytecode.OpRequire, Message: message})
		return element.NewValue(types.TypeUnit), nil
	default:
		idx, ok := a.byName[name]
		if !ok {
			return element.Element{}, diagnostics.NewSemanticError(diagnostics.UndeclaredItem, expr.Location, name)
		}
		for _, arg := range expr.Elements {
			if _, err := a.lowerExpression(arg); err != nil {
				return element.Element{}, err
			}
		}
		callee := a.functions[idx]
		a.emitCall(name, len(expr.Elements))
		if callee.returnType == nil {
			return element.NewValue(types.TypeUnit), nil
		}
		return element.NewValue(callee.returnType), nil
	}
}

// lowerLibraryCall resolves a `std::...` path through the stdlib
// manifest and emits a single CallLibrary instruction carrying the
// matched function's id, the call site's actual argument count and
// the manifest's declared output arity.
func (a *Analyzer) lowerLibraryCall(expr *ast.Expression, path []string) (element.Element, error) {
	fn, ok := stdlib.Lookup(path)
	if !ok {
		return element.Element{}, diagnostics.NewSemanticError(diagnostics.UndeclaredItem, expr.Location, joinPath(path))
	}

	switch fn.ID {
	case stdlib.ConvertToBits:
		return a.lowerToBits(expr, fn)
	case stdlib.ArrayReverse:
		return a.lowerArrayReverse(expr, fn)
	case stdlib.ArrayTruncate:
		return a.lowerArrayTruncate(expr, fn)
	case stdlib.ArrayPad:
		return a.lowerArrayPad(expr, fn)
	}

	if fn.InputArity >= 0 && len(expr.Elements) != fn.InputArity {
		return element.Element{}, diagnostics.NewSemanticError(diagnostics.TypeMismatch, expr.Location, joinPath(path)+" called with the wrong number of arguments")
	}
	for _, arg := range expr.Elements {
		if _, err := a.lowerExpression(arg); err != nil {
			return element.Element{}, err
		}
	}
	a.emit(bytecode.Instruction{
		Op: bytecode.OpCallLibrary, LibraryID: int(fn.ID), InputSize: len(expr.Elements), OutputSize: fn.OutputArity,
	})
	if fn.Return == nil {
		return element.NewValue(types.TypeUnit), nil
	}
	return element.NewValue(fn.Return), nil
}

// lowerToBits special-cases `std::convert::to_bits`: its output arity is
// the operand's own bit width, known only once the operand has been
// lowered, rather than a manifest constant.
func (a *Analyzer) lowerToBits(expr *ast.Expression, fn stdlib.Function) (element.Element, error) {
	if len(expr.Elements) != 1 {
		return element.Element{}, diagnostics.NewSemanticError(diagnostics.TypeMismatch, expr.Location, "to_bits takes exactly one argument")
	}
	operand, err := a.lowerExpression(expr.Elements[0])
	if err != nil {
		return element.Element{}, err
	}
	bits := types.Bitlength(operand.Type)
	a.emit(bytecode.Instruction{Op: bytecode.OpCallLibrary, LibraryID: int(fn.ID), InputSize: 1, OutputSize: bits})
	return element.NewValue(&types.Type{Kind: types.Array, ArrayElement: types.TypeBoolean, ArraySize: bits}), nil
}

// lowerArrayReverse lowers every element and emits a CallLibrary whose
// input and output sizes both equal the call's own argument count.
func (a *Analyzer) lowerArrayReverse(expr *ast.Expression, fn stdlib.Function) (element.Element, error) {
	for _, arg := range expr.Elements {
		if _, err := a.lowerExpression(arg); err != nil {
			return element.Element{}, err
		}
	}
	n := len(expr.Elements)
	a.emit(bytecode.Instruction{Op: bytecode.OpCallLibrary, LibraryID: int(fn.ID), InputSize: n, OutputSize: n})
	return element.NewValue(&types.Type{Kind: types.Array, ArraySize: n}), nil
}

// lowerArrayTruncate lowers `array::truncate(elements..., new_size)`:
// the trailing argument must fold to a compile-time constant giving the
// output arity, and is consumed at compile time rather than pushed.
func (a *Analyzer) lowerArrayTruncate(expr *ast.Expression, fn stdlib.Function) (element.Element, error) {
	if len(expr.Elements) < 1 {
		return element.Element{}, diagnostics.NewSemanticError(diagnostics.TypeMismatch, expr.Location, "array::truncate needs a size argument")
	}
	sizeExpr := expr.Elements[len(expr.Elements)-1]
	size, err := a.foldConstant(sizeExpr)
	if err != nil {
		return element.Element{}, diagnostics.NewSemanticError(diagnostics.NonConstantArraySize, sizeExpr.Location, "array::truncate size must be constant")
	}
	for _, arg := range expr.Elements[:len(expr.Elements)-1] {
		if _, err := a.lowerExpression(arg); err != nil {
			return element.Element{}, err
		}
	}
	n := int(size.Int64())
	a.emit(bytecode.Instruction{Op: bytecode.OpCallLibrary, LibraryID: int(fn.ID), InputSize: len(expr.Elements) - 1, OutputSize: n})
	return element.NewValue(&types.Type{Kind: types.Array, ArraySize: n}), nil
}

// lowerArrayPad lowers `array::pad(elements..., new_size, fill_value)`:
// new_size folds to a compile-time constant; fill_value is an ordinary
// expression pushed after the array elements for the gadget to
// replicate into the newly added slots.
func (a *Analyzer) lowerArrayPad(expr *ast.Expression, fn stdlib.Function) (element.Element, error) {
	if len(expr.Elements) < 2 {
		return element.Element{}, diagnostics.NewSemanticError(diagnostics.TypeMismatch, expr.Location, "array::pad needs a size and a fill value")
	}
	sizeExpr := expr.Elements[len(expr.Elements)-2]
	fillExpr := expr.Elements[len(expr.Elements)-1]
	size, err := a.foldConstant(sizeExpr)
	if err != nil {
		return element.Element{}, diagnostics.NewSemanticError(diagnostics.NonConstantArraySize, sizeExpr.Location, "array::pad size must be constant")
	}
	for _, arg := range expr.Elements[:len(expr.Elements)-2] {
		if _, err := a.lowerExpression(arg); err != nil {
			return element.Element{}, err
		}
	}
	if _, err := a.lowerExpression(fillExpr); err != nil {
		return element.Element{}, err
	}
	n := int(size.Int64())
	a.emit(bytecode.Instruction{
		Op: bytecode.OpCallLibrary, LibraryID: int(fn.ID), InputSize: len(expr.Elements) - 1, OutputSize: n,
	})
	return element.NewValue(&types.Type{Kind: types.Array, ArraySize: n}), nil
}

func joinPath(path []string) string {
	out := ""
	for i, seg := range path {
		if i > 0 {
			out += "::"
		}
		out += seg
	}
	return out
}
