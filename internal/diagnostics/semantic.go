package diagnostics

import "zinc/internal/source"

// SemanticKind enumerates the ways the analyzer can reject a program.
type SemanticKind int

const (
	UndeclaredItem SemanticKind = iota
	RedeclaredItem
	TypeMismatch
	MutationOfImmutable
	IndexingPrimitive
	OutOfRangeAccess
	WrongAccessorKind
	LiteralTooLarge
	DivisionByZero
	RemainderByZero
	RemainderOnField
	CastToLesserOrEqualBitlength
	CastToInvalidType
	NonConstantLoopBound
	NonConstantArraySize
	StringLiteralNotAllowed
)

var semanticKindNames = map[SemanticKind]string{
	UndeclaredItem:               "undeclared item",
	RedeclaredItem:               "redeclared item",
	TypeMismatch:                 "type mismatch",
	MutationOfImmutable:          "mutation of an immutable place",
	IndexingPrimitive:            "indexing a primitive type",
	OutOfRangeAccess:             "out-of-range access",
	WrongAccessorKind:            "wrong accessor kind",
	LiteralTooLarge:              "literal too large for its bitlength or the field",
	DivisionByZero:               "division by zero",
	RemainderByZero:              "remainder by zero",
	RemainderOnField:             "remainder is forbidden on Field",
	CastToLesserOrEqualBitlength: "cast to a lesser-or-equal bitlength",
	CastToInvalidType:            "cast to an invalid type",
	NonConstantLoopBound:         "non-constant loop bound",
	NonConstantArraySize:         "non-constant array size",
	StringLiteralNotAllowed:      "string literal not allowed outside dbg!/require! messages",
}

func (k SemanticKind) String() string {
	if s, ok := semanticKindNames[k]; ok {
		return s
	}
	return "semantic error"
}

// SemanticError is raised by the scope/resolution, type-checking or
// lowering stages.
type SemanticError struct {
	Kind   SemanticKind
	Loc    source.Location
	Detail string
}

func (e *SemanticError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Detail
}

func (e *SemanticError) Phase() Phase              { return PhaseSemantic }
func (e *SemanticError) Location() source.Location { return e.Loc }

func NewSemanticError(kind SemanticKind, loc source.Location, detail string) *SemanticError {
	return &SemanticError{Kind: kind, Loc: loc, Detail: detail}
}
