package ast

import "zinc/internal/source"

// StatementKind tags the alternative a Statement holds.
type StatementKind int

const (
	StmtLet StatementKind = iota
	StmtConst
	StmtTypeAlias
	StmtFn
	StmtFor
	StmtExpression
	StmtStruct
	StmtEnum
	StmtContract
	StmtModule
	StmtUse
)

// Binding is `pattern [: type]`.
type Binding struct {
	Pattern  Pattern
	Type     *TypeNode // nil if elided (inferred from the initializer)
	Location source.Location
}

// Statement is the tagged node for every statement/item production.
type Statement struct {
	Kind     StatementKind
	Location source.Location

	// Let / Const.
	Binding Binding
	Value   *Expression

	// TypeAlias.
	AliasName string
	AliasType *TypeNode

	// Fn.
	Name       string
	Parameters []Binding
	ReturnType *TypeNode
	Body       *Expression // a Block expression
	IsConstFn  bool
	IsTestFn   bool

	// For.
	LoopVariable string
	RangeStart   *Expression
	RangeEnd     *Expression
	RangeIsIncl  bool
	WhileCond    *Expression // optional `while` sub-condition, nil if absent

	// Expression statement.
	Expr *Expression

	// Struct / Enum / Contract.
	Fields        []FieldDecl
	EnumVariants  []EnumVariant
	IsPublic      bool

	// Module.
	ModuleName string
	ModuleBody []Statement

	// Use.
	UsePath []string
}

// FieldDecl is one field of a struct/contract declaration.
type FieldDecl struct {
	Name       string
	Type       *TypeNode
	IsPublic   bool
	IsExternal bool
	IsImplicit bool
}

// EnumVariant is one `Name = value` arm of an enum declaration.
type EnumVariant struct {
	Name  string
	Value *Expression // must fold to a constant
}

// Module is the root of a parsed compilation unit.
type Module struct {
	Name       string
	Statements []Statement
}
