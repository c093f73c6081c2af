package parser

import (
	"testing"

	"zinc/internal/ast"
)

// TestParseAccessChain covers seed scenario S2: `a.b[2].c;` parses to
// Field(Dot) over Index over Field(Dot) over identifier `a`.
func TestParseAccessChain(t *testing.T) {
	module, err := Parse("s2.zn", []byte("a.b[2].c;"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(module.Statements) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(module.Statements))
	}
	stmt := module.Statements[0]
	if stmt.Kind != ast.StmtExpression {
		t.Fatalf("expected expression statement, got %v", stmt.Kind)
	}

	// outermost: Field `.c`
	outer := stmt.Expr
	if outer.Kind != ast.ExprField || outer.Name != "c" {
		t.Fatalf("outer: expected Field(c), got kind=%v name=%q", outer.Kind, outer.Name)
	}

	// next: Index `[2]`
	index := outer.Left
	if index.Kind != ast.ExprIndex {
		t.Fatalf("expected Index, got %v", index.Kind)
	}
	if index.Right.Kind != ast.ExprLiteralInteger || index.Right.IntDigits != "2" {
		t.Fatalf("expected index literal 2, got %+v", index.Right)
	}

	// next: Field `.b`
	fieldB := index.Left
	if fieldB.Kind != ast.ExprField || fieldB.Name != "b" {
		t.Fatalf("expected Field(b), got kind=%v name=%q", fieldB.Kind, fieldB.Name)
	}

	// innermost: identifier `a`
	base := fieldB.Left
	if base.Kind != ast.ExprIdentifier || base.Name != "a" {
		t.Fatalf("expected Identifier(a), got kind=%v name=%q", base.Kind, base.Name)
	}
}

func TestParseLetAndFor(t *testing.T) {
	src := `
let mut x: u8 = 1;
for i in 0..=4 {
    x = x + 1;
}
`
	module, err := Parse("loop.zn", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(module.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(module.Statements))
	}
	if module.Statements[0].Kind != ast.StmtLet {
		t.Fatalf("expected let statement first")
	}
	forStmt := module.Statements[1]
	if forStmt.Kind != ast.StmtFor {
		t.Fatalf("expected for statement second, got %v", forStmt.Kind)
	}
	if !forStmt.RangeIsIncl {
		t.Fatalf("expected inclusive range")
	}
	if forStmt.Body == nil || forStmt.Body.Kind != ast.ExprBlock {
		t.Fatalf("expected block body")
	}
}

func TestParseStructureLiteralAndConditional(t *testing.T) {
	src := `
let p = Point { x: 1, y: 2 };
let r = if p.x == 1 { 10 } else { 20 };
`
	module, err := Parse("struct.zn", []byte(src))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(module.Statements) != 2 {
		t.Fatalf("expected 2 statements, got %d", len(module.Statements))
	}
	structExpr := module.Statements[0].Value
	if structExpr.Kind != ast.ExprStructure {
		t.Fatalf("expected structure literal, got %v", structExpr.Kind)
	}
	if len(structExpr.FieldNames) != 2 || structExpr.FieldNames[0] != "x" {
		t.Fatalf("unexpected field names: %v", structExpr.FieldNames)
	}
	condExpr := module.Statements[1].Value
	if condExpr.Kind != ast.ExprConditional {
		t.Fatalf("expected conditional, got %v", condExpr.Kind)
	}
	if condExpr.ElseBranch == nil {
		t.Fatalf("expected else branch")
	}
}
