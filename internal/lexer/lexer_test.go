package lexer

import (
	"testing"

	"zinc/internal/source"
)

func TestLexLoopHeader(t *testing.T) {
	l := New("test.zn", []byte("for i in 0..=4 {}"))

	type expect struct {
		kind LexemeKind
		text string
		loc  source.Location
	}
	want := []expect{
		{LexemeKeyword, "for", source.Location{File: "test.zn", Line: 1, Column: 1}},
		{LexemeIdentifier, "i", source.Location{File: "test.zn", Line: 1, Column: 5}},
		{LexemeKeyword, "in", source.Location{File: "test.zn", Line: 1, Column: 7}},
		{LexemeLiteral, "0", source.Location{File: "test.zn", Line: 1, Column: 10}},
		{LexemeSymbol, "..=", source.Location{File: "test.zn", Line: 1, Column: 11}},
		{LexemeLiteral, "4", source.Location{File: "test.zn", Line: 1, Column: 14}},
		{LexemeSymbol, "{", source.Location{File: "test.zn", Line: 1, Column: 16}},
		{LexemeSymbol, "}", source.Location{File: "test.zn", Line: 1, Column: 17}},
	}

	for i, w := range want {
		tok, err := l.Next()
		if err != nil {
			t.Fatalf("token %d: unexpected error: %v", i, err)
		}
		if tok.Kind != w.kind {
			t.Fatalf("token %d: kind = %v, want %v", i, tok.Kind, w.kind)
		}
		if tok.Lexeme() != w.text {
			t.Fatalf("token %d: lexeme = %q, want %q", i, tok.Lexeme(), w.text)
		}
		if tok.Location != w.loc {
			t.Fatalf("token %d: location = %+v, want %+v", i, tok.Location, w.loc)
		}
	}
	tok, err := l.Next()
	if err != nil {
		t.Fatalf("eof: unexpected error: %v", err)
	}
	if !tok.IsEOF() {
		t.Fatalf("expected EOF, got %+v", tok)
	}
}

func TestLexPeekAndLookAhead(t *testing.T) {
	l := New("test.zn", []byte("a b c"))
	first, _ := l.Peek()
	if first.Lexeme() != "a" {
		t.Fatalf("peek = %q, want a", first.Lexeme())
	}
	second, _ := l.LookAhead(1)
	if second.Lexeme() != "b" {
		t.Fatalf("lookahead(1) = %q, want b", second.Lexeme())
	}
	consumed, _ := l.Next()
	if consumed.Lexeme() != "a" {
		t.Fatalf("next = %q, want a", consumed.Lexeme())
	}
}

func TestLexUnterminatedString(t *testing.T) {
	l := New("test.zn", []byte(`"abc`))
	if _, err := l.Next(); err == nil {
		t.Fatal("expected unterminated string error")
	}
}

func TestLexInvalidCharacter(t *testing.T) {
	l := New("test.zn", []byte(`$`))
	if _, err := l.Next(); err == nil {
		t.Fatal("expected invalid character error")
	}
}
