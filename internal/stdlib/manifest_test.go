package stdlib

import "testing"

func TestLookupAcceptsFullyQualifiedPath(t *testing.T) {
	fn, ok := Lookup([]string{"std", "crypto", "sha256"})
	if !ok {
		t.Fatalf("expected std::crypto::sha256 to resolve")
	}
	if fn.ID != CryptoSha256 {
		t.Fatalf("expected CryptoSha256, got %v", fn.ID)
	}
}

func TestLookupAcceptsShorthandPath(t *testing.T) {
	fn, ok := Lookup([]string{"crypto", "sha256"})
	if !ok {
		t.Fatalf("expected crypto::sha256 shorthand to resolve")
	}
	if fn.ID != CryptoSha256 {
		t.Fatalf("expected CryptoSha256, got %v", fn.ID)
	}
}

func TestLookupRejectsUnknownPath(t *testing.T) {
	if _, ok := Lookup([]string{"std", "nope"}); ok {
		t.Fatalf("expected an unknown path to fail lookup")
	}
}

func TestMTreeMapMutationIsFlagged(t *testing.T) {
	insert, ok := Lookup([]string{"std", "collections", "MTreeMap", "insert"})
	if !ok || !insert.IsMutable {
		t.Fatalf("expected MTreeMap::insert to require a mutable context")
	}
	get, ok := Lookup([]string{"std", "collections", "MTreeMap", "get"})
	if !ok || get.IsMutable {
		t.Fatalf("expected MTreeMap::get to not require a mutable context")
	}
}
