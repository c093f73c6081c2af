package storage

import (
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

func elem(v uint64) fr.Element {
	var e fr.Element
	e.SetUint64(v)
	return e
}

func TestStoreLoadRoundTrip(t *testing.T) {
	g := New(4, Keccak256Hasher{})
	g.Store(3, elem(42))
	got := g.Load(3)
	if got.Uint64() != 42 {
		t.Fatalf("expected 42, got %v", got.Uint64())
	}
	if g.Load(0).Uint64() != 0 {
		t.Fatalf("expected unset leaf to be zero")
	}
}

func TestAuthenticationPathVerifies(t *testing.T) {
	g := New(3, Keccak256Hasher{})
	g.Store(5, elem(7))
	root := g.Root()
	path := g.AuthenticationPath(5)

	if !VerifyPath(Keccak256Hasher{}, elem(7), 5, path, root) {
		t.Fatalf("expected authentication path to verify")
	}
	if VerifyPath(Keccak256Hasher{}, elem(8), 5, path, root) {
		t.Fatalf("expected wrong leaf value to fail verification")
	}
}

func TestRootChangesOnStore(t *testing.T) {
	g := New(3, Keccak256Hasher{})
	before := g.Root()
	g.Store(1, elem(99))
	after := g.Root()
	if before.Equal(&after) {
		t.Fatalf("expected root to change after store")
	}
}
