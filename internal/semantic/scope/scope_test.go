package scope

import "testing"

func TestResolveWalksParentChain(t *testing.T) {
	arena, root := NewArena()
	if err := arena.Declare(root, Item{Kind: ItemVariable, Name: "x", Offset: 0}); err != nil {
		t.Fatalf("declare: %v", err)
	}
	child := arena.Child(root)
	if err := arena.Declare(child, Item{Kind: ItemVariable, Name: "y", Offset: 1}); err != nil {
		t.Fatalf("declare: %v", err)
	}

	if _, ok := arena.Resolve(child, "x"); !ok {
		t.Fatalf("expected child scope to resolve parent's x")
	}
	if _, ok := arena.Resolve(root, "y"); ok {
		t.Fatalf("expected root scope not to see child's y")
	}
}

func TestDeclareRejectsRedeclaration(t *testing.T) {
	arena, root := NewArena()
	if err := arena.Declare(root, Item{Kind: ItemVariable, Name: "x"}); err != nil {
		t.Fatalf("declare: %v", err)
	}
	if err := arena.Declare(root, Item{Kind: ItemVariable, Name: "x"}); err == nil {
		t.Fatalf("expected redeclaration error")
	}
}

func TestDetectAliasCycle(t *testing.T) {
	graph := map[string]string{"A": "B", "B": "C", "C": "A"}
	err := DetectAliasCycle("A", func(name string) (string, bool) {
		target, ok := graph[name]
		return target, ok
	})
	if err == nil {
		t.Fatalf("expected cycle to be detected")
	}

	acyclic := map[string]string{"A": "B", "B": "C"}
	err = DetectAliasCycle("A", func(name string) (string, bool) {
		target, ok := acyclic[name]
		return target, ok
	})
	if err != nil {
		t.Fatalf("unexpected cycle error: %v", err)
	}
}
