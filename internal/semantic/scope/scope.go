// Package scope implements Zinc's scope tree as an arena of scopes
// addressed by ID, each holding only a parent ID rather than a pointer
// and a list of children: resolution walks outward through the parent
// chain, a scope never needs to look into its children.
package scope

import (
	"fmt"

	"zinc/internal/semantic/types"
)

// ID addresses one scope within an Arena. The zero value is the root
// scope; -1 marks the root's missing parent.
type ID int

const invalid ID = -1

// ItemKind tags what an Item binds.
type ItemKind int

const (
	ItemVariable ItemKind = iota
	ItemConstant
	ItemTypeAlias
	ItemFunction
	ItemModule
)

// Item is one name bound within a scope.
type Item struct {
	Kind     ItemKind
	Name     string
	Type     *types.Type
	IsMutable bool

	// Offset is the data-stack/global slot this item was assigned when
	// Kind == ItemVariable or ItemConstant, meaningful only to the
	// analyzer's lowering pass.
	Offset int
	IsGlobal bool

	// IsStorage marks a field declared inside a contract's storage
	// namespace: loads/stores against it go through OpStorageLoad/
	// OpStorageStore rather than the ordinary data stack.
	IsStorage bool

	// ModuleScope is set when Kind == ItemModule, naming the nested
	// scope a qualified path descends into.
	ModuleScope ID
}

// scopeData is the arena-resident representation of one scope.
type scopeData struct {
	parent ID
	items  map[string]Item
}

// Arena owns every scope created during analysis of one compilation unit.
// Scopes never hold child pointers; lookups traverse the tree only via
// the parent chain.
type Arena struct {
	scopes []scopeData
}

// NewArena creates an arena with a single root scope and returns its ID.
func NewArena() (*Arena, ID) {
	a := &Arena{scopes: []scopeData{{parent: invalid, items: map[string]Item{}}}}
	return a, ID(0)
}

// Child creates a new scope whose parent is `parent` and returns its ID.
func (a *Arena) Child(parent ID) ID {
	a.scopes = append(a.scopes, scopeData{parent: parent, items: map[string]Item{}})
	return ID(len(a.scopes) - 1)
}

func (a *Arena) data(id ID) *scopeData {
	return &a.scopes[id]
}

// Declare binds a name within the given scope. It reports a redeclaration
// error if the name is already bound directly in this scope (shadowing an
// outer scope's binding is allowed).
func (a *Arena) Declare(id ID, item Item) error {
	d := a.data(id)
	if _, exists := d.items[item.Name]; exists {
		return fmt.Errorf("item %q already declared in this scope", item.Name)
	}
	d.items[item.Name] = item
	return nil
}

// Resolve looks up a name starting at `id` and walking the parent chain
// outward until found or the chain is exhausted.
func (a *Arena) Resolve(id ID, name string) (Item, bool) {
	for cur := id; cur != invalid; cur = a.data(cur).parent {
		if item, ok := a.data(cur).items[name]; ok {
			return item, true
		}
	}
	return Item{}, false
}

// ResolvePath resolves a qualified path `a::b::c` by resolving each
// segment's module in the scope reached so far, with the first segment
// resolved via the ordinary parent-chain walk.
func (a *Arena) ResolvePath(id ID, path []string) (Item, error) {
	if len(path) == 0 {
		return Item{}, fmt.Errorf("empty path")
	}
	item, ok := a.Resolve(id, path[0])
	if !ok {
		return Item{}, fmt.Errorf("undeclared item %q", path[0])
	}
	cur := id
	for _, seg := range path[1:] {
		if item.Kind != ItemModule {
			return Item{}, fmt.Errorf("%q is not a module, cannot resolve %q within it", item.Name, seg)
		}
		cur = item.ModuleScope
		next, ok := a.data(cur).items[seg]
		if !ok {
			return Item{}, fmt.Errorf("undeclared item %q in module %q", seg, item.Name)
		}
		item = next
	}
	return item, nil
}

// DetectAliasCycle walks a chain of type-alias names starting at `name`,
// following each alias's target name (supplied by `next`), and reports an
// error if the chain revisits a name before terminating.
func DetectAliasCycle(start string, next func(name string) (string, bool)) error {
	seen := map[string]bool{start: true}
	cur := start
	for {
		target, isAlias := next(cur)
		if !isAlias {
			return nil
		}
		if seen[target] {
			return fmt.Errorf("type alias cycle detected: %s -> %s", cur, target)
		}
		seen[target] = true
		cur = target
	}
}
