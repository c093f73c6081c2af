// Package storage implements Zinc's contract storage gadget: a
// fixed-depth Merkle tree over scalar leaves. The VM's StorageLoad/
// StorageStore read and write leaves directly and do not synthesize an
// authentication-path verification; VerifyPath and
// VerifyPathConstraints are provided here but are not called by the VM.
package storage

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"

	"zinc/internal/vm/gadgets"
)

// Hasher collapses two field elements into one, the tree's internal
// node function. Production deployments use Keccak256 (the default,
// matching zkSync's on-chain verifier expectations); Blake2b is kept
// available as an alternate for off-chain-only contracts.
type Hasher interface {
	Hash(left, right fr.Element) fr.Element
}

// Gadget is an authenticated key-value store: fixedDepth levels deep,
// so it holds up to 2^fixedDepth leaves, each a single scalar.
type Gadget struct {
	depth  int
	hasher Hasher
	leaves map[uint64]fr.Element
}

// New constructs an empty storage gadget of the given depth.
func New(depth int, hasher Hasher) *Gadget {
	return &Gadget{depth: depth, hasher: hasher, leaves: map[uint64]fr.Element{}}
}

func (g *Gadget) leafAt(index uint64) fr.Element {
	return g.leaves[index]
}

// Root recomputes the tree root from the current leaf set. Empty
// leaves are the zero element, so an empty tree of a given depth and
// hasher always has the same root (the hash chain over zero leaves,
// not zero itself).
func (g *Gadget) Root() fr.Element {
	level := make(map[uint64]fr.Element, len(g.leaves))
	for k, v := range g.leaves {
		level[k] = v
	}
	width := uint64(1) << uint(g.depth)
	cur := make([]fr.Element, width)
	for i := uint64(0); i < width; i++ {
		cur[i] = level[i]
	}
	for len(cur) > 1 {
		next := make([]fr.Element, len(cur)/2)
		for i := 0; i < len(next); i++ {
			next[i] = g.hasher.Hash(cur[2*i], cur[2*i+1])
		}
		cur = next
	}
	if len(cur) == 0 {
		return fr.Element{}
	}
	return cur[0]
}

// AuthenticationPath returns the sibling hashes from leaf index up to
// the root, bottom to top, for inclusion-proof verification.
func (g *Gadget) AuthenticationPath(index uint64) []fr.Element {
	path := make([]fr.Element, 0, g.depth)
	width := uint64(1) << uint(g.depth)
	cur := make([]fr.Element, width)
	for i := uint64(0); i < width; i++ {
		cur[i] = g.leaves[i]
	}
	idx := index
	for len(cur) > 1 {
		sibling := idx ^ 1
		path = append(path, cur[sibling])
		next := make([]fr.Element, len(cur)/2)
		for i := 0; i < len(next); i++ {
			next[i] = g.hasher.Hash(cur[2*i], cur[2*i+1])
		}
		cur = next
		idx /= 2
	}
	return path
}

// Load returns the scalar stored at index, the zero element if unset.
func (g *Gadget) Load(index uint64) fr.Element {
	return g.leafAt(index)
}

// Store writes value at index, updating the tree's root.
func (g *Gadget) Store(index uint64, value fr.Element) {
	g.leaves[index] = value
}

// VerifyPath checks that leaf, combined with path, recomposes to root
// by repeatedly hashing with the sibling chosen by each bit of index.
// This is the witness-mode check; constraint synthesis for the same
// recomposition is performed by VerifyPathConstraints.
func VerifyPath(hasher Hasher, leaf fr.Element, index uint64, path []fr.Element, root fr.Element) bool {
	cur := leaf
	idx := index
	for _, sibling := range path {
		if idx&1 == 0 {
			cur = hasher.Hash(cur, sibling)
		} else {
			cur = hasher.Hash(sibling, cur)
		}
		idx /= 2
	}
	return cur.Equal(&root)
}

// VerifyPathConstraints synthesizes the same recomposition as
// VerifyPath inside an R1CS, using the hasher's gadget form, and
// returns the Boolean scalar asserting root equality.
func VerifyPathConstraints(cs *gadgets.ConstraintSystem, hash func(*gadgets.ConstraintSystem, gadgets.Scalar, gadgets.Scalar) gadgets.Scalar, leaf gadgets.Scalar, indexBits []gadgets.Scalar, path []gadgets.Scalar, root gadgets.Scalar) gadgets.Scalar {
	cur := leaf
	for i, sibling := range path {
		bit := indexBits[i]
		left := gadgets.ConditionalSelect(cs, bit, sibling, cur)
		right := gadgets.ConditionalSelect(cs, bit, cur, sibling)
		cur = hash(cs, left, right)
	}
	return gadgets.Equals(cs, cur, root)
}
