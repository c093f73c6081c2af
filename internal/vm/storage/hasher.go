package storage

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"golang.org/x/crypto/blake2b"

	"github.com/ethereum/go-ethereum/crypto"
)

// Keccak256Hasher is the default node hasher, matching the hash
// zkSync's on-chain verifier uses for storage roots.
type Keccak256Hasher struct{}

func (Keccak256Hasher) Hash(left, right fr.Element) fr.Element {
	lb := left.Bytes()
	rb := right.Bytes()
	digest := crypto.Keccak256(lb[:], rb[:])
	var out fr.Element
	out.SetBytes(digest)
	return out
}

// Blake2bHasher is an alternate node hasher for off-chain-only
// contracts that do not need Ethereum-compatible proof verification.
type Blake2bHasher struct{}

func (Blake2bHasher) Hash(left, right fr.Element) fr.Element {
	lb := left.Bytes()
	rb := right.Bytes()
	h, _ := blake2b.New256(nil)
	h.Write(lb[:])
	h.Write(rb[:])
	digest := h.Sum(nil)
	var out fr.Element
	out.SetBytes(digest)
	return out
}
