// Package stdlib is the manifest of intrinsic library functions callable
// from Zinc source as `std::...` paths: one fixed-arity entry per
// function, consulted by the semantic analyzer (to type-check a call)
// and by the VM (to dispatch the matching runtime gadget). Neither side
// hardcodes the path-to-behavior mapping independently.
package stdlib

import "zinc/internal/semantic/types"

// ID names one intrinsic implementation, threaded through as the
// bytecode CallLibrary instruction's LibraryID.
type ID int

const (
	CryptoSha256 ID = iota
	CryptoPedersen
	CryptoSchnorrSignatureVerify

	ConvertToBits
	ConvertFromBitsUnsigned
	ConvertFromBitsSigned
	ConvertFromBitsField

	ArrayReverse
	ArrayTruncate
	ArrayPad

	FfInvert

	CollectionsMTreeMapGet
	CollectionsMTreeMapContains
	CollectionsMTreeMapInsert
	CollectionsMTreeMapRemove
)

// Function describes one manifest entry. InputArity/OutputArity are the
// fixed scalar counts a call must supply/yields; -1 marks the handful
// of functions (the array family and the bit-conversion family) whose
// arity is resolved per call site by the analyzer rather than fixed in
// the manifest, because it depends on the operand's own bit width or on
// a literal size argument.
type Function struct {
	Path        []string
	ID          ID
	InputArity  int
	OutputArity int
	Return      *types.Type
	IsMutable   bool // requires a `self`-mutable calling context (MTreeMap insert/remove)
}

// sha256Block and pedersenBlock fix the bit-block width these two
// hashing intrinsics operate on; callers shape their input with
// array::pad/truncate first, matching the manifest's one-arity-per-
// function contract.
const sha256Block = 256
const pedersenBlock = 256

// manifest is the fixed table of every intrinsic this implementation
// recognizes, keyed by its fully qualified `std::` path segments.
var manifest = []Function{
	{Path: []string{"std", "crypto", "sha256"}, ID: CryptoSha256, InputArity: sha256Block, OutputArity: sha256Block, Return: types.TypeBoolean},
	{Path: []string{"std", "crypto", "pedersen"}, ID: CryptoPedersen, InputArity: pedersenBlock, OutputArity: 1, Return: types.TypeField},
	{Path: []string{"std", "crypto", "schnorr", "Signature", "verify"}, ID: CryptoSchnorrSignatureVerify, InputArity: 5, OutputArity: 1, Return: types.TypeBoolean},

	{Path: []string{"std", "convert", "to_bits"}, ID: ConvertToBits, InputArity: 1, OutputArity: -1, Return: types.TypeBoolean},
	{Path: []string{"std", "convert", "from_bits_unsigned"}, ID: ConvertFromBitsUnsigned, InputArity: -1, OutputArity: 1, Return: &types.Type{Kind: types.IntegerUnsigned}},
	{Path: []string{"std", "convert", "from_bits_signed"}, ID: ConvertFromBitsSigned, InputArity: -1, OutputArity: 1, Return: &types.Type{Kind: types.IntegerSigned}},
	{Path: []string{"std", "convert", "from_bits_field"}, ID: ConvertFromBitsField, InputArity: -1, OutputArity: 1, Return: types.TypeField},

	{Path: []string{"std", "array", "reverse"}, ID: ArrayReverse, InputArity: -1, OutputArity: -1, Return: nil},
	{Path: []string{"std", "array", "truncate"}, ID: ArrayTruncate, InputArity: -1, OutputArity: -1, Return: nil},
	{Path: []string{"std", "array", "pad"}, ID: ArrayPad, InputArity: -1, OutputArity: -1, Return: nil},

	{Path: []string{"std", "ff", "invert"}, ID: FfInvert, InputArity: 1, OutputArity: 1, Return: types.TypeField},

	{Path: []string{"std", "collections", "MTreeMap", "get"}, ID: CollectionsMTreeMapGet, InputArity: 1, OutputArity: 2, Return: nil},
	{Path: []string{"std", "collections", "MTreeMap", "contains"}, ID: CollectionsMTreeMapContains, InputArity: 1, OutputArity: 1, Return: types.TypeBoolean},
	{Path: []string{"std", "collections", "MTreeMap", "insert"}, ID: CollectionsMTreeMapInsert, InputArity: 2, OutputArity: 0, IsMutable: true},
	{Path: []string{"std", "collections", "MTreeMap", "remove"}, ID: CollectionsMTreeMapRemove, InputArity: 1, OutputArity: 1, IsMutable: true},
}

// Lookup finds the manifest entry matching a path, accepting both the
// fully qualified `std::...` form and the shorthand with the leading
// `std` segment omitted (`crypto::sha256`).
func Lookup(path []string) (Function, bool) {
	for _, fn := range manifest {
		if pathMatches(fn.Path, path) {
			return fn, true
		}
	}
	return Function{}, false
}

func pathMatches(full, given []string) bool {
	if len(given) > 0 && given[0] != "std" {
		full = full[1:]
	}
	if len(full) != len(given) {
		return false
	}
	for i := range full {
		if full[i] != given[i] {
			return false
		}
	}
	return true
}
