package diagnostics

import "zinc/internal/source"

// RuntimeKind enumerates the ways VM execution can fail. Most of these
// indicate malformed bytecode rather than a user-facing program error.
type RuntimeKind int

const (
	StackUnderflow RuntimeKind = iota
	UnexpectedElse
	UnexpectedEndIf
	UnexpectedLoopEnd
	AssertionFailure
	ValueOverflow
	IndexOutOfBounds
	WitnessValuedIndex
)

var runtimeKindNames = map[RuntimeKind]string{
	StackUnderflow:      "stack underflow (malformed bytecode)",
	UnexpectedElse:      "unexpected 'else' instruction",
	UnexpectedEndIf:     "unexpected 'endif' instruction",
	UnexpectedLoopEnd:   "unexpected 'loop-end' instruction",
	AssertionFailure:    "assertion failure",
	ValueOverflow:       "value overflow for the declared scalar type",
	IndexOutOfBounds:    "index out of bounds",
	WitnessValuedIndex:  "witness-valued array index is forbidden",
}

func (k RuntimeKind) String() string {
	if s, ok := runtimeKindNames[k]; ok {
		return s
	}
	return "runtime error"
}

// RuntimeError is raised by the VM while executing bytecode.
type RuntimeError struct {
	Kind   RuntimeKind
	Loc    source.Location
	Detail string
}

func (e *RuntimeError) Error() string {
	if e.Detail == "" {
		return e.Kind.String()
	}
	return e.Kind.String() + ": " + e.Detail
}

func (e *RuntimeError) Phase() Phase              { return PhaseRuntime }
func (e *RuntimeError) Location() source.Location { return e.Loc }

func NewRuntimeError(kind RuntimeKind, loc source.Location, detail string) *RuntimeError {
	return &RuntimeError{Kind: kind, Loc: loc, Detail: detail}
}
