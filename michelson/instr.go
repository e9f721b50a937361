// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package michelson

// PolyKind identifies which family of polymorphic primitive a PolyInfo
// describes (Design Notes §9: "model each family as a capability record
// keyed on the input type combination").
type PolyKind byte

const (
	PolyNone PolyKind = iota
	PolyMemSet
	PolyMemMap
	PolyMemBigMap
	PolyGetMap
	PolyGetBigMap
	PolyUpdateSet
	PolyUpdateMap
	PolyUpdateBigMap
	PolySizeSet
	PolySizeMap
	PolySizeBigMap
	PolySizeString
	PolySizeBytes
	PolySizeList
	PolySliceString
	PolySliceBytes
	PolyConcatString
	PolyConcatBytes
	PolyConcatStringList
	PolyConcatBytesList
	PolyArithIntInt
	PolyArithIntNat
	PolyArithNatInt
	PolyArithNatNat
	PolyArithIntTimestamp
	PolyArithTimestampInt
	PolyArithTimestampTimestamp
	PolyArithMutezMutez
	PolyArithNatMutez
	PolyArithMutezNat
	PolyEDivIntInt
	PolyEDivIntNat
	PolyEDivNatInt
	PolyEDivNatNat
	PolyEDivMutezNat
	PolyEDivMutezMutez
	PolyCompareAny
)

// PolyInfo is the result the checker attaches to a resolved polymorphic
// instruction node: the specific combination it matched, plus the
// concrete result type the checker computed for it. The interpreter
// switches on Kind instead of re-deriving types from the runtime values.
type PolyInfo struct {
	Kind      PolyKind
	KeyType   CT // MEM/GET/UPDATE key type
	ValueType T  // GET/UPDATE/MAP value type, SLICE/CONCAT element type
	ResultT   T  // the pushed result's full type (arith join, option wrapper, ...)
}

// Instr is an index-erased node of the typed instruction tree. Its
// "index" -- the input/output HST it was checked against -- is not
// carried on the node itself; it is carried alongside it by SomeInstr
// (package check), per Design Notes §9. A bare Instr is only meaningful
// together with the HST pair it was produced with.
type Instr struct {
	Op OpCode

	// Sequencing: a {..} block or a top-level program is a Seq of Instr
	// run in order; all non-sequence nodes below have Seq == nil.
	Seq []Instr

	// DROP n / DUP n / DIP n operand.
	N int

	// PUSH.
	PushType T
	PushVal  Value

	// NONE / NIL / EMPTY_SET / LEFT / RIGHT / LAMBDA type operands, and
	// CONTRACT's expected parameter type.
	Type1, Type2 T

	// Structured control flow bodies/branches. Exactly the ones relevant
	// to Op are non-nil.
	Body        *Instr // DIP, LOOP, LOOP_LEFT, ITER, MAP, LAMBDA
	BranchTrue  *Instr // IF true / IF_CONS cons / IF_LEFT left / IF_NONE none
	BranchFalse *Instr // IF false / IF_CONS nil / IF_LEFT right / IF_NONE some

	// Annotation-derivation results attached at check time (PAIR's
	// component field annotations, CAR/CDR's promoted variable, ...).
	ResultNotes Notes

	// Resolved polymorphic-primitive info (MEM/GET/UPDATE/SIZE/SLICE/
	// CONCAT/ADD/SUB/MUL/EDIV/COMPARE). Zero value (PolyNone) otherwise.
	Poly PolyInfo

	// Extension meta-instruction payload (C5); nil for plain Michelson.
	Ext *ExtInstr
}

// ExtInstr carries the checked payload of a Morley meta-instruction.
type ExtInstr struct {
	// STACKTYPE
	Pattern *StackTypePattern

	// FN
	FnName    string
	FnPattern *FnPattern
	FnBody    *Instr

	// PRINT
	PrintRefs []int

	// TEST_ASSERT
	AssertName    string
	AssertComment string
	AssertBody    *Instr
}

// StackTypePattern is a user-supplied pattern matched against the
// current HST by STACKTYPE and FN (see check's matchPattern). Concrete
// types/notes may be interleaved with named pattern variables; an
// optional open tail permits matching a prefix only.
type StackTypePattern struct {
	Items []PatternItem
	Rest  RestKind
}

type RestKind byte

const (
	RestNone  RestKind = iota // exact length match required
	RestOpen                  // StkRest: anything may follow
	RestEmpty                 // StkEmpty: stack must end exactly here
)

// PatternItem is one stack slot in a pattern: either a concrete type (Var
// == "") or a named pattern variable that must unify structurally
// (including notes, via Converge) across every occurrence.
type PatternItem struct {
	Var   string // pattern variable name, or "" for a concrete slot
	Conc  T      // meaningful iff Var == ""
	Notes Notes
}

// FnPattern is the `pattern.quantified / pattern.in / pattern.out` triple
// FN is checked against (§4.5).
type FnPattern struct {
	Quantified []string
	In         StackTypePattern
	Out        StackTypePattern
}
