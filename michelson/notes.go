// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package michelson

import "fmt"

// AnnError is the error produced when two annotation trees cannot be
// converged because they disagree on a concrete annotation.
type AnnError struct {
	Msg string
}

func (e *AnnError) Error() string { return "annotation error: " + e.Msg }

func annErr(format string, args ...interface{}) error {
	return &AnnError{Msg: fmt.Sprintf(format, args...)}
}

// FieldAnno, TypeAnno and VarAnno are the three disjoint annotation kinds
// Michelson supports (%field, :type, @variable). The empty string means
// "unspecified" in all three.
type (
	FieldAnno = string
	TypeAnno  = string
	VarAnno   = string
)

// Notes is the annotation tree that runs parallel to a T: every node is
// either Wildcard (true, meaning "no annotation info at this node or
// below") or a concrete record of this node's three annotations plus the
// same choice recursively for its children.
type Notes struct {
	Wildcard bool
	Field    FieldAnno
	Type     TypeAnno
	Var      VarAnno
	Args     []Notes // parallels T.Args when !Wildcard
}

// NoNotes is the wildcard annotation tree: "nothing known here."
var NoNotes = Notes{Wildcard: true}

// IsDefault reports whether v is the zero/unspecified annotation value.
func IsDefault(v string) bool { return v == "" }

// Concrete builds a non-wildcard annotation node with the given leaf
// annotations and children.
func Concrete(field, typ, v string, args ...Notes) Notes {
	return Notes{Field: field, Type: typ, Var: v, Args: args}
}

// Converge partially merges two annotation trees into one:
//   - both wildcard            -> wildcard
//   - one wildcard             -> the other, verbatim
//   - both concrete            -> every leaf annotation must agree
//     (empty counts as agreeing with anything, the more specific one
//     wins), and children are converged pairwise.
//
// Converge is commutative, associative and idempotent (see the property
// tests in notes_test.go).
func Converge(a, b Notes) (Notes, error) {
	if a.Wildcard && b.Wildcard {
		return NoNotes, nil
	}
	if a.Wildcard {
		return b, nil
	}
	if b.Wildcard {
		return a, nil
	}
	field, err := mergeLeaf(a.Field, b.Field, "field")
	if err != nil {
		return Notes{}, err
	}
	typ, err := mergeLeaf(a.Type, b.Type, "type")
	if err != nil {
		return Notes{}, err
	}
	v, err := mergeLeaf(a.Var, b.Var, "variable")
	if err != nil {
		return Notes{}, err
	}
	if len(a.Args) != len(b.Args) {
		return Notes{}, annErr("annotation arity mismatch (%d vs %d)", len(a.Args), len(b.Args))
	}
	args := make([]Notes, len(a.Args))
	for i := range a.Args {
		sub, err := Converge(a.Args[i], b.Args[i])
		if err != nil {
			return Notes{}, err
		}
		args[i] = sub
	}
	return Notes{Field: field, Type: typ, Var: v, Args: args}, nil
}

func mergeLeaf(a, b, kind string) (string, error) {
	if a == "" {
		return b, nil
	}
	if b == "" {
		return a, nil
	}
	if a != b {
		return "", annErr("%s annotation mismatch: %q vs %q", kind, a, b)
	}
	return a, nil
}

// DerivePairAnnotations implements the PAIR annotation-inference rule:
// given the user-supplied field/variable annotation on each of PAIR's two
// popped stack items, derive the field annotations to attach to the
// resulting pair's two components and the variable annotation for the
// pair itself.
//
//   - both fields carry a variable annotation with a common "." prefix:
//     the prefix becomes the pair's variable, the suffixes become the
//     two components' field annotations;
//   - only one side carries a field annotation already: promote the
//     other component's variable into a field annotation, pair's
//     variable defaults;
//   - otherwise: field annotations pass through unchanged, pair's
//     variable defaults.
func DerivePairAnnotations(pField, qField, pVar, qVar VarAnno) (resultVar VarAnno, pField2, qField2 FieldAnno) {
	if IsDefault(pField) && IsDefault(qField) && !IsDefault(pVar) && !IsDefault(qVar) {
		if prefix, pSuf, qSuf, ok := commonDotPrefix(pVar, qVar); ok {
			return prefix, "%" + pSuf, "%" + qSuf
		}
	}
	switch {
	case IsDefault(pField) && !IsDefault(qField):
		return "", promote(pVar), qField
	case !IsDefault(pField) && IsDefault(qField):
		return "", pField, promote(qVar)
	default:
		return "", pField, qField
	}
}

func promote(v VarAnno) FieldAnno {
	if IsDefault(v) {
		return ""
	}
	return "%" + v
}

func commonDotPrefix(a, b string) (prefix, aSuf, bSuf string, ok bool) {
	ai := splitLastDot(a)
	bi := splitLastDot(b)
	if ai.prefix == "" || bi.prefix == "" || ai.prefix != bi.prefix {
		return "", "", "", false
	}
	return ai.prefix, ai.suffix, bi.suffix, true
}

type dotSplit struct{ prefix, suffix string }

func splitLastDot(s string) dotSplit {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return dotSplit{prefix: s[:i], suffix: s[i+1:]}
		}
	}
	return dotSplit{}
}

// DeriveCarCdrVar implements the CAR/CDR variable-annotation rule.
//
//   - user supplied "%"  -> the accessed field's own annotation is
//     promoted into the result's variable annotation;
//   - user supplied "%%" and the child carries a field annotation
//     -> pairVar + "." + childField;
//   - otherwise          -> the user's annotation is used verbatim.
func DeriveCarCdrVar(userVar VarAnno, childField FieldAnno, pairVar VarAnno) VarAnno {
	switch userVar {
	case "%":
		if IsDefault(childField) {
			return ""
		}
		return childField[1:] // strip leading '%'
	case "%%":
		if !IsDefault(childField) {
			return pairVar + "." + childField[1:]
		}
		return userVar
	default:
		return userVar
	}
}

// DeriveOrSub implements LEFT/RIGHT/IF_LEFT's sub-annotation rule:
// extract the notes for each branch of an `or` and synthesise variable
// annotations by appending the branch's own field annotation to the
// outer variable, defaulting to "left"/"right" when the branch carries
// no field annotation.
func DeriveOrSub(n Notes, outerVar VarAnno) (left, right Notes, leftVar, rightVar VarAnno) {
	left, right = childOrWildcard(n, 0), childOrWildcard(n, 1)
	leftVar = deriveBranchVar(outerVar, left.Field, "left")
	rightVar = deriveBranchVar(outerVar, right.Field, "right")
	return
}

// DeriveOptionSub is the symmetric rule for SOME/NONE/IF_NONE, with
// default suffix "some".
func DeriveOptionSub(n Notes, outerVar VarAnno) (inner Notes, innerVar VarAnno) {
	inner = childOrWildcard(n, 0)
	innerVar = deriveBranchVar(outerVar, inner.Field, "some")
	return
}

func deriveBranchVar(outerVar VarAnno, field FieldAnno, def string) VarAnno {
	suffix := def
	if !IsDefault(field) {
		suffix = field[1:]
	}
	return DeriveVar(suffix, outerVar)
}

func childOrWildcard(n Notes, i int) Notes {
	if n.Wildcard || i >= len(n.Args) {
		return NoNotes
	}
	return n.Args[i]
}

// DeriveVar appends suffix to input_var with a "." separator, unless
// input_var is itself unspecified (in which case the result is also
// unspecified: there is nothing to append a field name to).
func DeriveVar(suffix string, inputVar VarAnno) VarAnno {
	if IsDefault(inputVar) {
		return ""
	}
	return inputVar + "." + suffix
}
