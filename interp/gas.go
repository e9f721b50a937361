// Copyright (c) 2020-2021 Blockwatch Data Inc.
// Author: alex@blockwatch.cc

package interp

// RemainingSteps is the "monotone remaining steps counter" (§1 Non-goals:
// "no gas pricing fidelity to a specific protocol revision") that bounds
// interpreter compute. It is shared across the whole batch, including
// every recursively enqueued operation (§4.6 "Gas counts across the
// recursion").
type RemainingSteps struct {
	n int
}

func NewRemainingSteps(n int) *RemainingSteps {
	return &RemainingSteps{n: n}
}

// Tick consumes one step and reports whether the counter is exhausted.
// Call once per interpreted instruction, before acting on it.
func (r *RemainingSteps) Tick() bool {
	if r.n <= 0 {
		return true
	}
	r.n--
	return false
}
