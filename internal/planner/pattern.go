// Package planner selects, for a given query pattern, which of the
// storage engine's four indexes to scan and what key range to scan it
// over.
package planner

import "github.com/triplewire/quadstore/pkg/rdf"

// OptionalTerm is a statement position that may or may not be bound to
// a constant. Bound is required alongside Term because a bound
// Context may legitimately be nil (the default graph), which would be
// indistinguishable from "unbound" if Term alone were consulted.
type OptionalTerm struct {
	Term  rdf.Term
	Bound bool
}

// Unbound is the wildcard OptionalTerm: any term will match this
// position.
var Unbound = OptionalTerm{}

// BoundTo returns an OptionalTerm bound to t (t may be nil, meaning the
// default graph, as long as Bound is true).
func BoundTo(t rdf.Term) OptionalTerm { return OptionalTerm{Term: t, Bound: true} }

// Pattern describes a quad query: each position is either bound to a
// specific term or left as a wildcard.
type Pattern struct {
	Subject   OptionalTerm
	Predicate OptionalTerm
	Object    OptionalTerm
	Context   OptionalTerm
}
