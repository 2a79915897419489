// Package sparqleval parses a practical subset of SPARQL 1.1 (SELECT,
// ASK, CONSTRUCT over basic graph patterns with FILTER) and evaluates
// it against a tripleadapter.TripleSource using a nested-loop join.
package sparqleval

import "github.com/triplewire/quadstore/pkg/rdf"

// Query is a parsed SPARQL query of one of the three supported forms.
type Query struct {
	Type      QueryType
	Select    *SelectQuery
	Ask       *AskQuery
	Construct *ConstructQuery
}

type QueryType int

const (
	QueryTypeSelect QueryType = iota
	QueryTypeAsk
	QueryTypeConstruct
)

// SelectQuery is a SELECT query: project Variables (nil means SELECT
// *) over the bindings produced by Where.
type SelectQuery struct {
	Variables []*Variable
	Distinct  bool
	Where     *GraphPattern
	OrderBy   []*OrderCondition
	Limit     *int
	Offset    *int
}

// AskQuery reports whether Where has at least one solution.
type AskQuery struct {
	Where *GraphPattern
}

// ConstructQuery instantiates Template once per solution of Where.
type ConstructQuery struct {
	Template []*TriplePattern
	Where    *GraphPattern
}

// GraphPattern is a basic graph pattern: a conjunction of triple
// patterns, filtered by zero or more FILTER expressions.
type GraphPattern struct {
	Patterns []*TriplePattern
	Filters  []*Filter
}

// TriplePattern is one triple pattern, each position either a bound
// term or a variable.
type TriplePattern struct {
	Subject   TermOrVariable
	Predicate TermOrVariable
	Object    TermOrVariable
}

// TermOrVariable is either a bound RDF term or a SPARQL variable.
type TermOrVariable struct {
	Term     rdf.Term
	Variable *Variable
}

func (t TermOrVariable) IsVariable() bool { return t.Variable != nil }

// Variable is a SPARQL variable, named without its leading '?' or '$'.
type Variable struct {
	Name string
}

// Filter is a FILTER(...) clause.
type Filter struct {
	Expression Expression
}

// Expression is a FILTER expression node.
type Expression interface {
	expressionNode()
}

type BinaryExpression struct {
	Left     Expression
	Operator Operator
	Right    Expression
}

func (*BinaryExpression) expressionNode() {}

type UnaryExpression struct {
	Operator Operator
	Operand  Expression
}

func (*UnaryExpression) expressionNode() {}

type VariableExpression struct {
	Variable *Variable
}

func (*VariableExpression) expressionNode() {}

type LiteralExpression struct {
	Term rdf.Term
}

func (*LiteralExpression) expressionNode() {}

// Operator is a FILTER expression operator.
type Operator int

const (
	OpAnd Operator = iota
	OpOr
	OpNot
	OpEqual
	OpNotEqual
	OpLessThan
	OpLessThanOrEqual
	OpGreaterThan
	OpGreaterThanOrEqual
)

// OrderCondition is one ORDER BY term.
type OrderCondition struct {
	Variable  *Variable
	Ascending bool
}
