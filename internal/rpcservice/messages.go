package rpcservice

import "github.com/triplewire/quadstore/pkg/rdf"

// PatternMsg is the wire form of a query pattern: each position is
// either nil (wildcard) or a bound term. A bound Context of nil still
// needs to be told apart from "unbound" on the wire, hence the
// explicit ContextBound flag.
type PatternMsg struct {
	Subject      rdf.Term
	Predicate    rdf.Term
	Object       rdf.Term
	Context      rdf.Term
	ContextBound bool
}

// StatementMsg is the wire form of one statement.
type StatementMsg struct {
	Subject   rdf.Term
	Predicate *rdf.URI
	Object    rdf.Term
	Context   rdf.Term
}

// NamespaceMsg is the wire form of one (prefix, uri) pair.
type NamespaceMsg struct {
	Prefix string
	URI    string
}

// AddStatementsRequest streams in one or more batches of statements to
// add (client-streaming RPC).
type AddStatementsRequest struct {
	Statements []StatementMsg
}

// AddStatementsResponse acknowledges a completed AddStatements call.
type AddStatementsResponse struct {
	Added int64
}

// GetStatementsRequest asks for every statement matching Pattern
// (server-streaming RPC; results arrive as a sequence of
// GetStatementsResponse messages).
type GetStatementsRequest struct {
	Pattern PatternMsg
}

// GetStatementsResponse is one statement in a GetStatements response
// stream.
type GetStatementsResponse struct {
	Statement StatementMsg
}

// RemoveStatementsRequest asks for every statement matching Pattern to
// be deleted.
type RemoveStatementsRequest struct {
	Pattern PatternMsg
}

// RemoveStatementsResponse reports how many statements were removed.
type RemoveStatementsResponse struct {
	Removed int64
}

// UpdateOpKind tags one operation in an Update client stream.
type UpdateOpKind int

const (
	UpdateOpAddNamespace UpdateOpKind = iota
	UpdateOpRemoveNamespace
	UpdateOpAddStatement
	UpdateOpRemoveStatement
)

// UpdateRequest is a single tagged operation within an Update client
// stream; only the field matching Kind is read.
type UpdateRequest struct {
	Kind      UpdateOpKind
	Namespace NamespaceMsg
	Statement StatementMsg
}

// UpdateResponse reports how many operations of each kind were applied
// across the whole Update stream.
type UpdateResponse struct {
	NamespacesAdded   int64
	NamespacesRemoved int64
	StatementsAdded   int64
	StatementsRemoved int64
}

// AddNamespacesRequest registers one or more namespaces.
type AddNamespacesRequest struct {
	Namespaces []NamespaceMsg
}

type AddNamespacesResponse struct{}

// GetNamespaceRequest resolves a single namespace by prefix, by URI,
// or by both; empty fields are wildcards.
type GetNamespaceRequest struct {
	Prefix string
	URI    string
}

type GetNamespaceResponse struct {
	Namespace NamespaceMsg
}

// GetNamespacesRequest asks for the full namespace table
// (server-streaming RPC; one GetNamespacesResponse per namespace).
type GetNamespacesRequest struct{}

type GetNamespacesResponse struct {
	Namespace NamespaceMsg
}

// GetContextsRequest asks for every distinct named graph in use
// (server-streaming RPC; one GetContextsResponse per context).
type GetContextsRequest struct{}

// GetContextsResponse is one context resource; a nil Context is the
// default graph.
type GetContextsResponse struct {
	Context rdf.Term
}

// ContextRequest carries a possibly empty list of context resources;
// an empty list means the whole database.
type ContextRequest struct {
	Contexts []rdf.Term
}

// ClearRequest removes every statement, or, when Contexts is
// non-empty, only statements in those named graphs.
type ClearRequest struct {
	ContextRequest
}

type ClearResponse struct{}

// SizeRequest asks for the current statement count, or, when Contexts
// is non-empty, the summed per-context count.
type SizeRequest struct {
	ContextRequest
}

type SizeResponse struct {
	Count int64
}

// SparqlRequest carries one SPARQL query string plus the base URI
// relative IRIs resolve against, used by all three SparqlService
// methods. A BASE declaration inside the query overrides BaseURI.
type SparqlRequest struct {
	Query   string
	BaseURI string
}

// TupleQueryResponse is one row of a TupleQuery (SELECT) result
// stream.
type TupleQueryResponse struct {
	Variables []string
	Values    []rdf.Term
}

// GraphQueryResponse is one constructed statement of a GraphQuery
// (CONSTRUCT) result stream.
type GraphQueryResponse struct {
	Statement StatementMsg
}

// AskQueryResponse is the single boolean answer of an AskQuery.
type AskQueryResponse struct {
	Result bool
}
