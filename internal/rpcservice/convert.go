package rpcservice

import (
	"fmt"
	"unicode/utf8"

	"github.com/triplewire/quadstore/internal/engine"
	"github.com/triplewire/quadstore/internal/planner"
	"github.com/triplewire/quadstore/pkg/rdf"
)

func toStatementMsg(s *rdf.Statement) StatementMsg {
	return StatementMsg{
		Subject:   s.Subject,
		Predicate: s.Predicate,
		Object:    s.Object,
		Context:   s.Context,
	}
}

// FromStatementMsgForRouting exposes fromStatementMsg to callers
// outside this package (the sharding proxy) that need to compute a
// routing hash without re-adding a statement to storage.
func FromStatementMsgForRouting(m StatementMsg) (*rdf.Statement, error) {
	return fromStatementMsg(m)
}

func fromStatementMsg(m StatementMsg) (*rdf.Statement, error) {
	subject, ok := m.Subject.(rdf.Resource)
	if !ok {
		return nil, fmt.Errorf("rpcservice: subject %T is not a Resource", m.Subject)
	}
	if m.Predicate == nil {
		return nil, fmt.Errorf("rpcservice: predicate is required")
	}
	object, ok := m.Object.(rdf.Value)
	if !ok {
		return nil, fmt.Errorf("rpcservice: object %T is not a Value", m.Object)
	}
	var context rdf.Resource
	if m.Context != nil {
		context, ok = m.Context.(rdf.Resource)
		if !ok {
			return nil, fmt.Errorf("rpcservice: context %T is not a Resource", m.Context)
		}
	}
	for _, t := range []rdf.Term{subject, m.Predicate, object, context} {
		if err := validUTF8Term(t); err != nil {
			return nil, err
		}
	}
	return rdf.NewStatement(subject, m.Predicate, object, context), nil
}

// validUTF8Term rejects terms carrying invalid UTF-8; such statements
// are skipped on ingest rather than poisoning the stored indexes.
func validUTF8Term(t rdf.Term) error {
	switch v := t.(type) {
	case *rdf.URI:
		if !utf8.ValidString(v.IRI) {
			return fmt.Errorf("rpcservice: URI is not valid UTF-8")
		}
	case *rdf.StringLiteral:
		if !utf8.ValidString(v.Value) || !utf8.ValidString(v.Lang) {
			return fmt.Errorf("rpcservice: string literal is not valid UTF-8")
		}
	case *rdf.DatatypeLiteral:
		if !utf8.ValidString(v.Value) || !utf8.ValidString(v.Datatype.IRI) {
			return fmt.Errorf("rpcservice: datatype literal is not valid UTF-8")
		}
	}
	return nil
}

func toPatternMsg(p planner.Pattern) PatternMsg {
	return PatternMsg{
		Subject:      optionalTermOrNil(p.Subject),
		Predicate:    optionalTermOrNil(p.Predicate),
		Object:       optionalTermOrNil(p.Object),
		Context:      optionalTermOrNil(p.Context),
		ContextBound: p.Context.Bound,
	}
}

func optionalTermOrNil(o planner.OptionalTerm) rdf.Term {
	if !o.Bound {
		return nil
	}
	return o.Term
}

func fromUpdateRequest(req *UpdateRequest) (engine.UpdateOp, error) {
	switch req.Kind {
	case UpdateOpAddNamespace:
		return engine.UpdateOp{
			Kind:      engine.OpAddNamespace,
			Namespace: rdf.Namespace{Prefix: req.Namespace.Prefix, URI: req.Namespace.URI},
		}, nil
	case UpdateOpRemoveNamespace:
		return engine.UpdateOp{
			Kind:      engine.OpRemoveNamespace,
			Namespace: rdf.Namespace{Prefix: req.Namespace.Prefix},
		}, nil
	case UpdateOpAddStatement:
		stmt, err := fromStatementMsg(req.Statement)
		if err != nil {
			return engine.UpdateOp{}, err
		}
		return engine.UpdateOp{Kind: engine.OpAddStatement, Statement: stmt}, nil
	case UpdateOpRemoveStatement:
		stmt, err := fromStatementMsg(req.Statement)
		if err != nil {
			return engine.UpdateOp{}, err
		}
		return engine.UpdateOp{Kind: engine.OpRemoveStatement, Statement: stmt}, nil
	default:
		return engine.UpdateOp{}, fmt.Errorf("rpcservice: unknown update op kind %d", req.Kind)
	}
}

func fromContextRequest(cr ContextRequest) []rdf.Resource {
	if len(cr.Contexts) == 0 {
		return nil
	}
	out := make([]rdf.Resource, 0, len(cr.Contexts))
	for _, t := range cr.Contexts {
		if r, ok := t.(rdf.Resource); ok {
			out = append(out, r)
		}
	}
	return out
}

func fromPatternMsg(m PatternMsg) planner.Pattern {
	var p planner.Pattern
	if m.Subject != nil {
		p.Subject = planner.BoundTo(m.Subject)
	}
	if m.Predicate != nil {
		p.Predicate = planner.BoundTo(m.Predicate)
	}
	if m.Object != nil {
		p.Object = planner.BoundTo(m.Object)
	}
	if m.ContextBound {
		p.Context = planner.BoundTo(m.Context)
	}
	return p
}
