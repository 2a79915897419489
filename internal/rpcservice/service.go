package rpcservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/triplewire/quadstore/internal/engine"
	"github.com/triplewire/quadstore/internal/sparqleval"
	"github.com/triplewire/quadstore/internal/tripleadapter"
	"github.com/triplewire/quadstore/pkg/rdf"
)

// QuadStoreServer implements the QuadStoreService RPCs over one
// storage engine. Log, when nil, falls back to the process-wide
// default logger.
type QuadStoreServer struct {
	Engine *engine.Engine
	Log    *log.Logger
}

func (s *QuadStoreServer) logf(format string, args ...any) {
	l := s.Log
	if l == nil {
		l = log.Default()
	}
	l.Printf(format, args...)
}

// toStatus maps an internal error to the gRPC status code the
// external interface contract assigns it: storage failures are
// INTERNAL, a missing namespace is NOT_FOUND, and a canceled context
// surfaces as CANCELLED rather than as a generic internal error.
// Malformed statements never reach it (they are logged and skipped),
// and SPARQL errors are mapped to INVALID_ARGUMENT by SparqlServer.
func toStatus(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, engine.ErrNamespaceNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}

func (s *QuadStoreServer) AddNamespaces(ctx context.Context, req *AddNamespacesRequest) (*AddNamespacesResponse, error) {
	namespaces := make([]rdf.Namespace, len(req.Namespaces))
	for i, n := range req.Namespaces {
		namespaces[i] = rdf.Namespace{Prefix: n.Prefix, URI: n.URI}
	}
	if err := s.Engine.AddNamespaces(ctx, namespaces); err != nil {
		return nil, toStatus(err)
	}
	return &AddNamespacesResponse{}, nil
}

func (s *QuadStoreServer) GetNamespace(ctx context.Context, req *GetNamespaceRequest) (*GetNamespaceResponse, error) {
	matches, err := s.Engine.FindNamespaces(ctx, engine.NamespacePattern{Prefix: req.Prefix, URI: req.URI})
	if err != nil {
		return nil, toStatus(err)
	}
	if len(matches) == 0 {
		return nil, status.Error(codes.NotFound, "rpcservice: namespace not found")
	}
	return &GetNamespaceResponse{Namespace: NamespaceMsg{Prefix: matches[0].Prefix, URI: matches[0].URI}}, nil
}

func (s *QuadStoreServer) GetNamespaces(req *GetNamespacesRequest, stream grpc.ServerStream) error {
	namespaces, err := s.Engine.GetNamespaces(stream.Context())
	if err != nil {
		return toStatus(err)
	}
	for _, n := range namespaces {
		if err := stream.SendMsg(&GetNamespacesResponse{Namespace: NamespaceMsg{Prefix: n.Prefix, URI: n.URI}}); err != nil {
			return toStatus(err)
		}
	}
	return nil
}

// AddStatements is a client-streaming RPC: the caller sends one or
// more batches, and the server acknowledges once the stream closes.
func (s *QuadStoreServer) AddStatements(stream grpc.ServerStream) error {
	var total int64
	for {
		req := new(AddStatementsRequest)
		if err := stream.RecvMsg(req); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return toStatus(err)
		}
		stmts := make([]*rdf.Statement, 0, len(req.Statements))
		for _, m := range req.Statements {
			stmt, convErr := fromStatementMsg(m)
			if convErr != nil {
				// Malformed statements never fail the batch.
				s.logf("rpcservice: skipping malformed statement: %v", convErr)
				continue
			}
			stmts = append(stmts, stmt)
		}
		if err := s.Engine.AddStatements(stream.Context(), stmts); err != nil {
			return toStatus(err)
		}
		total += int64(len(stmts))
	}
	return stream.SendMsg(&AddStatementsResponse{Added: total})
}

func (s *QuadStoreServer) GetStatements(req *GetStatementsRequest, stream grpc.ServerStream) error {
	pattern := fromPatternMsg(req.Pattern)
	return toStatus(s.Engine.ScanFunc(stream.Context(), pattern, func(stmt *rdf.Statement) (bool, error) {
		if err := stream.SendMsg(&GetStatementsResponse{Statement: toStatementMsg(stmt)}); err != nil {
			return false, err
		}
		return true, nil
	}))
}

func (s *QuadStoreServer) RemoveStatements(ctx context.Context, req *RemoveStatementsRequest) (*RemoveStatementsResponse, error) {
	removed, err := s.Engine.RemoveStatements(ctx, fromPatternMsg(req.Pattern))
	if err != nil {
		return nil, toStatus(err)
	}
	return &RemoveStatementsResponse{Removed: removed}, nil
}

// Update is a client-streaming RPC: the caller sends a stream of
// tagged operations (add/remove namespace, add/remove statement), and
// the server acknowledges once the stream closes with a count per
// operation kind.
func (s *QuadStoreServer) Update(stream grpc.ServerStream) error {
	var ops []engine.UpdateOp
	for {
		req := new(UpdateRequest)
		if err := stream.RecvMsg(req); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return toStatus(err)
		}
		op, convErr := fromUpdateRequest(req)
		if convErr != nil {
			// Malformed ops never fail the stream.
			s.logf("rpcservice: skipping malformed update op: %v", convErr)
			continue
		}
		ops = append(ops, op)
	}
	counts, err := s.Engine.ApplyUpdate(stream.Context(), ops)
	if err != nil {
		return toStatus(err)
	}
	return stream.SendMsg(&UpdateResponse{
		NamespacesAdded:   counts.NamespacesAdded,
		NamespacesRemoved: counts.NamespacesRemoved,
		StatementsAdded:   counts.StatementsAdded,
		StatementsRemoved: counts.StatementsRemoved,
	})
}

func (s *QuadStoreServer) Clear(ctx context.Context, req *ClearRequest) (*ClearResponse, error) {
	if err := s.Engine.Clear(ctx, fromContextRequest(req.ContextRequest)); err != nil {
		return nil, toStatus(err)
	}
	return &ClearResponse{}, nil
}

func (s *QuadStoreServer) Size(ctx context.Context, req *SizeRequest) (*SizeResponse, error) {
	count, err := s.Engine.Size(ctx, fromContextRequest(req.ContextRequest))
	if err != nil {
		return nil, toStatus(err)
	}
	return &SizeResponse{Count: count}, nil
}

func (s *QuadStoreServer) GetContexts(req *GetContextsRequest, stream grpc.ServerStream) error {
	contexts, err := s.Engine.GetContexts(stream.Context())
	if err != nil {
		return toStatus(err)
	}
	for _, c := range contexts {
		if err := stream.SendMsg(&GetContextsResponse{Context: c}); err != nil {
			return toStatus(err)
		}
	}
	return nil
}

// SparqlServer implements the SparqlService RPCs, translating SPARQL
// parse and evaluation errors into INVALID_ARGUMENT per the external
// interface contract.
type SparqlServer struct {
	Source tripleadapter.TripleSource
}

func (s *SparqlServer) parse(req *SparqlRequest) (*sparqleval.Query, error) {
	parser := sparqleval.NewParser(req.Query)
	if req.BaseURI != "" {
		parser.SetBase(req.BaseURI)
	}
	query, err := parser.Parse()
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, fmt.Sprintf("rpcservice: malformed SPARQL query %q: %v", req.Query, err))
	}
	return query, nil
}

func (s *SparqlServer) TupleQuery(req *SparqlRequest, stream grpc.ServerStream) error {
	query, err := s.parse(req)
	if err != nil {
		return err
	}
	if query.Type != sparqleval.QueryTypeSelect {
		return status.Error(codes.InvalidArgument, "rpcservice: TupleQuery requires a SELECT query")
	}
	result, err := sparqleval.Evaluate(stream.Context(), query, s.Source)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	varNames := make([]string, len(result.Variables))
	for i, v := range result.Variables {
		varNames[i] = v.Name
	}
	for _, b := range result.Bindings {
		values := make([]rdf.Term, len(varNames))
		for i, name := range varNames {
			values[i] = b[name]
		}
		if err := stream.SendMsg(&TupleQueryResponse{Variables: varNames, Values: values}); err != nil {
			return toStatus(err)
		}
	}
	return nil
}

func (s *SparqlServer) GraphQuery(req *SparqlRequest, stream grpc.ServerStream) error {
	query, err := s.parse(req)
	if err != nil {
		return err
	}
	if query.Type != sparqleval.QueryTypeConstruct {
		return status.Error(codes.InvalidArgument, "rpcservice: GraphQuery requires a CONSTRUCT query")
	}
	result, err := sparqleval.Evaluate(stream.Context(), query, s.Source)
	if err != nil {
		return status.Error(codes.InvalidArgument, err.Error())
	}
	for _, stmt := range result.Statements {
		if err := stream.SendMsg(&GraphQueryResponse{Statement: toStatementMsg(stmt)}); err != nil {
			return toStatus(err)
		}
	}
	return nil
}

func (s *SparqlServer) AskQuery(ctx context.Context, req *SparqlRequest) (*AskQueryResponse, error) {
	query, err := s.parse(req)
	if err != nil {
		return nil, err
	}
	if query.Type != sparqleval.QueryTypeAsk {
		return nil, status.Error(codes.InvalidArgument, "rpcservice: AskQuery requires an ASK query")
	}
	result, err := sparqleval.Evaluate(ctx, query, s.Source)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	return &AskQueryResponse{Result: result.Boolean}, nil
}
