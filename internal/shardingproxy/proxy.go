// Package shardingproxy fronts N quadstore backends behind the same
// two gRPC service interfaces internal/rpcservice exposes for a single
// engine. Namespace writes and pattern reads fan out to every backend,
// namespace reads go to any one backend, and statement writes
// hash-route to exactly one backend by the statement's murmur3 digest.
package shardingproxy

import (
	"context"
	"encoding/hex"
	"io"
	"sync"

	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/triplewire/quadstore/internal/rpcservice"
	"github.com/triplewire/quadstore/pkg/rdf"
)

// Proxy implements the QuadStoreService RPCs by routing to Backends.
type Proxy struct {
	Backends []*Backend

	mu         sync.Mutex
	roundRobin int
}

func New(backends []*Backend) *Proxy {
	return &Proxy{Backends: backends}
}

// pick returns the next backend for a random-backend routed call. A
// simple round-robin stands in for randomness: it distributes load
// evenly without needing a seeded RNG.
func (p *Proxy) pick() *Backend {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := p.Backends[p.roundRobin%len(p.Backends)]
	p.roundRobin++
	return b
}

func (p *Proxy) AddNamespaces(ctx context.Context, req *rpcservice.AddNamespacesRequest) (*rpcservice.AddNamespacesResponse, error) {
	var g errgroup.Group
	for _, b := range p.Backends {
		b := b
		g.Go(func() error {
			_, err := b.Store.AddNamespaces(ctx, req)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &rpcservice.AddNamespacesResponse{}, nil
}

func (p *Proxy) GetNamespace(ctx context.Context, req *rpcservice.GetNamespaceRequest) (*rpcservice.GetNamespaceResponse, error) {
	return p.pick().Store.GetNamespace(ctx, req)
}

// GetNamespaces forwards one backend's namespace stream; any shard
// holds the full table since namespace adds fan out everywhere.
func (p *Proxy) GetNamespaces(ctx context.Context, req *rpcservice.GetNamespacesRequest, send func(*rpcservice.GetNamespacesResponse) error) error {
	stream, err := p.pick().Store.GetNamespaces(ctx, req)
	if err != nil {
		return err
	}
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		if err := send(resp); err != nil {
			return err
		}
	}
}

// AddStatements hash-routes each incoming statement to exactly one
// backend, keeping one outbound stream open per backend for the
// lifetime of the call.
func (p *Proxy) AddStatements(ctx context.Context, recv func() (*rpcservice.AddStatementsRequest, error)) (*rpcservice.AddStatementsResponse, error) {
	streams := make([]*rpcservice.AddStatementsStream, len(p.Backends))
	opened := make([]bool, len(p.Backends))
	var total int64

	open := func(i int) (*rpcservice.AddStatementsStream, error) {
		if !opened[i] {
			s, err := p.Backends[i].Store.AddStatements(ctx)
			if err != nil {
				return nil, err
			}
			streams[i] = s
			opened[i] = true
		}
		return streams[i], nil
	}

	for {
		req, err := recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		byBackend := make([][]rpcservice.StatementMsg, len(p.Backends))
		for _, m := range req.Statements {
			stmt, convErr := rpcservice.FromStatementMsgForRouting(m)
			if convErr != nil {
				continue
			}
			idx := BackendFor(stmt, len(p.Backends))
			byBackend[idx] = append(byBackend[idx], m)
		}
		for i, msgs := range byBackend {
			if len(msgs) == 0 {
				continue
			}
			stream, err := open(i)
			if err != nil {
				return nil, err
			}
			if err := stream.Send(&rpcservice.AddStatementsRequest{Statements: msgs}); err != nil {
				return nil, err
			}
		}
	}

	for i, s := range streams {
		if !opened[i] {
			continue
		}
		resp, err := s.CloseAndRecv()
		if err != nil {
			return nil, err
		}
		total += resp.Added
	}
	return &rpcservice.AddStatementsResponse{Added: total}, nil
}

// GetStatements fans out to every backend and multiplexes their
// result streams into a single outbound callback, guarded by a mutex
// since sends can arrive from any backend's goroutine concurrently.
func (p *Proxy) GetStatements(ctx context.Context, req *rpcservice.GetStatementsRequest, send func(*rpcservice.GetStatementsResponse) error) error {
	var mu sync.Mutex
	var g errgroup.Group
	for _, b := range p.Backends {
		b := b
		g.Go(func() error {
			stream, err := b.Store.GetStatements(ctx, req)
			if err != nil {
				return err
			}
			for {
				resp, err := stream.Recv()
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				mu.Lock()
				err = send(resp)
				mu.Unlock()
				if err != nil {
					return err
				}
			}
		})
	}
	return g.Wait()
}

func (p *Proxy) RemoveStatements(ctx context.Context, req *rpcservice.RemoveStatementsRequest) (*rpcservice.RemoveStatementsResponse, error) {
	var mu sync.Mutex
	var total int64
	var g errgroup.Group
	for _, b := range p.Backends {
		b := b
		g.Go(func() error {
			resp, err := b.Store.RemoveStatements(ctx, req)
			if err != nil {
				return err
			}
			mu.Lock()
			total += resp.Removed
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &rpcservice.RemoveStatementsResponse{Removed: total}, nil
}

// Update consumes a client stream of tagged operations: add_ns/rm_ns
// ops fan out to every backend (a namespace has no hash-route home),
// and add_stmt/rm_stmt ops hash-route to exactly one backend each,
// exactly as AddStatements routes. The per-kind counts returned are
// summed across backends.
func (p *Proxy) Update(ctx context.Context, recv func() (*rpcservice.UpdateRequest, error)) (*rpcservice.UpdateResponse, error) {
	streams := make([]*rpcservice.UpdateStream, len(p.Backends))
	opened := make([]bool, len(p.Backends))

	open := func(i int) (*rpcservice.UpdateStream, error) {
		if !opened[i] {
			s, err := p.Backends[i].Store.Update(ctx)
			if err != nil {
				return nil, err
			}
			streams[i] = s
			opened[i] = true
		}
		return streams[i], nil
	}

	sendTo := func(i int, req *rpcservice.UpdateRequest) error {
		stream, err := open(i)
		if err != nil {
			return err
		}
		return stream.Send(req)
	}

	for {
		req, err := recv()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch req.Kind {
		case rpcservice.UpdateOpAddNamespace, rpcservice.UpdateOpRemoveNamespace:
			for i := range p.Backends {
				if err := sendTo(i, req); err != nil {
					return nil, err
				}
			}
		default:
			stmt, convErr := rpcservice.FromStatementMsgForRouting(req.Statement)
			if convErr != nil {
				continue
			}
			idx := BackendFor(stmt, len(p.Backends))
			if err := sendTo(idx, req); err != nil {
				return nil, err
			}
		}
	}

	var resp rpcservice.UpdateResponse
	for i, s := range streams {
		if !opened[i] {
			continue
		}
		r, err := s.CloseAndRecv()
		if err != nil {
			return nil, err
		}
		resp.NamespacesAdded += r.NamespacesAdded
		resp.NamespacesRemoved += r.NamespacesRemoved
		resp.StatementsAdded += r.StatementsAdded
		resp.StatementsRemoved += r.StatementsRemoved
	}
	return &resp, nil
}

func (p *Proxy) Clear(ctx context.Context, req *rpcservice.ClearRequest) (*rpcservice.ClearResponse, error) {
	var g errgroup.Group
	for _, b := range p.Backends {
		b := b
		g.Go(func() error {
			_, err := b.Store.Clear(ctx, req)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &rpcservice.ClearResponse{}, nil
}

// Size sums every backend's count. With a multi-context request each
// backend already sums its per-context scans, so a statement stored in
// two requested named graphs counts twice; see DESIGN.md.
func (p *Proxy) Size(ctx context.Context, req *rpcservice.SizeRequest) (*rpcservice.SizeResponse, error) {
	var mu sync.Mutex
	var total int64
	var g errgroup.Group
	for _, b := range p.Backends {
		b := b
		g.Go(func() error {
			resp, err := b.Store.Size(ctx, req)
			if err != nil {
				return err
			}
			mu.Lock()
			total += resp.Count
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &rpcservice.SizeResponse{Count: total}, nil
}

// GetContexts fans out and dedups by structural term equality, since
// the same named graph can legitimately live on more than one shard.
// Sends are serialized under the same mutex guarding the seen set.
func (p *Proxy) GetContexts(ctx context.Context, req *rpcservice.GetContextsRequest, send func(*rpcservice.GetContextsResponse) error) error {
	var mu sync.Mutex
	seen := make(map[string]bool)
	var g errgroup.Group
	for _, b := range p.Backends {
		b := b
		g.Go(func() error {
			stream, err := b.Store.GetContexts(ctx, req)
			if err != nil {
				return err
			}
			for {
				resp, err := stream.Recv()
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return err
				}
				key := contextKey(resp.Context)
				mu.Lock()
				if seen[key] {
					mu.Unlock()
					continue
				}
				seen[key] = true
				err = send(resp)
				mu.Unlock()
				if err != nil {
					return err
				}
			}
		})
	}
	return g.Wait()
}

func contextKey(t rdf.Term) string {
	if t == nil {
		return ""
	}
	switch v := t.(type) {
	case *rdf.URI:
		return "u:" + v.IRI
	case *rdf.BlankNode:
		return "b:" + v.ID
	default:
		return hex.EncodeToString([]byte(v.String()))
	}
}

// SparqlProxy rejects every SparqlService RPC: query evaluation is
// scoped to a single engine, and the proxy fans out pattern lookups
// only — it never executes cross-shard joins.
type SparqlProxy struct{}

func (SparqlProxy) unimplemented() error {
	return status.Error(codes.Unimplemented, "shardingproxy: SPARQL evaluation is not supported across shards")
}

func (s SparqlProxy) TupleQuery(*rpcservice.SparqlRequest, func(*rpcservice.TupleQueryResponse) error) error {
	return s.unimplemented()
}

func (s SparqlProxy) GraphQuery(*rpcservice.SparqlRequest, func(*rpcservice.GraphQueryResponse) error) error {
	return s.unimplemented()
}

func (s SparqlProxy) AskQuery(context.Context, *rpcservice.SparqlRequest) (*rpcservice.AskQueryResponse, error) {
	return nil, s.unimplemented()
}
