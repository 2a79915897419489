package shardingproxy

import (
	"context"
	"io"
	"net"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/triplewire/quadstore/internal/engine"
	"github.com/triplewire/quadstore/internal/rpcservice"
	"github.com/triplewire/quadstore/internal/tripleadapter"
	"github.com/triplewire/quadstore/pkg/rdf"
)

const bufSize = 1 << 20

// newShardedCluster starts n backend engines behind in-process gRPC
// servers, each reachable over its own bufconn listener, and returns
// a Proxy fronting all of them alongside the backend engines
// themselves for direct inspection.
func newShardedCluster(t *testing.T, n int) (*Proxy, []*engine.Engine) {
	t.Helper()
	engines := make([]*engine.Engine, n)
	backends := make([]*Backend, n)

	for i := 0; i < n; i++ {
		e, err := engine.Open(t.TempDir(), engine.Options{})
		if err != nil {
			t.Fatalf("engine.Open: %v", err)
		}
		t.Cleanup(func() { _ = e.Close() })
		engines[i] = e

		lis := bufconn.Listen(bufSize)
		server := grpc.NewServer()
		rpcservice.RegisterQuadStoreServer(server, &rpcservice.QuadStoreServer{Engine: e})
		rpcservice.RegisterSparqlServer(server, &rpcservice.SparqlServer{Source: tripleadapter.New(e)})
		go func() { _ = server.Serve(lis) }()
		t.Cleanup(server.Stop)

		dialer := func(ctx context.Context, addr string) (net.Conn, error) {
			return lis.Dial()
		}
		opts := append(rpcservice.DialOptions(),
			grpc.WithContextDialer(dialer),
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		)
		conn, err := grpc.NewClient("passthrough:///bufnet", opts...)
		if err != nil {
			t.Fatalf("grpc.NewClient: %v", err)
		}
		t.Cleanup(func() { _ = conn.Close() })

		backends[i] = &Backend{
			Addr:   "bufnet",
			Conn:   conn,
			Store:  rpcservice.NewQuadStoreClient(conn),
			Sparql: rpcservice.NewSparqlClient(conn),
		}
	}

	return New(backends), engines
}

func statement(local string) rpcservice.StatementMsg {
	return rpcservice.StatementMsg{
		Subject:   rdf.NewURI("http://example.org/" + local),
		Predicate: rdf.NewURI("http://example.org/name"),
		Object:    rdf.NewStringLiteral(local),
	}
}

func TestAddStatementsHashRoutesAcrossShards(t *testing.T) {
	proxy, engines := newShardedCluster(t, 3)
	ctx := context.Background()

	msgs := []rpcservice.StatementMsg{
		statement("alice"), statement("bob"), statement("carol"),
		statement("dave"), statement("erin"), statement("frank"),
	}
	var i int
	recv := func() (*rpcservice.AddStatementsRequest, error) {
		if i >= len(msgs) {
			return nil, io.EOF
		}
		m := msgs[i]
		i++
		return &rpcservice.AddStatementsRequest{Statements: []rpcservice.StatementMsg{m}}, nil
	}
	resp, err := proxy.AddStatements(ctx, recv)
	if err != nil {
		t.Fatalf("AddStatements: %v", err)
	}
	if resp.Added != int64(len(msgs)) {
		t.Fatalf("Added = %d, want %d", resp.Added, len(msgs))
	}

	var total int64
	for _, e := range engines {
		n, err := e.Size(ctx, nil)
		if err != nil {
			t.Fatalf("Size: %v", err)
		}
		total += n
	}
	if total != int64(len(msgs)) {
		t.Fatalf("sum of shard sizes = %d, want %d", total, len(msgs))
	}
}

func TestSizeFansOutAndSums(t *testing.T) {
	proxy, _ := newShardedCluster(t, 2)
	ctx := context.Background()

	recv := func() func() (*rpcservice.AddStatementsRequest, error) {
		msgs := []rpcservice.StatementMsg{statement("alice"), statement("bob")}
		i := 0
		return func() (*rpcservice.AddStatementsRequest, error) {
			if i >= len(msgs) {
				return nil, io.EOF
			}
			m := msgs[i]
			i++
			return &rpcservice.AddStatementsRequest{Statements: []rpcservice.StatementMsg{m}}, nil
		}
	}()
	if _, err := proxy.AddStatements(ctx, recv); err != nil {
		t.Fatalf("AddStatements: %v", err)
	}

	sizeResp, err := proxy.Size(ctx, &rpcservice.SizeRequest{})
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if sizeResp.Count != 2 {
		t.Fatalf("Count = %d, want 2", sizeResp.Count)
	}
}

func TestGetStatementsFanoutMultiplexes(t *testing.T) {
	proxy, _ := newShardedCluster(t, 2)
	ctx := context.Background()

	msgs := []rpcservice.StatementMsg{statement("alice"), statement("bob"), statement("carol")}
	i := 0
	recv := func() (*rpcservice.AddStatementsRequest, error) {
		if i >= len(msgs) {
			return nil, io.EOF
		}
		m := msgs[i]
		i++
		return &rpcservice.AddStatementsRequest{Statements: []rpcservice.StatementMsg{m}}, nil
	}
	if _, err := proxy.AddStatements(ctx, recv); err != nil {
		t.Fatalf("AddStatements: %v", err)
	}

	var got []rpcservice.StatementMsg
	err := proxy.GetStatements(ctx, &rpcservice.GetStatementsRequest{}, func(resp *rpcservice.GetStatementsResponse) error {
		got = append(got, resp.Statement)
		return nil
	})
	if err != nil {
		t.Fatalf("GetStatements: %v", err)
	}
	if len(got) != len(msgs) {
		t.Fatalf("got %d statements, want %d", len(got), len(msgs))
	}
}

func TestClearFansOutToAllShards(t *testing.T) {
	proxy, engines := newShardedCluster(t, 2)
	ctx := context.Background()

	msgs := []rpcservice.StatementMsg{statement("alice"), statement("bob")}
	i := 0
	recv := func() (*rpcservice.AddStatementsRequest, error) {
		if i >= len(msgs) {
			return nil, io.EOF
		}
		m := msgs[i]
		i++
		return &rpcservice.AddStatementsRequest{Statements: []rpcservice.StatementMsg{m}}, nil
	}
	if _, err := proxy.AddStatements(ctx, recv); err != nil {
		t.Fatalf("AddStatements: %v", err)
	}
	if _, err := proxy.Clear(ctx, &rpcservice.ClearRequest{}); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	for _, e := range engines {
		n, err := e.Size(ctx, nil)
		if err != nil {
			t.Fatalf("Size: %v", err)
		}
		if n != 0 {
			t.Fatalf("shard size = %d after Clear, want 0", n)
		}
	}
}

func TestUpdateFansOutNamespacesAndHashRoutesStatements(t *testing.T) {
	proxy, engines := newShardedCluster(t, 3)
	ctx := context.Background()

	ops := []*rpcservice.UpdateRequest{
		{Kind: rpcservice.UpdateOpAddNamespace, Namespace: rpcservice.NamespaceMsg{Prefix: "ex2", URI: "http://example.org/2/"}},
		{Kind: rpcservice.UpdateOpAddStatement, Statement: statement("alice")},
		{Kind: rpcservice.UpdateOpAddStatement, Statement: statement("bob")},
	}
	i := 0
	recv := func() (*rpcservice.UpdateRequest, error) {
		if i >= len(ops) {
			return nil, io.EOF
		}
		op := ops[i]
		i++
		return op, nil
	}
	resp, err := proxy.Update(ctx, recv)
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if resp.NamespacesAdded != int64(len(engines)) {
		t.Fatalf("NamespacesAdded = %d, want %d (one fanned-out add per shard)", resp.NamespacesAdded, len(engines))
	}
	if resp.StatementsAdded != 2 {
		t.Fatalf("StatementsAdded = %d, want 2", resp.StatementsAdded)
	}

	for _, e := range engines {
		uri, err := e.GetNamespace(ctx, "ex2")
		if err != nil {
			t.Fatalf("GetNamespace: %v", err)
		}
		if uri != "http://example.org/2/" {
			t.Fatalf("unexpected ex2 URI on shard: %s", uri)
		}
	}

	var total int64
	for _, e := range engines {
		n, err := e.Size(ctx, nil)
		if err != nil {
			t.Fatalf("Size: %v", err)
		}
		total += n
	}
	if total != 2 {
		t.Fatalf("sum of shard sizes = %d, want 2", total)
	}
}

func TestSparqlProxyRejectsQueries(t *testing.T) {
	p := SparqlProxy{}
	_, err := p.AskQuery(context.Background(), &rpcservice.SparqlRequest{Query: "ASK {}"})
	if err == nil {
		t.Fatalf("AskQuery: expected Unimplemented error")
	}
	if status.Code(err) != codes.Unimplemented {
		t.Fatalf("AskQuery error code = %v, want Unimplemented", status.Code(err))
	}
}
