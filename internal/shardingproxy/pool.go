package shardingproxy

import (
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/triplewire/quadstore/internal/rpcservice"
)

// Backend is one shard: a persistent connection plus the two client
// stubs riding on it.
type Backend struct {
	Addr   string
	Conn   *grpc.ClientConn
	Store  *rpcservice.QuadStoreClient
	Sparql *rpcservice.SparqlClient
}

// DialBackends opens one persistent grpc.ClientConn per address. The
// caller owns the returned backends and must Close them with
// CloseBackends.
func DialBackends(addrs []string) ([]*Backend, error) {
	backends := make([]*Backend, 0, len(addrs))
	for _, addr := range addrs {
		opts := append(rpcservice.DialOptions(), grpc.WithTransportCredentials(insecure.NewCredentials()))
		conn, err := grpc.NewClient(addr, opts...)
		if err != nil {
			CloseBackends(backends)
			return nil, fmt.Errorf("shardingproxy: dial %s: %w", addr, err)
		}
		backends = append(backends, &Backend{
			Addr:   addr,
			Conn:   conn,
			Store:  rpcservice.NewQuadStoreClient(conn),
			Sparql: rpcservice.NewSparqlClient(conn),
		})
	}
	return backends, nil
}

// CloseBackends closes every backend connection, ignoring errors from
// already-closed connections.
func CloseBackends(backends []*Backend) {
	for _, b := range backends {
		if b.Conn != nil {
			_ = b.Conn.Close()
		}
	}
}
