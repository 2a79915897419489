// Command quadstored runs the quad store as a standalone gRPC service
// or, when given a backend list, as a sharding proxy fronting other
// quadstored instances.
package main

import (
	"flag"
	"log"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"google.golang.org/grpc"

	"github.com/triplewire/quadstore/internal/engine"
	"github.com/triplewire/quadstore/internal/rpcservice"
	"github.com/triplewire/quadstore/internal/shardingproxy"
	"github.com/triplewire/quadstore/internal/tripleadapter"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		log.Printf("quadstored: no .env loaded: %v", err)
	}

	addr := flag.String("addr", "localhost:7070", "bind address for the gRPC listener")
	dbDir := flag.String("db", "./quadstore_data", "BadgerDB data directory (ignored in proxy mode)")
	workers := flag.Int("workers", engine.DefaultWorkers, "index writer worker pool size (ignored in proxy mode)")
	subBatch := flag.Int("subbatch", engine.DefaultSubBatchSize, "sub-batch size before flushing a write batch (ignored in proxy mode)")
	blockCache := flag.Int64("blockcache", 0, "BadgerDB block cache size in bytes; zero leaves Badger's own default in place (ignored in proxy mode)")
	backendList := flag.String("backends", "", "comma-separated backend addresses; when set, runs as a sharding proxy instead of a standalone engine")
	flag.Parse()

	lis, err := net.Listen("tcp", *addr)
	if err != nil {
		log.Fatalf("quadstored: listen %s: %v", *addr, err)
	}

	server := grpc.NewServer()

	if *backendList != "" {
		runProxy(server, *backendList)
	} else {
		runStandalone(server, *dbDir, *workers, *subBatch, *blockCache)
	}

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Println("quadstored: shutting down")
		server.GracefulStop()
	}()

	log.Printf("quadstored: serving on %s", *addr)
	if err := server.Serve(lis); err != nil {
		log.Fatalf("quadstored: serve: %v", err)
	}
}

func runStandalone(server *grpc.Server, dbDir string, workers, subBatch int, blockCache int64) {
	e, err := engine.Open(dbDir, engine.Options{Workers: workers, SubBatchSize: subBatch, BlockCacheBytes: blockCache})
	if err != nil {
		log.Fatalf("quadstored: open engine at %s: %v", dbDir, err)
	}
	rpcservice.RegisterQuadStoreServer(server, &rpcservice.QuadStoreServer{Engine: e})
	rpcservice.RegisterSparqlServer(server, &rpcservice.SparqlServer{Source: tripleadapter.New(e)})
	log.Printf("quadstored: standalone engine at %s", dbDir)
}

func runProxy(server *grpc.Server, backendList string) {
	addrs := strings.Split(backendList, ",")
	for i, a := range addrs {
		addrs[i] = strings.TrimSpace(a)
	}
	backends, err := shardingproxy.DialBackends(addrs)
	if err != nil {
		log.Fatalf("quadstored: dial backends: %v", err)
	}
	proxy := shardingproxy.New(backends)
	shardingproxy.Register(server, proxy)
	log.Printf("quadstored: sharding proxy fronting %d backend(s): %s", len(backends), backendList)
}
