package shardingproxy

import (
	"encoding/binary"
	"math/bits"

	"github.com/triplewire/quadstore/internal/keycodec"
	"github.com/triplewire/quadstore/pkg/rdf"
)

// HashStatement derives a 64-bit routing hash from the statement's
// canonical SPOC index key, folding its eight 8-byte lanes by rotating
// the running value before XOR-ing in each lane, so a lane's position
// changes its contribution and swapping two fields changes the hash.
// The key is built from the same murmur3-128 term hashes the storage
// engine indexes by, so the route is deterministic and independent of
// platform or process: a statement always lands on the same shard for
// a fixed backend count, and a later exact-match remove routes to the
// shard its add went to.
func HashStatement(stmt *rdf.Statement) uint64 {
	key := keycodec.BuildKey(keycodec.IndexSPOC, stmt)
	var v uint64
	for i := 0; i < len(key); i += 8 {
		v = bits.RotateLeft64(v, 17) ^ binary.BigEndian.Uint64(key[i:i+8])
	}
	return v
}

// BackendFor selects the backend index a statement hash-routes to.
func BackendFor(stmt *rdf.Statement, backendCount int) int {
	if backendCount <= 0 {
		return 0
	}
	return int(HashStatement(stmt) % uint64(backendCount))
}
