package engine

import "github.com/triplewire/quadstore/internal/keycodec"

// table is a one-byte prefix distinguishing the engine's seven logical
// tables within the single shared BadgerDB keyspace.
type table byte

const (
	tableSPOC table = iota + 1
	tableCSPO
	tableOPSC
	tablePCOS
	tableNSPrefix
	tableNSURI
	tableMeta
)

// indexTable maps an IndexKind to the logical table that stores it.
func indexTable(kind keycodec.IndexKind) table {
	switch kind {
	case keycodec.IndexSPOC:
		return tableSPOC
	case keycodec.IndexCSPO:
		return tableCSPO
	case keycodec.IndexOPSC:
		return tableOPSC
	case keycodec.IndexPCOS:
		return tablePCOS
	}
	return tableSPOC
}

// allIndexKinds lists the four statement indexes the engine keeps in
// sync on every write.
var allIndexKinds = [4]keycodec.IndexKind{
	keycodec.IndexSPOC,
	keycodec.IndexCSPO,
	keycodec.IndexOPSC,
	keycodec.IndexPCOS,
}

// prefixedKey prepends a table's one-byte prefix to a raw key.
func prefixedKey(t table, key []byte) []byte {
	out := make([]byte, 0, len(key)+1)
	out = append(out, byte(t))
	return append(out, key...)
}

// metaCountKey is the meta-table key holding the running statement count.
var metaCountKey = []byte("count")
