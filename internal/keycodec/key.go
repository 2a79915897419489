package keycodec

import (
	"bytes"

	"github.com/triplewire/quadstore/pkg/rdf"
)

// IndexKind names one of the four field orderings the storage engine
// maintains. Each ordering is a full permutation of a statement's four
// positions, chosen so that binding any one position to a constant
// yields a contiguous key range in at least one index.
type IndexKind byte

const (
	IndexSPOC IndexKind = iota // subject, predicate, object, context
	IndexCSPO                  // context, subject, predicate, object
	IndexOPSC                  // object, predicate, subject, context
	IndexPCOS                  // predicate, context, object, subject
)

func (k IndexKind) String() string {
	switch k {
	case IndexSPOC:
		return "SPOC"
	case IndexCSPO:
		return "CSPO"
	case IndexOPSC:
		return "OPSC"
	case IndexPCOS:
		return "PCOS"
	default:
		return "?"
	}
}

// Key is a 64-byte index key: four 16-byte field hashes concatenated
// in the order the IndexKind names.
type Key [64]byte

// Bytes returns the key as a byte slice for use with a KV store.
func (k Key) Bytes() []byte { return k[:] }

// Compare orders two keys using plain unsigned lexicographic byte
// comparison. bytes.Compare already implements this for []byte, so no
// dedicated comparator type is needed the way a C++ LevelDB port would
// require.
func Compare(a, b Key) int { return bytes.Compare(a[:], b[:]) }

// MinKey is the smallest possible key: every byte is the zero fill.
var MinKey = Key{}

// MaxKey is the largest possible key: every byte is the 0xFF fill.
var MaxKey = func() Key {
	var k Key
	for i := range k {
		k[i] = 0xFF
	}
	return k
}()

// BuildKey computes the index key for one statement under the given
// index ordering.
func BuildKey(kind IndexKind, stmt *rdf.Statement) Key {
	s := HashTerm(stmt.Subject)
	p := HashTerm(stmt.Predicate)
	o := HashTerm(stmt.Object)
	c := HashTerm(stmt.Context)

	var order [4]FieldHash
	switch kind {
	case IndexSPOC:
		order = [4]FieldHash{s, p, o, c}
	case IndexCSPO:
		order = [4]FieldHash{c, s, p, o}
	case IndexOPSC:
		order = [4]FieldHash{o, p, s, c}
	case IndexPCOS:
		order = [4]FieldHash{p, c, o, s}
	}

	var k Key
	copy(k[0:16], order[0][:])
	copy(k[16:32], order[1][:])
	copy(k[32:48], order[2][:])
	copy(k[48:64], order[3][:])
	return k
}
