package keycodec

import (
	"encoding/binary"

	"github.com/spaolacci/murmur3"
	"github.com/triplewire/quadstore/pkg/rdf"
)

// hashSeed is the fixed seed used for every field hash, so that the
// same term always hashes to the same 128-bit value across process
// restarts and across shards.
const hashSeed = 13

// FieldHash is the 16-byte MurmurHash3 x64-128 digest of one RDF term,
// canonicalized to a fixed-width comparable encoding before hashing.
type FieldHash [16]byte

// HashTerm hashes a single term for use as one field of an index key.
// A nil term (the default-graph context) hashes to the all-zero digest,
// which sorts before every real hash and matches MinKey's fill.
func HashTerm(t rdf.Term) FieldHash {
	if t == nil {
		return FieldHash{}
	}
	h1, h2 := murmur3.Sum128WithSeed(canonicalBytes(t), hashSeed)
	var out FieldHash
	binary.BigEndian.PutUint64(out[0:8], h1)
	binary.BigEndian.PutUint64(out[8:16], h2)
	return out
}

// canonicalBytes renders a term into the byte string that gets hashed.
// The leading type tag keeps terms of different kinds from colliding
// even when their textual content is identical (e.g. a URI and a
// string literal with the same text).
func canonicalBytes(t rdf.Term) []byte {
	switch v := t.(type) {
	case *rdf.URI:
		return append([]byte{byte(rdf.TermTypeNamedNode)}, v.IRI...)
	case *rdf.BlankNode:
		return append([]byte{byte(rdf.TermTypeBlankNode)}, v.ID...)
	case *rdf.StringLiteral:
		b := []byte{byte(rdf.TermTypeStringLiteral)}
		if v.HasLang {
			b = append(b, 1)
			b = append(b, v.Lang...)
		} else {
			b = append(b, 0)
		}
		b = append(b, 0)
		b = append(b, v.Value...)
		return b
	case *rdf.DatatypeLiteral:
		b := []byte{byte(rdf.TermTypeDatatypeLiteral)}
		b = append(b, v.Datatype.IRI...)
		b = append(b, 0)
		b = append(b, v.Value...)
		return b
	default:
		return []byte(t.String())
	}
}
