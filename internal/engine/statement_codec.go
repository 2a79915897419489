package engine

import (
	"encoding/binary"
	"fmt"

	"github.com/triplewire/quadstore/internal/nsprefix"
	"github.com/triplewire/quadstore/pkg/rdf"
)

// encodeStatement serializes a statement to a flat byte string. Index
// values hold the fully serialized statement (not a back-reference
// into some id table) because the key codec's MurmurHash3 digests are
// one-way: nothing short of the original bytes can reconstruct a term
// from its hash.
func encodeStatement(s *rdf.Statement) []byte {
	var buf []byte
	buf = encodeResource(buf, s.Subject)
	buf = encodeTerm(buf, s.Predicate)
	buf = encodeTerm(buf, s.Object)
	buf = encodeResource(buf, s.Context)
	return buf
}

func decodeStatement(buf []byte) (*rdf.Statement, error) {
	subject, rest, err := decodeResource(buf)
	if err != nil {
		return nil, fmt.Errorf("decode subject: %w", err)
	}
	predTerm, rest, err := decodeTerm(rest)
	if err != nil {
		return nil, fmt.Errorf("decode predicate: %w", err)
	}
	pred, ok := predTerm.(*rdf.URI)
	if !ok {
		return nil, fmt.Errorf("decode predicate: expected URI, got %T", predTerm)
	}
	object, rest, err := decodeTerm(rest)
	if err != nil {
		return nil, fmt.Errorf("decode object: %w", err)
	}
	objVal, ok := object.(rdf.Value)
	if !ok {
		return nil, fmt.Errorf("decode object: %T is not a valid Value", object)
	}
	context, _, err := decodeResource(rest)
	if err != nil {
		return nil, fmt.Errorf("decode context: %w", err)
	}
	return rdf.NewStatement(subject, pred, objVal, context), nil
}

// Wire tags, distinct from rdf.TermType so the wire format doesn't
// break if TermType's numbering ever changes.
const (
	wireNil byte = iota
	wireURI
	wireBlankNode
	wireStringLiteral
	wireDatatypeLiteral
)

func encodeResource(buf []byte, r rdf.Resource) []byte {
	if r == nil {
		return append(buf, wireNil)
	}
	return encodeTerm(buf, r)
}

func decodeResource(buf []byte) (rdf.Resource, []byte, error) {
	if len(buf) == 0 {
		return nil, nil, fmt.Errorf("unexpected end of buffer")
	}
	if buf[0] == wireNil {
		return nil, buf[1:], nil
	}
	t, rest, err := decodeTerm(buf)
	if err != nil {
		return nil, nil, err
	}
	res, ok := t.(rdf.Resource)
	if !ok {
		return nil, nil, fmt.Errorf("%T is not a Resource", t)
	}
	return res, rest, nil
}

func encodeTerm(buf []byte, t rdf.Term) []byte {
	switch v := t.(type) {
	case nil:
		return append(buf, wireNil)
	case *rdf.URI:
		buf = append(buf, wireURI)
		return appendIRI(buf, v.IRI)
	case *rdf.BlankNode:
		buf = append(buf, wireBlankNode)
		return appendString(buf, v.ID)
	case *rdf.StringLiteral:
		buf = append(buf, wireStringLiteral)
		if v.HasLang {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
		buf = appendString(buf, v.Lang)
		return appendString(buf, v.Value)
	case *rdf.DatatypeLiteral:
		buf = append(buf, wireDatatypeLiteral)
		buf = appendIRI(buf, v.Datatype.IRI)
		return appendString(buf, v.Value)
	default:
		panic(fmt.Sprintf("engine: unsupported term type %T", t))
	}
}

func decodeTerm(buf []byte) (rdf.Term, []byte, error) {
	if len(buf) == 0 {
		return nil, nil, fmt.Errorf("unexpected end of buffer")
	}
	tag, buf := buf[0], buf[1:]
	switch tag {
	case wireNil:
		return nil, buf, nil
	case wireURI:
		s, rest, err := readIRI(buf)
		if err != nil {
			return nil, nil, err
		}
		return rdf.NewURI(s), rest, nil
	case wireBlankNode:
		s, rest, err := readString(buf)
		if err != nil {
			return nil, nil, err
		}
		return rdf.NewBlankNode(s), rest, nil
	case wireStringLiteral:
		if len(buf) < 1 {
			return nil, nil, fmt.Errorf("truncated string literal")
		}
		hasLang := buf[0] == 1
		buf = buf[1:]
		lang, rest, err := readString(buf)
		if err != nil {
			return nil, nil, err
		}
		value, rest2, err := readString(rest)
		if err != nil {
			return nil, nil, err
		}
		if hasLang {
			return rdf.NewLangStringLiteral(value, lang), rest2, nil
		}
		return rdf.NewStringLiteral(value), rest2, nil
	case wireDatatypeLiteral:
		dtURI, rest, err := readIRI(buf)
		if err != nil {
			return nil, nil, err
		}
		value, rest2, err := readString(rest)
		if err != nil {
			return nil, nil, err
		}
		return rdf.NewDatatypeLiteral(value, rdf.URI{IRI: dtURI}), rest2, nil
	default:
		return nil, nil, fmt.Errorf("unknown term wire tag %d", tag)
	}
}

// appendIRI writes an IRI prefix-compressed through the well-known
// namespace table when an entry covers it, falling back to the raw
// IRI otherwise. A leading flag byte records which form follows,
// since most IRIs in a store fall outside the closed namespace table.
func appendIRI(buf []byte, iri string) []byte {
	if shorthand, ok := nsprefix.Encode(iri); ok {
		buf = append(buf, 1)
		return appendString(buf, shorthand)
	}
	buf = append(buf, 0)
	return appendString(buf, iri)
}

func readIRI(buf []byte) (string, []byte, error) {
	if len(buf) < 1 {
		return "", nil, fmt.Errorf("truncated IRI compression flag")
	}
	compressed := buf[0] == 1
	buf = buf[1:]
	s, rest, err := readString(buf)
	if err != nil {
		return "", nil, err
	}
	if !compressed {
		return s, rest, nil
	}
	full, ok := nsprefix.Decode(s)
	if !ok {
		return "", nil, fmt.Errorf("unknown namespace shorthand %q", s)
	}
	return full, rest, nil
}

func appendString(buf []byte, s string) []byte {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(s)))
	buf = append(buf, lenBuf[:]...)
	return append(buf, s...)
}

func readString(buf []byte) (string, []byte, error) {
	if len(buf) < 4 {
		return "", nil, fmt.Errorf("truncated string length")
	}
	n := binary.BigEndian.Uint32(buf[:4])
	buf = buf[4:]
	if uint32(len(buf)) < n {
		return "", nil, fmt.Errorf("truncated string body")
	}
	return string(buf[:n]), buf[n:], nil
}
