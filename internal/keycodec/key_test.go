package keycodec

import (
	"bytes"
	"testing"

	"github.com/triplewire/quadstore/pkg/rdf"
)

func stmt() *rdf.Statement {
	return rdf.NewStatement(
		rdf.NewURI("http://example.org/alice"),
		rdf.NewURI("http://xmlns.com/foaf/0.1/name"),
		rdf.NewStringLiteral("Alice"),
		nil,
	)
}

func TestHashTermDeterministic(t *testing.T) {
	a := HashTerm(rdf.NewURI("http://example.org/alice"))
	b := HashTerm(rdf.NewURI("http://example.org/alice"))
	if a != b {
		t.Error("expected identical terms to hash identically")
	}
}

func TestHashTermDistinguishesTypes(t *testing.T) {
	uri := HashTerm(rdf.NewURI("same"))
	lit := HashTerm(rdf.NewStringLiteral("same"))
	if uri == lit {
		t.Error("expected a URI and a literal with the same text to hash differently")
	}
}

func TestHashTermNilIsZero(t *testing.T) {
	if HashTerm(nil) != (FieldHash{}) {
		t.Error("expected nil term to hash to the zero digest")
	}
}

func TestHashTermLangVsNoLang(t *testing.T) {
	plain := HashTerm(rdf.NewStringLiteral("hi"))
	empty := HashTerm(rdf.NewLangStringLiteral("hi", ""))
	if plain == empty {
		t.Error("expected no-lang and empty-lang literals to hash differently")
	}
}

func TestBuildKeyLength(t *testing.T) {
	k := BuildKey(IndexSPOC, stmt())
	if len(k.Bytes()) != 64 {
		t.Fatalf("expected 64-byte key, got %d", len(k.Bytes()))
	}
}

func TestBuildKeyOrderingDiffers(t *testing.T) {
	s := stmt()
	spoc := BuildKey(IndexSPOC, s)
	cspo := BuildKey(IndexCSPO, s)
	if bytes.Equal(spoc.Bytes(), cspo.Bytes()) {
		t.Error("expected different index orderings to produce different keys")
	}
}

func TestMinMaxKeySentinels(t *testing.T) {
	for _, b := range MinKey.Bytes() {
		if b != 0x00 {
			t.Fatal("expected MinKey to be all-zero")
		}
	}
	for _, b := range MaxKey.Bytes() {
		if b != 0xFF {
			t.Fatal("expected MaxKey to be all-0xFF")
		}
	}
	if Compare(MinKey, MaxKey) >= 0 {
		t.Error("expected MinKey to sort before MaxKey")
	}
}
