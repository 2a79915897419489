package shardingproxy

import (
	"testing"

	"github.com/triplewire/quadstore/pkg/rdf"
)

func quad(s, p, o string) *rdf.Statement {
	return rdf.NewStatement(rdf.NewURI(s), rdf.NewURI(p), rdf.NewURI(o), nil)
}

func TestHashStatementDeterministic(t *testing.T) {
	a := HashStatement(quad("http://ex/s", "http://ex/p", "http://ex/o"))
	b := HashStatement(quad("http://ex/s", "http://ex/p", "http://ex/o"))
	if a != b {
		t.Error("expected identical statements to hash identically")
	}
}

func TestHashStatementPositionSensitive(t *testing.T) {
	a := HashStatement(quad("http://ex/a", "http://ex/p", "http://ex/c"))
	b := HashStatement(quad("http://ex/c", "http://ex/p", "http://ex/a"))
	if a == b {
		t.Error("expected swapping subject and object to change the hash")
	}
}

func TestHashStatementContextChangesRoute(t *testing.T) {
	base := quad("http://ex/s", "http://ex/p", "http://ex/o")
	named := rdf.NewStatement(base.Subject, base.Predicate, base.Object, rdf.NewURI("http://ex/g"))
	if HashStatement(base) == HashStatement(named) {
		t.Error("expected a named-graph statement to hash differently from its default-graph twin")
	}
}

func TestBackendForStaysInRange(t *testing.T) {
	for i := 0; i < 50; i++ {
		s := quad("http://ex/s", "http://ex/p", "http://ex/o")
		idx := BackendFor(s, 3)
		if idx < 0 || idx >= 3 {
			t.Fatalf("backend index %d out of range", idx)
		}
	}
}
