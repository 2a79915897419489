package tripleadapter

import (
	"context"
	"testing"

	"github.com/triplewire/quadstore/internal/engine"
	"github.com/triplewire/quadstore/internal/planner"
	"github.com/triplewire/quadstore/pkg/rdf"
)

func TestAdapterStreamsWithoutBuffering(t *testing.T) {
	ctx := context.Background()
	e, err := engine.Open(t.TempDir(), engine.Options{})
	if err != nil {
		t.Fatalf("open engine: %v", err)
	}
	defer e.Close()

	alice := rdf.NewURI("http://example.org/alice")
	name := rdf.NewURI("http://xmlns.com/foaf/0.1/name")
	stmts := []*rdf.Statement{
		rdf.NewStatement(alice, name, rdf.NewStringLiteral("Alice"), nil),
		rdf.NewStatement(rdf.NewURI("http://example.org/bob"), name, rdf.NewStringLiteral("Bob"), nil),
	}
	if err := e.AddStatements(ctx, stmts); err != nil {
		t.Fatalf("add statements: %v", err)
	}

	adapter := New(e)

	has, err := adapter.HasStatement(ctx, planner.Pattern{Subject: planner.BoundTo(alice)})
	if err != nil {
		t.Fatalf("has statement: %v", err)
	}
	if !has {
		t.Error("expected alice to be present")
	}

	seen := 0
	err = adapter.GetStatements(ctx, planner.Pattern{Predicate: planner.BoundTo(name)}, func(s *rdf.Statement) (bool, error) {
		seen++
		return true, nil
	})
	if err != nil {
		t.Fatalf("get statements: %v", err)
	}
	if seen != 2 {
		t.Errorf("expected 2 statements streamed, got %d", seen)
	}
}

func TestAdapterEarlyStop(t *testing.T) {
	ctx := context.Background()
	e, err := engine.Open(t.TempDir(), engine.Options{})
	if err != nil {
		t.Fatalf("open engine: %v", err)
	}
	defer e.Close()

	name := rdf.NewURI("http://xmlns.com/foaf/0.1/name")
	stmts := []*rdf.Statement{
		rdf.NewStatement(rdf.NewURI("http://example.org/a"), name, rdf.NewStringLiteral("A"), nil),
		rdf.NewStatement(rdf.NewURI("http://example.org/b"), name, rdf.NewStringLiteral("B"), nil),
		rdf.NewStatement(rdf.NewURI("http://example.org/c"), name, rdf.NewStringLiteral("C"), nil),
	}
	if err := e.AddStatements(ctx, stmts); err != nil {
		t.Fatalf("add statements: %v", err)
	}

	adapter := New(e)
	seen := 0
	err = adapter.GetStatements(ctx, planner.Pattern{Predicate: planner.BoundTo(name)}, func(s *rdf.Statement) (bool, error) {
		seen++
		return false, nil
	})
	if err != nil {
		t.Fatalf("get statements: %v", err)
	}
	if seen != 1 {
		t.Errorf("expected scan to stop after 1 result, got %d", seen)
	}
}
