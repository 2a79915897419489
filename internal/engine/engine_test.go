package engine

import (
	"context"
	"testing"

	"github.com/triplewire/quadstore/internal/planner"
	"github.com/triplewire/quadstore/pkg/rdf"
)

func openTestEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := Open(t.TempDir(), Options{})
	if err != nil {
		t.Fatalf("failed to open engine: %v", err)
	}
	t.Cleanup(func() { e.Close() })
	return e
}

func aliceQuads() []*rdf.Statement {
	return []*rdf.Statement{
		rdf.NewStatement(
			rdf.NewURI("http://example.org/alice"),
			rdf.NewURI("http://xmlns.com/foaf/0.1/name"),
			rdf.NewStringLiteral("Alice"),
			nil,
		),
		rdf.NewStatement(
			rdf.NewURI("http://example.org/bob"),
			rdf.NewURI("http://xmlns.com/foaf/0.1/name"),
			rdf.NewStringLiteral("Bob"),
			nil,
		),
		rdf.NewStatement(
			rdf.NewURI("http://example.org/charlie"),
			rdf.NewURI("http://xmlns.com/foaf/0.1/name"),
			rdf.NewStringLiteral("Charlie"),
			rdf.NewURI("http://example.org/graph1"),
		),
	}
}

func TestAddAndCountStatements(t *testing.T) {
	ctx := context.Background()
	e := openTestEngine(t)

	if err := e.AddStatements(ctx, aliceQuads()); err != nil {
		t.Fatalf("add statements: %v", err)
	}

	count, err := e.Size(ctx, nil)
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if count != 3 {
		t.Errorf("expected count 3, got %d", count)
	}
}

func TestAddStatementsIsIdempotent(t *testing.T) {
	ctx := context.Background()
	e := openTestEngine(t)
	quads := aliceQuads()[:1]

	if err := e.AddStatements(ctx, quads); err != nil {
		t.Fatalf("add statements: %v", err)
	}
	if err := e.AddStatements(ctx, quads); err != nil {
		t.Fatalf("re-add statements: %v", err)
	}

	count, err := e.Size(ctx, nil)
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if count != 1 {
		t.Errorf("expected count 1 after re-adding the same statement, got %d", count)
	}
}

func TestGetStatementsDefaultGraph(t *testing.T) {
	ctx := context.Background()
	e := openTestEngine(t)
	if err := e.AddStatements(ctx, aliceQuads()); err != nil {
		t.Fatalf("add statements: %v", err)
	}

	stmts, err := e.GetStatements(ctx, planner.Pattern{Context: planner.BoundTo(nil)})
	if err != nil {
		t.Fatalf("get statements: %v", err)
	}
	if len(stmts) != 2 {
		t.Errorf("expected 2 default-graph statements, got %d", len(stmts))
	}
}

func TestGetStatementsNamedGraph(t *testing.T) {
	ctx := context.Background()
	e := openTestEngine(t)
	if err := e.AddStatements(ctx, aliceQuads()); err != nil {
		t.Fatalf("add statements: %v", err)
	}

	stmts, err := e.GetStatements(ctx, planner.Pattern{
		Context: planner.BoundTo(rdf.NewURI("http://example.org/graph1")),
	})
	if err != nil {
		t.Fatalf("get statements: %v", err)
	}
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement in named graph, got %d", len(stmts))
	}
	subj, ok := stmts[0].Subject.(*rdf.URI)
	if !ok || subj.IRI != "http://example.org/charlie" {
		t.Errorf("expected charlie, got %v", stmts[0].Subject)
	}
}

func TestGetStatementsSubjectAndPredicateBound(t *testing.T) {
	ctx := context.Background()
	e := openTestEngine(t)
	alice := rdf.NewURI("http://example.org/alice")
	name := rdf.NewURI("http://xmlns.com/foaf/0.1/name")
	age := rdf.NewURI("http://xmlns.com/foaf/0.1/age")

	quads := []*rdf.Statement{
		rdf.NewStatement(alice, name, rdf.NewStringLiteral("Alice"), nil),
		rdf.NewStatement(alice, age, rdf.NewIntegerLiteral(30), nil),
	}
	if err := e.AddStatements(ctx, quads); err != nil {
		t.Fatalf("add statements: %v", err)
	}

	stmts, err := e.GetStatements(ctx, planner.Pattern{
		Subject:   planner.BoundTo(alice),
		Predicate: planner.BoundTo(name),
	})
	if err != nil {
		t.Fatalf("get statements: %v", err)
	}
	if len(stmts) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(stmts))
	}
	lit, ok := stmts[0].Object.(*rdf.StringLiteral)
	if !ok || lit.Value != "Alice" {
		t.Errorf("expected literal Alice, got %v", stmts[0].Object)
	}
}

func TestGetStatementsSubjectAndObjectFiltered(t *testing.T) {
	ctx := context.Background()
	e := openTestEngine(t)
	s1 := rdf.NewURI("http://example.org/s1")
	o1 := rdf.NewURI("http://example.org/o1")

	quads := []*rdf.Statement{
		rdf.NewStatement(s1, rdf.NewURI("http://example.org/p1"), o1, nil),
		rdf.NewStatement(s1, rdf.NewURI("http://example.org/p2"), o1, nil),
		rdf.NewStatement(s1, rdf.NewURI("http://example.org/p3"), rdf.NewURI("http://example.org/o2"), nil),
		rdf.NewStatement(rdf.NewURI("http://example.org/s2"), rdf.NewURI("http://example.org/p1"), o1, nil),
		rdf.NewStatement(rdf.NewURI("http://example.org/s3"), rdf.NewURI("http://example.org/p2"), rdf.NewURI("http://example.org/o3"), nil),
	}
	if err := e.AddStatements(ctx, quads); err != nil {
		t.Fatalf("add statements: %v", err)
	}

	// Subject+object without predicate forces a filtered SPOC scan.
	stmts, err := e.GetStatements(ctx, planner.Pattern{
		Subject: planner.BoundTo(s1),
		Object:  planner.BoundTo(o1),
	})
	if err != nil {
		t.Fatalf("get statements: %v", err)
	}
	if len(stmts) != 2 {
		t.Fatalf("expected exactly the 2 (s1,*,o1) statements, got %d", len(stmts))
	}
	for _, s := range stmts {
		if !s.Subject.Equals(s1) || !s.Object.Equals(o1) {
			t.Errorf("filtered scan leaked non-matching statement %v", s)
		}
	}
}

func TestHasStatement(t *testing.T) {
	ctx := context.Background()
	e := openTestEngine(t)
	if err := e.AddStatements(ctx, aliceQuads()); err != nil {
		t.Fatalf("add statements: %v", err)
	}

	has, err := e.HasStatement(ctx, planner.Pattern{
		Subject: planner.BoundTo(rdf.NewURI("http://example.org/bob")),
	})
	if err != nil {
		t.Fatalf("has statement: %v", err)
	}
	if !has {
		t.Error("expected bob to be present")
	}

	has, err = e.HasStatement(ctx, planner.Pattern{
		Subject: planner.BoundTo(rdf.NewURI("http://example.org/nobody")),
	})
	if err != nil {
		t.Fatalf("has statement: %v", err)
	}
	if has {
		t.Error("expected nobody to be absent")
	}
}

func TestRemoveStatements(t *testing.T) {
	ctx := context.Background()
	e := openTestEngine(t)
	quads := aliceQuads()
	if err := e.AddStatements(ctx, quads); err != nil {
		t.Fatalf("add statements: %v", err)
	}

	removed, err := e.RemoveStatements(ctx, planner.Pattern{
		Subject: planner.BoundTo(rdf.NewURI("http://example.org/alice")),
	})
	if err != nil {
		t.Fatalf("remove statements: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 removed, got %d", removed)
	}

	count, err := e.Size(ctx, nil)
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if count != 2 {
		t.Errorf("expected count 2 after removal, got %d", count)
	}

	has, err := e.HasStatement(ctx, planner.Pattern{
		Subject: planner.BoundTo(rdf.NewURI("http://example.org/alice")),
	})
	if err != nil {
		t.Fatalf("has statement: %v", err)
	}
	if has {
		t.Error("alice should have been removed")
	}
}

func TestNamespaceRoundTrip(t *testing.T) {
	ctx := context.Background()
	e := openTestEngine(t)

	uri, err := e.GetNamespace(ctx, "foaf")
	if err != nil {
		t.Fatalf("expected well-known foaf namespace to be seeded: %v", err)
	}
	if uri != "http://xmlns.com/foaf/0.1/" {
		t.Errorf("unexpected foaf URI: %s", uri)
	}

	if err := e.AddNamespaces(ctx, []rdf.Namespace{{Prefix: "ex", URI: "http://example.org/"}}); err != nil {
		t.Fatalf("add namespaces: %v", err)
	}
	uri, err = e.GetNamespace(ctx, "ex")
	if err != nil {
		t.Fatalf("get namespace: %v", err)
	}
	if uri != "http://example.org/" {
		t.Errorf("unexpected ex URI: %s", uri)
	}

	_, err = e.GetNamespace(ctx, "nope")
	if err != ErrNamespaceNotFound {
		t.Errorf("expected ErrNamespaceNotFound, got %v", err)
	}
}

func TestFindNamespacesByPrefixAndURI(t *testing.T) {
	ctx := context.Background()
	e := openTestEngine(t)

	if err := e.AddNamespaces(ctx, []rdf.Namespace{{Prefix: "ex", URI: "http://example.com/"}}); err != nil {
		t.Fatalf("add namespaces: %v", err)
	}

	byPrefix, err := e.FindNamespaces(ctx, NamespacePattern{Prefix: "ex"})
	if err != nil {
		t.Fatalf("find by prefix: %v", err)
	}
	if len(byPrefix) != 1 || byPrefix[0].URI != "http://example.com/" {
		t.Fatalf("find by prefix: got %v", byPrefix)
	}

	byURI, err := e.FindNamespaces(ctx, NamespacePattern{URI: "http://example.com/"})
	if err != nil {
		t.Fatalf("find by uri: %v", err)
	}
	if len(byURI) != 1 || byURI[0].Prefix != "ex" {
		t.Fatalf("find by uri: got %v", byURI)
	}

	missing, err := e.FindNamespaces(ctx, NamespacePattern{Prefix: "zz"})
	if err != nil {
		t.Fatalf("find missing: %v", err)
	}
	if len(missing) != 0 {
		t.Fatalf("expected no match for zz, got %v", missing)
	}
}

func TestGetContextsDistinct(t *testing.T) {
	ctx := context.Background()
	e := openTestEngine(t)
	if err := e.AddStatements(ctx, aliceQuads()); err != nil {
		t.Fatalf("add statements: %v", err)
	}

	contexts, err := e.GetContexts(ctx)
	if err != nil {
		t.Fatalf("get contexts: %v", err)
	}
	if len(contexts) != 2 {
		t.Fatalf("expected 2 distinct contexts (default graph plus graph1), got %d", len(contexts))
	}
}

func TestGetNamespacesIncludesSeeded(t *testing.T) {
	ctx := context.Background()
	e := openTestEngine(t)

	namespaces, err := e.GetNamespaces(ctx)
	if err != nil {
		t.Fatalf("get namespaces: %v", err)
	}
	if len(namespaces) < 10 {
		t.Errorf("expected at least the 10 well-known namespaces, got %d", len(namespaces))
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	e := openTestEngine(t)
	if err := e.AddStatements(ctx, aliceQuads()); err != nil {
		t.Fatalf("add statements: %v", err)
	}
	if err := e.Clear(ctx, nil); err != nil {
		t.Fatalf("clear: %v", err)
	}
	count, err := e.Size(ctx, nil)
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if count != 0 {
		t.Errorf("expected count 0 after clear, got %d", count)
	}
}

func TestClearByContext(t *testing.T) {
	ctx := context.Background()
	e := openTestEngine(t)
	if err := e.AddStatements(ctx, aliceQuads()); err != nil {
		t.Fatalf("add statements: %v", err)
	}
	graph1 := rdf.NewURI("http://example.org/graph1")
	if err := e.Clear(ctx, []rdf.Resource{graph1}); err != nil {
		t.Fatalf("clear: %v", err)
	}
	count, err := e.Size(ctx, nil)
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if count != 2 {
		t.Errorf("expected count 2 after clearing graph1, got %d", count)
	}
}

func TestApplyUpdateTaggedOps(t *testing.T) {
	ctx := context.Background()
	e := openTestEngine(t)
	s1 := rdf.NewStatement(
		rdf.NewURI("http://example.org/s1"),
		rdf.NewURI("http://example.org/p1"),
		rdf.NewURI("http://example.org/o1"),
		nil,
	)
	s2 := rdf.NewStatement(
		rdf.NewURI("http://example.org/s1"),
		rdf.NewURI("http://example.org/p1"),
		rdf.NewURI("http://example.org/o3"),
		nil,
	)
	if err := e.AddStatements(ctx, []*rdf.Statement{s1}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	counts, err := e.ApplyUpdate(ctx, []UpdateOp{
		{Kind: OpAddNamespace, Namespace: rdf.Namespace{Prefix: "ex2", URI: "http://example.org/2/"}},
		{Kind: OpRemoveStatement, Statement: s1},
		{Kind: OpAddStatement, Statement: s2},
	})
	if err != nil {
		t.Fatalf("apply update: %v", err)
	}
	if counts.NamespacesAdded != 1 || counts.StatementsRemoved != 1 || counts.StatementsAdded != 1 {
		t.Fatalf("unexpected counts: %+v", counts)
	}

	count, err := e.Size(ctx, nil)
	if err != nil {
		t.Fatalf("size: %v", err)
	}
	if count != 1 {
		t.Errorf("expected count 1 after swap, got %d", count)
	}

	has, err := e.HasStatement(ctx, planner.Pattern{
		Subject:   planner.BoundTo(s1.Subject),
		Predicate: planner.BoundTo(s1.Predicate),
		Object:    planner.BoundTo(s1.Object),
	})
	if err != nil {
		t.Fatalf("has statement: %v", err)
	}
	if has {
		t.Error("s1 should have been removed")
	}

	uri, err := e.GetNamespace(ctx, "ex2")
	if err != nil {
		t.Fatalf("get namespace: %v", err)
	}
	if uri != "http://example.org/2/" {
		t.Errorf("unexpected ex2 URI: %s", uri)
	}
}
