package planner

import (
	"testing"

	"github.com/triplewire/quadstore/internal/keycodec"
	"github.com/triplewire/quadstore/pkg/rdf"
)

func TestSelectSubjectAndContextPrefersCSPO(t *testing.T) {
	p := Pattern{
		Subject: BoundTo(rdf.NewURI("s")),
		Context: BoundTo(rdf.NewURI("g")),
	}
	plan := Select(p)
	if plan.Index != keycodec.IndexCSPO {
		t.Errorf("expected CSPO, got %s", plan.Index)
	}
	if plan.NeedsFilter {
		t.Error("subject+context bound should not require a filter pass under CSPO")
	}
}

func TestSelectSubjectOnly(t *testing.T) {
	plan := Select(Pattern{Subject: BoundTo(rdf.NewURI("s"))})
	if plan.Index != keycodec.IndexSPOC {
		t.Errorf("expected SPOC, got %s", plan.Index)
	}
}

func TestSelectObjectOnly(t *testing.T) {
	plan := Select(Pattern{Object: BoundTo(rdf.NewStringLiteral("o"))})
	if plan.Index != keycodec.IndexOPSC {
		t.Errorf("expected OPSC, got %s", plan.Index)
	}
}

func TestSelectPredicateOnly(t *testing.T) {
	plan := Select(Pattern{Predicate: BoundTo(rdf.NewURI("p"))})
	if plan.Index != keycodec.IndexPCOS {
		t.Errorf("expected PCOS, got %s", plan.Index)
	}
}

func TestSelectContextOnly(t *testing.T) {
	plan := Select(Pattern{Context: BoundTo(rdf.NewURI("g"))})
	if plan.Index != keycodec.IndexCSPO {
		t.Errorf("expected CSPO, got %s", plan.Index)
	}
}

func TestSelectUnboundFallsBackToSPOC(t *testing.T) {
	plan := Select(Pattern{})
	if plan.Index != keycodec.IndexSPOC {
		t.Errorf("expected SPOC fallback, got %s", plan.Index)
	}
}

func TestSelectSubjectAndPredicateIsContiguousPrefix(t *testing.T) {
	plan := Select(Pattern{
		Subject:   BoundTo(rdf.NewURI("s")),
		Predicate: BoundTo(rdf.NewURI("p")),
	})
	if plan.Index != keycodec.IndexSPOC {
		t.Fatalf("expected SPOC, got %s", plan.Index)
	}
	if plan.NeedsFilter {
		t.Error("subject+predicate is a contiguous SPOC prefix and needs no filter")
	}
}

func TestSelectSubjectAndObjectNeedsFilter(t *testing.T) {
	// Subject+object with no predicate binds a non-contiguous slice of
	// the SPOC order, so the object must be re-checked per statement.
	plan := Select(Pattern{
		Subject: BoundTo(rdf.NewURI("s")),
		Object:  BoundTo(rdf.NewStringLiteral("o")),
	})
	if plan.Index != keycodec.IndexSPOC {
		t.Fatalf("expected SPOC, got %s", plan.Index)
	}
	if !plan.NeedsFilter {
		t.Error("expected NeedsFilter true for subject+object without predicate")
	}
}

func TestBuildRangeFullyBoundIsSinglePointRange(t *testing.T) {
	p := Pattern{
		Subject:   BoundTo(rdf.NewURI("s")),
		Predicate: BoundTo(rdf.NewURI("p")),
		Object:    BoundTo(rdf.NewStringLiteral("o")),
		Context:   BoundTo(nil),
	}
	plan := Select(p)
	start, end := BuildRange(plan, p)
	if start != end {
		t.Error("expected a fully bound pattern to produce a single-point range")
	}
}

func TestBuildRangeUnboundSpansEverything(t *testing.T) {
	plan := Select(Pattern{})
	start, end := BuildRange(plan, Pattern{})
	if start != keycodec.MinKey {
		t.Error("expected start to equal MinKey for a fully unbound pattern")
	}
	if end != keycodec.MaxKey {
		t.Error("expected end to equal MaxKey for a fully unbound pattern")
	}
}
