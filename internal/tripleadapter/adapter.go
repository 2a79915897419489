// Package tripleadapter exposes the storage engine through the narrow
// contract a SPARQL evaluator needs: ask whether a pattern matches
// anything, or stream every statement that matches it. Neither method
// buffers a full result set, so the evaluator can join large patterns
// without the adapter becoming the memory bottleneck.
package tripleadapter

import (
	"context"

	"github.com/triplewire/quadstore/internal/engine"
	"github.com/triplewire/quadstore/internal/planner"
	"github.com/triplewire/quadstore/pkg/rdf"
)

// TripleSource is the contract an external SPARQL evaluator consumes.
// It intentionally exposes nothing about indexes, keys, or the
// underlying storage engine.
type TripleSource interface {
	HasStatement(ctx context.Context, pattern planner.Pattern) (bool, error)
	GetStatements(ctx context.Context, pattern planner.Pattern, fn func(*rdf.Statement) (bool, error)) error
}

// Adapter implements TripleSource over an *engine.Engine.
type Adapter struct {
	engine *engine.Engine
}

func New(e *engine.Engine) *Adapter {
	return &Adapter{engine: e}
}

// HasStatement reports whether pattern matches at least one stored
// statement, stopping at the first hit.
func (a *Adapter) HasStatement(ctx context.Context, pattern planner.Pattern) (bool, error) {
	return a.engine.HasStatement(ctx, pattern)
}

// GetStatements streams every statement matching pattern to fn in
// index order. fn returning false stops the scan early.
func (a *Adapter) GetStatements(ctx context.Context, pattern planner.Pattern, fn func(*rdf.Statement) (bool, error)) error {
	return a.engine.ScanFunc(ctx, pattern, fn)
}

var _ TripleSource = (*Adapter)(nil)
