package sparqleval

import (
	"context"
	"fmt"
	"sort"
	"strconv"

	"github.com/triplewire/quadstore/internal/planner"
	"github.com/triplewire/quadstore/internal/tripleadapter"
	"github.com/triplewire/quadstore/pkg/rdf"
)

// Binding maps variable names to the term they're bound to within one
// solution.
type Binding map[string]rdf.Term

func (b Binding) clone() Binding {
	out := make(Binding, len(b)+1)
	for k, v := range b {
		out[k] = v
	}
	return out
}

// Result is the outcome of evaluating a Query.
type Result struct {
	// Variables is the projected variable list for a SELECT query.
	Variables []*Variable
	// Bindings holds one entry per solution, for SELECT.
	Bindings []Binding
	// Boolean holds the answer for an ASK query.
	Boolean bool
	// Statements holds the instantiated triples for a CONSTRUCT query.
	Statements []*rdf.Statement
}

// Evaluate executes a parsed query against source.
func Evaluate(ctx context.Context, q *Query, source tripleadapter.TripleSource) (*Result, error) {
	switch q.Type {
	case QueryTypeSelect:
		return evaluateSelect(ctx, q.Select, source)
	case QueryTypeAsk:
		return evaluateAsk(ctx, q.Ask, source)
	case QueryTypeConstruct:
		return evaluateConstruct(ctx, q.Construct, source)
	default:
		return nil, fmt.Errorf("sparqleval: unsupported query type")
	}
}

func evaluateSelect(ctx context.Context, q *SelectQuery, source tripleadapter.TripleSource) (*Result, error) {
	bindings, err := joinPatterns(ctx, q.Where.Patterns, source)
	if err != nil {
		return nil, err
	}
	bindings, err = applyFilters(bindings, q.Where.Filters)
	if err != nil {
		return nil, err
	}

	if len(q.OrderBy) > 0 {
		sortBindings(bindings, q.OrderBy)
	}

	if q.Distinct {
		bindings = dedupeBindings(bindings)
	}

	if q.Offset != nil && *q.Offset < len(bindings) {
		bindings = bindings[*q.Offset:]
	} else if q.Offset != nil {
		bindings = nil
	}
	if q.Limit != nil && *q.Limit < len(bindings) {
		bindings = bindings[:*q.Limit]
	}

	vars := q.Variables
	if len(vars) == 0 {
		// SELECT * projects every variable bound by any solution.
		seen := make(map[string]bool)
		var names []string
		for _, b := range bindings {
			for name := range b {
				if !seen[name] {
					seen[name] = true
					names = append(names, name)
				}
			}
		}
		sort.Strings(names)
		for _, name := range names {
			vars = append(vars, &Variable{Name: name})
		}
	}

	return &Result{Variables: vars, Bindings: bindings}, nil
}

func evaluateAsk(ctx context.Context, q *AskQuery, source tripleadapter.TripleSource) (*Result, error) {
	bindings, err := joinPatterns(ctx, q.Where.Patterns, source)
	if err != nil {
		return nil, err
	}
	bindings, err = applyFilters(bindings, q.Where.Filters)
	if err != nil {
		return nil, err
	}
	return &Result{Boolean: len(bindings) > 0}, nil
}

func evaluateConstruct(ctx context.Context, q *ConstructQuery, source tripleadapter.TripleSource) (*Result, error) {
	bindings, err := joinPatterns(ctx, q.Where.Patterns, source)
	if err != nil {
		return nil, err
	}
	bindings, err = applyFilters(bindings, q.Where.Filters)
	if err != nil {
		return nil, err
	}

	var out []*rdf.Statement
	for _, b := range bindings {
		for _, tp := range q.Template {
			stmt, ok := instantiate(tp, b)
			if ok {
				out = append(out, stmt)
			}
		}
	}
	return &Result{Statements: out}, nil
}

func instantiate(tp *TriplePattern, b Binding) (*rdf.Statement, bool) {
	s, ok := resolveTerm(tp.Subject, b)
	if !ok {
		return nil, false
	}
	subj, ok := s.(rdf.Resource)
	if !ok {
		return nil, false
	}
	p, ok := resolveTerm(tp.Predicate, b)
	if !ok {
		return nil, false
	}
	pred, ok := p.(*rdf.URI)
	if !ok {
		return nil, false
	}
	o, ok := resolveTerm(tp.Object, b)
	if !ok {
		return nil, false
	}
	obj, ok := o.(rdf.Value)
	if !ok {
		return nil, false
	}
	return rdf.NewStatement(subj, pred, obj, nil), true
}

func resolveTerm(tv TermOrVariable, b Binding) (rdf.Term, bool) {
	if !tv.IsVariable() {
		return tv.Term, true
	}
	t, ok := b[tv.Variable.Name]
	return t, ok
}

// joinPatterns evaluates a conjunction of triple patterns with a
// left-deep nested-loop join: each new pattern is matched once per
// existing binding, narrowing the pattern with whatever that binding
// already fixes and re-checking any variable the pattern repeats.
func joinPatterns(ctx context.Context, patterns []*TriplePattern, source tripleadapter.TripleSource) ([]Binding, error) {
	bindings := []Binding{{}}
	for _, tp := range patterns {
		var next []Binding
		for _, b := range bindings {
			pattern, err := buildPattern(tp, b)
			if err != nil {
				return nil, err
			}
			err = source.GetStatements(ctx, pattern, func(s *rdf.Statement) (bool, error) {
				extended, ok := extendBinding(tp, b, s)
				if ok {
					next = append(next, extended)
				}
				return true, nil
			})
			if err != nil {
				return nil, err
			}
		}
		bindings = next
		if len(bindings) == 0 {
			break
		}
	}
	return bindings, nil
}

func buildPattern(tp *TriplePattern, b Binding) (planner.Pattern, error) {
	var p planner.Pattern
	p.Subject = optionalFor(tp.Subject, b)
	p.Predicate = optionalFor(tp.Predicate, b)
	p.Object = optionalFor(tp.Object, b)
	return p, nil
}

func optionalFor(tv TermOrVariable, b Binding) planner.OptionalTerm {
	if !tv.IsVariable() {
		return planner.BoundTo(tv.Term)
	}
	if t, ok := b[tv.Variable.Name]; ok {
		return planner.BoundTo(t)
	}
	return planner.Unbound
}

// extendBinding checks that statement s is consistent with the
// existing binding b and with any variable tp repeats across
// positions, then returns the binding extended with tp's unbound
// variables.
func extendBinding(tp *TriplePattern, b Binding, s *rdf.Statement) (Binding, bool) {
	out := b.clone()
	if !unifyPosition(tp.Subject, s.Subject, out) {
		return nil, false
	}
	if !unifyPosition(tp.Predicate, s.Predicate, out) {
		return nil, false
	}
	if !unifyPosition(tp.Object, s.Object, out) {
		return nil, false
	}
	return out, true
}

func unifyPosition(tv TermOrVariable, actual rdf.Term, b Binding) bool {
	if !tv.IsVariable() {
		return true
	}
	if existing, ok := b[tv.Variable.Name]; ok {
		return existing.Equals(actual)
	}
	b[tv.Variable.Name] = actual
	return true
}

func applyFilters(bindings []Binding, filters []*Filter) ([]Binding, error) {
	if len(filters) == 0 {
		return bindings, nil
	}
	var out []Binding
	for _, b := range bindings {
		keep := true
		for _, f := range filters {
			v, err := evalExpr(f.Expression, b)
			if err != nil {
				return nil, err
			}
			if !truthy(v) {
				keep = false
				break
			}
		}
		if keep {
			out = append(out, b)
		}
	}
	return out, nil
}

func evalExpr(e Expression, b Binding) (rdf.Term, error) {
	switch v := e.(type) {
	case *LiteralExpression:
		return v.Term, nil
	case *VariableExpression:
		t, ok := b[v.Variable.Name]
		if !ok {
			return nil, fmt.Errorf("sparqleval: unbound variable ?%s in FILTER", v.Variable.Name)
		}
		return t, nil
	case *UnaryExpression:
		operand, err := evalExpr(v.Operand, b)
		if err != nil {
			return nil, err
		}
		if v.Operator == OpNot {
			return rdf.NewBooleanLiteral(!truthy(operand)), nil
		}
		return nil, fmt.Errorf("sparqleval: unsupported unary operator")
	case *BinaryExpression:
		return evalBinary(v, b)
	default:
		return nil, fmt.Errorf("sparqleval: unsupported expression %T", e)
	}
}

func evalBinary(e *BinaryExpression, b Binding) (rdf.Term, error) {
	if e.Operator == OpAnd || e.Operator == OpOr {
		left, err := evalExpr(e.Left, b)
		if err != nil {
			return nil, err
		}
		if e.Operator == OpAnd && !truthy(left) {
			return rdf.NewBooleanLiteral(false), nil
		}
		if e.Operator == OpOr && truthy(left) {
			return rdf.NewBooleanLiteral(true), nil
		}
		right, err := evalExpr(e.Right, b)
		if err != nil {
			return nil, err
		}
		return rdf.NewBooleanLiteral(truthy(right)), nil
	}

	left, err := evalExpr(e.Left, b)
	if err != nil {
		return nil, err
	}
	right, err := evalExpr(e.Right, b)
	if err != nil {
		return nil, err
	}

	switch e.Operator {
	case OpEqual:
		return rdf.NewBooleanLiteral(left.Equals(right)), nil
	case OpNotEqual:
		return rdf.NewBooleanLiteral(!left.Equals(right)), nil
	case OpLessThan, OpLessThanOrEqual, OpGreaterThan, OpGreaterThanOrEqual:
		cmp, ok := compareNumeric(left, right)
		if !ok {
			return nil, fmt.Errorf("sparqleval: cannot order non-numeric terms in FILTER")
		}
		switch e.Operator {
		case OpLessThan:
			return rdf.NewBooleanLiteral(cmp < 0), nil
		case OpLessThanOrEqual:
			return rdf.NewBooleanLiteral(cmp <= 0), nil
		case OpGreaterThan:
			return rdf.NewBooleanLiteral(cmp > 0), nil
		default:
			return rdf.NewBooleanLiteral(cmp >= 0), nil
		}
	default:
		return nil, fmt.Errorf("sparqleval: unsupported binary operator")
	}
}

func truthy(t rdf.Term) bool {
	switch v := t.(type) {
	case *rdf.DatatypeLiteral:
		if v.Datatype.IRI == rdf.XSDBoolean.IRI {
			return v.Value == "true" || v.Value == "1"
		}
		if f, err := strconv.ParseFloat(v.Value, 64); err == nil {
			return f != 0
		}
	case *rdf.StringLiteral:
		return v.Value != ""
	}
	return t != nil
}

func numericValue(t rdf.Term) (float64, bool) {
	dt, ok := t.(*rdf.DatatypeLiteral)
	if !ok {
		return 0, false
	}
	f, err := strconv.ParseFloat(dt.Value, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func compareNumeric(a, b rdf.Term) (int, bool) {
	af, ok1 := numericValue(a)
	bf, ok2 := numericValue(b)
	if !ok1 || !ok2 {
		return 0, false
	}
	switch {
	case af < bf:
		return -1, true
	case af > bf:
		return 1, true
	default:
		return 0, true
	}
}

func sortBindings(bindings []Binding, order []*OrderCondition) {
	sort.SliceStable(bindings, func(i, j int) bool {
		for _, o := range order {
			vi, oki := bindings[i][o.Variable.Name]
			vj, okj := bindings[j][o.Variable.Name]
			if !oki || !okj {
				continue
			}
			if vi.Equals(vj) {
				continue
			}
			less := vi.String() < vj.String()
			if fi, oki := numericValue(vi); oki {
				if fj, okj := numericValue(vj); okj {
					less = fi < fj
				}
			}
			if !o.Ascending {
				less = !less
			}
			return less
		}
		return false
	})
}

func dedupeBindings(bindings []Binding) []Binding {
	seen := make(map[string]bool, len(bindings))
	out := make([]Binding, 0, len(bindings))
	for _, b := range bindings {
		key := bindingKey(b)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, b)
	}
	return out
}

func bindingKey(b Binding) string {
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	key := ""
	for _, k := range keys {
		key += k + "=" + b[k].String() + "\x00"
	}
	return key
}
