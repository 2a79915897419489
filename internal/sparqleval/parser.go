package sparqleval

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/triplewire/quadstore/internal/nsprefix"
	"github.com/triplewire/quadstore/pkg/rdf"
)

// Parser is a hand-rolled recursive-descent parser for the supported
// SPARQL subset.
type Parser struct {
	input    string
	pos      int
	length   int
	base     string
	prefixes map[string]string
}

func NewParser(input string) *Parser {
	return &Parser{input: input, length: len(input), prefixes: make(map[string]string)}
}

// SetBase sets the base URI relative IRI references resolve against.
// A BASE declaration inside the query overrides it.
func (p *Parser) SetBase(base string) { p.base = base }

// Parse parses one SPARQL query.
func (p *Parser) Parse() (*Query, error) {
	for {
		p.skipWhitespace()
		if p.matchKeyword("PREFIX") {
			if err := p.parsePrefixDecl(); err != nil {
				return nil, err
			}
			continue
		}
		if p.matchKeyword("BASE") {
			if err := p.parseBaseDecl(); err != nil {
				return nil, err
			}
			continue
		}
		break
	}

	switch {
	case p.matchKeyword("SELECT"):
		sel, err := p.parseSelect()
		if err != nil {
			return nil, err
		}
		return &Query{Type: QueryTypeSelect, Select: sel}, nil
	case p.matchKeyword("ASK"):
		ask, err := p.parseAsk()
		if err != nil {
			return nil, err
		}
		return &Query{Type: QueryTypeAsk, Ask: ask}, nil
	case p.matchKeyword("CONSTRUCT"):
		con, err := p.parseConstruct()
		if err != nil {
			return nil, err
		}
		return &Query{Type: QueryTypeConstruct, Construct: con}, nil
	default:
		return nil, fmt.Errorf("sparqleval: expected SELECT, ASK, or CONSTRUCT")
	}
}

func (p *Parser) parseSelect() (*SelectQuery, error) {
	q := &SelectQuery{}
	if p.matchKeyword("DISTINCT") {
		q.Distinct = true
	}

	p.skipWhitespace()
	if p.peek() == '*' {
		p.advance()
	} else {
		for {
			p.skipWhitespace()
			if p.peek() != '?' && p.peek() != '$' {
				break
			}
			v, err := p.parseVariable()
			if err != nil {
				return nil, err
			}
			q.Variables = append(q.Variables, v)
		}
		if len(q.Variables) == 0 {
			return nil, fmt.Errorf("sparqleval: expected at least one projected variable or *")
		}
	}

	p.matchKeyword("WHERE")
	where, err := p.parseGraphPattern()
	if err != nil {
		return nil, err
	}
	q.Where = where

	if p.matchKeyword("ORDER") {
		if !p.matchKeyword("BY") {
			return nil, fmt.Errorf("sparqleval: expected BY after ORDER")
		}
		order, err := p.parseOrderBy()
		if err != nil {
			return nil, err
		}
		q.OrderBy = order
	}
	if p.matchKeyword("LIMIT") {
		n, err := p.parseInteger()
		if err != nil {
			return nil, err
		}
		q.Limit = &n
	}
	if p.matchKeyword("OFFSET") {
		n, err := p.parseInteger()
		if err != nil {
			return nil, err
		}
		q.Offset = &n
	}
	return q, nil
}

func (p *Parser) parseAsk() (*AskQuery, error) {
	p.matchKeyword("WHERE")
	where, err := p.parseGraphPattern()
	if err != nil {
		return nil, err
	}
	return &AskQuery{Where: where}, nil
}

func (p *Parser) parseConstruct() (*ConstructQuery, error) {
	p.skipWhitespace()
	if p.peek() != '{' {
		return nil, fmt.Errorf("sparqleval: expected '{' to start CONSTRUCT template")
	}
	p.advance()

	var template []*TriplePattern
	for {
		p.skipWhitespace()
		if p.peek() == '}' {
			p.advance()
			break
		}
		tp, err := p.parseTriplePattern()
		if err != nil {
			return nil, err
		}
		template = append(template, tp)
		p.skipWhitespace()
		if p.peek() == '.' {
			p.advance()
		}
	}

	if !p.matchKeyword("WHERE") {
		return nil, fmt.Errorf("sparqleval: expected WHERE after CONSTRUCT template")
	}
	where, err := p.parseGraphPattern()
	if err != nil {
		return nil, err
	}
	return &ConstructQuery{Template: template, Where: where}, nil
}

func (p *Parser) parseGraphPattern() (*GraphPattern, error) {
	p.skipWhitespace()
	if p.peek() != '{' {
		return nil, fmt.Errorf("sparqleval: expected '{' to start a graph pattern")
	}
	p.advance()

	gp := &GraphPattern{}
	for {
		p.skipWhitespace()
		if p.peek() == '}' {
			p.advance()
			break
		}
		if p.matchKeyword("FILTER") {
			f, err := p.parseFilter()
			if err != nil {
				return nil, err
			}
			gp.Filters = append(gp.Filters, f)
			continue
		}
		tp, err := p.parseTriplePattern()
		if err != nil {
			return nil, err
		}
		gp.Patterns = append(gp.Patterns, tp)
		p.skipWhitespace()
		if p.peek() == '.' {
			p.advance()
		}
	}
	return gp, nil
}

func (p *Parser) parseTriplePattern() (*TriplePattern, error) {
	s, err := p.parseTermOrVariable()
	if err != nil {
		return nil, fmt.Errorf("sparqleval: subject: %w", err)
	}
	pr, err := p.parseTermOrVariable()
	if err != nil {
		return nil, fmt.Errorf("sparqleval: predicate: %w", err)
	}
	o, err := p.parseTermOrVariable()
	if err != nil {
		return nil, fmt.Errorf("sparqleval: object: %w", err)
	}
	return &TriplePattern{Subject: *s, Predicate: *pr, Object: *o}, nil
}

func (p *Parser) parseTermOrVariable() (*TermOrVariable, error) {
	p.skipWhitespace()
	ch := p.peek()

	switch {
	case ch == '?' || ch == '$':
		v, err := p.parseVariable()
		if err != nil {
			return nil, err
		}
		return &TermOrVariable{Variable: v}, nil
	case ch == '<':
		iri, err := p.parseIRIRef()
		if err != nil {
			return nil, err
		}
		return &TermOrVariable{Term: rdf.NewURI(iri)}, nil
	case ch == '"' || ch == '\'':
		lit, err := p.parseStringLiteral()
		if err != nil {
			return nil, err
		}
		return &TermOrVariable{Term: lit}, nil
	case ch == '_':
		bn, err := p.parseBlankNode()
		if err != nil {
			return nil, err
		}
		return &TermOrVariable{Term: bn}, nil
	case ch >= '0' && ch <= '9', ch == '-', ch == '+':
		lit, err := p.parseNumericLiteral()
		if err != nil {
			return nil, err
		}
		return &TermOrVariable{Term: lit}, nil
	case ch == 'a' && !p.followedByNameChar(1):
		p.advance()
		return &TermOrVariable{Term: rdf.NewURI("http://www.w3.org/1999/02/22-rdf-syntax-ns#type")}, nil
	case ch == ':' || isAlpha(ch):
		iri, err := p.parsePrefixedName()
		if err != nil {
			return nil, err
		}
		return &TermOrVariable{Term: rdf.NewURI(iri)}, nil
	default:
		return nil, fmt.Errorf("sparqleval: unexpected character %q", ch)
	}
}

func (p *Parser) followedByNameChar(offset int) bool {
	i := p.pos + offset
	if i >= p.length {
		return false
	}
	return isNameChar(p.input[i])
}

func isAlpha(ch byte) bool {
	return (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z')
}

func isNameChar(ch byte) bool {
	return isAlpha(ch) || (ch >= '0' && ch <= '9') || ch == '_' || ch == '-' || ch == ':'
}

func (p *Parser) parseVariable() (*Variable, error) {
	if p.peek() != '?' && p.peek() != '$' {
		return nil, fmt.Errorf("sparqleval: expected variable starting with ? or $")
	}
	p.advance()
	name := p.readWhile(func(ch byte) bool {
		return isAlpha(ch) || (ch >= '0' && ch <= '9') || ch == '_'
	})
	if name == "" {
		return nil, fmt.Errorf("sparqleval: empty variable name")
	}
	return &Variable{Name: name}, nil
}

func (p *Parser) parseIRIRef() (string, error) {
	if p.peek() != '<' {
		return "", fmt.Errorf("sparqleval: expected '<' to start an IRI")
	}
	p.advance()
	iri := p.readWhile(func(ch byte) bool { return ch != '>' })
	if p.peek() != '>' {
		return "", fmt.Errorf("sparqleval: unterminated IRI")
	}
	p.advance()
	return p.resolveIRI(iri), nil
}

// resolveIRI resolves a relative IRI reference against the base URI.
// An IRI carrying a scheme is already absolute and passes through.
func (p *Parser) resolveIRI(iri string) string {
	if p.base == "" || strings.Contains(iri, ":") {
		return iri
	}
	return p.base + iri
}

func (p *Parser) parseStringLiteral() (rdf.Value, error) {
	quote := p.peek()
	p.advance()
	value := p.readWhile(func(ch byte) bool { return ch != quote })
	if p.peek() != quote {
		return nil, fmt.Errorf("sparqleval: unterminated string literal")
	}
	p.advance()

	if p.peek() == '@' {
		p.advance()
		lang := p.readWhile(func(ch byte) bool {
			return isAlpha(ch) || ch == '-' || (ch >= '0' && ch <= '9')
		})
		return rdf.NewLangStringLiteral(value, lang), nil
	}
	if p.peek() == '^' && p.pos+1 < p.length && p.input[p.pos+1] == '^' {
		p.advance()
		p.advance()
		dt, err := p.parseIRIOrPrefixed()
		if err != nil {
			return nil, err
		}
		return rdf.NewDatatypeLiteral(value, rdf.URI{IRI: dt}), nil
	}
	return rdf.NewStringLiteral(value), nil
}

func (p *Parser) parseIRIOrPrefixed() (string, error) {
	p.skipWhitespace()
	if p.peek() == '<' {
		return p.parseIRIRef()
	}
	return p.parsePrefixedName()
}

func (p *Parser) parseBlankNode() (*rdf.BlankNode, error) {
	p.advance() // '_'
	if p.peek() != ':' {
		return nil, fmt.Errorf("sparqleval: expected ':' after '_' in blank node label")
	}
	p.advance()
	id := p.readWhile(isNameChar)
	return rdf.NewBlankNode(id), nil
}

func (p *Parser) parseNumericLiteral() (rdf.Value, error) {
	numStr := p.readWhile(func(ch byte) bool {
		return (ch >= '0' && ch <= '9') || ch == '.' || ch == '-' || ch == '+' || ch == 'e' || ch == 'E'
	})
	if !strings.ContainsAny(numStr, ".eE") {
		if _, err := strconv.ParseInt(numStr, 10, 64); err == nil {
			return rdf.NewDatatypeLiteral(numStr, rdf.XSDInteger), nil
		}
	}
	return rdf.NewDatatypeLiteral(numStr, rdf.XSDDouble), nil
}

func (p *Parser) parsePrefixedName() (string, error) {
	start := p.pos
	for p.pos < p.length && p.input[p.pos] != ':' {
		ch := p.input[p.pos]
		if !(isAlpha(ch) || (ch >= '0' && ch <= '9') || ch == '_' || ch == '-') {
			break
		}
		p.advance()
	}
	prefix := p.input[start:p.pos]
	if p.peek() != ':' {
		return "", fmt.Errorf("sparqleval: expected ':' in prefixed name")
	}
	p.advance()

	localStart := p.pos
	for p.pos < p.length {
		ch := p.input[p.pos]
		if !(isAlpha(ch) || (ch >= '0' && ch <= '9') || ch == '_' || ch == '-') {
			break
		}
		p.advance()
	}
	local := p.input[localStart:p.pos]

	if base, ok := p.prefixes[prefix]; ok {
		return base + local, nil
	}
	if base, ok := nsprefix.Lookup(prefix); ok {
		return base + local, nil
	}
	return "", fmt.Errorf("sparqleval: undefined prefix %q", prefix)
}

// parseFilter parses a FILTER(...) expression, supporting the
// comparison and logical operators common to BGP constraints.
func (p *Parser) parseFilter() (*Filter, error) {
	p.skipWhitespace()
	if p.peek() != '(' {
		return nil, fmt.Errorf("sparqleval: expected '(' after FILTER")
	}
	p.advance()
	expr, err := p.parseOrExpr()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	if p.peek() != ')' {
		return nil, fmt.Errorf("sparqleval: expected ')' to close FILTER")
	}
	p.advance()
	return &Filter{Expression: expr}, nil
}

func (p *Parser) parseOrExpr() (Expression, error) {
	left, err := p.parseAndExpr()
	if err != nil {
		return nil, err
	}
	for {
		p.skipWhitespace()
		if !strings.HasPrefix(p.input[p.pos:], "||") {
			break
		}
		p.pos += 2
		right, err := p.parseAndExpr()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpression{Left: left, Operator: OpOr, Right: right}
	}
	return left, nil
}

func (p *Parser) parseAndExpr() (Expression, error) {
	left, err := p.parseComparison()
	if err != nil {
		return nil, err
	}
	for {
		p.skipWhitespace()
		if !strings.HasPrefix(p.input[p.pos:], "&&") {
			break
		}
		p.pos += 2
		right, err := p.parseComparison()
		if err != nil {
			return nil, err
		}
		left = &BinaryExpression{Left: left, Operator: OpAnd, Right: right}
	}
	return left, nil
}

func (p *Parser) parseComparison() (Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	p.skipWhitespace()
	op, width, ok := matchComparisonOp(p.input[p.pos:])
	if !ok {
		return left, nil
	}
	p.pos += width
	right, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	return &BinaryExpression{Left: left, Operator: op, Right: right}, nil
}

func matchComparisonOp(s string) (Operator, int, bool) {
	switch {
	case strings.HasPrefix(s, "!="):
		return OpNotEqual, 2, true
	case strings.HasPrefix(s, "<="):
		return OpLessThanOrEqual, 2, true
	case strings.HasPrefix(s, ">="):
		return OpGreaterThanOrEqual, 2, true
	case strings.HasPrefix(s, "="):
		return OpEqual, 1, true
	case strings.HasPrefix(s, "<"):
		return OpLessThan, 1, true
	case strings.HasPrefix(s, ">"):
		return OpGreaterThan, 1, true
	default:
		return 0, 0, false
	}
}

func (p *Parser) parseUnary() (Expression, error) {
	p.skipWhitespace()
	if p.peek() == '!' {
		p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &UnaryExpression{Operator: OpNot, Operand: operand}, nil
	}
	return p.parsePrimary()
}

func (p *Parser) parsePrimary() (Expression, error) {
	p.skipWhitespace()
	ch := p.peek()
	if ch == '(' {
		p.advance()
		expr, err := p.parseOrExpr()
		if err != nil {
			return nil, err
		}
		p.skipWhitespace()
		if p.peek() != ')' {
			return nil, fmt.Errorf("sparqleval: expected ')' in expression")
		}
		p.advance()
		return expr, nil
	}
	if ch == '?' || ch == '$' {
		v, err := p.parseVariable()
		if err != nil {
			return nil, err
		}
		return &VariableExpression{Variable: v}, nil
	}
	tv, err := p.parseTermOrVariable()
	if err != nil {
		return nil, err
	}
	if tv.IsVariable() {
		return &VariableExpression{Variable: tv.Variable}, nil
	}
	return &LiteralExpression{Term: tv.Term}, nil
}

func (p *Parser) parseOrderBy() ([]*OrderCondition, error) {
	var conditions []*OrderCondition
	for {
		p.skipWhitespace()
		ascending := true
		if p.matchKeyword("DESC") {
			ascending = false
		} else {
			p.matchKeyword("ASC")
		}
		p.skipWhitespace()
		if p.peek() != '?' && p.peek() != '$' {
			break
		}
		v, err := p.parseVariable()
		if err != nil {
			return nil, err
		}
		conditions = append(conditions, &OrderCondition{Variable: v, Ascending: ascending})
	}
	return conditions, nil
}

func (p *Parser) parseInteger() (int, error) {
	p.skipWhitespace()
	numStr := p.readWhile(func(ch byte) bool { return ch >= '0' && ch <= '9' })
	if numStr == "" {
		return 0, fmt.Errorf("sparqleval: expected an integer")
	}
	return strconv.Atoi(numStr)
}

func (p *Parser) parsePrefixDecl() error {
	p.skipWhitespace()
	start := p.pos
	for p.pos < p.length && p.input[p.pos] != ':' {
		p.advance()
	}
	prefix := p.input[start:p.pos]
	if p.pos >= p.length {
		return fmt.Errorf("sparqleval: expected ':' in PREFIX declaration")
	}
	p.advance()
	iri, err := p.parseIRIRef2()
	if err != nil {
		return err
	}
	p.prefixes[prefix] = iri
	return nil
}

func (p *Parser) parseIRIRef2() (string, error) {
	p.skipWhitespace()
	return p.parseIRIRef()
}

func (p *Parser) parseBaseDecl() error {
	base, err := p.parseIRIRef2()
	if err != nil {
		return err
	}
	p.base = base
	return nil
}

func (p *Parser) peek() byte {
	if p.pos >= p.length {
		return 0
	}
	return p.input[p.pos]
}

func (p *Parser) advance() {
	if p.pos < p.length {
		p.pos++
	}
}

func (p *Parser) skipWhitespace() {
	for p.pos < p.length {
		ch := p.input[p.pos]
		if ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r' {
			p.pos++
			continue
		}
		if ch == '#' {
			for p.pos < p.length && p.input[p.pos] != '\n' {
				p.pos++
			}
			continue
		}
		break
	}
}

func (p *Parser) readWhile(predicate func(byte) bool) string {
	start := p.pos
	for p.pos < p.length && predicate(p.input[p.pos]) {
		p.pos++
	}
	return p.input[start:p.pos]
}

func (p *Parser) matchKeyword(keyword string) bool {
	p.skipWhitespace()
	pattern := `(?i)^` + regexp.QuoteMeta(keyword) + `\b`
	if matched, _ := regexp.MatchString(pattern, p.input[p.pos:]); matched {
		p.pos += len(keyword)
		return true
	}
	return false
}
