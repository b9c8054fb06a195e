package nl2sql

import (
	"fmt"
	"strings"

	"github.com/groundsql/groundsql/internal/catalog"
	"github.com/groundsql/groundsql/internal/sqltext"
)

type ValidatorConfig struct {
	// AllowWrites disables the read-only checks.
	AllowWrites bool
}

// Validator checks a candidate statement against the catalog using only its
// token stream. It does not parse SQL.
type Validator struct {
	cfg ValidatorConfig
}

func NewValidator(cfg ValidatorConfig) *Validator {
	return &Validator{cfg: cfg}
}

func (v *Validator) Validate(sqlText string, cat catalog.Catalog) Outcome {
	check := newStatementCheck(cat, v.cfg)
	check.run(sqlText)
	return Outcome{Valid: len(check.messages) == 0, Messages: check.messages}
}

// binding is what a name in FROM/JOIN resolves to. table is empty for
// derived tables, CTEs and table functions whose columns are unknown.
type binding struct {
	table catalog.Table
	known bool
}

type parenKind int

const (
	parenGroup parenKind = iota
	parenFunction
)

type statementCheck struct {
	cat      catalog.Catalog
	cfg      ValidatorConfig
	tokens   []sqltext.Token
	match    []int
	parens   []parenKind
	enclose  []int
	skip     []bool
	rejected bool
	bindings map[string]binding
	aliases  map[string]struct{}
	ctes     map[string]struct{}
	tables   []catalog.Table
	messages []string
	seen     map[string]struct{}
}

func newStatementCheck(cat catalog.Catalog, cfg ValidatorConfig) *statementCheck {
	return &statementCheck{
		cat:      cat,
		cfg:      cfg,
		bindings: map[string]binding{},
		aliases:  map[string]struct{}{},
		ctes:     map[string]struct{}{},
		seen:     map[string]struct{}{},
	}
}

func (c *statementCheck) reportf(format string, args ...any) {
	message := fmt.Sprintf(format, args...)
	if _, dup := c.seen[message]; dup {
		return
	}
	c.seen[message] = struct{}{}
	c.messages = append(c.messages, message)
}

func (c *statementCheck) run(sqlText string) {
	tokens, err := sqltext.Lex(sqlText)
	if err != nil {
		c.reportf("%s", err.Error())
	}
	if len(tokens) == 0 {
		if err == nil {
			c.reportf("empty statement")
		}
		return
	}
	c.tokens = tokens
	c.skip = make([]bool, len(tokens))
	c.matchParens()

	c.checkStatementShape()
	if c.rejected {
		return
	}
	c.collectBindings()
	c.checkReferences()
}

// matchParens pairs parentheses and classifies each pair. Unbalanced
// parentheses are reported and left unmatched (-1).
func (c *statementCheck) matchParens() {
	c.match = make([]int, len(c.tokens))
	c.parens = make([]parenKind, len(c.tokens))
	c.enclose = make([]int, len(c.tokens))
	stack := make([]int, 0, 8)
	for i, t := range c.tokens {
		c.match[i] = -1
		c.enclose[i] = -1
		if len(stack) > 0 {
			c.enclose[i] = stack[len(stack)-1]
		}
		switch {
		case t.IsPunct("("):
			stack = append(stack, i)
			if i > 0 && c.tokens[i-1].IsIdentifier() && !sqltext.IsKeyword(c.tokens[i-1]) {
				c.parens[i] = parenFunction
			}
		case t.IsPunct(")"):
			if len(stack) == 0 {
				c.reportf("unbalanced ')' at position %d", t.Pos)
				continue
			}
			open := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			c.match[open] = i
			c.match[i] = open
		}
	}
	if len(stack) > 0 {
		c.reportf("unbalanced '(' at position %d", c.tokens[stack[0]].Pos)
	}
}

// checkStatementShape reports write and multi-statement problems and limits
// the reference checks to the first statement. A statement rejected for its
// head keyword gets no reference checks at all.
func (c *statementCheck) checkStatementShape() {
	st := sqltext.Inspect(c.tokens)
	if !c.cfg.AllowWrites && !st.IsRead(c.tokens) {
		head := ""
		if st.Head >= 0 {
			head = c.tokens[st.Head].Text
		}
		c.reportf("only SELECT or WITH statements are allowed, got %q", head)
		c.rejected = true
	}
	if st.Multiple {
		c.reportf("multiple statements are not allowed")
	}
	for _, i := range st.Destructive {
		c.skip[i] = true
		if !c.cfg.AllowWrites {
			c.reportf("destructive keyword %s is not allowed", c.tokens[i].Value)
		}
	}
	c.tokens = c.tokens[:st.End]
	c.skip = c.skip[:st.End]
	c.match = c.match[:st.End]
	c.parens = c.parens[:st.End]
	c.enclose = c.enclose[:st.End]
}

func (c *statementCheck) next(i int) sqltext.Token {
	if i+1 < len(c.tokens) {
		return c.tokens[i+1]
	}
	return sqltext.Token{Kind: sqltext.Punct}
}

func (c *statementCheck) prev(i int) sqltext.Token {
	if i > 0 {
		return c.tokens[i-1]
	}
	return sqltext.Token{Kind: sqltext.Punct}
}

// insideFunction reports whether token i sits directly inside a function
// call's parentheses, as FROM does in EXTRACT(YEAR FROM x).
func (c *statementCheck) insideFunction(i int) bool {
	open := c.enclose[i]
	return open >= 0 && c.parens[open] == parenFunction
}

// collectBindings records CTE names, FROM/JOIN sources, their aliases and
// column aliases. Tokens that define names are marked so reference checks
// skip them.
func (c *statementCheck) collectBindings() {
	for i := 0; i < len(c.tokens); i++ {
		t := c.tokens[i]
		switch {
		case t.IsPunct("::"):
			c.skipTypeAfter(i)
		case t.IsWord("AS"):
			c.collectAlias(i)
		case t.IsWord("FROM") || t.IsWord("JOIN"):
			if t.IsWord("FROM") && c.insideFunction(i) {
				continue
			}
			c.collectSources(i + 1)
		case t.IsIdentifier() && !sqltext.IsKeyword(t):
			c.collectCTE(i)
			c.collectImplicitAlias(i)
		}
	}
}

func (c *statementCheck) skipTypeAfter(i int) {
	if i+1 < len(c.tokens) && c.tokens[i+1].IsIdentifier() {
		c.skip[i+1] = true
	}
}

func (c *statementCheck) collectAlias(i int) {
	n := c.next(i)
	if !n.IsIdentifier() || i+1 >= len(c.tokens) {
		return
	}
	if c.next(i + 1).IsPunct("(") {
		// CAST(x AS VARCHAR(10)) or a CTE body; CTE names are handled by collectCTE.
		c.skip[i+1] = true
		return
	}
	c.aliases[strings.ToLower(n.Name())] = struct{}{}
	c.skip[i+1] = true
}

// collectCTE recognises "name AS (" and "name (cols) AS (".
func (c *statementCheck) collectCTE(i int) {
	n := c.next(i)
	switch {
	case n.IsWord("AS") && c.next(i+1).IsPunct("("):
	case n.IsPunct("(") && c.match[i+1] > 0 && c.next(c.match[i+1]).IsWord("AS") && c.next(c.match[i+1]+1).IsPunct("("):
		for j := i + 2; j < c.match[i+1]; j++ {
			if c.tokens[j].IsIdentifier() {
				c.aliases[strings.ToLower(c.tokens[j].Name())] = struct{}{}
				c.skip[j] = true
			}
		}
	default:
		return
	}
	name := strings.ToLower(c.tokens[i].Name())
	c.ctes[name] = struct{}{}
	c.bindings[name] = binding{}
	c.skip[i] = true
}

// collectImplicitAlias treats an identifier directly after ")" or a literal
// as a column alias, as in COUNT(*) total.
func (c *statementCheck) collectImplicitAlias(i int) {
	p := c.prev(i)
	if !(p.IsPunct(")") || p.Kind == sqltext.String || p.Kind == sqltext.Number) {
		return
	}
	if c.next(i).IsPunct("(") || c.next(i).IsPunct(".") {
		return
	}
	c.aliases[strings.ToLower(c.tokens[i].Name())] = struct{}{}
	c.skip[i] = true
}

// collectSources reads a comma separated list of table references starting
// at i and returns the index of the first token after the list.
func (c *statementCheck) collectSources(i int) int {
	for i < len(c.tokens) {
		i = c.collectSource(i)
		if i < len(c.tokens) && c.tokens[i].IsPunct(",") {
			i++
			continue
		}
		return i
	}
	return i
}

func (c *statementCheck) collectSource(i int) int {
	if i >= len(c.tokens) {
		return i
	}
	for i < len(c.tokens) && (c.tokens[i].IsWord("LATERAL") || c.tokens[i].IsWord("ONLY")) {
		i++
	}
	if i >= len(c.tokens) {
		return i
	}

	t := c.tokens[i]
	switch {
	case t.IsPunct("("):
		if c.match[i] < 0 {
			return i + 1
		}
		// Derived table; its inner tokens are visited by the outer loop.
		return c.collectSourceAlias(c.match[i]+1, binding{})
	case t.IsIdentifier() && !sqltext.IsKeyword(t):
		end := i
		for end+2 < len(c.tokens) && c.tokens[end+1].IsPunct(".") && c.tokens[end+2].IsIdentifier() {
			c.skip[end] = true
			end += 2
		}
		c.skip[end] = true
		name := c.tokens[end].Name()
		if c.next(end).IsPunct("(") {
			// table function such as generate_series(...)
			if closeIdx := c.match[end+1]; closeIdx > 0 {
				return c.collectSourceAlias(closeIdx+1, binding{})
			}
			return end + 1
		}
		var bound binding
		if _, isCTE := c.ctes[strings.ToLower(name)]; !isCTE {
			if table, ok := c.cat.Table(name); ok {
				bound = binding{table: table, known: true}
				c.tables = append(c.tables, table)
			} else {
				c.reportf("table %s does not exist", name)
			}
		}
		c.bindings[strings.ToLower(name)] = bound
		return c.collectSourceAlias(end+1, bound)
	default:
		return i
	}
}

func (c *statementCheck) collectSourceAlias(i int, bound binding) int {
	if i < len(c.tokens) && c.tokens[i].IsWord("AS") {
		i++
	}
	if i >= len(c.tokens) {
		return i
	}
	t := c.tokens[i]
	if !t.IsIdentifier() || sqltext.IsKeyword(t) {
		return i
	}
	if sqltext.IsClauseKeyword(t) {
		return i
	}
	alias := strings.ToLower(t.Name())
	c.bindings[alias] = bound
	c.skip[i] = true
	i++
	// column list of a derived table alias: AS t(a, b)
	if i < len(c.tokens) && c.tokens[i].IsPunct("(") && c.match[i] > 0 {
		for j := i + 1; j < c.match[i]; j++ {
			if c.tokens[j].IsIdentifier() {
				c.aliases[strings.ToLower(c.tokens[j].Name())] = struct{}{}
				c.skip[j] = true
			}
		}
		i = c.match[i] + 1
	}
	return i
}

func (c *statementCheck) checkReferences() {
	for i := 0; i < len(c.tokens); i++ {
		t := c.tokens[i]
		if c.skip[i] || !t.IsIdentifier() || sqltext.IsKeyword(t) {
			continue
		}
		if c.next(i).IsPunct("(") {
			continue
		}
		if c.next(i).IsPunct(".") {
			i = c.checkQualified(i)
			continue
		}
		if c.prev(i).IsPunct(".") {
			continue
		}
		c.checkUnqualified(t)
	}
}

// checkQualified validates qualifier.column (or schema.qualifier.column)
// starting at i and returns the index of the last token consumed.
func (c *statementCheck) checkQualified(i int) int {
	end := i
	for end+2 < len(c.tokens) && c.tokens[end+1].IsPunct(".") && (c.tokens[end+2].IsIdentifier() || c.tokens[end+2].IsPunct("*")) {
		end += 2
		if c.tokens[end].IsPunct("*") {
			break
		}
	}
	if end == i {
		return i
	}
	qualifier := c.tokens[end-2]
	column := c.tokens[end]
	bound, ok := c.bindings[strings.ToLower(qualifier.Name())]
	if !ok {
		c.reportf("unknown table or alias %s", qualifier.Name())
		return end
	}
	if column.IsPunct("*") || !bound.known {
		return end
	}
	if !bound.table.HasColumn(column.Name()) {
		c.reportf("column %s.%s does not exist", qualifier.Name(), column.Name())
	}
	return end
}

func (c *statementCheck) checkUnqualified(t sqltext.Token) {
	name := strings.ToLower(t.Name())
	if _, ok := c.aliases[name]; ok {
		return
	}
	if _, ok := c.ctes[name]; ok {
		return
	}
	if _, ok := c.bindings[name]; ok {
		return
	}
	for _, table := range c.tables {
		if table.HasColumn(name) {
			return
		}
	}
	c.reportf("column %s does not exist in the referenced tables", t.Name())
}
