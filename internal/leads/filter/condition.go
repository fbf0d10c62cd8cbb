package filter

import (
	"strings"

	"brokerage_backend/internal/leads/domain"
)

type op int

const (
	opEq op = iota
	opGte
	opLte
)

var opSQL = map[op]string{opEq: "=", opGte: ">=", opLte: "<="}

type cmpExpr struct {
	field Field
	op    op
	value any
}

// Eq matches leads whose field equals value.
func Eq(f Field, value any) Expr { return cmpExpr{field: f, op: opEq, value: value} }

// Gte matches leads whose field is at least value.
func Gte(f Field, value any) Expr { return cmpExpr{field: f, op: opGte, value: value} }

// Lte matches leads whose field is at most value.
func Lte(f Field, value any) Expr { return cmpExpr{field: f, op: opLte, value: value} }

func (c cmpExpr) Match(l *domain.Lead) bool {
	got := lookup(c.field).value(l)
	n, ok := compare(got, c.value)
	if !ok {
		return false
	}
	switch c.op {
	case opGte:
		return n >= 0
	case opLte:
		return n <= 0
	default:
		return n == 0
	}
}

func (c cmpExpr) build(q *query) string {
	return lookup(c.field).column + " " + opSQL[c.op] + " " + q.bind(c.value)
}

type inExpr struct {
	field  Field
	values []any
}

// In matches leads whose field equals any of values. An empty set matches nothing.
func In[T any](f Field, values ...T) Expr {
	if len(values) == 0 {
		return False()
	}
	boxed := make([]any, len(values))
	for i, v := range values {
		boxed[i] = v
	}
	return inExpr{field: f, values: boxed}
}

func (e inExpr) Match(l *domain.Lead) bool {
	got := lookup(e.field).value(l)
	for _, v := range e.values {
		if n, ok := compare(got, v); ok && n == 0 {
			return true
		}
	}
	return false
}

func (e inExpr) build(q *query) string {
	placeholders := make([]string, len(e.values))
	for i, v := range e.values {
		placeholders[i] = q.bind(v)
	}
	return lookup(e.field).column + " IN (" + strings.Join(placeholders, ", ") + ")"
}

type containsExpr struct {
	field  Field
	needle string
}

// Contains matches leads whose text field contains needle, ignoring case.
func Contains(f Field, needle string) Expr {
	return containsExpr{field: f, needle: needle}
}

func (c containsExpr) Match(l *domain.Lead) bool {
	got, ok := lookup(c.field).value(l).(string)
	if !ok {
		return false
	}
	return strings.Contains(strings.ToLower(got), strings.ToLower(c.needle))
}

func (c containsExpr) build(q *query) string {
	return lookup(c.field).column + " ILIKE " + q.bind("%"+escapeLike(c.needle)+"%")
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
