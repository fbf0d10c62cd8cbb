package filter

import (
	"fmt"
	"strings"

	"brokerage_backend/internal/leads/domain"
)

// Expr is a boolean condition over a lead.
type Expr interface {
	// Match evaluates the condition against an in-memory lead.
	Match(l *domain.Lead) bool
	build(q *query) string
}

type query struct {
	args []any
}

func (q *query) bind(v any) string {
	q.args = append(q.args, v)
	return fmt.Sprintf("$%d", len(q.args))
}

// Compile renders e as a WHERE fragment with positional arguments starting at $1.
func Compile(e Expr) (string, []any) {
	q := &query{}
	return e.build(q), q.args
}

type constExpr bool

// True matches every lead.
func True() Expr { return constExpr(true) }

// False matches no lead.
func False() Expr { return constExpr(false) }

func (c constExpr) Match(*domain.Lead) bool { return bool(c) }

func (c constExpr) build(*query) string {
	if c {
		return "TRUE"
	}
	return "FALSE"
}

type andExpr []Expr

// And matches when every operand matches. With no operands it matches everything.
func And(exprs ...Expr) Expr {
	flat := make(andExpr, 0, len(exprs))
	for _, e := range exprs {
		switch v := e.(type) {
		case nil:
			continue
		case constExpr:
			if !v {
				return False()
			}
			continue
		case andExpr:
			flat = append(flat, v...)
		default:
			flat = append(flat, e)
		}
	}
	switch len(flat) {
	case 0:
		return True()
	case 1:
		return flat[0]
	}
	return flat
}

func (a andExpr) Match(l *domain.Lead) bool {
	for _, e := range a {
		if !e.Match(l) {
			return false
		}
	}
	return true
}

func (a andExpr) build(q *query) string {
	parts := make([]string, len(a))
	for i, e := range a {
		parts[i] = e.build(q)
	}
	return "(" + strings.Join(parts, " AND ") + ")"
}

type orExpr []Expr

// Or matches when any operand matches. With no operands it matches nothing.
func Or(exprs ...Expr) Expr {
	flat := make(orExpr, 0, len(exprs))
	for _, e := range exprs {
		switch v := e.(type) {
		case nil:
			continue
		case constExpr:
			if v {
				return True()
			}
			continue
		case orExpr:
			flat = append(flat, v...)
		default:
			flat = append(flat, e)
		}
	}
	switch len(flat) {
	case 0:
		return False()
	case 1:
		return flat[0]
	}
	return flat
}

func (o orExpr) Match(l *domain.Lead) bool {
	for _, e := range o {
		if e.Match(l) {
			return true
		}
	}
	return false
}

func (o orExpr) build(q *query) string {
	parts := make([]string, len(o))
	for i, e := range o {
		parts[i] = e.build(q)
	}
	return "(" + strings.Join(parts, " OR ") + ")"
}
