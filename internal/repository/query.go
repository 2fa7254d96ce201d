package repository

import "strings"

// Clauses collects conditionally appended predicates for a filtered listing.
// Each entity repository appends one predicate per present filter field, in
// a fixed order, and renders them once; the fragment text and its bound
// arguments always travel together so clause order and escaping are decided
// in one place.
type Clauses struct {
	exprs []string
	args  []any
}

// And appends a predicate fragment with its bound arguments.
func (c *Clauses) And(expr string, args ...any) {
	c.exprs = append(c.exprs, expr)
	c.args = append(c.args, args...)
}

// AndIf appends the predicate only when present is true. Filter structs use
// the zero value to mean "absent", matching the skip-when-empty behaviour of
// the filtered listings.
func (c *Clauses) AndIf(present bool, expr string, args ...any) {
	if present {
		c.And(expr, args...)
	}
}

// SQL renders the collected predicates as " AND e1 AND e2 ...", or "" when
// no predicate was added. The fragment is appended after a fixed base WHERE.
func (c *Clauses) SQL() string {
	if len(c.exprs) == 0 {
		return ""
	}
	return " AND " + strings.Join(c.exprs, " AND ")
}

// Args returns the bound arguments in predicate order.
func (c *Clauses) Args() []any { return c.args }
