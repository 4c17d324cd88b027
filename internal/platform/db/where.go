package db

import (
	"strconv"
	"strings"
)

// Where accumulates AND-ed predicates with positional pgx arguments.
type Where struct {
	clauses []string
	args    []any
}

// Add appends clause. Each "?" in clause is bound, in order, to args.
func (w *Where) Add(clause string, args ...any) {
	for _, arg := range args {
		clause = strings.Replace(clause, "?", w.Next(arg), 1)
	}
	w.clauses = append(w.clauses, clause)
}

// Next binds arg and returns its placeholder.
func (w *Where) Next(arg any) string {
	w.args = append(w.args, arg)
	return "$" + strconv.Itoa(len(w.args))
}

// SQL renders the WHERE clause, empty when no predicate was added.
func (w *Where) SQL() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// Args returns a copy of the bound arguments.
func (w *Where) Args() []any {
	out := make([]any, len(w.args))
	copy(out, w.args)
	return out
}

// Like wraps s for a case-insensitive containment match.
func Like(s string) string {
	return "%" + strings.TrimSpace(s) + "%"
}
