package backend

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// Op is a comparison operator, named as PostgREST names it.
type Op string

const (
	OpEq    Op = "eq"
	OpNeq   Op = "neq"
	OpGt    Op = "gt"
	OpGte   Op = "gte"
	OpLt    Op = "lt"
	OpLte   Op = "lte"
	OpILike Op = "ilike"
)

var sqlOps = map[Op]string{
	OpEq:    "=",
	OpNeq:   "<>",
	OpGt:    ">",
	OpGte:   ">=",
	OpLt:    "<",
	OpLte:   "<=",
	OpILike: "ILIKE",
}

// Columns the dashboard filters on.
const (
	ColumnID       = "id"
	ColumnTitle    = "title"
	ColumnStatus   = "status"
	ColumnAmount   = "amount"
	ColumnDeadline = "deadline"
)

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Condition restricts a column. ILIKE values use * as the wildcard.
type Condition struct {
	Column string
	Op     Op
	Value  string
}

// Filter narrows a grants read. The zero value reads everything in backend order.
type Filter struct {
	Conditions []Condition
	Order      string
	Descending bool
	Limit      int
}

// Where returns a copy of f with one more condition.
func (f Filter) Where(column string, op Op, value string) Filter {
	f.Conditions = append(append([]Condition(nil), f.Conditions...), Condition{Column: column, Op: op, Value: value})
	return f
}

// Search matches title substrings, case-insensitively.
func (f Filter) Search(term string) Filter {
	term = strings.TrimSpace(term)
	if term == "" {
		return f
	}
	return f.Where(ColumnTitle, OpILike, "*"+term+"*")
}

// AmountBetween bounds the amount column. Empty bounds are skipped.
func (f Filter) AmountBetween(min, max string) Filter {
	return f.between(ColumnAmount, min, max)
}

// DeadlineBetween bounds the deadline column. Empty bounds are skipped.
func (f Filter) DeadlineBetween(from, to string) Filter {
	return f.between(ColumnDeadline, from, to)
}

func (f Filter) between(column, lo, hi string) Filter {
	if lo != "" {
		f = f.Where(column, OpGte, lo)
	}
	if hi != "" {
		f = f.Where(column, OpLte, hi)
	}
	return f
}

// Validate rejects unknown operators and column names that are not plain identifiers.
func (f Filter) Validate() error {
	for _, c := range f.Conditions {
		if !identPattern.MatchString(c.Column) {
			return fmt.Errorf("%w: column %q", ErrInvalidRecord, c.Column)
		}
		if _, ok := sqlOps[c.Op]; !ok {
			return fmt.Errorf("%w: operator %q", ErrInvalidRecord, c.Op)
		}
	}
	if f.Order != "" && !identPattern.MatchString(f.Order) {
		return fmt.Errorf("%w: order column %q", ErrInvalidRecord, f.Order)
	}
	if f.Limit < 0 {
		return fmt.Errorf("%w: negative limit", ErrInvalidRecord)
	}
	return nil
}

// values encodes f as PostgREST query parameters.
func (f Filter) values() url.Values {
	q := url.Values{}
	q.Set("select", "*")
	for _, c := range f.Conditions {
		q.Add(c.Column, string(c.Op)+"."+c.Value)
	}
	if f.Order != "" {
		dir := "asc"
		if f.Descending {
			dir = "desc"
		}
		q.Set("order", f.Order+"."+dir)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}
