// Package repository describes store lookups independently of the database:
// filters, ordering and paging built from composable options.
package repository

import (
	"fmt"
	"slices"
)

// Operator is the comparison a Condition applies.
type Operator string

// Operators.
const (
	OpEqual Operator = "="
	OpIn    Operator = "IN"
)

// Condition is a single column filter.
type Condition struct {
	field string
	op    Operator
	value any
}

// Field returns the column name.
func (c Condition) Field() string { return c.field }

// Operator returns the comparison.
func (c Condition) Operator() Operator { return c.op }

// Value returns the operand; a slice for OpIn.
func (c Condition) Value() any { return c.value }

func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.field, c.op, c.value)
}

// Order is a sort on one column.
type Order struct {
	field string
	desc  bool
}

// Field returns the column name.
func (o Order) Field() string { return o.field }

// Ascending reports whether the sort is ascending.
func (o Order) Ascending() bool { return !o.desc }

// Query is the accumulated effect of a set of options.
type Query struct {
	conditions []Condition
	orders     []Order
	limit      int
	offset     int
}

// Option modifies a Query.
type Option func(Query) Query

// Build folds options into a Query.
func Build(options ...Option) Query {
	var q Query
	for _, opt := range options {
		q = opt(q)
	}
	return q
}

// Conditions returns a copy of the filters.
func (q Query) Conditions() []Condition { return slices.Clone(q.conditions) }

// Orders returns a copy of the sort specification.
func (q Query) Orders() []Order { return slices.Clone(q.orders) }

// Limit returns the row limit; 0 means unlimited.
func (q Query) Limit() int { return q.limit }

// Offset returns the number of rows to skip.
func (q Query) Offset() int { return q.offset }

// WithCondition filters on field = value.
func WithCondition(field string, value any) Option {
	return where(field, OpEqual, value)
}

// WithConditionIn filters on field IN values.
func WithConditionIn(field string, values any) Option {
	return where(field, OpIn, values)
}

func where(field string, op Operator, value any) Option {
	return func(q Query) Query {
		q.conditions = append(slices.Clip(q.conditions), Condition{field: field, op: op, value: value})
		return q
	}
}

// WithID filters by primary key.
func WithID(id int64) Option {
	return WithCondition("id", id)
}

// WithOrderAsc sorts ascending on field.
func WithOrderAsc(field string) Option {
	return orderBy(field, false)
}

// WithOrderDesc sorts descending on field.
func WithOrderDesc(field string) Option {
	return orderBy(field, true)
}

func orderBy(field string, desc bool) Option {
	return func(q Query) Query {
		q.orders = append(slices.Clip(q.orders), Order{field: field, desc: desc})
		return q
	}
}

// WithLimit caps the number of rows.
func WithLimit(n int) Option {
	return func(q Query) Query {
		q.limit = max(n, 0)
		return q
	}
}

// WithOffset skips the first n rows.
func WithOffset(n int) Option {
	return func(q Query) Query {
		q.offset = max(n, 0)
		return q
	}
}

// WithPagination returns the limit and offset options for one page.
func WithPagination(limit, offset int) []Option {
	return []Option{WithLimit(limit), WithOffset(offset)}
}
