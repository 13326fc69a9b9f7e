// Package repository defines the option-based query vocabulary shared by
// all persistent stores.
package repository

import "fmt"

// Option applies a modification to a Query.
type Option func(Query) Query

// Query holds conditions and ordering for store lookups.
type Query struct {
	conditions []Condition
	orders     []string
}

// Build creates a Query from a set of options.
func Build(options ...Option) Query {
	q := Query{}
	for _, opt := range options {
		q = opt(q)
	}
	return q
}

// Conditions returns the query conditions.
func (q Query) Conditions() []Condition {
	result := make([]Condition, len(q.conditions))
	copy(result, q.conditions)
	return result
}

// Orders returns the fields to sort ascending by, in application order.
func (q Query) Orders() []string {
	result := make([]string, len(q.orders))
	copy(result, q.orders)
	return result
}

// Operator is the comparison applied by a Condition.
type Operator int

// Operator values. Equality and IN cover most lookups; the range operators
// exist for day-window filtering on YYYY-MM-DD columns, which compare
// correctly as plain strings.
const (
	OpEqual Operator = iota
	OpIn
	OpGreaterOrEqual
	OpLessOrEqual
)

// String returns the SQL spelling of the operator.
func (o Operator) String() string {
	switch o {
	case OpIn:
		return "IN"
	case OpGreaterOrEqual:
		return ">="
	case OpLessOrEqual:
		return "<="
	default:
		return "="
	}
}

// Condition represents a single query condition.
type Condition struct {
	field    string
	operator Operator
	value    any
}

// Field returns the condition field name.
func (c Condition) Field() string { return c.field }

// Operator returns the condition operator.
func (c Condition) Operator() Operator { return c.operator }

// Value returns the condition value.
func (c Condition) Value() any { return c.value }

// String returns a readable representation.
func (c Condition) String() string {
	return fmt.Sprintf("%s %s %v", c.field, c.operator, c.value)
}

// --- Generic options reused across all stores ---

// WithCondition adds a field = value equality condition.
// Domain packages use this to define their own typed options.
func WithCondition(field string, value any) Option {
	return func(q Query) Query {
		q.conditions = append(q.conditions, Condition{field: field, value: value})
		return q
	}
}

// WithConditionIn adds a field IN (values) condition.
func WithConditionIn(field string, values any) Option {
	return func(q Query) Query {
		q.conditions = append(q.conditions, Condition{field: field, operator: OpIn, value: values})
		return q
	}
}

// WithConditionGTE adds a field >= value condition.
func WithConditionGTE(field string, value any) Option {
	return func(q Query) Query {
		q.conditions = append(q.conditions, Condition{field: field, operator: OpGreaterOrEqual, value: value})
		return q
	}
}

// WithConditionLTE adds a field <= value condition.
func WithConditionLTE(field string, value any) Option {
	return func(q Query) Query {
		q.conditions = append(q.conditions, Condition{field: field, operator: OpLessOrEqual, value: value})
		return q
	}
}

// WithID filters by the "id" column.
func WithID(id string) Option {
	return WithCondition("id", id)
}

// WithIDIn filters by the "id" column using IN.
func WithIDIn(ids []string) Option {
	return WithConditionIn("id", ids)
}

// WithOrderAsc adds ascending ordering on a field.
func WithOrderAsc(field string) Option {
	return func(q Query) Query {
		q.orders = append(q.orders, field)
		return q
	}
}
