// Package store is the document-store contract the lifecycle managers depend
// on: single-item get/put/update with optional write conditions, plus a
// filtered scan. Conditions are checked and applied by the backend as one
// atomic step; a write whose condition does not hold fails with
// ErrPreconditionFailed and is never partially applied.
package store

import (
	"context"
	"errors"
)

var (
	ErrNotFound           = errors.New("item not found")
	ErrPreconditionFailed = errors.New("precondition failed")
	ErrUnavailable        = errors.New("store unavailable")
)

// Key identifies an item by its key attributes. A composite table supplies
// both partition and sort attributes in the same map.
type Key map[string]any

type checkKind int

const (
	checkExists checkKind = iota
	checkNotExists
	checkEquals
)

type check struct {
	kind      checkKind
	attribute string
	value     any
}

// Condition is a conjunction of attribute checks evaluated against the item's
// current state at write time.
type Condition struct {
	checks []check
}

func AttributeExists(name string) Condition {
	return Condition{checks: []check{{kind: checkExists, attribute: name}}}
}

func AttributeNotExists(name string) Condition {
	return Condition{checks: []check{{kind: checkNotExists, attribute: name}}}
}

func AttributeEquals(name string, value any) Condition {
	return Condition{checks: []check{{kind: checkEquals, attribute: name, value: value}}}
}

func (c Condition) AndExists(name string) Condition {
	c.checks = append(c.checks, check{kind: checkExists, attribute: name})
	return c
}

func (c Condition) AndNotExists(name string) Condition {
	c.checks = append(c.checks, check{kind: checkNotExists, attribute: name})
	return c
}

func (c Condition) AndEquals(name string, value any) Condition {
	c.checks = append(c.checks, check{kind: checkEquals, attribute: name, value: value})
	return c
}

func (c Condition) empty() bool { return len(c.checks) == 0 }

// None is the absent condition: the write applies unconditionally.
var None = Condition{}

type Operator string

const (
	OpEqual          Operator = "="
	OpGreaterOrEqual Operator = ">="
	OpLessOrEqual    Operator = "<="
)

// Clause is one conjunct of a scan filter.
type Clause struct {
	Attribute string
	Op        Operator
	Value     any
}

// Store is implemented by the DynamoDB driver and the in-memory driver. All
// errors are one of the package sentinels (possibly wrapped); callers branch
// with errors.Is.
type Store interface {
	// Get unmarshals the item at key into out, or returns ErrNotFound.
	Get(ctx context.Context, table string, key Key, out any) error
	// Put writes a whole item, subject to cond.
	Put(ctx context.Context, table string, item any, cond Condition) error
	// Update sets the given attributes on the item at key, subject to cond.
	// When out is non-nil the post-update item is unmarshalled into it.
	Update(ctx context.Context, table string, key Key, set map[string]any, cond Condition, out any) error
	// Scan reads every item matching all clauses into out, a pointer to a
	// slice. The driver follows store pagination internally.
	Scan(ctx context.Context, table string, clauses []Clause, out any) error
}
