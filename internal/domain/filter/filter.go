// Package filter defines the metadata predicate grammar used to scope
// vector searches: a single clause or a conjunction of clauses.
package filter

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Op is a clause operator.
type Op string

const (
	// OpEq matches a field against a single value.
	OpEq Op = "$eq"
	// OpIn matches a field against any of a set of values.
	OpIn Op = "$in"
)

// Predicate is a node in the boolean predicate tree: a Clause or an And.
type Predicate interface {
	// Has reports whether any clause in the tree constrains the field.
	Has(field string) bool
	// StableJSON renders a deterministic sorted-key, whitespace-free
	// encoding. Used for cache key derivation: identical predicates
	// always serialize identically.
	StableJSON() string

	isPredicate()
}

// Clause is a single `{field: {op: value}}` condition.
type Clause struct {
	field string
	op    Op
	str   string
	num   int
	isNum bool
	list  []string
}

// Eq creates a string equality clause.
func Eq(field, value string) Clause {
	return Clause{field: field, op: OpEq, str: value}
}

// EqInt creates a numeric equality clause.
func EqInt(field string, value int) Clause {
	return Clause{field: field, op: OpEq, num: value, isNum: true}
}

// In creates a membership clause.
func In(field string, values ...string) Clause {
	return Clause{field: field, op: OpIn, list: values}
}

// Field returns the constrained metadata field.
func (c Clause) Field() string { return c.field }

// Operator returns the clause operator.
func (c Clause) Operator() Op { return c.op }

// Str returns the string equality value.
func (c Clause) Str() string { return c.str }

// Int returns the numeric equality value.
func (c Clause) Int() int { return c.num }

// IsInt reports whether the equality value is numeric.
func (c Clause) IsInt() bool { return c.isNum }

// List returns the membership values.
func (c Clause) List() []string { return c.list }

// Has reports whether the clause constrains the field.
func (c Clause) Has(field string) bool { return c.field == field }

// StableJSON renders the clause as `{"field":{"op":value}}`.
func (c Clause) StableJSON() string {
	var b strings.Builder
	b.WriteByte('{')
	b.WriteString(quote(c.field))
	b.WriteString(":{")
	b.WriteString(quote(string(c.op)))
	b.WriteByte(':')
	switch {
	case c.op == OpIn:
		b.WriteByte('[')
		for i, v := range c.list {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(quote(v))
		}
		b.WriteByte(']')
	case c.isNum:
		b.WriteString(strconv.Itoa(c.num))
	default:
		b.WriteString(quote(c.str))
	}
	b.WriteString("}}")
	return b.String()
}

// MarshalJSON renders the stable encoding (used in debug output).
func (c Clause) MarshalJSON() ([]byte, error) {
	return []byte(c.StableJSON()), nil
}

func (c Clause) isPredicate() {}

// And is a conjunction of predicates.
type And struct {
	preds []Predicate
}

// AndOf creates a conjunction. A conjunction of one predicate is still
// wrapped: unwrapping single clauses is the filter builder's concern.
func AndOf(preds ...Predicate) And {
	return And{preds: preds}
}

// Preds returns the conjunct predicates.
func (a And) Preds() []Predicate { return a.preds }

// Has reports whether any conjunct constrains the field.
func (a And) Has(field string) bool {
	for _, p := range a.preds {
		if p.Has(field) {
			return true
		}
	}
	return false
}

// StableJSON renders the conjunction as `{"$and":[...]}`.
func (a And) StableJSON() string {
	var b strings.Builder
	b.WriteString(`{"$and":[`)
	for i, p := range a.preds {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(p.StableJSON())
	}
	b.WriteString("]}")
	return b.String()
}

// MarshalJSON renders the stable encoding (used in debug output).
func (a And) MarshalJSON() ([]byte, error) {
	return []byte(a.StableJSON()), nil
}

func (a And) isPredicate() {}

// quote renders a JSON string literal.
func quote(s string) string {
	b, err := json.Marshal(s)
	if err != nil {
		// json.Marshal of a string cannot fail
		return strconv.Quote(s)
	}
	return string(b)
}
