package expr

import (
	"strings"

	"github.com/google/uuid"

	"github.com/audience/audience/audience/field"
)

// Kind discriminates node types in serialized trees.
type Kind string

const (
	KindCondition Kind = "condition"
	KindGroup     Kind = "group"
)

// Node is either a Condition or a Group.
type Node interface {
	Kind() Kind
	isNode()
}

// Connective joins the children of a group.
type Connective string

const (
	And Connective = "AND"
	Or  Connective = "OR"
)

// Valid reports whether c is AND or OR.
func (c Connective) Valid() bool {
	return c == And || c == Or
}

// Condition is a leaf test of one field.
type Condition struct {
	ID       string
	Category field.Category
	Field    string
	Operator field.Operator
	// Value is untyped; its shape is checked against the field's value type
	// by the validator, not here.
	Value   any
	Negated bool
}

func (Condition) Kind() Kind { return KindCondition }
func (Condition) isNode()    {}

// Group combines its children with a connective.
type Group struct {
	ID         string
	Connective Connective
	Negated    bool
	Children   []Node
}

func (Group) Kind() Kind { return KindGroup }
func (Group) isNode()    {}

// IsEmpty reports whether g has no children.
func (g Group) IsEmpty() bool {
	return len(g.Children) == 0
}

// NewCondition returns a condition with a fresh ID. The category is derived
// from the key prefix.
func NewCondition(key string, op field.Operator, v any) Condition {
	return Condition{
		ID:       uuid.NewString(),
		Category: CategoryOf(key),
		Field:    key,
		Operator: op,
		Value:    v,
	}
}

// NewGroup returns a group with a fresh ID.
func NewGroup(c Connective, children ...Node) Group {
	return Group{
		ID:         uuid.NewString(),
		Connective: c,
		Children:   children,
	}
}

// Empty returns the canonical reset state: an AND group with no children.
func Empty() Group {
	return NewGroup(And)
}

// Not returns a copy of n with its negation flag flipped.
func Not(n Node) Node {
	switch v := n.(type) {
	case Condition:
		v.Negated = !v.Negated
		return v
	case Group:
		v.Negated = !v.Negated
		return v
	}
	return n
}

// CategoryOf returns the category prefix of a dotted field key.
func CategoryOf(key string) field.Category {
	prefix, _, ok := strings.Cut(key, ".")
	if !ok {
		return ""
	}
	return field.Category(prefix)
}
