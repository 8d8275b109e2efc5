// Package validate checks expression trees against a field registry.
package validate

import (
	"fmt"

	"github.com/audience/audience/audience/expr"
	"github.com/audience/audience/audience/field"
	"github.com/audience/audience/audience/value"
)

// Kind classifies a violation.
type Kind string

const (
	UnknownField       Kind = "unknown_field"
	OperatorNotAllowed Kind = "operator_not_permitted"
	InvalidValue       Kind = "invalid_value"
	InvalidConnective  Kind = "invalid_connective"
)

// Violation is one structural defect of a tree.
type Violation struct {
	Path     expr.Path      `json:"path"`
	Kind     Kind           `json:"kind"`
	Field    string         `json:"field,omitempty"`
	Operator field.Operator `json:"operator,omitempty"`
	Message  string         `json:"message"`
}

func (v Violation) String() string {
	if v.Field == "" {
		return fmt.Sprintf("%v: %s", v.Path, v.Message)
	}
	return fmt.Sprintf("%v: %s (field=%s)", v.Path, v.Message, v.Field)
}

// Validate returns every violation in root, in tree order. An empty result
// means the tree is safe to compile.
func Validate(reg *field.Registry, root expr.Group) []Violation {
	var out []Violation
	expr.Walk(root, func(p expr.Path, n expr.Node) bool {
		switch node := n.(type) {
		case expr.Group:
			if !node.Connective.Valid() {
				out = append(out, Violation{
					Path:    p,
					Kind:    InvalidConnective,
					Message: fmt.Sprintf("invalid connective %q", node.Connective),
				})
			}
		case expr.Condition:
			if v, bad := checkCondition(reg, node); bad {
				v.Path = p
				out = append(out, v)
			}
		}
		return true
	})
	return out
}

// Condition validates a single condition outside of a tree.
func Condition(reg *field.Registry, c expr.Condition) []Violation {
	if v, bad := checkCondition(reg, c); bad {
		return []Violation{v}
	}
	return nil
}

func checkCondition(reg *field.Registry, c expr.Condition) (Violation, bool) {
	def, ok := reg.Lookup(c.Field)
	if !ok {
		return Violation{Kind: UnknownField, Field: c.Field, Operator: c.Operator, Message: "unknown field"}, true
	}
	if !def.Allows(c.Operator) {
		return Violation{
			Kind:     OperatorNotAllowed,
			Field:    c.Field,
			Operator: c.Operator,
			Message:  fmt.Sprintf("operator %q not permitted for field", c.Operator),
		}, true
	}
	if c.Operator.Nullary() {
		return Violation{}, false
	}
	if !Value(def, c.Value) {
		return Violation{
			Kind:     InvalidValue,
			Field:    c.Field,
			Operator: c.Operator,
			Message:  fmt.Sprintf("invalid value for field of type %s", def.ValueType),
		}, true
	}
	return Violation{}, false
}

// Value reports whether v has the shape required by def's value type.
func Value(def field.Definition, v any) bool {
	switch def.ValueType {
	case field.TypeString:
		_, ok := value.String(v)
		return ok
	case field.TypeStringList:
		l, ok := value.Strings(v)
		return ok && len(l) > 0
	case field.TypeNumber:
		_, ok := value.Float(v)
		return ok
	case field.TypeNumberList:
		l, ok := value.Floats(v)
		return ok && len(l) > 0
	case field.TypeNumberRange:
		_, _, ok := value.NumberRange(v)
		return ok
	case field.TypeEnum:
		s, ok := value.String(v)
		return ok && def.HasEnumValue(s)
	case field.TypeEnumList:
		l, ok := value.Strings(v)
		if !ok || len(l) == 0 {
			return false
		}
		for _, s := range l {
			if !def.HasEnumValue(s) {
				return false
			}
		}
		return true
	case field.TypeBoolean:
		_, ok := value.Bool(v)
		return ok
	case field.TypeDate:
		_, ok := value.Date(v)
		return ok
	case field.TypeDateRange:
		_, _, ok := value.DateRange(v)
		return ok
	case field.TypeGeoPoint:
		p, ok := value.Point(v)
		return ok && p.Valid()
	case field.TypeGeoRadius:
		r, ok := value.Radius(v)
		return ok && r.Valid()
	default:
		return false
	}
}
