package expr

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/audience/audience/audience/field"
)

// ErrDecode is wrapped by every decoding failure.
var ErrDecode = errors.New("invalid expression")

type conditionJSON struct {
	Kind     Kind           `json:"kind"`
	ID       string         `json:"id,omitempty"`
	Category field.Category `json:"category,omitempty"`
	Field    string         `json:"field"`
	Operator field.Operator `json:"operator"`
	Value    any            `json:"value"`
	Negated  bool           `json:"negated"`
}

type groupJSON struct {
	Kind       Kind              `json:"kind"`
	ID         string            `json:"id,omitempty"`
	Connective Connective        `json:"connective"`
	Negated    bool              `json:"negated"`
	Children   []json.RawMessage `json:"children"`
}

// MarshalJSON implements json.Marshaler.
func (c Condition) MarshalJSON() ([]byte, error) {
	return json.Marshal(conditionJSON{
		Kind:     KindCondition,
		ID:       c.ID,
		Category: c.Category,
		Field:    c.Field,
		Operator: c.Operator,
		Value:    c.Value,
		Negated:  c.Negated,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *Condition) UnmarshalJSON(b []byte) error {
	var cj conditionJSON
	if err := json.Unmarshal(b, &cj); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if cj.Kind != KindCondition {
		return fmt.Errorf("%w: expected kind %q, got %q", ErrDecode, KindCondition, cj.Kind)
	}
	if cj.Field == "" {
		return fmt.Errorf("%w: condition without field", ErrDecode)
	}
	if cj.Category == "" {
		cj.Category = CategoryOf(cj.Field)
	}
	*c = Condition{
		ID:       cj.ID,
		Category: cj.Category,
		Field:    cj.Field,
		Operator: cj.Operator,
		Value:    cj.Value,
		Negated:  cj.Negated,
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (g Group) MarshalJSON() ([]byte, error) {
	children := make([]json.RawMessage, len(g.Children))
	for i, ch := range g.Children {
		b, err := json.Marshal(ch)
		if err != nil {
			return nil, err
		}
		children[i] = b
	}
	return json.Marshal(groupJSON{
		Kind:       KindGroup,
		ID:         g.ID,
		Connective: g.Connective,
		Negated:    g.Negated,
		Children:   children,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (g *Group) UnmarshalJSON(b []byte) error {
	var gj groupJSON
	if err := json.Unmarshal(b, &gj); err != nil {
		return fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if gj.Kind != KindGroup {
		return fmt.Errorf("%w: expected kind %q, got %q", ErrDecode, KindGroup, gj.Kind)
	}
	if !gj.Connective.Valid() {
		return fmt.Errorf("%w: invalid connective %q", ErrDecode, gj.Connective)
	}
	children := make([]Node, 0, len(gj.Children))
	for i, raw := range gj.Children {
		n, err := UnmarshalNode(raw)
		if err != nil {
			return fmt.Errorf("child %d: %w", i, err)
		}
		children = append(children, n)
	}
	*g = Group{
		ID:         gj.ID,
		Connective: gj.Connective,
		Negated:    gj.Negated,
		Children:   children,
	}
	return nil
}

// UnmarshalNode decodes a condition or group by its kind.
func UnmarshalNode(b []byte) (Node, error) {
	var probe struct {
		Kind Kind `json:"kind"`
	}
	if err := json.Unmarshal(b, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	switch probe.Kind {
	case KindCondition:
		var c Condition
		if err := c.UnmarshalJSON(b); err != nil {
			return nil, err
		}
		return c, nil
	case KindGroup:
		var g Group
		if err := g.UnmarshalJSON(b); err != nil {
			return nil, err
		}
		return g, nil
	default:
		return nil, fmt.Errorf("%w: unknown node kind %q", ErrDecode, probe.Kind)
	}
}

// ParseJSON decodes a serialized tree. The root must be a group.
func ParseJSON(b []byte) (Group, error) {
	b = bytes.TrimSpace(b)
	n, err := UnmarshalNode(b)
	if err != nil {
		return Group{}, err
	}
	g, ok := n.(Group)
	if !ok {
		return Group{}, fmt.Errorf("%w: root must be a group, got %s", ErrDecode, n.Kind())
	}
	return g, nil
}
