package field

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
)

// ErrInvalidDefinition is returned when a catalog entry breaks a registry invariant.
var ErrInvalidDefinition = errors.New("invalid field definition")

var validKeyRe = regexp.MustCompile(`^[a-z][a-z0-9_]*(\.[a-z][a-z0-9_]*)+$`)

var validColumnRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Registry is an immutable catalog of queryable fields. All accessors are
// safe for concurrent use and degrade to zero values for unknown keys.
type Registry struct {
	defs       []Definition
	byKey      map[string]int
	categories []Category
}

// New builds a registry from defs, in registration order.
func New(defs ...Definition) (*Registry, error) {
	r := &Registry{
		defs:  make([]Definition, 0, len(defs)),
		byKey: make(map[string]int, len(defs)),
	}
	for _, d := range defs {
		if err := validateDefinition(d); err != nil {
			return nil, err
		}
		if _, dup := r.byKey[d.Key]; dup {
			return nil, fmt.Errorf("%w: duplicate key %q", ErrInvalidDefinition, d.Key)
		}
		r.byKey[d.Key] = len(r.defs)
		r.defs = append(r.defs, d.clone())
		if !slices.Contains(r.categories, d.Category) {
			r.categories = append(r.categories, d.Category)
		}
	}
	return r, nil
}

func validateDefinition(d Definition) error {
	if !validKeyRe.MatchString(d.Key) {
		return fmt.Errorf("%w: key %q must be a dotted lower-case identifier", ErrInvalidDefinition, d.Key)
	}
	if !d.Category.Valid() {
		return fmt.Errorf("%w: field %s: unknown category %q", ErrInvalidDefinition, d.Key, d.Category)
	}
	if !d.ValueType.Valid() {
		return fmt.Errorf("%w: field %s: unknown value type %q", ErrInvalidDefinition, d.Key, d.ValueType)
	}
	if len(d.AllowedOperators) == 0 {
		return fmt.Errorf("%w: field %s: no allowed operators", ErrInvalidDefinition, d.Key)
	}
	for i, op := range d.AllowedOperators {
		if !op.Valid() {
			return fmt.Errorf("%w: field %s: unknown operator %q", ErrInvalidDefinition, d.Key, op)
		}
		if slices.Contains(d.AllowedOperators[:i], op) {
			return fmt.Errorf("%w: field %s: operator %q listed twice", ErrInvalidDefinition, d.Key, op)
		}
	}
	if !validColumnRe.MatchString(d.RelationalMapper) {
		return fmt.Errorf("%w: field %s: invalid column %q", ErrInvalidDefinition, d.Key, d.RelationalMapper)
	}
	if d.ValueType.IsEnum() && len(d.EnumValues) == 0 {
		return fmt.Errorf("%w: field %s: enum types require enum values", ErrInvalidDefinition, d.Key)
	}
	if !d.ValueType.IsEnum() && len(d.EnumValues) > 0 {
		return fmt.Errorf("%w: field %s: enum values on non-enum type %s", ErrInvalidDefinition, d.Key, d.ValueType)
	}
	return nil
}

// Lookup returns the definition for key.
func (r *Registry) Lookup(key string) (Definition, bool) {
	i, ok := r.byKey[key]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i].clone(), true
}

// Has reports whether key is registered.
func (r *Registry) Has(key string) bool {
	_, ok := r.byKey[key]
	return ok
}

// OperatorsFor returns the allowed operators for key, or nil for unknown keys.
func (r *Registry) OperatorsFor(key string) []Operator {
	i, ok := r.byKey[key]
	if !ok {
		return nil
	}
	return slices.Clone(r.defs[i].AllowedOperators)
}

// ValueTypeFor returns the value type for key.
func (r *Registry) ValueTypeFor(key string) (ValueType, bool) {
	i, ok := r.byKey[key]
	if !ok {
		return "", false
	}
	return r.defs[i].ValueType, true
}

// EnumValuesFor returns the enum set for key; false when the key is unknown or not an enum.
func (r *Registry) EnumValuesFor(key string) ([]string, bool) {
	i, ok := r.byKey[key]
	if !ok || !r.defs[i].ValueType.IsEnum() {
		return nil, false
	}
	return slices.Clone(r.defs[i].EnumValues), true
}

// Allows reports whether op is permitted for key. Unknown keys allow nothing.
func (r *Registry) Allows(key string, op Operator) bool {
	i, ok := r.byKey[key]
	return ok && r.defs[i].Allows(op)
}

// FieldsByCategory returns the fields of c in registration order.
func (r *Registry) FieldsByCategory(c Category) []Definition {
	var out []Definition
	for _, d := range r.defs {
		if d.Category == c {
			out = append(out, d.clone())
		}
	}
	return out
}

// Categories returns the distinct categories in registration order.
func (r *Registry) Categories() []Category {
	return slices.Clone(r.categories)
}

// Keys returns every field key in registration order.
func (r *Registry) Keys() []string {
	keys := make([]string, len(r.defs))
	for i, d := range r.defs {
		keys[i] = d.Key
	}
	return keys
}

// All returns a copy of every definition in registration order.
func (r *Registry) All() []Definition {
	out := make([]Definition, len(r.defs))
	for i, d := range r.defs {
		out[i] = d.clone()
	}
	return out
}

// Len returns the number of registered fields.
func (r *Registry) Len() int { return len(r.defs) }

// ToJSON serializes the catalog for clients.
func (r *Registry) ToJSON() ([]byte, error) {
	return json.Marshal(struct {
		Categories []Category   `json:"categories"`
		Fields     []Definition `json:"fields"`
	}{r.categories, r.defs})
}
