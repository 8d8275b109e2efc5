package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audience/audience/audience/expr"
	"github.com/audience/audience/audience/field"
	"github.com/audience/audience/audience/value"
)

func and(children ...expr.Node) expr.Group {
	return expr.Group{Connective: expr.And, Children: children}
}

func cond(key string, op field.Operator, v any) expr.Condition {
	return expr.Condition{Category: expr.CategoryOf(key), Field: key, Operator: op, Value: v}
}

func TestEnumListRejectsForeignValue(t *testing.T) {
	reg := field.Default()

	vs := Validate(reg, and(cond("business.seniority", field.OpIn, []any{"cxo", "intern"})))
	require.Len(t, vs, 1)
	assert.Equal(t, InvalidValue, vs[0].Kind)
	assert.Equal(t, "business.seniority", vs[0].Field)
	assert.Equal(t, expr.Path{0}, vs[0].Path)

	assert.Empty(t, Validate(reg, and(cond("business.seniority", field.OpIn, []any{"cxo"}))))
}

func TestValidTreeHasNoViolations(t *testing.T) {
	root := and(
		cond("business.company_name", field.OpContains, "Acme"),
		expr.Group{Connective: expr.Or, Negated: true, Children: []expr.Node{
			cond("business.revenue", field.OpBetween, []any{1e6, 5e6}),
			cond("intent.score", field.OpGte, 50),
		}},
		cond("contact.has_email", field.OpIsTrue, true),
		cond("location.radius", field.OpWithinRadius, value.GeoRadius{Lat: 40.7, Lng: -74, RadiusKm: 25}),
		cond("date.created_at", field.OpGte, "2024-01-01"),
	)
	assert.Empty(t, Validate(field.Default(), root))
	assert.Empty(t, Validate(field.Default(), and()))
}

func TestViolationKinds(t *testing.T) {
	reg := field.Default()
	root := and(
		cond("business.favourite_colour", field.OpEq, "red"),
		cond("business.company_name", field.OpBetween, []any{1, 2}),
		cond("business.revenue", field.OpBetween, []any{5e6, 1e6}),
		expr.Group{Connective: "XOR", Children: []expr.Node{
			cond("intent.score", field.OpGte, "fifty"),
		}},
	)
	vs := Validate(reg, root)
	require.Len(t, vs, 5)

	assert.Equal(t, UnknownField, vs[0].Kind)
	assert.Equal(t, expr.Path{0}, vs[0].Path)
	assert.Equal(t, OperatorNotAllowed, vs[1].Kind)
	assert.Equal(t, field.OpBetween, vs[1].Operator)
	assert.Equal(t, InvalidValue, vs[2].Kind)
	assert.Equal(t, InvalidConnective, vs[3].Kind)
	assert.Equal(t, expr.Path{3}, vs[3].Path)
	assert.Equal(t, InvalidValue, vs[4].Kind)
	assert.Equal(t, expr.Path{3, 0}, vs[4].Path)
}

func TestNullaryOperatorsIgnoreValue(t *testing.T) {
	reg := field.Default()
	assert.Empty(t, Condition(reg, cond("contact.has_email", field.OpIsFalse, nil)))
	assert.Empty(t, Condition(reg, cond("business.company_name", field.OpExists, "ignored")))
}

func TestCondition(t *testing.T) {
	reg := field.Default()
	vs := Condition(reg, cond("nope.nope", field.OpEq, 1))
	require.Len(t, vs, 1)
	assert.Equal(t, UnknownField, vs[0].Kind)
	assert.Contains(t, vs[0].String(), "field=nope.nope")
}

func TestValue(t *testing.T) {
	d := func(t field.ValueType, enum ...string) field.Definition {
		return field.Definition{ValueType: t, EnumValues: enum}
	}
	tests := []struct {
		name string
		def  field.Definition
		v    any
		want bool
	}{
		{"string", d(field.TypeString), "x", true},
		{"string rejects number", d(field.TypeString), 1.0, false},
		{"string list", d(field.TypeStringList), []any{"a", "b"}, true},
		{"string list empty", d(field.TypeStringList), []any{}, false},
		{"string list mixed", d(field.TypeStringList), []any{"a", 1.0}, false},
		{"number", d(field.TypeNumber), 3, true},
		{"number rejects string", d(field.TypeNumber), "3", false},
		{"number list", d(field.TypeNumberList), []float64{1, 2}, true},
		{"number range", d(field.TypeNumberRange), []any{1.0, 2.0}, true},
		{"number range reversed", d(field.TypeNumberRange), []any{2.0, 1.0}, false},
		{"number range arity", d(field.TypeNumberRange), []any{1.0}, false},
		{"enum", d(field.TypeEnum, "a", "b"), "a", true},
		{"enum foreign", d(field.TypeEnum, "a", "b"), "c", false},
		{"enum list", d(field.TypeEnumList, "a", "b"), []string{"a", "b"}, true},
		{"enum list empty", d(field.TypeEnumList, "a"), []string{}, false},
		{"boolean", d(field.TypeBoolean), false, true},
		{"boolean rejects string", d(field.TypeBoolean), "true", false},
		{"date", d(field.TypeDate), "2024-02-29", true},
		{"date bad", d(field.TypeDate), "2023-02-29", false},
		{"date range", d(field.TypeDateRange), []any{"2024-01-01", "2024-06-30"}, true},
		{"date range reversed", d(field.TypeDateRange), []any{"2024-06-30", "2024-01-01"}, false},
		{"geo point", d(field.TypeGeoPoint), map[string]any{"lat": 1.0, "lng": 2.0}, true},
		{"geo point out of range", d(field.TypeGeoPoint), map[string]any{"lat": 100.0, "lng": 2.0}, false},
		{"geo radius", d(field.TypeGeoRadius), map[string]any{"lat": 1.0, "lng": 2.0, "radiusKm": 5.0}, true},
		{"geo radius zero", d(field.TypeGeoRadius), map[string]any{"lat": 1.0, "lng": 2.0, "radiusKm": 0.0}, false},
		{"unknown type", d("blob"), "x", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Value(tt.def, tt.v))
		})
	}
}
