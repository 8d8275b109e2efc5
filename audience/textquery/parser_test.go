package textquery

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audience/audience/audience/expr"
	"github.com/audience/audience/audience/field"
	"github.com/audience/audience/audience/validate"
)

func cond(key string, op field.Operator, v any) expr.Condition {
	return expr.Condition{Category: expr.CategoryOf(key), Field: key, Operator: op, Value: v}
}

func TestParseSingleConditionIsWrapped(t *testing.T) {
	g, err := Parse(`business.company_name contains Acme`)
	require.NoError(t, err)
	want := expr.Group{Connective: expr.And, Children: []expr.Node{
		cond("business.company_name", field.OpContains, "Acme"),
	}}
	if diff := cmp.Diff(want, g); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseEmpty(t *testing.T) {
	for _, in := range []string{"", "   "} {
		g, err := Parse(in)
		require.NoError(t, err)
		assert.Equal(t, expr.And, g.Connective)
		assert.True(t, g.IsEmpty())
	}
	g, err := Parse("()")
	require.NoError(t, err)
	assert.True(t, g.IsEmpty())
}

func TestParsePrecedenceAndFlattening(t *testing.T) {
	g, err := Parse(`a.x eq 1 AND a.y eq 2 AND a.z eq 3 OR b.x eq 4 OR b.y eq 5`)
	require.NoError(t, err)
	want := expr.Group{Connective: expr.Or, Children: []expr.Node{
		expr.Group{Connective: expr.And, Children: []expr.Node{
			cond("a.x", field.OpEq, 1.0),
			cond("a.y", field.OpEq, 2.0),
			cond("a.z", field.OpEq, 3.0),
		}},
		cond("b.x", field.OpEq, 4.0),
		cond("b.y", field.OpEq, 5.0),
	}}
	if diff := cmp.Diff(want, g); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}
}

func TestParseNegation(t *testing.T) {
	g, err := Parse(`NOT business.job_title eq CEO AND !(contact.has_email isTrue OR contact.has_phone isFalse)`)
	require.NoError(t, err)

	negCond := cond("business.job_title", field.OpEq, "CEO")
	negCond.Negated = true
	want := expr.Group{Connective: expr.And, Children: []expr.Node{
		negCond,
		expr.Group{Connective: expr.Or, Negated: true, Children: []expr.Node{
			cond("contact.has_email", field.OpIsTrue, true),
			cond("contact.has_phone", field.OpIsFalse, true),
		}},
	}}
	if diff := cmp.Diff(want, g); diff != "" {
		t.Errorf("Parse mismatch (-want +got):\n%s", diff)
	}

	g, err = Parse(`NOT NOT contact.has_email isTrue`)
	require.NoError(t, err)
	assert.False(t, g.Children[0].(expr.Condition).Negated)
}

func TestParseOperands(t *testing.T) {
	g, err := Parse(`business.seniority in [cxo, "vp"] AND business.revenue between [1e6, 5000000] ` +
		`AND location.radius withinRadius {lat: 40.7, lng: -74, radiusKm: 25} ` +
		`AND date.created_at >= 2024-01-01 AND business.company_name exists AND family.has_children isFalse ` +
		`AND business.company_domain != "acme.com" AND financial.investor isTrue`)
	require.NoError(t, err)
	require.Len(t, g.Children, 8)

	c := func(i int) expr.Condition { return g.Children[i].(expr.Condition) }
	assert.Equal(t, []any{"cxo", "vp"}, c(0).Value)
	assert.Equal(t, []any{1e6, 5e6}, c(1).Value)
	assert.Equal(t, map[string]any{"lat": 40.7, "lng": -74.0, "radiusKm": 25.0}, c(2).Value)
	assert.Equal(t, "2024-01-01", c(3).Value)
	assert.Equal(t, field.OpGte, c(3).Operator)
	assert.Nil(t, c(4).Value)
	assert.Equal(t, true, c(5).Value)
	assert.Equal(t, field.OpNeq, c(6).Operator)
	assert.Equal(t, field.CategoryFinancial, c(7).Category)

	assert.Empty(t, validate.Validate(field.Default(), g))
}

func TestParseErrors(t *testing.T) {
	for _, in := range []string{
		`business.company_name`,
		`business.company_name like x`,
		`business.company_name eq`,
		`(business.company_name eq x`,
		`business.company_name eq x)`,
		`business.seniority in [cxo vp]`,
		`location.radius withinRadius {lat 1}`,
		`AND a.b eq 1`,
		`a.b eq 1 OR`,
		`a.b eq (x)`,
	} {
		_, err := Parse(in)
		assert.Error(t, err, in)
	}
}
