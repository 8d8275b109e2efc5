package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/audience/audience/audience/expr"
	"github.com/audience/audience/audience/field"
	"github.com/audience/audience/audience/value"
)

func cond(key string, op field.Operator, v any) expr.Condition {
	return expr.Condition{Category: expr.CategoryOf(key), Field: key, Operator: op, Value: v}
}

func group(c expr.Connective, children ...expr.Node) expr.Group {
	return expr.Group{Connective: c, Children: children}
}

func TestSingleContains(t *testing.T) {
	f := Compile(field.Default(), group(expr.And, cond("business.company_name", field.OpContains, "Acme")))
	assert.Equal(t, "(company_name:Acme)", f.Expr)
	assert.Equal(t, f.Expr, f.String())
	assert.Empty(t, f.Degraded)
}

func TestUnmappedFieldDropsFromOr(t *testing.T) {
	root := group(expr.Or,
		cond("business.revenue", field.OpBetween, []any{1000000.0, 5000000.0}),
		cond("intent.score", field.OpGte, 50),
	)
	f := Compile(field.Default(), root)
	assert.Equal(t, "(company_revenue:[1000000..5000000])", f.Expr)
	require.Len(t, f.Degraded, 1)
	assert.Equal(t, "intent.score", f.Degraded[0].Field)
	assert.Equal(t, expr.Path{1}, f.Degraded[0].Path)
}

func TestMatchAll(t *testing.T) {
	reg := field.Default()
	assert.Equal(t, MatchAll, Compile(reg, group(expr.And)).Expr)
	assert.Equal(t, MatchAll, Compile(reg, expr.Group{Connective: expr.Or, Negated: true}).Expr)
	assert.Equal(t, MatchAll, Compile(reg, group(expr.And, cond("intent.score", field.OpGte, 1))).Expr)

	nested := group(expr.And, cond("contact.has_email", field.OpIsTrue, true), group(expr.Or))
	assert.Equal(t, "(has_email:=true) && ((*:*))", Compile(reg, nested).Expr)
}

func TestNegation(t *testing.T) {
	reg := field.Default()

	c := cond("business.company_name", field.OpEq, "Acme")
	c.Negated = true
	assert.Equal(t, "(!(company_name:=Acme))", Compile(reg, group(expr.And, c)).Expr)

	one := expr.Group{Connective: expr.Or, Negated: true, Children: []expr.Node{
		cond("contact.has_email", field.OpIsTrue, true),
	}}
	assert.Equal(t, "!(has_email:=true)", Compile(reg, one).Expr)

	two := expr.Group{Connective: expr.Or, Negated: true, Children: []expr.Node{
		cond("contact.has_email", field.OpIsTrue, true),
		cond("contact.has_phone", field.OpIsFalse, true),
	}}
	assert.Equal(t, "!((has_email:=true) || (has_phone:=false))", Compile(reg, two).Expr)
}

func TestOperatorForms(t *testing.T) {
	tests := []struct {
		name string
		cond expr.Condition
		want string
	}{
		{"eq", cond("business.company_name", field.OpEq, "Acme"), "company_name:=Acme"},
		{"neq", cond("business.company_name", field.OpNeq, "Acme"), "company_name:!=Acme"},
		{"in", cond("business.seniority", field.OpIn, []any{"cxo", "vp"}), "seniority:[cxo, vp]"},
		{"nin", cond("business.seniority", field.OpNin, []string{"entry"}), "!seniority:[entry]"},
		{"starts with", cond("business.company_name", field.OpStartsWith, "Ac"), "company_name:Ac*"},
		{"ends with", cond("business.company_name", field.OpEndsWith, "me"), "company_name:*me"},
		{"gte date", cond("date.created_at", field.OpGte, "2024-01-01"), "created_at:>=2024-01-01"},
		{"lt date", cond("date.created_at", field.OpLt, "2024-06-30"), "created_at:<2024-06-30"},
		{"exists", cond("business.company_name", field.OpExists, nil), "company_name:!=''"},
		{"not exists", cond("business.company_name", field.OpNotExists, nil), "company_name:=''"},
		{"is false", cond("contact.has_email", field.OpIsFalse, true), "has_email:=false"},
		{"match", cond("intent.topic", field.OpMatch, "cloud security"), "intent_topics:cloud security"},
		{"match any", cond("intent.keywords", field.OpMatchAny, []any{"crm", "erp"}), "intent_keywords:crm || erp"},
		{
			"within radius",
			cond("location.radius", field.OpWithinRadius, value.GeoRadius{Lat: 40.7128, Lng: -74.006, RadiusKm: 25}),
			"location:[40.7128, -74.006, 25 km]",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Compile(field.Default(), group(expr.And, tt.cond))
			assert.Equal(t, "("+tt.want+")", f.Expr)
			assert.Empty(t, f.Degraded)
		})
	}
}

func TestMalformedOperandsDrop(t *testing.T) {
	root := group(expr.And,
		cond("business.seniority", field.OpIn, []any{}),
		cond("business.revenue", field.OpBetween, "lots"),
		cond("location.radius", field.OpWithinRadius, "nyc"),
		cond("business.company_name", field.OpEq, map[string]any{"a": 1}),
		cond("business.company_name", field.OpEq, "Acme"),
	)
	f := Compile(field.Default(), root)
	assert.Equal(t, "(company_name:=Acme)", f.Expr)
	assert.Len(t, f.Degraded, 4)
}

// unquoted returns s with backtick-quoted segments removed.
func unquoted(s string) string {
	var sb strings.Builder
	in := false
	for i := 0; i < len(s); i++ {
		switch {
		case in && s[i] == '\\':
			i++
		case s[i] == '`':
			in = !in
		case !in:
			sb.WriteByte(s[i])
		}
	}
	return sb.String()
}

func TestReservedCharactersAreQuoted(t *testing.T) {
	tests := []struct {
		name string
		cond expr.Condition
		want string
	}{
		{"open paren", cond("business.company_name", field.OpContains, "Acme (US"), "company_name:`Acme (US`"},
		{"injected or", cond("business.company_name", field.OpEq, "x) || (*:*"), "company_name:=`x) || (*:*`"},
		{"and", cond("business.company_name", field.OpNeq, "R&&D"), "company_name:!=`R&&D`"},
		{"colon", cond("business.job_title", field.OpEq, "VP: Sales"), "job_title:=`VP: Sales`"},
		{"backtick", cond("business.company_name", field.OpContains, "a`b"), "company_name:`a\\`b`"},
		{"backslash", cond("business.company_name", field.OpContains, `a\`), "company_name:`a\\\\`"},
		{"empty", cond("business.company_name", field.OpEq, ""), "company_name:=``"},
		{"starts with", cond("business.company_name", field.OpStartsWith, "(Ac"), "company_name:`(Ac`*"},
		{"ends with", cond("business.company_name", field.OpEndsWith, "me)"), "company_name:*`me)`"},
		{"in", cond("business.seniority", field.OpIn, []any{"cxo", "a,b]"}), "seniority:[cxo, `a,b]`]"},
		{"spaces", cond("intent.topic", field.OpMatch, "cloud security"), "intent_topics:cloud security"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := Compile(field.Default(), group(expr.And, tt.cond))
			assert.Equal(t, "("+tt.want+")", f.Expr)
			assert.Empty(t, f.Degraded)
		})
	}
}

func TestInjectedValueStaysInsideCondition(t *testing.T) {
	root := group(expr.And,
		cond("contact.has_email", field.OpIsTrue, true),
		cond("business.company_name", field.OpEq, "x) || (*:*"),
	)
	f := Compile(field.Default(), root)
	assert.Equal(t, "(has_email:=true) && (company_name:=`x) || (*:*`)", f.Expr)
	assert.Equal(t, "(has_email:=true) && (company_name:=)", unquoted(f.Expr))
}

func TestParenthesesBalance(t *testing.T) {
	tests := []struct {
		name  string
		value string
	}{
		{"plain", "x"},
		{"open paren", "Acme (US"},
		{"close paren", "x) || (*:*"},
		{"brackets", "[a..b]"},
		{"operators", "a && b || !c"},
		{"backtick", "`)"},
		{"backslash", `\`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := group(expr.Or,
				expr.Group{Connective: expr.And, Negated: true, Children: []expr.Node{
					cond("business.seniority", field.OpIn, []any{"cxo", tt.value}),
					cond("intent.score", field.OpGte, 1),
					group(expr.Or,
						cond("contact.has_email", field.OpIsTrue, true),
						cond("business.company_name", field.OpContains, tt.value),
					),
				}},
				cond("nope.nope", field.OpEq, 1),
				cond("business.job_title", field.OpStartsWith, tt.value),
				group(expr.And),
			)
			bare := unquoted(Compile(field.Default(), root).Expr)
			assert.Equal(t, strings.Count(bare, "("), strings.Count(bare, ")"), bare)
			assert.Equal(t, strings.Count(bare, "["), strings.Count(bare, "]"), bare)
			assert.Equal(t, 0, strings.Count(bare, "`"), bare)
		})
	}
}
