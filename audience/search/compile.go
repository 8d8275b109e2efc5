// Package search lowers expression trees into a search engine filter string.
//
// Unlike the relational backend, conditions the search index cannot answer
// lower to the empty string and are dropped from their group. A group whose
// children all drop lowers to MatchAll.
package search

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/audience/audience/audience/expr"
	"github.com/audience/audience/audience/field"
	"github.com/audience/audience/audience/value"
)

// MatchAll is the universal-match token.
const MatchAll = "(*:*)"

// Filter is a compiled filter expression.
type Filter struct {
	Expr     string
	Degraded []Degradation
}

func (f Filter) String() string { return f.Expr }

// Degradation records a condition that was dropped from the filter.
type Degradation struct {
	Path     expr.Path      `json:"path"`
	Field    string         `json:"field"`
	Operator field.Operator `json:"operator"`
	Reason   string         `json:"reason"`
}

// Compiler lowers expression trees into filter strings.
type Compiler struct {
	reg      *field.Registry
	degraded []Degradation
}

// Compile lowers root into a filter expression. It never fails.
func Compile(reg *field.Registry, root expr.Group) Filter {
	c := &Compiler{reg: reg}
	return Filter{Expr: c.compileGroup(root, nil), Degraded: c.degraded}
}

func (c *Compiler) compileNode(n expr.Node, p expr.Path) string {
	switch node := n.(type) {
	case expr.Group:
		return c.compileGroup(node, p)
	case expr.Condition:
		return c.compileCondition(node, p)
	default:
		return ""
	}
}

func (c *Compiler) compileGroup(g expr.Group, p expr.Path) string {
	sep := " && "
	if g.Connective == expr.Or {
		sep = " || "
	}
	var parts []string
	for i, ch := range g.Children {
		s := c.compileNode(ch, p.Child(i))
		if s == "" {
			continue
		}
		parts = append(parts, "("+s+")")
	}
	if len(parts) == 0 {
		return MatchAll
	}
	joined := strings.Join(parts, sep)
	if !g.Negated {
		return joined
	}
	if len(parts) == 1 {
		return "!" + joined
	}
	return "!(" + joined + ")"
}

func (c *Compiler) compileCondition(cond expr.Condition, p expr.Path) string {
	def, ok := c.reg.Lookup(cond.Field)
	if !ok {
		return c.drop(cond, p, "unknown field")
	}
	if !def.Searchable() {
		return c.drop(cond, p, "field has no search mapping")
	}
	clause, reason := lower(def.SearchMapper, cond)
	if reason != "" {
		return c.drop(cond, p, reason)
	}
	if cond.Negated {
		return "!(" + clause + ")"
	}
	return clause
}

func (c *Compiler) drop(cond expr.Condition, p expr.Path, reason string) string {
	c.degraded = append(c.degraded, Degradation{
		Path:     p,
		Field:    cond.Field,
		Operator: cond.Operator,
		Reason:   reason,
	})
	return ""
}

func lower(s string, cond expr.Condition) (string, string) {
	switch cond.Operator {
	case field.OpEq, field.OpNeq, field.OpGte, field.OpLte, field.OpGt, field.OpLt:
		v, ok := format(cond.Value)
		if !ok {
			return "", "operand is not a scalar"
		}
		return s + ":" + comparison[cond.Operator] + v, ""

	case field.OpIn, field.OpNin:
		items, ok := formatList(cond.Value)
		if !ok {
			return "", "operand is not a non-empty list"
		}
		out := s + ":[" + strings.Join(items, ", ") + "]"
		if cond.Operator == field.OpNin {
			out = "!" + out
		}
		return out, ""

	case field.OpContains, field.OpIContains, field.OpMatch:
		v, ok := format(cond.Value)
		if !ok {
			return "", "operand is not a scalar"
		}
		return s + ":" + v, ""
	case field.OpStartsWith:
		v, ok := format(cond.Value)
		if !ok {
			return "", "operand is not a scalar"
		}
		return s + ":" + v + "*", ""
	case field.OpEndsWith:
		v, ok := format(cond.Value)
		if !ok {
			return "", "operand is not a scalar"
		}
		return s + ":*" + v, ""

	case field.OpBetween:
		a, b, ok := value.Pair(cond.Value)
		if !ok {
			return "", "operand is not a pair"
		}
		lo, ok1 := format(a)
		hi, ok2 := format(b)
		if !ok1 || !ok2 {
			return "", "range bound is not a scalar"
		}
		return fmt.Sprintf("%s:[%s..%s]", s, lo, hi), ""

	case field.OpExists:
		return s + ":!=''", ""
	case field.OpNotExists:
		return s + ":=''", ""
	case field.OpIsTrue:
		return s + ":=true", ""
	case field.OpIsFalse:
		return s + ":=false", ""

	case field.OpMatchAny:
		items, ok := formatList(cond.Value)
		if !ok {
			return "", "operand is not a non-empty list"
		}
		return s + ":" + strings.Join(items, " || "), ""

	case field.OpWithinRadius:
		r, ok := value.Radius(cond.Value)
		if !ok {
			return "", "operand is not a geo radius"
		}
		return fmt.Sprintf("%s:[%s, %s, %s km]", s, formatFloat(r.Lat), formatFloat(r.Lng), formatFloat(r.RadiusKm)), ""

	default:
		return "", fmt.Sprintf("operator %q has no search form", cond.Operator)
	}
}

var comparison = map[field.Operator]string{
	field.OpEq:  "=",
	field.OpNeq: "!=",
	field.OpGte: ">=",
	field.OpLte: "<=",
	field.OpGt:  ">",
	field.OpLt:  "<",
}

// reserved holds the characters that carry meaning in filter syntax.
const reserved = "()[]{}&|:!=<>,*`'\\"

// format renders a scalar operand: strings verbatim unless they contain
// reserved characters, numbers in shortest decimal form.
func format(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return quote(x), true
	case bool:
		return strconv.FormatBool(x), true
	case time.Time:
		return quote(x.Format(time.RFC3339)), true
	}
	if f, ok := value.Float(v); ok {
		return formatFloat(f), true
	}
	return "", false
}

func formatList(v any) ([]string, bool) {
	items, ok := value.List(v)
	if !ok {
		if s, isScalar := format(v); isScalar {
			return []string{s}, true
		}
		return nil, false
	}
	if len(items) == 0 {
		return nil, false
	}
	out := make([]string, len(items))
	for i, it := range items {
		s, ok := format(it)
		if !ok {
			return nil, false
		}
		out[i] = s
	}
	return out, true
}

// quote wraps s in backticks when it is empty or contains reserved
// characters. Backslashes and backticks inside are escaped with a backslash.
func quote(s string) string {
	if s != "" && !strings.ContainsAny(s, reserved) {
		return s
	}
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "`", "\\`")
	return "`" + s + "`"
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
