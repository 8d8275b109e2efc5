package relational

import (
	"fmt"
	"strings"
	"time"

	"github.com/audience/audience/audience/expr"
	"github.com/audience/audience/audience/field"
	"github.com/audience/audience/audience/storage/sqlbuilder"
	"github.com/audience/audience/audience/value"
)

// AlwaysTrue is the no-op predicate.
const AlwaysTrue = "TRUE"

// Fragment is a WHERE-clause body and its positional parameters.
type Fragment struct {
	Clause   string
	Params   []any
	Style    sqlbuilder.PlaceholderStyle
	Degraded []Degradation
}

// Where returns the clause prefixed with the WHERE keyword.
func (f Fragment) Where() string {
	return "WHERE " + f.Clause
}

// Inline renders the fragment with parameters substituted, for display.
func (f Fragment) Inline() string {
	return sqlbuilder.Inline(f.Clause, f.Params, f.Style)
}

// Degradation records a condition that compiled to the no-op predicate.
type Degradation struct {
	Path     expr.Path      `json:"path"`
	Field    string         `json:"field"`
	Operator field.Operator `json:"operator"`
	Reason   string         `json:"reason"`
}

// Compiler lowers expression trees into parameterized SQL.
type Compiler struct {
	reg      *field.Registry
	dialect  Dialect
	builder  *sqlbuilder.Builder
	degraded []Degradation
}

// Compile lowers root into a fragment. It never fails: unknown fields,
// unsupported operators and malformed operands become AlwaysTrue.
func Compile(reg *field.Registry, root expr.Group, d Dialect) Fragment {
	c := &Compiler{
		reg:     reg,
		dialect: d,
		builder: sqlbuilder.New(d.Placeholders),
	}
	clause := c.compileGroup(root, nil)
	return Fragment{
		Clause:   clause,
		Params:   c.builder.Args(),
		Style:    d.Placeholders,
		Degraded: c.degraded,
	}
}

func (c *Compiler) compileNode(n expr.Node, p expr.Path) string {
	switch node := n.(type) {
	case expr.Group:
		return c.compileGroup(node, p)
	case expr.Condition:
		return c.compileCondition(node, p)
	default:
		return AlwaysTrue
	}
}

func (c *Compiler) compileGroup(g expr.Group, p expr.Path) string {
	if len(g.Children) == 0 {
		return AlwaysTrue
	}
	keyword := " AND "
	if g.Connective == expr.Or {
		keyword = " OR "
	}
	parts := make([]string, len(g.Children))
	for i, ch := range g.Children {
		parts[i] = "(" + c.compileNode(ch, p.Child(i)) + ")"
	}
	joined := strings.Join(parts, keyword)
	if g.Negated {
		return "NOT (" + joined + ")"
	}
	return joined
}

func (c *Compiler) compileCondition(cond expr.Condition, p expr.Path) string {
	def, ok := c.reg.Lookup(cond.Field)
	if !ok {
		return c.degrade(cond, p, "unknown field")
	}
	clause, reason := c.lower(def.RelationalMapper, cond)
	if reason != "" {
		return c.degrade(cond, p, reason)
	}
	if cond.Negated {
		return "NOT (" + clause + ")"
	}
	return clause
}

func (c *Compiler) degrade(cond expr.Condition, p expr.Path, reason string) string {
	c.degraded = append(c.degraded, Degradation{
		Path:     p,
		Field:    cond.Field,
		Operator: cond.Operator,
		Reason:   reason,
	})
	return AlwaysTrue
}

// lower returns the clause for one condition, or a non-empty reason when the
// condition cannot be expressed. Placeholders are only allocated on success.
func (c *Compiler) lower(col string, cond expr.Condition) (string, string) {
	switch cond.Operator {
	case field.OpEq, field.OpNeq, field.OpGte, field.OpLte, field.OpGt, field.OpLt:
		v, ok := scalar(cond.Value)
		if !ok {
			return "", "operand is not a scalar"
		}
		return fmt.Sprintf("%s %s %s", col, comparison[cond.Operator], c.builder.Arg(v)), ""

	case field.OpIn, field.OpNin:
		items, ok := value.List(cond.Value)
		if !ok {
			if v, isScalar := scalar(cond.Value); isScalar {
				items, ok = []any{v}, true
			}
		}
		if !ok || len(items) == 0 {
			return "", "operand is not a non-empty list"
		}
		vals := make([]any, len(items))
		for i, it := range items {
			v, ok := scalar(it)
			if !ok {
				return "", "list element is not a scalar"
			}
			vals[i] = v
		}
		phs := make([]string, len(vals))
		for i, v := range vals {
			phs[i] = c.builder.Arg(v)
		}
		kw := "IN"
		if cond.Operator == field.OpNin {
			kw = "NOT IN"
		}
		return fmt.Sprintf("%s %s (%s)", col, kw, strings.Join(phs, ", ")), ""

	case field.OpContains, field.OpIContains, field.OpStartsWith, field.OpEndsWith:
		s, ok := value.String(cond.Value)
		if !ok {
			return "", "operand is not a string"
		}
		var pattern string
		switch cond.Operator {
		case field.OpStartsWith:
			pattern = s + "%"
		case field.OpEndsWith:
			pattern = "%" + s
		default:
			pattern = "%" + s + "%"
		}
		return fmt.Sprintf("%s %s %s", col, c.dialect.Like, c.builder.Arg(pattern)), ""

	case field.OpBetween:
		lo, hi, ok := value.Pair(cond.Value)
		if !ok {
			return "", "operand is not a pair"
		}
		lo, ok1 := scalar(lo)
		hi, ok2 := scalar(hi)
		if !ok1 || !ok2 {
			return "", "range bound is not a scalar"
		}
		phLo := c.builder.Arg(lo)
		phHi := c.builder.Arg(hi)
		return fmt.Sprintf("%s BETWEEN %s AND %s", col, phLo, phHi), ""

	case field.OpExists:
		return col + " IS NOT NULL", ""
	case field.OpNotExists:
		return col + " IS NULL", ""
	case field.OpIsTrue:
		return col + " = true", ""
	case field.OpIsFalse:
		return col + " = false", ""

	case field.OpWithinRadius:
		if !c.dialect.Geo {
			return "", fmt.Sprintf("dialect %s has no geo support", c.dialect.Name)
		}
		r, ok := value.Radius(cond.Value)
		if !ok {
			return "", "operand is not a geo radius"
		}
		phLat := c.builder.Arg(r.Lat)
		phLng := c.builder.Arg(r.Lng)
		phDist := c.builder.Arg(r.RadiusKm * 1000)
		return fmt.Sprintf("earth_distance(%s, ll_to_earth(%s, %s)) <= %s", col, phLat, phLng, phDist), ""

	default:
		return "", fmt.Sprintf("operator %q has no relational form", cond.Operator)
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

// scalar accepts values a database driver can bind directly.
func scalar(v any) (any, bool) {
	switch x := v.(type) {
	case string, bool, time.Time:
		return x, true
	case nil:
		return nil, false
	}
	if f, ok := value.Float(v); ok {
		return f, true
	}
	return nil, false
}
