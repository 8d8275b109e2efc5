package textquery

import (
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/audience/audience/audience/expr"
	"github.com/audience/audience/audience/value"
)

// Format renders a tree in the syntax accepted by Parse. Node IDs are not
// represented, and a single-child group prints as its child.
func Format(root expr.Group) string {
	var sb strings.Builder
	writeGroup(&sb, root, true)
	return sb.String()
}

func writeGroup(sb *strings.Builder, g expr.Group, top bool) {
	if g.Negated {
		sb.WriteString("NOT ")
	}
	if len(g.Children) == 0 {
		if top && !g.Negated {
			return
		}
		sb.WriteString("()")
		return
	}
	wrap := !top || g.Negated
	if wrap {
		sb.WriteByte('(')
	}
	sep := " AND "
	if g.Connective == expr.Or {
		sep = " OR "
	}
	for i, ch := range g.Children {
		if i > 0 {
			sb.WriteString(sep)
		}
		switch n := ch.(type) {
		case expr.Group:
			writeGroup(sb, n, false)
		case expr.Condition:
			writeCondition(sb, n)
		}
	}
	if wrap {
		sb.WriteByte(')')
	}
}

func writeCondition(sb *strings.Builder, c expr.Condition) {
	if c.Negated {
		sb.WriteString("NOT ")
	}
	sb.WriteString(c.Field)
	sb.WriteByte(' ')
	sb.WriteString(string(c.Operator))
	if c.Operator.Nullary() {
		return
	}
	sb.WriteByte(' ')
	writeOperand(sb, c.Value)
}

func writeOperand(sb *strings.Builder, v any) {
	switch x := v.(type) {
	case value.GeoRadius:
		writeOperand(sb, map[string]any{"lat": x.Lat, "lng": x.Lng, "radiusKm": x.RadiusKm})
		return
	case value.GeoPoint:
		writeOperand(sb, map[string]any{"lat": x.Lat, "lng": x.Lng})
		return
	case map[string]any:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(k)
			sb.WriteString(": ")
			writeOperand(sb, x[k])
		}
		sb.WriteByte('}')
		return
	}
	if items, ok := value.List(v); ok {
		sb.WriteByte('[')
		for i, it := range items {
			if i > 0 {
				sb.WriteString(", ")
			}
			writeOperand(sb, it)
		}
		sb.WriteByte(']')
		return
	}
	writeLiteral(sb, v)
}

func writeLiteral(sb *strings.Builder, v any) {
	switch x := v.(type) {
	case string:
		if isBareWord(x) {
			sb.WriteString(x)
			return
		}
		sb.WriteByte('"')
		for _, r := range x {
			switch r {
			case '"', '\\':
				sb.WriteByte('\\')
				sb.WriteRune(r)
			case '\n':
				sb.WriteString(`\n`)
			case '\t':
				sb.WriteString(`\t`)
			case '\r':
				sb.WriteString(`\r`)
			default:
				sb.WriteRune(r)
			}
		}
		sb.WriteByte('"')
	case bool:
		sb.WriteString(strconv.FormatBool(x))
	case nil:
		sb.WriteString(`""`)
	default:
		if f, ok := value.Float(v); ok {
			sb.WriteString(strconv.FormatFloat(f, 'f', -1, 64))
			return
		}
		writeLiteral(sb, "")
	}
}

// isBareWord reports whether s lexes back as the same identifier.
func isBareWord(s string) bool {
	if s == "" || s == "true" || s == "false" {
		return false
	}
	switch strings.ToUpper(s) {
	case "AND", "OR", "NOT":
		return false
	}
	runes := []rune(s)
	if !isIdentStart(runes[0]) {
		return false
	}
	for _, r := range runes[1:] {
		if !isIdentChar(r) {
			return false
		}
	}
	return !unicode.IsDigit(runes[0])
}
