package sqlbuilder

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

type PlaceholderStyle int

const (
	PlaceholderQuestion PlaceholderStyle = iota
	PlaceholderDollar
)

func (s PlaceholderStyle) String() string {
	switch s {
	case PlaceholderDollar:
		return "dollar"
	default:
		return "question"
	}
}

// Builder allocates positional placeholders and records their arguments in
// the same order. Numbering is global for the lifetime of the builder.
type Builder struct {
	Style PlaceholderStyle
	args  []any
}

func New(style PlaceholderStyle) *Builder {
	return &Builder{Style: style, args: make([]any, 0)}
}

func (b *Builder) Arg(v any) string {
	b.args = append(b.args, v)
	switch b.Style {
	case PlaceholderDollar:
		return "$" + strconv.Itoa(len(b.args))
	default:
		return "?"
	}
}

func (b *Builder) Args() []any { return b.args }
func (b *Builder) Len() int    { return len(b.args) }

// CountPlaceholders counts placeholders of the given style outside of
// single-quoted literals. For dollar style it returns the highest index seen.
func CountPlaceholders(sql string, style PlaceholderStyle) int {
	n := 0
	inQuote := false
	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		if ch == '\'' {
			inQuote = !inQuote
			continue
		}
		if inQuote {
			continue
		}
		switch style {
		case PlaceholderDollar:
			if ch != '$' {
				continue
			}
			j := i + 1
			for j < len(sql) && sql[j] >= '0' && sql[j] <= '9' {
				j++
			}
			if j == i+1 {
				continue
			}
			idx, _ := strconv.Atoi(sql[i+1 : j])
			if idx > n {
				n = idx
			}
			i = j - 1
		default:
			if ch == '?' {
				n++
			}
		}
	}
	return n
}

// Inline substitutes args into sql as SQL literals. The result is for
// display only; never execute it.
func Inline(sql string, args []any, style PlaceholderStyle) string {
	var sb strings.Builder
	next := 0
	inQuote := false
	for i := 0; i < len(sql); i++ {
		ch := sql[i]
		if ch == '\'' {
			inQuote = !inQuote
			sb.WriteByte(ch)
			continue
		}
		if inQuote {
			sb.WriteByte(ch)
			continue
		}
		switch {
		case style == PlaceholderQuestion && ch == '?':
			if next < len(args) {
				sb.WriteString(Literal(args[next]))
			} else {
				sb.WriteByte(ch)
			}
			next++
		case style == PlaceholderDollar && ch == '$':
			j := i + 1
			for j < len(sql) && sql[j] >= '0' && sql[j] <= '9' {
				j++
			}
			idx, err := strconv.Atoi(sql[i+1 : j])
			if err != nil || idx < 1 || idx > len(args) {
				sb.WriteByte(ch)
				continue
			}
			sb.WriteString(Literal(args[idx-1]))
			i = j - 1
		default:
			sb.WriteByte(ch)
		}
	}
	return sb.String()
}

// Literal renders v as a SQL literal.
func Literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	case bool:
		if x {
			return "TRUE"
		}
		return "FALSE"
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case time.Time:
		return "'" + x.Format(time.RFC3339) + "'"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprint(x), "'", "''") + "'"
	}
}
