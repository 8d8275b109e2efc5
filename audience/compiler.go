// Package audience compiles audience filter expressions into a relational
// WHERE clause and a search filter string.
//
// A Compiler validates before compiling. In strict mode (the default) any
// violation rejects the expression; in lenient mode violations are logged
// and the backends degrade the offending conditions to no-ops.
package audience

import (
	"go.uber.org/zap"

	"github.com/audience/audience/audience/expr"
	"github.com/audience/audience/audience/field"
	"github.com/audience/audience/audience/relational"
	"github.com/audience/audience/audience/search"
	"github.com/audience/audience/audience/simple"
	"github.com/audience/audience/audience/validate"
)

// Result holds both backend outputs for one expression.
type Result struct {
	Expression expr.Group
	Relational relational.Fragment
	Search     search.Filter
	Violations []validate.Violation
}

// Compiler is safe for concurrent use; it holds no mutable state.
type Compiler struct {
	registry *field.Registry
	dialect  relational.Dialect
	logger   *zap.Logger
	lenient  bool
}

type Option func(*Compiler)

// WithRegistry replaces the built-in field catalog.
func WithRegistry(r *field.Registry) Option {
	return func(c *Compiler) { c.registry = r }
}

// WithDialect selects the relational target.
func WithDialect(d relational.Dialect) Option {
	return func(c *Compiler) { c.dialect = d }
}

func WithLogger(l *zap.Logger) Option {
	return func(c *Compiler) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithLenient compiles expressions even when validation fails.
func WithLenient() Option {
	return func(c *Compiler) { c.lenient = true }
}

func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{
		dialect: relational.Postgres,
		logger:  zap.NewNop(),
	}
	for _, o := range opts {
		o(c)
	}
	if c.registry == nil {
		c.registry = field.Default()
	}
	return c
}

func (c *Compiler) Registry() *field.Registry { return c.registry }

func (c *Compiler) Dialect() relational.Dialect { return c.dialect }

// Field returns the catalog entry for key.
func (c *Compiler) Field(key string) (field.Definition, error) {
	d, ok := c.registry.Lookup(key)
	if !ok {
		return field.Definition{}, UnknownFieldError(key)
	}
	return d, nil
}

// Validate checks root against the compiler's registry.
func (c *Compiler) Validate(root expr.Group) []validate.Violation {
	return validate.Validate(c.registry, root)
}

// Compile validates root and lowers it into both backends.
func (c *Compiler) Compile(root expr.Group) (*Result, error) {
	violations := c.Validate(root)
	if len(violations) > 0 {
		if !c.lenient {
			c.logger.Debug("expression rejected",
				zap.Int("violations", len(violations)),
				zap.Stringer("first", violations[0]))
			return nil, ValidationError(violations)
		}
		for _, v := range violations {
			c.logger.Warn("compiling invalid expression",
				zap.String("kind", string(v.Kind)),
				zap.String("field", v.Field),
				zap.Stringer("path", v.Path),
				zap.String("message", v.Message))
		}
	}

	frag := relational.Compile(c.registry, root, c.dialect)
	filter := search.Compile(c.registry, root)

	for _, d := range frag.Degraded {
		c.logger.Warn("relational condition degraded to no-op",
			zap.String("field", d.Field),
			zap.String("operator", string(d.Operator)),
			zap.Stringer("path", d.Path),
			zap.String("reason", d.Reason))
	}
	for _, d := range filter.Degraded {
		c.logger.Debug("search condition dropped",
			zap.String("field", d.Field),
			zap.String("operator", string(d.Operator)),
			zap.Stringer("path", d.Path),
			zap.String("reason", d.Reason))
	}
	c.logger.Debug("compiled expression",
		zap.String("dialect", c.dialect.Name),
		zap.String("where", frag.Clause),
		zap.Int("params", len(frag.Params)),
		zap.String("search", filter.Expr))

	return &Result{
		Expression: root,
		Relational: frag,
		Search:     filter,
		Violations: violations,
	}, nil
}

// CompileJSON decodes a serialized group and compiles it.
func (c *Compiler) CompileJSON(b []byte) (*Result, error) {
	root, err := expr.ParseJSON(b)
	if err != nil {
		return nil, Wrap(ErrDecode, "decode expression", err)
	}
	return c.Compile(root)
}

// CompileSimple adapts a simple-mode filter and compiles the result.
func (c *Compiler) CompileSimple(f simple.Filter) (*Result, error) {
	return c.Compile(simple.ToBoolean(f))
}
