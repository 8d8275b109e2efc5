package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/audience/audience/audience"
	"github.com/audience/audience/audience/relational"
	"github.com/audience/audience/audience/search"
	"github.com/audience/audience/audience/textquery"
	"github.com/audience/audience/audience/validate"
)

var (
	validateInput inputFormat
	compileInput  inputFormat
)

var validateCmd = &cobra.Command{
	Use:   "validate [file|-]",
	Short: "Check an expression against the field catalog",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runValidate,
}

var compileCmd = &cobra.Command{
	Use:   "compile [file|-]",
	Short: "Compile an expression into SQL and a search filter",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCompile,
}

var adaptCmd = &cobra.Command{
	Use:   "adapt [file|-]",
	Short: "Convert a simple-mode filter into a boolean expression",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runAdapt,
}

func init() {
	validateInput.bind(validateCmd)
	compileInput.bind(compileCmd)
}

type validateOutput struct {
	Valid      bool                 `json:"valid"`
	Violations []validate.Violation `json:"violations"`
}

func runValidate(cmd *cobra.Command, args []string) error {
	root, err := loadExpression(cmd, args, validateInput)
	if err != nil {
		return err
	}
	c, err := newCompiler()
	if err != nil {
		return err
	}
	violations := c.Validate(root)
	if violations == nil {
		violations = []validate.Violation{}
	}
	if err := writeJSON(cmd, validateOutput{Valid: len(violations) == 0, Violations: violations}); err != nil {
		return err
	}
	if len(violations) > 0 {
		return audience.ValidationError(violations)
	}
	return nil
}

type relationalOutput struct {
	Dialect  string                   `json:"dialect"`
	Where    string                   `json:"where"`
	Params   []any                    `json:"params"`
	Inline   string                   `json:"inline"`
	Degraded []relational.Degradation `json:"degraded,omitempty"`
}

type searchOutput struct {
	Filter   string               `json:"filter"`
	Degraded []search.Degradation `json:"degraded,omitempty"`
}

type compileOutput struct {
	Text       string               `json:"text"`
	Relational relationalOutput     `json:"relational"`
	Search     searchOutput         `json:"search"`
	Violations []validate.Violation `json:"violations,omitempty"`
}

func runCompile(cmd *cobra.Command, args []string) error {
	root, err := loadExpression(cmd, args, compileInput)
	if err != nil {
		return err
	}
	c, err := newCompiler()
	if err != nil {
		return err
	}
	res, err := c.Compile(root)
	if err != nil {
		if vs := audience.Violations(err); len(vs) > 0 {
			_ = writeJSON(cmd, validateOutput{Valid: false, Violations: vs})
		}
		return err
	}
	return writeJSON(cmd, newCompileOutput(c, res))
}

func newCompileOutput(c *audience.Compiler, res *audience.Result) compileOutput {
	return compileOutput{
		Text: textquery.Format(res.Expression),
		Relational: relationalOutput{
			Dialect:  c.Dialect().Name,
			Where:    res.Relational.Where(),
			Params:   res.Relational.Params,
			Inline:   res.Relational.Inline(),
			Degraded: res.Relational.Degraded,
		},
		Search: searchOutput{
			Filter:   res.Search.Expr,
			Degraded: res.Search.Degraded,
		},
		Violations: res.Violations,
	}
}

func runAdapt(cmd *cobra.Command, args []string) error {
	root, err := loadExpression(cmd, args, inputFormat{simple: true})
	if err != nil {
		return err
	}
	logger.Debug("adapted simple filter", zap.Int("conditions", len(root.Children)))
	return writeJSON(cmd, root)
}
