package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/audience/audience/audience/expr"
	"github.com/audience/audience/audience/simple"
	"github.com/audience/audience/audience/textquery"
)

// inputFormat selects how command input is decoded.
type inputFormat struct {
	simple bool
	text   bool
}

func (f *inputFormat) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.simple, "simple", false, "input is a simple-mode filter object")
	cmd.Flags().BoolVar(&f.text, "text", false, "input uses the infix text syntax")
	cmd.MarkFlagsMutuallyExclusive("simple", "text")
}

func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	return os.ReadFile(args[0])
}

// loadExpression reads and decodes the command input into a tree.
func loadExpression(cmd *cobra.Command, args []string, f inputFormat) (expr.Group, error) {
	b, err := readInput(cmd, args)
	if err != nil {
		return expr.Group{}, fmt.Errorf("read input: %w", err)
	}
	switch {
	case f.text:
		return textquery.Parse(string(b))
	case f.simple:
		sf, err := simple.Parse(b)
		if err != nil {
			return expr.Group{}, err
		}
		return simple.ToBoolean(sf), nil
	default:
		return expr.ParseJSON(b)
	}
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
