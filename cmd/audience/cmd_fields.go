package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/audience/audience/audience/field"
)

var (
	fieldsCategory string
	fieldsJSON     bool
)

var fieldsCmd = &cobra.Command{
	Use:   "fields [key]",
	Short: "List the field catalog, or show one field",
	Args:  cobra.MaximumNArgs(1),
	RunE:  listFields,
}

func init() {
	fieldsCmd.Flags().StringVar(&fieldsCategory, "category", "", "only list fields of this category")
	fieldsCmd.Flags().BoolVar(&fieldsJSON, "json", false, "print the catalog as JSON")
}

func listFields(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		c, err := newCompiler()
		if err != nil {
			return err
		}
		d, err := c.Field(args[0])
		if err != nil {
			return err
		}
		return writeJSON(cmd, d)
	}

	reg, err := cfg.Registry()
	if err != nil {
		return err
	}
	defs := reg.All()
	if fieldsCategory != "" {
		c := field.Category(fieldsCategory)
		if !c.Valid() {
			return fmt.Errorf("unknown category %q", fieldsCategory)
		}
		defs = reg.FieldsByCategory(c)
	}
	if fieldsJSON {
		return writeJSON(cmd, defs)
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "KEY\tTYPE\tOPERATORS\tCOLUMN\tSEARCH")
	for _, d := range defs {
		ops := make([]string, len(d.AllowedOperators))
		for i, op := range d.AllowedOperators {
			ops[i] = string(op)
		}
		search := d.SearchMapper
		if search == "" {
			search = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", d.Key, d.ValueType, strings.Join(ops, ","), d.RelationalMapper, search)
	}
	return tw.Flush()
}
