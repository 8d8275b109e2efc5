package storage

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/audience/audience/audience"
	"github.com/audience/audience/audience/field"
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Column is one audience table column derived from the registry.
type Column struct {
	Name string
	Type string
}

// Columns returns one column per distinct relational mapper, in registry
// order. The first field mapped to a column decides its type; fields the
// backend cannot store are skipped.
func Columns(a Adapter, reg *field.Registry) []Column {
	seen := make(map[string]bool)
	var cols []Column
	for _, d := range reg.All() {
		if seen[d.RelationalMapper] {
			continue
		}
		typ, ok := a.ColumnType(d.ValueType)
		if !ok {
			continue
		}
		seen[d.RelationalMapper] = true
		cols = append(cols, Column{Name: d.RelationalMapper, Type: typ})
	}
	return cols
}

// CreateTable creates the audience table for reg if it does not exist.
func CreateTable(ctx context.Context, db *sql.DB, a Adapter, table string, reg *field.Registry) error {
	if !identRe.MatchString(table) {
		return audience.New(audience.ErrConfig, fmt.Sprintf("invalid table name %q", table))
	}
	if err := a.Prepare(ctx, db); err != nil {
		return audience.Wrap(audience.ErrSQL, "prepare backend", err)
	}

	idType := "INTEGER PRIMARY KEY"
	if a.Backend() == BackendPostgres {
		idType = "BIGSERIAL PRIMARY KEY"
	}
	defs := []string{"id " + idType}
	for _, c := range Columns(a, reg) {
		defs = append(defs, c.Name+" "+c.Type)
	}
	ddl := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n)", table, strings.Join(defs, ",\n  "))
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return audience.Wrap(audience.ErrSQL, "create table "+table, err)
	}
	return nil
}

// Insert writes one row keyed by column name and returns its id. Column
// names are checked against the identifier pattern.
func Insert(ctx context.Context, db *sql.DB, a Adapter, table string, row map[string]any) (int64, error) {
	if !identRe.MatchString(table) {
		return 0, audience.New(audience.ErrConfig, fmt.Sprintf("invalid table name %q", table))
	}
	names := make([]string, 0, len(row))
	for k := range row {
		if !identRe.MatchString(k) {
			return 0, audience.New(audience.ErrConfig, fmt.Sprintf("invalid column name %q", k))
		}
		names = append(names, k)
	}
	sort.Strings(names)

	b := newBuilder(a)
	phs := make([]string, len(names))
	for i, n := range names {
		phs[i] = b.Arg(row[n])
	}

	var stmt string
	if len(names) == 0 {
		stmt = fmt.Sprintf("INSERT INTO %s DEFAULT VALUES", table)
	} else {
		stmt = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)", table, strings.Join(names, ", "), strings.Join(phs, ", "))
	}

	var id int64
	if err := db.QueryRowContext(ctx, stmt+" RETURNING id", b.Args()...).Scan(&id); err != nil {
		return 0, audience.Wrap(audience.ErrSQL, "insert into "+table, err)
	}
	return id, nil
}
