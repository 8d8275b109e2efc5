package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/audience/audience/audience/field"
	"github.com/audience/audience/audience/relational"
	"github.com/audience/audience/audience/storage"
)

// Adapter connects through pgx's database/sql driver. Audience tables live
// in Schema.
type Adapter struct {
	DSN    string
	Schema string
}

func New(dsn, schema string) *Adapter {
	return &Adapter{DSN: dsn, Schema: schema}
}

func (a *Adapter) Backend() storage.Backend { return storage.BackendPostgres }

func (a *Adapter) Dialect() relational.Dialect { return relational.Postgres }

func (a *Adapter) Close() error { return nil }

var schemaNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func (a *Adapter) ensureSchema(ctx context.Context, db *sql.DB) error {
	if !schemaNameRe.MatchString(a.Schema) {
		return fmt.Errorf("invalid postgres schema name %q", a.Schema)
	}
	_, err := db.ExecContext(ctx, `CREATE SCHEMA IF NOT EXISTS "`+a.Schema+`"`)
	return err
}

// open returns a pinged pool; searchPath is left to the server default when empty.
func (a *Adapter) open(ctx context.Context, searchPath string) (*sql.DB, error) {
	cc, err := pgx.ParseConfig(a.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	if searchPath != "" {
		if cc.RuntimeParams == nil {
			cc.RuntimeParams = map[string]string{}
		}
		cc.RuntimeParams["search_path"] = searchPath
	}
	db := stdlib.OpenDB(*cc)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

// Connect creates the audience schema on a bootstrap connection, then opens
// the pool with the schema first on the search path. public stays on the
// path for the earthdistance functions.
func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	boot, err := a.open(ctx, "")
	if err != nil {
		return nil, err
	}
	err = a.ensureSchema(ctx, boot)
	_ = boot.Close()
	if err != nil {
		return nil, err
	}
	return a.open(ctx, fmt.Sprintf(`"%s",public`, a.Schema))
}

// Prepare installs the extensions behind earth_distance and ll_to_earth.
func (a *Adapter) Prepare(ctx context.Context, db *sql.DB) error {
	for _, ext := range []string{"cube", "earthdistance"} {
		if _, err := db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS "+ext+" SCHEMA public"); err != nil {
			return fmt.Errorf("create extension %s: %w", ext, err)
		}
	}
	return nil
}

func (a *Adapter) ColumnType(t field.ValueType) (string, bool) {
	switch t {
	case field.TypeString, field.TypeStringList, field.TypeEnum, field.TypeEnumList:
		return "TEXT", true
	case field.TypeNumber, field.TypeNumberRange, field.TypeNumberList:
		return "DOUBLE PRECISION", true
	case field.TypeBoolean:
		return "BOOLEAN", true
	case field.TypeDate, field.TypeDateRange:
		return "DATE", true
	case field.TypeGeoPoint, field.TypeGeoRadius:
		return "earth", true
	default:
		return "", false
	}
}
