package sqlite

import (
	"context"
	"database/sql"
	"strings"

	"github.com/audience/audience/audience/field"
	"github.com/audience/audience/audience/relational"
	"github.com/audience/audience/audience/storage"
)

type Adapter struct {
	Path       string
	DriverName string
}

// New uses the pure-Go "sqlite" driver; callers import modernc.org/sqlite.
func New(path string) *Adapter {
	return &Adapter{Path: path, DriverName: "sqlite"}
}

// NewWithDriver selects another registered driver, e.g. "sqlite3" for
// github.com/mattn/go-sqlite3.
func NewWithDriver(path, driver string) *Adapter {
	return &Adapter{Path: path, DriverName: driver}
}

func (a *Adapter) Backend() storage.Backend {
	return storage.BackendSQLite
}

func (a *Adapter) Dialect() relational.Dialect {
	return relational.SQLite
}

func (a *Adapter) dsn() string {
	opts := "_pragma=busy_timeout(5000)"
	if a.DriverName == "sqlite3" {
		opts = "_busy_timeout=5000"
	}
	if strings.Contains(a.Path, "?") {
		return a.Path + "&" + opts
	}
	return a.Path + "?" + opts
}

func (a *Adapter) Connect(ctx context.Context) (*sql.DB, error) {
	db, err := sql.Open(a.DriverName, a.dsn())
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func (a *Adapter) Close() error {
	return nil
}

func (a *Adapter) Prepare(ctx context.Context, db *sql.DB) error {
	_, _ = db.ExecContext(ctx, "PRAGMA journal_mode=WAL;")
	_, _ = db.ExecContext(ctx, "PRAGMA synchronous=NORMAL;")
	return nil
}

// ColumnType uses SQLite affinities. Dates are ISO-8601 TEXT, which orders
// chronologically. Geo fields have no SQLite representation.
func (a *Adapter) ColumnType(t field.ValueType) (string, bool) {
	switch t {
	case field.TypeString, field.TypeStringList, field.TypeEnum, field.TypeEnumList,
		field.TypeDate, field.TypeDateRange:
		return "TEXT", true
	case field.TypeNumber, field.TypeNumberRange, field.TypeNumberList:
		return "REAL", true
	case field.TypeBoolean:
		return "BOOLEAN", true
	default:
		return "", false
	}
}
