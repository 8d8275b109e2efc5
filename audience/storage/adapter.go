package storage

import (
	"context"
	"database/sql"

	"github.com/audience/audience/audience/field"
	"github.com/audience/audience/audience/relational"
)

type Backend string

const (
	BackendSQLite   Backend = "sqlite"
	BackendPostgres Backend = "postgres"
)

// Adapter abstracts database-specific operations
type Adapter interface {
	Backend() Backend
	Dialect() relational.Dialect

	Connect(ctx context.Context) (*sql.DB, error)
	Close() error

	// Prepare installs whatever the backend needs before tables are created.
	Prepare(ctx context.Context, db *sql.DB) error
	// ColumnType maps a value type to a column type; false means the backend
	// cannot store it.
	ColumnType(t field.ValueType) (string, bool)
}
