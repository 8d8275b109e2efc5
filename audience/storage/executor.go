package storage

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/audience/audience/audience"
	"github.com/audience/audience/audience/relational"
	"github.com/audience/audience/audience/storage/sqlbuilder"
)

// Executor runs compiled fragments against an audience table.
type Executor struct {
	DB      *sql.DB
	Adapter Adapter
	Table   string
	Logger  *zap.Logger
}

func NewExecutor(db *sql.DB, a Adapter, table string, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Executor{DB: db, Adapter: a, Table: table, Logger: logger}
}

func newBuilder(a Adapter) *sqlbuilder.Builder {
	return sqlbuilder.New(a.Dialect().Placeholders)
}

// check refuses fragments compiled for another placeholder style or whose
// placeholder count does not match the parameters.
func (e *Executor) check(frag relational.Fragment) error {
	if !identRe.MatchString(e.Table) {
		return audience.New(audience.ErrConfig, fmt.Sprintf("invalid table name %q", e.Table))
	}
	style := e.Adapter.Dialect().Placeholders
	if frag.Style != style {
		return audience.New(audience.ErrSQL, fmt.Sprintf("fragment uses %s placeholders, backend expects %s", frag.Style, style))
	}
	if n := sqlbuilder.CountPlaceholders(frag.Clause, style); n != len(frag.Params) {
		return audience.New(audience.ErrSQL, fmt.Sprintf("fragment has %d placeholders for %d params", n, len(frag.Params)))
	}
	return nil
}

// Select returns matching row ids in ascending order. limit <= 0 means no limit.
func (e *Executor) Select(ctx context.Context, frag relational.Fragment, limit int) ([]int64, error) {
	if err := e.check(frag); err != nil {
		return nil, err
	}
	q := fmt.Sprintf("SELECT id FROM %s %s ORDER BY id", e.Table, frag.Where())
	if limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", limit)
	}
	e.Logger.Debug("select audience", zap.String("sql", q), zap.Int("params", len(frag.Params)))

	rows, err := e.DB.QueryContext(ctx, q, frag.Params...)
	if err != nil {
		return nil, audience.Wrap(audience.ErrSQL, "select audience", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, audience.Wrap(audience.ErrSQL, "scan id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, audience.Wrap(audience.ErrSQL, "iterate rows", err)
	}
	return ids, nil
}

// Count returns the number of matching rows.
func (e *Executor) Count(ctx context.Context, frag relational.Fragment) (int64, error) {
	if err := e.check(frag); err != nil {
		return 0, err
	}
	q := fmt.Sprintf("SELECT COUNT(*) FROM %s %s", e.Table, frag.Where())
	e.Logger.Debug("count audience", zap.String("sql", q), zap.Int("params", len(frag.Params)))

	var n int64
	if err := e.DB.QueryRowContext(ctx, q, frag.Params...).Scan(&n); err != nil {
		return 0, audience.Wrap(audience.ErrSQL, "count audience", err)
	}
	return n, nil
}
