package main

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	// Register database drivers
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"

	"github.com/audience/audience/audience"
	"github.com/audience/audience/audience/storage"
	"github.com/audience/audience/audience/storage/postgres"
	"github.com/audience/audience/audience/storage/sqlite"
	"github.com/audience/audience/internal/config"
)

var (
	queryInput inputFormat
	queryLimit int
	queryInit  bool
	queryLoad  string
)

var queryCmd = &cobra.Command{
	Use:   "query [file|-]",
	Short: "Run an expression against the configured database",
	Long: `query compiles the expression for the configured backend and returns the
matching row ids. --init creates the audience table from the field catalog and
--load inserts rows from a JSON-lines file (one object of column values per line)
before querying.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryInput.bind(queryCmd)
	queryCmd.Flags().IntVar(&queryLimit, "limit", 100, "maximum ids to return (0 for all)")
	queryCmd.Flags().BoolVar(&queryInit, "init", false, "create the audience table if missing")
	queryCmd.Flags().StringVar(&queryLoad, "load", "", "JSON-lines file of rows to insert first")
}

type queryOutput struct {
	Count int64   `json:"count"`
	IDs   []int64 `json:"ids"`
}

// newAdapter picks the storage backend from configuration.
func newAdapter(db config.DatabaseConfig) (storage.Adapter, error) {
	switch storage.Backend(db.Backend) {
	case storage.BackendSQLite:
		return sqlite.NewWithDriver(db.SQLitePath, db.SQLiteDriver), nil
	case storage.BackendPostgres:
		if db.PostgresDSN == "" {
			return nil, audience.New(audience.ErrConfig, "database.postgres_dsn is required for the postgres backend")
		}
		return postgres.New(db.PostgresDSN, db.PostgresSchema), nil
	default:
		return nil, audience.New(audience.ErrConfig, fmt.Sprintf("unknown database backend %q", db.Backend))
	}
}

func runQuery(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	root, err := loadExpression(cmd, args, queryInput)
	if err != nil {
		return err
	}
	a, err := newAdapter(cfg.Database)
	if err != nil {
		return err
	}
	reg, err := cfg.Registry()
	if err != nil {
		return audience.Wrap(audience.ErrRegistry, "load catalog", err)
	}

	opts := []audience.Option{
		audience.WithRegistry(reg),
		audience.WithDialect(a.Dialect()),
		audience.WithLogger(logger),
	}
	if !cfg.Strict {
		opts = append(opts, audience.WithLenient())
	}
	res, err := audience.NewCompiler(opts...).Compile(root)
	if err != nil {
		return err
	}

	db, err := a.Connect(ctx)
	if err != nil {
		return audience.Wrap(audience.ErrSQL, "connect", err)
	}
	defer func() {
		_ = db.Close()
		_ = a.Close()
	}()

	table := cfg.Database.Table
	if queryInit {
		if err := storage.CreateTable(ctx, db, a, table, reg); err != nil {
			return err
		}
		logger.Info("audience table ready", zap.String("table", table), zap.String("backend", string(a.Backend())))
	}
	if queryLoad != "" {
		n, err := loadRows(ctx, a, db, table)
		if err != nil {
			return err
		}
		logger.Info("loaded rows", zap.Int("rows", n), zap.String("table", table))
	}

	exec := storage.NewExecutor(db, a, table, logger)
	count, err := exec.Count(ctx, res.Relational)
	if err != nil {
		return err
	}
	ids, err := exec.Select(ctx, res.Relational, queryLimit)
	if err != nil {
		return err
	}
	if ids == nil {
		ids = []int64{}
	}
	return writeJSON(cmd, queryOutput{Count: count, IDs: ids})
}

func loadRows(ctx context.Context, a storage.Adapter, db *sql.DB, table string) (int, error) {
	f, err := os.Open(queryLoad)
	if err != nil {
		return 0, fmt.Errorf("open rows: %w", err)
	}
	defer f.Close()

	n := 0
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for line := 1; sc.Scan(); line++ {
		b := bytes.TrimSpace(sc.Bytes())
		if len(b) == 0 {
			continue
		}
		var row map[string]any
		if err := json.Unmarshal(b, &row); err != nil {
			return n, audience.Wrap(audience.ErrDecode, fmt.Sprintf("%s:%d", queryLoad, line), err)
		}
		if _, err := storage.Insert(ctx, db, a, table, row); err != nil {
			return n, err
		}
		n++
	}
	if err := sc.Err(); err != nil {
		return n, fmt.Errorf("read rows: %w", err)
	}
	return n, nil
}
