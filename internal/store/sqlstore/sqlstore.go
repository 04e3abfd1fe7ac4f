// Package sqlstore implements store.Store over database/sql for PostgreSQL,
// MySQL and SQLite.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"sort"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"

	"github.com/Lumos-Labs-HQ/dentseed/internal/schema"
	"github.com/Lumos-Labs-HQ/dentseed/internal/store"
	"github.com/Lumos-Labs-HQ/dentseed/internal/types"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// validIdentifier guards table and column names that end up in SQL text.
var validIdentifier = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

type Store struct {
	db      *sql.DB
	dialect string
	builder sq.StatementBuilderType
}

// DriverName resolves the database/sql driver for a provider. For PostgreSQL
// the override may be "pgx" (default) or "pq".
func DriverName(provider, override string) (string, error) {
	dialect, err := schema.Dialect(provider)
	if err != nil {
		return "", err
	}
	switch dialect {
	case "postgres":
		switch override {
		case "", "pgx":
			return "pgx", nil
		case "pq", "postgres":
			return "postgres", nil
		default:
			return "", errors.Errorf("unsupported postgres driver: %s", override)
		}
	case "mysql":
		return "mysql", nil
	default:
		return "sqlite3", nil
	}
}

// Open connects to url and pings it.
func Open(ctx context.Context, provider, driver, url string) (*Store, error) {
	driverName, err := DriverName(provider, driver)
	if err != nil {
		return nil, err
	}

	if driverName == "mysql" {
		if url, err = mysqlDSN(url); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open(driverName, url)
	if err != nil {
		return nil, errors.Wrap(err, "failed to open database connection")
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "failed to ping database")
	}

	return New(db, provider)
}

// New wraps an open handle.
func New(db *sql.DB, provider string) (*Store, error) {
	dialect, err := schema.Dialect(provider)
	if err != nil {
		return nil, err
	}
	builder := sq.StatementBuilder
	if dialect == "postgres" {
		builder = builder.PlaceholderFormat(sq.Dollar)
	}
	return &Store{db: db, dialect: dialect, builder: builder}, nil
}

// mysqlDSN makes sure DATE and DATETIME columns scan into time.Time.
func mysqlDSN(url string) (string, error) {
	cfg, err := mysql.ParseDSN(url)
	if err != nil {
		return "", errors.Wrap(err, "invalid mysql dsn")
	}
	cfg.ParseTime = true
	return cfg.FormatDSN(), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Dialect() string {
	return s.dialect
}

func (s *Store) Insert(ctx context.Context, rec types.Record) error {
	table := rec.TableName()
	if !validIdentifier.MatchString(table) {
		return errors.Errorf("invalid table name: %s", table)
	}

	values := rec.Values()
	columns := make([]string, 0, len(values))
	for col := range values {
		if !validIdentifier.MatchString(col) {
			return errors.Errorf("invalid column name in table %s: %s", table, col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	args := make([]interface{}, len(columns))
	for i, col := range columns {
		args[i] = values[col]
	}

	q := s.builder.Insert(table).Columns(columns...).Values(args...)
	pk := rec.PrimaryKey()
	returning := pk != "" && s.dialect == "postgres"
	if returning {
		if !validIdentifier.MatchString(pk) {
			return errors.Errorf("invalid primary key column: %s", pk)
		}
		q = q.Suffix("RETURNING " + pk)
	}

	query, queryArgs, err := q.ToSql()
	if err != nil {
		return errors.Wrapf(err, "failed to build insert for %s", table)
	}

	if returning {
		var id int64
		if err := s.db.QueryRowContext(ctx, query, queryArgs...).Scan(&id); err != nil {
			return errors.Wrapf(err, "failed to insert into %s", table)
		}
		rec.SetID(id)
		return nil
	}

	res, err := s.db.ExecContext(ctx, query, queryArgs...)
	if err != nil {
		return errors.Wrapf(err, "failed to insert into %s", table)
	}
	if pk == "" {
		return nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return errors.Wrapf(err, "failed to read id of new %s row", table)
	}
	rec.SetID(id)
	return nil
}

func (s *Store) Find(ctx context.Context, table string, filter store.Filter) ([]store.Row, error) {
	if !validIdentifier.MatchString(table) {
		return nil, errors.Errorf("invalid table name: %s", table)
	}

	q := s.builder.Select("*").From(table)
	if len(filter) > 0 {
		eq := sq.Eq{}
		for col, v := range filter {
			if !validIdentifier.MatchString(col) {
				return nil, errors.Errorf("invalid column name in table %s: %s", table, col)
			}
			eq[col] = v
		}
		q = q.Where(eq)
	}

	query, args, err := q.ToSql()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to build select for %s", table)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to query %s", table)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read columns of %s", table)
	}

	var out []store.Row
	for rows.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrapf(err, "failed to scan %s row", table)
		}

		row := make(store.Row, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "failed to read %s rows", table)
	}
	return out, nil
}

// Truncate empties tables in the order given and resets their id sequences.
// Pass children before parents.
func (s *Store) Truncate(ctx context.Context, tables []string) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return errors.Wrap(err, "failed to acquire connection")
	}
	defer conn.Close()

	if s.dialect == "mysql" {
		if _, err := conn.ExecContext(ctx, "SET FOREIGN_KEY_CHECKS = 0"); err != nil {
			return errors.Wrap(err, "failed to disable foreign key checks")
		}
		defer conn.ExecContext(context.Background(), "SET FOREIGN_KEY_CHECKS = 1")
	}

	var failed []string
	for _, table := range tables {
		if !validIdentifier.MatchString(table) {
			failed = append(failed, fmt.Sprintf("invalid table name: %s", table))
			continue
		}

		switch s.dialect {
		case "postgres":
			_, err = conn.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", table))
		case "mysql":
			_, err = conn.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s", table))
		default:
			_, err = conn.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s", table))
			if err == nil {
				// sqlite_sequence only exists once an AUTOINCREMENT table has rows.
				conn.ExecContext(ctx, "DELETE FROM sqlite_sequence WHERE name = ?", table)
			}
		}

		if err != nil {
			failed = append(failed, fmt.Sprintf("failed to truncate %s: %v", table, err))
		}
	}

	if len(failed) > 0 {
		return errors.Errorf("truncate errors: %s", strings.Join(failed, "; "))
	}
	return nil
}

// ApplySchema creates any missing tables for this dialect.
func (s *Store) ApplySchema(ctx context.Context) error {
	stmts, err := schema.Statements(s.dialect)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return errors.Wrapf(err, "failed to apply schema statement %q", firstLine(stmt))
		}
	}
	return nil
}

func firstLine(stmt string) string {
	if i := strings.IndexByte(stmt, '\n'); i >= 0 {
		return strings.TrimSpace(stmt[:i])
	}
	return stmt
}
