package postgres

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sadopc/schemapatch/internal/adapter"
)

func init() {
	adapter.Register(&postgresAdapter{})
}

// postgresAdapter implements adapter.Adapter for PostgreSQL.
type postgresAdapter struct{}

func (a *postgresAdapter) Name() string     { return "postgres" }
func (a *postgresAdapter) DefaultPort() int { return 5432 }

func (a *postgresAdapter) Connect(ctx context.Context, dsn string) (adapter.Connection, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}

	return &pgConn{
		pool:   pool,
		dbName: extractDBName(dsn),
	}, nil
}

// extractDBName parses the database name from the DSN.
func extractDBName(dsn string) string {
	if dsn == "" {
		return ""
	}
	// Try URL format first (postgres://... or postgresql://...)
	u, err := url.Parse(dsn)
	if err == nil && u.Scheme != "" {
		return strings.TrimPrefix(u.Path, "/")
	}
	// Fallback: keyword=value format (e.g. "host=localhost dbname=myapp")
	for _, part := range strings.Fields(dsn) {
		if strings.HasPrefix(part, "dbname=") {
			return strings.TrimPrefix(part, "dbname=")
		}
	}
	return ""
}

// pgConn implements adapter.Connection for PostgreSQL.
type pgConn struct {
	pool   *pgxpool.Pool
	dbName string
}

func (c *pgConn) DatabaseName() string { return c.dbName }
func (c *pgConn) AdapterName() string  { return "postgres" }

func (c *pgConn) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

func (c *pgConn) Close() error {
	c.pool.Close()
	return nil
}

// Execute runs a single statement, routing result-set statements through
// Query and everything else through Exec.
func (c *pgConn) Execute(ctx context.Context, query string, args ...any) (*adapter.QueryResult, error) {
	start := time.Now()

	if returnsRows(query) {
		return c.executeQuery(ctx, query, args, start)
	}
	return c.executeExec(ctx, query, args, start)
}

func (c *pgConn) executeQuery(ctx context.Context, query string, args []any, start time.Time) (*adapter.QueryResult, error) {
	rows, err := c.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()

	fields := rows.FieldDescriptions()
	columns := make([]adapter.ColumnMeta, len(fields))
	for i, fd := range fields {
		columns[i].Name = fd.Name
	}

	var resultRows [][]string
	for rows.Next() {
		if len(resultRows) >= adapter.DefaultMaxRows {
			break
		}
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}
		row := make([]string, len(values))
		for i, v := range values {
			row[i] = formatValue(v)
		}
		resultRows = append(resultRows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	return &adapter.QueryResult{
		Columns:  columns,
		Rows:     resultRows,
		RowCount: int64(len(resultRows)),
		Duration: time.Since(start),
		IsSelect: true,
	}, nil
}

func (c *pgConn) executeExec(ctx context.Context, query string, args []any, start time.Time) (*adapter.QueryResult, error) {
	tag, err := c.pool.Exec(ctx, query, args...)
	if err != nil {
		return nil, classify(err)
	}

	return &adapter.QueryResult{
		RowCount: tag.RowsAffected(),
		Duration: time.Since(start),
		IsSelect: false,
		Message:  tag.String(),
	}, nil
}

// formatValue renders a pgx-decoded value as a display string.
func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "NULL"
	case []byte:
		return string(val)
	case time.Time:
		return val.Format(time.RFC3339)
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}

// SQLSTATE codes this tool classifies.
const (
	codeSyntaxError     = "42601" // syntax_error
	codeUndefinedObject = "42704" // undefined_object (DROP CONSTRAINT on a missing name)
	codeDatatypeErr     = "42804" // datatype_mismatch
	codeCannotCoerce    = "42846" // cannot_coerce
	codeStringTruncated = "22001" // string_data_right_truncation
)

// classify wraps a driver error with the matching adapter sentinel so that
// callers can use errors.Is. The raw server message stays in the chain.
func classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case codeSyntaxError:
		return fmt.Errorf("%w: %s", adapter.ErrSyntax, pgErr.Message)
	case codeUndefinedObject:
		return fmt.Errorf("%w: %s", adapter.ErrConstraintNotFound, pgErr.Message)
	case codeDatatypeErr, codeCannotCoerce, codeStringTruncated:
		return fmt.Errorf("%w: %s", adapter.ErrIncompatibleType, pgErr.Message)
	}
	return err
}

// returnsRows reports whether the trimmed, uppercased statement starts with a
// keyword that produces a result set.
func returnsRows(query string) bool {
	upper := strings.ToUpper(strings.TrimSpace(query))
	for _, prefix := range []string{"SELECT", "SHOW", "EXPLAIN", "WITH", "TABLE"} {
		if strings.HasPrefix(upper, prefix) {
			return true
		}
	}
	return false
}
