package adapter

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotConnected = errors.New("not connected to database")

	// Classified execution errors. Adapters wrap the raw driver error with
	// one of these sentinels so callers can match with errors.Is while the
	// original database message stays in the error text.
	ErrConstraintNotFound = errors.New("constraint does not exist")
	ErrIncompatibleType   = errors.New("column type change rejected by existing data")
	ErrSyntax             = errors.New("statement syntax error")
	ErrUnsupportedDialect = errors.New("operation not supported by this adapter")
)

// DefaultMaxRows caps how many rows a single diagnostic query collects.
const DefaultMaxRows = 10000

// Adapter creates database connections.
type Adapter interface {
	Connect(ctx context.Context, dsn string) (Connection, error)
	Name() string
	DefaultPort() int
}

// Connection represents an active database connection. Execute routes a
// statement to the appropriate driver call: statements that produce a result
// set return populated Columns/Rows, everything else returns the affected
// row count.
type Connection interface {
	Execute(ctx context.Context, query string, args ...any) (*QueryResult, error)

	Ping(ctx context.Context) error
	Close() error

	DatabaseName() string
	AdapterName() string
}

// QueryResult holds the result of a statement execution.
type QueryResult struct {
	Columns  []ColumnMeta
	Rows     [][]string
	RowCount int64 // -1 if unknown
	Duration time.Duration
	IsSelect bool
	Message  string
}

// ColumnMeta holds metadata about a result column.
type ColumnMeta struct {
	Name     string
	Type     string
	Nullable bool
}

// Registry holds registered adapters by name.
var Registry = map[string]Adapter{}

// Register adds an adapter to the global registry.
func Register(a Adapter) {
	Registry[a.Name()] = a
}
