package catalog

import (
	"fmt"

	"github.com/sadopc/schemapatch/internal/adapter"
)

// sqliteBuilder supports inspection only. SQLite cannot drop a single
// foreign key or retype a column in place; both would require a full table
// rebuild, which is outside this tool's scope.
type sqliteBuilder struct{}

func (sqliteBuilder) InspectConstraints(t Target) ([]Statement, error) {
	// SQLite has no schemas; only the table name matters.
	if t.Table == "" || !validIdent(t.Table) {
		return nil, fmt.Errorf("invalid table identifier: %q", t.Table)
	}
	return []Statement{
		{
			Name: "inspect-foreign-keys",
			SQL:  fmt.Sprintf("PRAGMA foreign_key_list(%q)", t.Table),
			Kind: Diagnostic,
		},
		{
			Name: "describe-table",
			SQL:  fmt.Sprintf("PRAGMA table_info(%q)", t.Table),
			Kind: Diagnostic,
		},
	}, nil
}

func (sqliteBuilder) DropForeignKey(t Target) ([]Statement, error) {
	return nil, fmt.Errorf("sqlite: drop foreign key: %w", adapter.ErrUnsupportedDialect)
}

func (sqliteBuilder) WidenColumn(t Target) ([]Statement, error) {
	return nil, fmt.Errorf("sqlite: widen column: %w", adapter.ErrUnsupportedDialect)
}
