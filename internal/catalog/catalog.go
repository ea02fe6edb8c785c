// Package catalog holds the fixed, ordered sets of SQL statements the tool
// runs. Builders are pure data: constructing a statement group never touches
// the database.
package catalog

import (
	"errors"
	"fmt"
	"regexp"
)

// Kind tags a statement as read-only or schema-mutating.
type Kind int

const (
	// Diagnostic statements only read catalog metadata; their failures
	// never abort a run.
	Diagnostic Kind = iota
	// Mutation statements permanently alter the external schema.
	Mutation
)

func (k Kind) String() string {
	if k == Mutation {
		return "mutation"
	}
	return "diagnostic"
}

// Statement is a single named SQL statement in catalog order.
type Statement struct {
	Name string
	SQL  string
	Args []any
	Kind Kind

	// ContinueOnError lets a mutation failure fall through to the next
	// statement even under the stop-on-first-error policy.
	ContinueOnError bool
}

// Target names the schema objects a statement group operates on. Schema and
// Table are always required; Constraint and Column depend on the group.
type Target struct {
	Schema     string
	Table      string
	Constraint string
	Column     string
	ColumnType string // defaults to TEXT
}

// Builder produces the tool's three statement groups for one SQL dialect.
type Builder interface {
	// InspectConstraints returns the read-only constraint metadata queries.
	InspectConstraints(t Target) ([]Statement, error)
	// DropForeignKey returns the constraint drop followed by a verifying
	// re-inspection.
	DropForeignKey(t Target) ([]Statement, error)
	// WidenColumn returns the column type change followed by a structural
	// describe of the table.
	WidenColumn(t Target) ([]Statement, error)
}

var ErrUnknownDialect = errors.New("no statement builder for dialect")

// For returns the Builder matching a registered adapter name.
func For(dialect string) (Builder, error) {
	switch dialect {
	case "mysql":
		return mysqlBuilder{}, nil
	case "postgres":
		return postgresBuilder{}, nil
	case "sqlite":
		return sqliteBuilder{}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDialect, dialect)
}

func (t Target) columnType() string {
	if t.ColumnType == "" {
		return "TEXT"
	}
	return t.ColumnType
}

func (t Target) validate(needConstraint, needColumn bool) error {
	checks := []struct {
		what string
		name string
		need bool
	}{
		{"schema", t.Schema, true},
		{"table", t.Table, true},
		{"constraint", t.Constraint, needConstraint},
		{"column", t.Column, needColumn},
	}
	for _, c := range checks {
		if !c.need {
			continue
		}
		if c.name == "" {
			return fmt.Errorf("target %s is required", c.what)
		}
		if !validIdent(c.name) {
			return fmt.Errorf("invalid %s identifier: %q", c.what, c.name)
		}
	}
	if needColumn && !validColumnType(t.columnType()) {
		return fmt.Errorf("invalid column type: %q", t.ColumnType)
	}
	return nil
}

// validColumnType accepts simple type names with an optional length, e.g.
// TEXT, MEDIUMTEXT, VARCHAR(500).
func validColumnType(s string) bool {
	return reColumnType.MatchString(s)
}

var reColumnType = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*(\([0-9]+\))?$`)

// validIdent accepts unquoted SQL identifiers only. Anything else would have
// to be interpolated into DDL text, so it is rejected outright.
func validIdent(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '_' || r == '$':
		default:
			return false
		}
	}
	return true
}
