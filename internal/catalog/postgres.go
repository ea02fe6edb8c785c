package catalog

import "fmt"

// postgresBuilder emits PostgreSQL-dialect statements. The same catalog
// metadata lives in information_schema, but referenced tables come from
// constraint_column_usage rather than KEY_COLUMN_USAGE columns.
type postgresBuilder struct{}

const pgKeyColumnUsageSQL = `
SELECT
	tc.constraint_name,
	tc.constraint_type,
	tc.table_name,
	kcu.column_name,
	ccu.table_name  AS referenced_table_name,
	ccu.column_name AS referenced_column_name
FROM information_schema.table_constraints tc
JOIN information_schema.key_column_usage kcu
	ON  kcu.constraint_schema = tc.constraint_schema
	AND kcu.constraint_name   = tc.constraint_name
LEFT JOIN information_schema.constraint_column_usage ccu
	ON  ccu.constraint_schema = tc.constraint_schema
	AND ccu.constraint_name   = tc.constraint_name
	AND tc.constraint_type    = 'FOREIGN KEY'
WHERE tc.table_name        = $1
  AND tc.constraint_schema = $2
ORDER BY tc.constraint_name, kcu.ordinal_position`

const pgReferentialSQL = `
SELECT
	rc.constraint_name,
	kcu.table_name,
	kcu.column_name,
	ccu.table_name  AS referenced_table_name,
	ccu.column_name AS referenced_column_name,
	rc.update_rule,
	rc.delete_rule
FROM information_schema.referential_constraints rc
JOIN information_schema.key_column_usage kcu
	ON  kcu.constraint_schema = rc.constraint_schema
	AND kcu.constraint_name   = rc.constraint_name
LEFT JOIN information_schema.constraint_column_usage ccu
	ON  ccu.constraint_schema = rc.constraint_schema
	AND ccu.constraint_name   = rc.constraint_name
WHERE kcu.table_name        = $1
  AND kcu.constraint_schema = $2
ORDER BY rc.constraint_name, kcu.ordinal_position`

const pgDescribeSQL = `
SELECT
	column_name,
	data_type,
	character_maximum_length,
	is_nullable,
	column_default
FROM information_schema.columns
WHERE table_name   = $1
  AND table_schema = $2
ORDER BY ordinal_position`

func (postgresBuilder) InspectConstraints(t Target) ([]Statement, error) {
	if err := t.validate(false, false); err != nil {
		return nil, err
	}
	return []Statement{
		{
			Name: "inspect-key-column-usage",
			SQL:  pgKeyColumnUsageSQL,
			Args: []any{t.Table, t.Schema},
			Kind: Diagnostic,
		},
		{
			Name: "inspect-referential-constraints",
			SQL:  pgReferentialSQL,
			Args: []any{t.Table, t.Schema},
			Kind: Diagnostic,
		},
	}, nil
}

func (postgresBuilder) DropForeignKey(t Target) ([]Statement, error) {
	if err := t.validate(true, false); err != nil {
		return nil, err
	}
	return []Statement{
		{
			Name: "drop-foreign-key",
			SQL: fmt.Sprintf("ALTER TABLE %s.%s DROP CONSTRAINT %s",
				quotePg(t.Schema), quotePg(t.Table), quotePg(t.Constraint)),
			Kind: Mutation,
		},
		{
			Name: "verify-constraint-removed",
			SQL:  pgKeyColumnUsageSQL,
			Args: []any{t.Table, t.Schema},
			Kind: Diagnostic,
		},
	}, nil
}

func (postgresBuilder) WidenColumn(t Target) ([]Statement, error) {
	if err := t.validate(false, true); err != nil {
		return nil, err
	}
	return []Statement{
		{
			Name: "widen-column",
			SQL: fmt.Sprintf("ALTER TABLE %s.%s ALTER COLUMN %s TYPE %s",
				quotePg(t.Schema), quotePg(t.Table), quotePg(t.Column), t.columnType()),
			Kind: Mutation,
		},
		{
			Name: "describe-table",
			SQL:  pgDescribeSQL,
			Args: []any{t.Table, t.Schema},
			Kind: Diagnostic,
		},
	}, nil
}

func quotePg(ident string) string {
	return `"` + ident + `"`
}
