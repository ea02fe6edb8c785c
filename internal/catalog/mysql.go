package catalog

import "fmt"

// mysqlBuilder emits MySQL-dialect statements against information_schema.
type mysqlBuilder struct{}

const mysqlKeyColumnUsageSQL = `
SELECT
	kcu.CONSTRAINT_NAME,
	tc.CONSTRAINT_TYPE,
	kcu.TABLE_NAME,
	kcu.COLUMN_NAME,
	kcu.REFERENCED_TABLE_NAME,
	kcu.REFERENCED_COLUMN_NAME
FROM information_schema.KEY_COLUMN_USAGE kcu
JOIN information_schema.TABLE_CONSTRAINTS tc
	ON  tc.CONSTRAINT_SCHEMA = kcu.CONSTRAINT_SCHEMA
	AND tc.CONSTRAINT_NAME   = kcu.CONSTRAINT_NAME
	AND tc.TABLE_NAME        = kcu.TABLE_NAME
WHERE kcu.TABLE_NAME        = ?
  AND kcu.CONSTRAINT_SCHEMA = ?
ORDER BY kcu.CONSTRAINT_NAME, kcu.ORDINAL_POSITION`

const mysqlReferentialSQL = `
SELECT
	kcu.CONSTRAINT_NAME,
	kcu.TABLE_NAME,
	kcu.COLUMN_NAME,
	kcu.REFERENCED_TABLE_NAME,
	kcu.REFERENCED_COLUMN_NAME,
	rc.UPDATE_RULE,
	rc.DELETE_RULE
FROM information_schema.REFERENTIAL_CONSTRAINTS rc
JOIN information_schema.KEY_COLUMN_USAGE kcu
	ON  kcu.CONSTRAINT_SCHEMA = rc.CONSTRAINT_SCHEMA
	AND kcu.CONSTRAINT_NAME   = rc.CONSTRAINT_NAME
WHERE kcu.TABLE_NAME        = ?
  AND kcu.CONSTRAINT_SCHEMA = ?
ORDER BY kcu.CONSTRAINT_NAME, kcu.ORDINAL_POSITION`

func (mysqlBuilder) InspectConstraints(t Target) ([]Statement, error) {
	if err := t.validate(false, false); err != nil {
		return nil, err
	}
	return []Statement{
		{
			Name: "inspect-key-column-usage",
			SQL:  mysqlKeyColumnUsageSQL,
			Args: []any{t.Table, t.Schema},
			Kind: Diagnostic,
		},
		{
			Name: "inspect-referential-constraints",
			SQL:  mysqlReferentialSQL,
			Args: []any{t.Table, t.Schema},
			Kind: Diagnostic,
		},
	}, nil
}

func (b mysqlBuilder) DropForeignKey(t Target) ([]Statement, error) {
	if err := t.validate(true, false); err != nil {
		return nil, err
	}
	return []Statement{
		{
			Name: "drop-foreign-key",
			SQL: fmt.Sprintf("ALTER TABLE %s.%s DROP FOREIGN KEY %s",
				quoteMySQL(t.Schema), quoteMySQL(t.Table), quoteMySQL(t.Constraint)),
			Kind: Mutation,
		},
		{
			Name: "verify-constraint-removed",
			SQL:  mysqlKeyColumnUsageSQL,
			Args: []any{t.Table, t.Schema},
			Kind: Diagnostic,
		},
	}, nil
}

func (b mysqlBuilder) WidenColumn(t Target) ([]Statement, error) {
	if err := t.validate(false, true); err != nil {
		return nil, err
	}
	return []Statement{
		{
			Name: "widen-column",
			SQL: fmt.Sprintf("ALTER TABLE %s.%s MODIFY COLUMN %s %s",
				quoteMySQL(t.Schema), quoteMySQL(t.Table), quoteMySQL(t.Column), t.columnType()),
			Kind: Mutation,
		},
		{
			// DESCRIBE does not take placeholders, hence the quoting.
			Name: "describe-table",
			SQL:  fmt.Sprintf("DESCRIBE %s.%s", quoteMySQL(t.Schema), quoteMySQL(t.Table)),
			Kind: Diagnostic,
		},
	}, nil
}

func quoteMySQL(ident string) string {
	return "`" + ident + "`"
}
