package schema

import (
	"reflect"
	"testing"
)

func TestConstraintsFromRowsMySQLShape(t *testing.T) {
	headers := []string{
		"CONSTRAINT_NAME", "CONSTRAINT_TYPE", "TABLE_NAME", "COLUMN_NAME",
		"REFERENCED_TABLE_NAME", "REFERENCED_COLUMN_NAME",
	}
	rows := [][]string{
		{"PRIMARY", "PRIMARY KEY", "section_groups", "id", "NULL", "NULL"},
		{"section_groups_ibfk_2", "FOREIGN KEY", "section_groups", "section_id", "sections", "id"},
	}

	descs := ConstraintsFromRows(headers, rows)
	if len(descs) != 2 {
		t.Fatalf("got %d descriptors, want 2", len(descs))
	}

	pk := descs[0]
	if pk.ConstraintName != "PRIMARY" || pk.ConstraintType != "PRIMARY KEY" {
		t.Errorf("primary key descriptor = %+v", pk)
	}
	if pk.ReferencedTableName != "" {
		t.Errorf("NULL cell should decode to empty, got %q", pk.ReferencedTableName)
	}
	if pk.IsForeignKey() {
		t.Error("primary key classified as foreign key")
	}

	fk := descs[1]
	if !fk.IsForeignKey() {
		t.Error("referential constraint not classified as foreign key")
	}
	if fk.ReferencedTableName != "sections" || fk.ReferencedColumnName != "id" {
		t.Errorf("fk descriptor = %+v", fk)
	}
}

func TestConstraintsFromRowsPostgresShape(t *testing.T) {
	headers := []string{
		"constraint_name", "table_name", "column_name",
		"referenced_table_name", "referenced_column_name", "update_rule", "delete_rule",
	}
	rows := [][]string{
		{"fk1", "section_groups", "section_id", "sections", "id", "NO ACTION", "CASCADE"},
	}

	descs := ConstraintsFromRows(headers, rows)
	if len(descs) != 1 {
		t.Fatalf("got %d descriptors, want 1", len(descs))
	}
	d := descs[0]
	if !d.IsForeignKey() {
		t.Error("descriptor with referenced table not classified as foreign key")
	}
	if d.UpdateRule != "NO ACTION" || d.DeleteRule != "CASCADE" {
		t.Errorf("rules = %q/%q", d.UpdateRule, d.DeleteRule)
	}
}

func TestConstraintsFromRowsUnknownShape(t *testing.T) {
	// SQLite PRAGMA foreign_key_list has no constraint_name column.
	headers := []string{"id", "seq", "table", "from", "to", "on_update", "on_delete", "match"}
	rows := [][]string{{"0", "0", "sections", "section_id", "id", "NO ACTION", "NO ACTION", "NONE"}}

	if descs := ConstraintsFromRows(headers, rows); descs != nil {
		t.Errorf("unrecognised row set decoded to %v, want nil", descs)
	}
}

func TestForeignKeysGroupsMultiColumnConstraints(t *testing.T) {
	descs := []ConstraintDescriptor{
		{ConstraintName: "PRIMARY", ConstraintType: "PRIMARY KEY", ColumnName: "id"},
		{ConstraintName: "fk_a", ConstraintType: "FOREIGN KEY", ColumnName: "tenant_id", ReferencedTableName: "tenants", ReferencedColumnName: "id"},
		{ConstraintName: "fk_a", ConstraintType: "FOREIGN KEY", ColumnName: "region", ReferencedTableName: "tenants", ReferencedColumnName: "region"},
		{ConstraintName: "fk_b", ConstraintType: "FOREIGN KEY", ColumnName: "owner_id", ReferencedTableName: "users", ReferencedColumnName: "id"},
	}

	fks := ForeignKeys(descs)
	if len(fks) != 2 {
		t.Fatalf("got %d foreign keys, want 2", len(fks))
	}

	want := ForeignKey{
		Name:       "fk_a",
		Columns:    []string{"tenant_id", "region"},
		RefTable:   "tenants",
		RefColumns: []string{"id", "region"},
	}
	if !reflect.DeepEqual(fks[0], want) {
		t.Errorf("fks[0] = %+v, want %+v", fks[0], want)
	}
	if fks[1].Name != "fk_b" {
		t.Errorf("fks[1] = %+v", fks[1])
	}
}

func TestColumnsFromRows(t *testing.T) {
	tests := []struct {
		name    string
		headers []string
		rows    [][]string
		want    []Column
	}{
		{
			name:    "mysql describe",
			headers: []string{"Field", "Type", "Null", "Key", "Default", "Extra"},
			rows: [][]string{
				{"id", "int", "NO", "PRI", "NULL", "auto_increment"},
				{"profile_picture_url", "text", "YES", "", "NULL", ""},
			},
			want: []Column{
				{Name: "id", Type: "int", IsPK: true},
				{Name: "profile_picture_url", Type: "text", Nullable: true},
			},
		},
		{
			name:    "information_schema columns",
			headers: []string{"column_name", "data_type", "character_maximum_length", "is_nullable", "column_default"},
			rows: [][]string{
				{"profile_picture_url", "text", "NULL", "YES", "NULL"},
			},
			want: []Column{
				{Name: "profile_picture_url", Type: "text", Nullable: true},
			},
		},
		{
			name:    "sqlite table_info",
			headers: []string{"cid", "name", "type", "notnull", "dflt_value", "pk"},
			rows: [][]string{
				{"0", "id", "INTEGER", "0", "NULL", "1"},
			},
			want: []Column{
				{Name: "id", Type: "INTEGER", IsPK: true},
			},
		},
		{
			name:    "unrecognised shape",
			headers: []string{"a", "b"},
			rows:    [][]string{{"1", "2"}},
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ColumnsFromRows(tt.headers, tt.rows)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ColumnsFromRows() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
