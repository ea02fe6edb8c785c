// Package schema holds typed views of the catalog metadata the inspection
// queries return, decoded from the stringified row sets the adapters produce.
// Decoding matches columns by name, so the same functions serve the MySQL
// and PostgreSQL result shapes.
package schema

import "strings"

// Column represents a table column as reported by a structural describe.
type Column struct {
	Name     string
	Type     string
	Nullable bool
	Default  string
	IsPK     bool
}

// ForeignKey represents a foreign key constraint, possibly spanning several
// columns.
type ForeignKey struct {
	Name       string
	Columns    []string
	RefTable   string
	RefColumns []string
}

// ConstraintDescriptor mirrors one row of the database's constraint catalog
// views. It is purely read; nothing in this tool persists it.
type ConstraintDescriptor struct {
	ConstraintName string
	ConstraintType string
	TableName      string
	ColumnName     string

	// Set only for referential constraints.
	ReferencedTableName  string
	ReferencedColumnName string
	UpdateRule           string
	DeleteRule           string
}

// IsForeignKey reports whether the descriptor names a referential constraint.
func (d ConstraintDescriptor) IsForeignKey() bool {
	return strings.EqualFold(d.ConstraintType, "FOREIGN KEY") || d.ReferencedTableName != ""
}

// ConstraintsFromRows decodes constraint inspection rows into descriptors.
// Headers match case-insensitively; cells rendered as "NULL" decode to empty
// strings. A row set without a constraint_name column decodes to nothing.
func ConstraintsFromRows(headers []string, rows [][]string) []ConstraintDescriptor {
	idx := headerIndex(headers)
	if lookup(idx, "constraint_name") < 0 {
		return nil
	}

	descs := make([]ConstraintDescriptor, 0, len(rows))
	for _, row := range rows {
		descs = append(descs, ConstraintDescriptor{
			ConstraintName:       cell(row, lookup(idx, "constraint_name")),
			ConstraintType:       cell(row, lookup(idx, "constraint_type")),
			TableName:            cell(row, lookup(idx, "table_name")),
			ColumnName:           cell(row, lookup(idx, "column_name")),
			ReferencedTableName:  cell(row, lookup(idx, "referenced_table_name")),
			ReferencedColumnName: cell(row, lookup(idx, "referenced_column_name")),
			UpdateRule:           cell(row, lookup(idx, "update_rule")),
			DeleteRule:           cell(row, lookup(idx, "delete_rule")),
		})
	}
	return descs
}

// ForeignKeys groups referential descriptors by constraint name, preserving
// the order constraints first appear and the per-constraint column order.
func ForeignKeys(descs []ConstraintDescriptor) []ForeignKey {
	var fks []ForeignKey
	byName := map[string]int{}

	for _, d := range descs {
		if !d.IsForeignKey() {
			continue
		}
		i, ok := byName[d.ConstraintName]
		if !ok {
			i = len(fks)
			byName[d.ConstraintName] = i
			fks = append(fks, ForeignKey{
				Name:     d.ConstraintName,
				RefTable: d.ReferencedTableName,
			})
		}
		fks[i].Columns = append(fks[i].Columns, d.ColumnName)
		fks[i].RefColumns = append(fks[i].RefColumns, d.ReferencedColumnName)
	}
	return fks
}

// ColumnsFromRows decodes a structural describe into columns. It accepts the
// MySQL DESCRIBE shape (Field/Type/Null/Key/Default), the information_schema
// shape (column_name/data_type/is_nullable/column_default), and the SQLite
// table_info PRAGMA shape (name/type/dflt_value/pk).
func ColumnsFromRows(headers []string, rows [][]string) []Column {
	idx := headerIndex(headers)
	nameIdx := lookup(idx, "field", "column_name", "name")
	if nameIdx < 0 {
		return nil
	}
	typeIdx := lookup(idx, "type", "data_type")
	nullIdx := lookup(idx, "null", "is_nullable")
	defIdx := lookup(idx, "default", "column_default", "dflt_value")
	keyIdx := lookup(idx, "key", "pk")

	cols := make([]Column, 0, len(rows))
	for _, row := range rows {
		c := Column{
			Name:     cell(row, nameIdx),
			Type:     cell(row, typeIdx),
			Default:  cell(row, defIdx),
			Nullable: strings.EqualFold(cell(row, nullIdx), "YES"),
		}
		switch cell(row, keyIdx) {
		case "PRI", "1":
			c.IsPK = true
		}
		cols = append(cols, c)
	}
	return cols
}

func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		idx[strings.ToLower(h)] = i
	}
	return idx
}

// lookup returns the index of the first matching header name, or -1.
func lookup(idx map[string]int, names ...string) int {
	for _, n := range names {
		if i, ok := idx[n]; ok {
			return i
		}
	}
	return -1
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	if row[i] == "NULL" {
		return ""
	}
	return row[i]
}
