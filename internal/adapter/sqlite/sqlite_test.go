package sqlite

import (
	"context"
	"testing"

	"github.com/sadopc/schemapatch/internal/adapter"
)

func connect(t *testing.T) adapter.Connection {
	t.Helper()

	a := &sqliteAdapter{}
	conn, err := a.Connect(context.Background(), ":memory:")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestSQLiteAdapter_Registration(t *testing.T) {
	a, ok := adapter.Registry["sqlite"]
	if !ok {
		t.Fatal("sqlite adapter not found in registry")
	}
	if a.Name() != "sqlite" {
		t.Errorf("registered adapter Name() = %q, want %q", a.Name(), "sqlite")
	}
}

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"sqlite:///tmp/data.db", "/tmp/data.db"},
		{"file:/tmp/data.db", "/tmp/data.db"},
		{"/tmp/data.db", "/tmp/data.db"},
		{":memory:", ":memory:"},
	}

	for _, tt := range tests {
		if got := normalizeDSN(tt.input); got != tt.want {
			t.Errorf("normalizeDSN(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestExecuteQueryAndExec(t *testing.T) {
	conn := connect(t)
	ctx := context.Background()

	res, err := conn.Execute(ctx, "CREATE TABLE users (id INTEGER PRIMARY KEY, profile_picture_url TEXT)")
	if err != nil {
		t.Fatalf("create table: %v", err)
	}
	if res.IsSelect {
		t.Error("CREATE TABLE reported as a result-set statement")
	}

	if _, err := conn.Execute(ctx, "INSERT INTO users (id, profile_picture_url) VALUES (?, ?)", 1, "http://example.com/a.png"); err != nil {
		t.Fatalf("insert: %v", err)
	}

	qr, err := conn.Execute(ctx, "SELECT id, profile_picture_url FROM users")
	if err != nil {
		t.Fatalf("select: %v", err)
	}
	if !qr.IsSelect {
		t.Error("SELECT not reported as a result-set statement")
	}
	if len(qr.Rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(qr.Rows))
	}
	if qr.Rows[0][1] != "http://example.com/a.png" {
		t.Errorf("row = %v", qr.Rows[0])
	}
	if len(qr.Columns) != 2 || qr.Columns[0].Name != "id" {
		t.Errorf("columns = %v", qr.Columns)
	}
}

func TestExecuteNullRendering(t *testing.T) {
	conn := connect(t)
	ctx := context.Background()

	if _, err := conn.Execute(ctx, "CREATE TABLE t (v TEXT)"); err != nil {
		t.Fatal(err)
	}
	if _, err := conn.Execute(ctx, "INSERT INTO t (v) VALUES (NULL)"); err != nil {
		t.Fatal(err)
	}

	qr, err := conn.Execute(ctx, "SELECT v FROM t")
	if err != nil {
		t.Fatal(err)
	}
	if qr.Rows[0][0] != "NULL" {
		t.Errorf("null rendered as %q, want %q", qr.Rows[0][0], "NULL")
	}
}

func TestPragmaReturnsRows(t *testing.T) {
	conn := connect(t)
	ctx := context.Background()

	if _, err := conn.Execute(ctx, "CREATE TABLE parent (id INTEGER PRIMARY KEY)"); err != nil {
		t.Fatal(err)
	}
	if _, err := conn.Execute(ctx, "CREATE TABLE child (id INTEGER PRIMARY KEY, pid INTEGER REFERENCES parent(id))"); err != nil {
		t.Fatal(err)
	}

	qr, err := conn.Execute(ctx, `PRAGMA foreign_key_list("child")`)
	if err != nil {
		t.Fatal(err)
	}
	if !qr.IsSelect {
		t.Error("PRAGMA not routed as a result-set statement")
	}
	if len(qr.Rows) != 1 {
		t.Fatalf("foreign_key_list rows = %d, want 1", len(qr.Rows))
	}
	// Columns: id, seq, table, from, to, on_update, on_delete, match
	if qr.Rows[0][2] != "parent" || qr.Rows[0][3] != "pid" {
		t.Errorf("fk row = %v", qr.Rows[0])
	}
}
