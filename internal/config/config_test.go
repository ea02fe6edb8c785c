package config

import (
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Adapter != "mysql" {
		t.Errorf("Adapter = %q, want %q", cfg.Adapter, "mysql")
	}
	if !cfg.Runner.StopOnMutationError {
		t.Error("StopOnMutationError should default to true")
	}
	if cfg.Runner.DryRun {
		t.Error("DryRun should default to false")
	}
	if !cfg.Audit.Enabled {
		t.Error("Audit should be enabled by default")
	}
	if !cfg.History.Enabled {
		t.Error("History should be enabled by default")
	}
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Adapter != "mysql" {
		t.Errorf("Adapter = %q, want default", cfg.Adapter)
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.yaml")

	cfg := DefaultConfig()
	cfg.Adapter = "postgres"
	cfg.Runner.StopOnMutationError = false
	cfg.Audit.Path = "/var/log/schemapatch/audit.jsonl"
	cfg.Connections = []SavedConnection{
		{Name: "prod", Adapter: "mysql", Host: "db.internal", Port: 3306, User: "ops", Database: "new_bbc_db"},
	}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Adapter != "postgres" {
		t.Errorf("Adapter = %q, want %q", loaded.Adapter, "postgres")
	}
	if loaded.Runner.StopOnMutationError {
		t.Error("StopOnMutationError should round-trip as false")
	}
	if loaded.Audit.Path != cfg.Audit.Path {
		t.Errorf("Audit.Path = %q, want %q", loaded.Audit.Path, cfg.Audit.Path)
	}
	if len(loaded.Connections) != 1 || loaded.Connections[0].Name != "prod" {
		t.Errorf("Connections = %v", loaded.Connections)
	}
}

func TestConnectionLookup(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Connections = []SavedConnection{
		{Name: "local", Adapter: "sqlite", File: "local.db"},
		{Name: "prod", Adapter: "mysql", Host: "db.internal"},
	}

	sc, ok := cfg.Connection("prod")
	if !ok {
		t.Fatal("Connection(prod) not found")
	}
	if sc.Host != "db.internal" {
		t.Errorf("Host = %q", sc.Host)
	}

	if _, ok := cfg.Connection("staging"); ok {
		t.Error("Connection(staging) should not be found")
	}
}

func TestBuildDSN(t *testing.T) {
	tests := []struct {
		name string
		sc   SavedConnection
		want string
	}{
		{
			name: "explicit dsn wins",
			sc:   SavedConnection{Adapter: "mysql", DSN: "mysql://u@h/db", Host: "ignored"},
			want: "mysql://u@h/db",
		},
		{
			name: "sqlite file",
			sc:   SavedConnection{Adapter: "sqlite", File: "/tmp/data.db"},
			want: "/tmp/data.db",
		},
		{
			name: "mysql full",
			sc:   SavedConnection{Adapter: "mysql", User: "root", Password: "secret", Host: "db", Port: 3306, Database: "new_bbc_db"},
			want: "mysql://root:secret@db:3306/new_bbc_db",
		},
		{
			name: "postgres defaults host",
			sc:   SavedConnection{Adapter: "postgres", User: "app", Database: "appdb"},
			want: "postgres://app@localhost/appdb",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sc.BuildDSN(); got != tt.want {
				t.Errorf("BuildDSN() = %q, want %q", got, tt.want)
			}
		})
	}
}
