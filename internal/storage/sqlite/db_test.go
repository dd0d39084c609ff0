package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"testing/fstest"
)

const latestVersion = 2

func TestOpen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "progress.db")
	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close()

	var journalMode string
	if err := db.QueryRow("PRAGMA journal_mode").Scan(&journalMode); err != nil {
		t.Fatalf("query journal_mode: %v", err)
	}
	if journalMode != "wal" {
		t.Errorf("journal_mode = %q; want wal", journalMode)
	}
}

func TestMigrate(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	version, err := db.Version(ctx)
	if err != nil {
		t.Fatalf("Version() error = %v", err)
	}
	if version != latestVersion {
		t.Errorf("Version() = %d; want %d", version, latestVersion)
	}

	var name string
	if err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name='kv'").Scan(&name); err != nil {
		t.Errorf("table kv not found: %v", err)
	}
	if err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='index' AND name='idx_kv_updated_at'").Scan(&name); err != nil {
		t.Errorf("index idx_kv_updated_at not found: %v", err)
	}
	if err := db.QueryRow("SELECT name FROM schema_migrations WHERE version = 1").Scan(&name); err != nil || name != "001_kv_store.sql" {
		t.Errorf("recorded migration = %q, %v", name, err)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}

	var rows int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&rows); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if rows != latestVersion {
		t.Errorf("schema_migrations rows = %d; want %d", rows, latestVersion)
	}
}

func TestLoadMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"010_later.sql":   {Data: []byte("SELECT 10;")},
		"002_second.sql":  {Data: []byte("SELECT 2;")},
		"README.sql":      {Data: []byte("-- not a migration")},
		"001_first.sql":   {Data: []byte("SELECT 1;")},
		"notes/extra.txt": {Data: []byte("ignored")},
	}

	got, err := loadMigrations(fsys)
	if err != nil {
		t.Fatalf("loadMigrations() error = %v", err)
	}
	want := []int{1, 2, 10}
	if len(got) != len(want) {
		t.Fatalf("len = %d, want %d (%+v)", len(got), len(want), got)
	}
	for i, m := range got {
		if m.version != want[i] {
			t.Errorf("migration %d version = %d, want %d", i, m.version, want[i])
		}
	}
	if got[0].body != "SELECT 1;" {
		t.Errorf("body = %q", got[0].body)
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		name    string
		want    int
		wantErr bool
	}{
		{"001_kv_store.sql", 1, false},
		{"002_kv_updated_at_index.sql", 2, false},
		{"010_something.sql", 10, false},
		{"000_zero.sql", 0, true},
		{"v1_bad.sql", 0, true},
		{"notaversion.sql", 0, true},
	}
	for _, tt := range tests {
		got, err := parseVersion(tt.name)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseVersion(%q) error = %v, wantErr %v", tt.name, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("parseVersion(%q) = %d, want %d", tt.name, got, tt.want)
		}
	}
}

// openTestDB opens and migrates a database under t.TempDir()
func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := db.Migrate(context.Background()); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}
