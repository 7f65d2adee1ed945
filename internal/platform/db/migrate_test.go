package db

import (
	"os"
	"path/filepath"
	"testing"
)

func writeMigration(t *testing.T, dir, name, sql string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(sql), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestMigratorLoad_SortsByVersion(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "002_prescriptions.sql", "CREATE TABLE b ();")
	writeMigration(t, dir, "001_patients.sql", "CREATE TABLE a ();")
	writeMigration(t, dir, "010_register.sql", "CREATE TABLE c ();")

	m := NewMigrator(nil, dir)
	migrations, err := m.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(migrations) != 3 {
		t.Fatalf("expected 3 migrations, got %d", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[1].Version != 2 || migrations[2].Version != 10 {
		t.Errorf("unexpected order: %v %v %v", migrations[0].Version, migrations[1].Version, migrations[2].Version)
	}
	if migrations[0].Name != "patients" {
		t.Errorf("expected name 'patients', got %q", migrations[0].Name)
	}
}

func TestMigratorLoad_IgnoresNonSQL(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "001_patients.sql", "CREATE TABLE a ();")
	writeMigration(t, dir, "README.md", "notes")

	m := NewMigrator(nil, dir)
	migrations, err := m.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(migrations) != 1 {
		t.Fatalf("expected 1 migration, got %d", len(migrations))
	}
}

func TestMigratorLoad_BadVersionPrefix(t *testing.T) {
	dir := t.TempDir()
	writeMigration(t, dir, "abc_patients.sql", "CREATE TABLE a ();")

	m := NewMigrator(nil, dir)
	if _, err := m.Load(); err == nil {
		t.Error("expected error for non-numeric version prefix")
	}
}
