package database

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	coreconfig "github.com/m3rciful/onboardbot/core/config"
)

func TestAppliedBetween(t *testing.T) {
	files := []string{"000001_sessions.up.sql", "000002_index.up.sql", "000003_more.up.sql"}
	got := appliedBetween(files, 1, 3)
	want := []string{"000002_index.up.sql", "000003_more.up.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("applied = %v, want %v", got, want)
	}
	if got := appliedBetween(files, 3, 3); got != nil {
		t.Fatalf("expected nothing applied, got %v", got)
	}
}

func TestListMigrationFilesOnlyUp(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"000002_b.up.sql", "000001_a.up.sql", "000001_a.down.sql", "README.md"} {
		if err := os.WriteFile(filepath.Join(dir, name), nil, 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	got := listMigrationFiles(dir)
	want := []string{"000001_a.up.sql", "000002_b.up.sql"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
}

func TestURLEscapesCredentials(t *testing.T) {
	u := URL(coreconfig.DatabaseConfig{
		User: "bot", Password: "p@ss word", Host: "db", Port: "5432", Name: "sessions", SSLMode: "disable",
	})
	if !strings.HasPrefix(u, "postgres://bot:p%40ss%20word@db:5432/sessions") {
		t.Fatalf("unexpected url %s", u)
	}
	if !strings.HasSuffix(u, "sslmode=disable") {
		t.Fatalf("sslmode missing in %s", u)
	}
}
