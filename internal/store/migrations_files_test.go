package store

import (
	"io/fs"
	"regexp"
	"strings"
	"testing"
)

func TestEmbeddedMigrationsAreVersionedWithUpAndDown(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("read embedded migrations: %v", err)
	}
	if len(entries) == 0 {
		t.Fatal("no migrations embedded")
	}

	pattern := regexp.MustCompile(`^(\d{5})_[a-z_]+\.sql$`)
	seen := map[string]bool{}
	for _, entry := range entries {
		match := pattern.FindStringSubmatch(entry.Name())
		if match == nil {
			t.Fatalf("unexpected migration file name %q", entry.Name())
		}
		if seen[match[1]] {
			t.Fatalf("duplicate migration version %s", match[1])
		}
		seen[match[1]] = true

		body, err := fs.ReadFile(migrationsFS, "migrations/"+entry.Name())
		if err != nil {
			t.Fatalf("read %s: %v", entry.Name(), err)
		}
		text := string(body)
		up := strings.Index(text, "-- +goose Up")
		down := strings.Index(text, "-- +goose Down")
		if up < 0 || down < 0 || down < up {
			t.Fatalf("%s must have an Up section followed by a Down section", entry.Name())
		}
	}
}

func TestHistoriesCascadeOnUserDelete(t *testing.T) {
	body, err := fs.ReadFile(migrationsFS, "migrations/00002_create_histories.sql")
	if err != nil {
		t.Fatalf("read histories migration: %v", err)
	}
	if !strings.Contains(string(body), "REFERENCES users(id) ON DELETE CASCADE") {
		t.Fatal("histories must cascade when a user is deleted")
	}
}
